package syncmeta

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jes-wd/freya-sync/pkg/db/models"
	"github.com/jes-wd/freya-sync/pkg/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Order{}, &models.OrderMeta{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Logger: logger.New(logger.Options{ServiceName: "syncmeta-test", Output: io.Discard}),
		DB:     conn,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func seedOrder(t *testing.T, conn *gorm.DB, id int64, paidAt time.Time, meta map[string]string) {
	t.Helper()
	order := models.Order{ID: id, UserID: 1, Status: "completed", PaidAt: &paidAt}
	if err := conn.Create(&order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	for key, value := range meta {
		row := models.OrderMeta{OrderID: id, Key: key, Value: value}
		if err := conn.Create(&row).Error; err != nil {
			t.Fatalf("seed order meta: %v", err)
		}
	}
}

func TestCleanupDateBacksUpAndDeletes(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)
	day := time.Date(2025, 11, 8, 0, 0, 0, 0, time.UTC)

	seedOrder(t, conn, 1, day.Add(10*time.Hour), map[string]string{
		SyncMetaKey: "2025-11-08T09:00:00Z",
		"other_key": "keep me",
	})
	seedOrder(t, conn, 2, day.Add(15*time.Hour), map[string]string{})
	// Paid the day after, outside the window.
	seedOrder(t, conn, 3, day.Add(26*time.Hour), map[string]string{SyncMetaKey: "x"})

	report, err := svc.CleanupDate(context.Background(), day)
	if err != nil {
		t.Fatalf("CleanupDate: %v", err)
	}
	if report.Processed != 2 || report.Deleted != 1 || report.Skipped != 1 {
		t.Fatalf("unexpected report %+v", report)
	}

	var meta []models.OrderMeta
	if err := conn.Where("order_id = ?", 1).Order("meta_key ASC").Find(&meta).Error; err != nil {
		t.Fatalf("load meta: %v", err)
	}
	if len(meta) != 2 {
		t.Fatalf("expected backup plus untouched key, got %d rows", len(meta))
	}
	if meta[0].Key != "omnisend_last_sync_backup" || meta[0].Value != "2025-11-08T09:00:00Z" {
		t.Fatalf("unexpected backup row %+v", meta[0])
	}
	if meta[1].Key != "other_key" {
		t.Fatalf("unrelated meta must survive, got %+v", meta[1])
	}

	var outside int64
	if err := conn.Model(&models.OrderMeta{}).Where("order_id = ? AND meta_key = ?", 3, SyncMetaKey).Count(&outside).Error; err != nil {
		t.Fatalf("count meta: %v", err)
	}
	if outside != 1 {
		t.Fatalf("orders outside the window must be untouched")
	}
}

func TestCleanupDateNoOrders(t *testing.T) {
	conn := newTestDB(t)
	svc := newTestService(t, conn)

	report, err := svc.CleanupDate(context.Background(), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("CleanupDate: %v", err)
	}
	if report.Processed != 0 || report.Deleted != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
}
