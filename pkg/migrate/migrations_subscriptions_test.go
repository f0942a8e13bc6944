package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jes-wd/freya-sync/pkg/migrate"
)

func TestSubscriptionsMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_subscriptions.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no subscriptions migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS subscriptions",
		"CREATE TABLE IF NOT EXISTS subscription_items",
		"FOREIGN KEY (subscription_id) REFERENCES subscriptions(id) ON DELETE CASCADE",
		"CHECK (quantity > 0)",
		"DROP TABLE IF EXISTS subscription_items",
	}
	for _, check := range checks {
		if !strings.Contains(content, check) {
			t.Fatalf("migration missing %q", check)
		}
	}
}

func TestProcessedSubscriptionsMigrationIsUnique(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_processed_subscriptions.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no processed subscriptions migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	if !strings.Contains(string(data), "CREATE UNIQUE INDEX IF NOT EXISTS idx_processed_user_sub") {
		t.Fatalf("expected unique index on user/subscription pair")
	}
}

func TestMigrationDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations dir failed validation: %v", err)
	}
}
