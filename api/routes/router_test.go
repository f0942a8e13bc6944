package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jes-wd/freya-sync/pkg/config"
	"github.com/jes-wd/freya-sync/pkg/enums"
	"github.com/jes-wd/freya-sync/pkg/logger"
	"github.com/jes-wd/freya-sync/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSyncService struct {
	forms    int
	partials int
	statuses int
}

func (s *stubSyncService) OnFormSubmitted(context.Context, int64, map[string]string) (map[string]string, error) {
	s.forms++
	return map[string]string{"email": "jane@example.com"}, nil
}

func (s *stubSyncService) OnSubscriptionStatusChanged(context.Context, int64, enums.SubscriptionStatus, enums.SubscriptionStatus) error {
	s.statuses++
	return nil
}

func (s *stubSyncService) OnPartialEntrySaved(context.Context, int64, map[string]string) error {
	s.partials++
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Env:  "test",
			Port: "8080",
		},
		Webhook: config.WebhookConfig{
			Token: "sekret",
		},
	}
}

func testRouter(service *stubSyncService) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "routes-test", Output: io.Discard})
	return NewRouter(
		testConfig(),
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		service,
	)
}

func TestHealthLive(t *testing.T) {
	router := testRouter(&stubSyncService{})

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestHealthReadyReportsRedisOutage(t *testing.T) {
	router := testRouter(&stubSyncService{})

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestWebhookRoutesRequireToken(t *testing.T) {
	router := testRouter(&stubSyncService{})

	for _, path := range []string{
		"/api/v1/webhooks/forms/submission",
		"/api/v1/webhooks/forms/partial-entry",
		"/api/v1/webhooks/subscriptions/status",
	} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{}`))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 got %d", path, resp.Code)
		}
	}
}

func TestWebhookRejectsWrongToken(t *testing.T) {
	router := testRouter(&stubSyncService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/forms/partial-entry", strings.NewReader(`{}`))
	req.Header.Set("X-Webhook-Token", "nope")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestFormSubmissionRequiresIdempotencyKey(t *testing.T) {
	service := &stubSyncService{}
	router := testRouter(service)

	body := `{"form_id":42,"entry":{"3":"jane@example.com"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/forms/submission", strings.NewReader(body))
	req.Header.Set("X-Webhook-Token", "sekret")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", resp.Code, resp.Body.String())
	}
	if service.forms != 0 {
		t.Fatalf("handler must not run without an idempotency key")
	}
}

func TestPartialEntryRouted(t *testing.T) {
	service := &stubSyncService{}
	router := testRouter(service)

	body := `{"form_id":9,"entry":{"2":"jane@example.com"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/forms/partial-entry", strings.NewReader(body))
	req.Header.Set("X-Webhook-Token", "sekret")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202 got %d: %s", resp.Code, resp.Body.String())
	}
	if service.partials != 1 {
		t.Fatalf("expected one partial entry call, got %d", service.partials)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	router := testRouter(&stubSyncService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
