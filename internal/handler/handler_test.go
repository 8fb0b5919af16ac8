package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/nyuchitech/harare-metro-sub001/internal/actor"
	"github.com/nyuchitech/harare-metro-sub001/internal/api"
	"github.com/nyuchitech/harare-metro-sub001/internal/engage/analytics"
	"github.com/nyuchitech/harare-metro-sub001/internal/engage/behavior"
	"github.com/nyuchitech/harare-metro-sub001/internal/engage/counters"
	"github.com/nyuchitech/harare-metro-sub001/internal/engage/interactions"
	"github.com/nyuchitech/harare-metro-sub001/internal/handler"
	"github.com/nyuchitech/harare-metro-sub001/internal/logger"
	"github.com/nyuchitech/harare-metro-sub001/internal/store"
)

const testJWTSecret = "test-jwt-secret"

func setupRouter(t *testing.T, jwtSecret string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s, err := store.NewBadgerStore(store.BadgerConfig{InMemory: true})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	host := actor.NewHost(s)
	log := logger.NewNop()

	h := api.Handlers{
		Interactions: handler.NewInteractionHandler(interactions.New(host, log), log, nil),
		Counters:     handler.NewCounterHandler(counters.New(host, log, counters.Config{}), log, nil),
		Behavior:     handler.NewBehaviorHandler(behavior.New(host, log), log, nil),
		Analytics:    handler.NewAnalyticsHandler(analytics.New(host, log, analytics.Config{}), log, nil),
	}

	server := api.NewServer(&api.Config{Port: 0, ServiceName: "test", ServiceVersion: "test"}, log, func(router *gin.Engine) {
		api.SetupRoutes(router, h, api.RouteOptions{JWTSecret: jwtSecret})
	})
	return server.Router()
}

func doJSON(r *gin.Engine, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, http.NoBody)
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func signToken(t *testing.T, secret string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestInteraction_RecordAndGet(t *testing.T) {
	r := setupRouter(t, "")

	w := doJSON(r, http.MethodPost, "/api/v1/interactions/article-1",
		`{"type":"view"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var snap interactions.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Views != 1 {
		t.Fatalf("expected 1 view, got %d", snap.Views)
	}

	w = doJSON(r, http.MethodGet, "/api/v1/interactions/article-1", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestInteraction_DuplicateLikeConflictCarriesSnapshot(t *testing.T) {
	r := setupRouter(t, "")

	body := `{"type":"like","user_id":"u1"}`
	if w := doJSON(r, http.MethodPost, "/api/v1/interactions/article-1", body, nil); w.Code != http.StatusOK {
		t.Fatalf("first like: expected 200, got %d", w.Code)
	}

	w := doJSON(r, http.MethodPost, "/api/v1/interactions/article-1", body, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}

	var resp struct {
		Error    string                 `json:"error"`
		Snapshot map[string]interface{} `json:"snapshot"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode conflict body: %v", err)
	}
	if resp.Error == "" {
		t.Fatal("expected error message in conflict body")
	}
	if resp.Snapshot == nil {
		t.Fatal("expected unchanged snapshot in conflict body")
	}
}

func TestInteraction_UnknownType(t *testing.T) {
	r := setupRouter(t, "")

	w := doJSON(r, http.MethodPost, "/api/v1/interactions/article-1",
		`{"type":"clap"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	r := setupRouter(t, "")

	w := doJSON(r, http.MethodPut, "/api/v1/interactions/article-1",
		`{"type":"view"}`, nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func TestCounter_UpdateReportsSideWrite(t *testing.T) {
	r := setupRouter(t, "")

	w := doJSON(r, http.MethodPost, "/api/v1/counters/source-1",
		`{"action":"view","category":"politics"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Aggregate counters.Aggregate `json:"aggregate"`
		SideWrite *struct {
			Attempted bool   `json:"attempted"`
			CounterID string `json:"counter_id"`
		} `json:"side_write"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Aggregate.Totals.Views != 1 {
		t.Fatalf("expected 1 view, got %d", resp.Aggregate.Totals.Views)
	}
	if resp.SideWrite == nil || !resp.SideWrite.Attempted {
		t.Fatal("expected attempted side-write for categorized action")
	}
	if resp.SideWrite.CounterID != "category:politics" {
		t.Fatalf("unexpected side-write counter id %q", resp.SideWrite.CounterID)
	}
}

func TestCounter_DeleteRequiresTokenWhenConfigured(t *testing.T) {
	r := setupRouter(t, testJWTSecret)

	w := doJSON(r, http.MethodDelete, "/api/v1/counters/source-1", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	headers := map[string]string{"Authorization": "Bearer " + signToken(t, testJWTSecret)}
	w = doJSON(r, http.MethodDelete, "/api/v1/counters/source-1", "", headers)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCounter_DeleteOpenWithoutSecret(t *testing.T) {
	r := setupRouter(t, "")

	w := doJSON(r, http.MethodDelete, "/api/v1/counters/source-1", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestBehavior_RecordAndClear(t *testing.T) {
	r := setupRouter(t, "")

	w := doJSON(r, http.MethodPost, "/api/v1/behavior/u1",
		`{"action":"read_article","entity_id":"a1","category":"economy","reading_time":90}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var profile behavior.Profile
	if err := json.Unmarshal(w.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile.ArticlesRead != 1 {
		t.Fatalf("expected 1 article read, got %d", profile.ArticlesRead)
	}

	w = doJSON(r, http.MethodDelete, "/api/v1/behavior/u1", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestAnalytics_RecordQueryAndBadKind(t *testing.T) {
	r := setupRouter(t, "")

	w := doJSON(r, http.MethodPost, "/api/v1/analytics",
		`{"type":"search","payload":{"term":"budget"}}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var recorded struct {
		EventID string `json:"event_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &recorded); err != nil {
		t.Fatalf("decode event response: %v", err)
	}
	if recorded.EventID == "" {
		t.Fatal("expected non-empty event id")
	}

	w = doJSON(r, http.MethodGet, "/api/v1/analytics?kind=search_trends&range=1h", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("query: expected 200, got %d", w.Code)
	}

	w = doJSON(r, http.MethodGet, "/api/v1/analytics?kind=nope", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown kind, got %d", w.Code)
	}
}

func TestHealth_Endpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logger.NewNop()

	server := api.NewServer(&api.Config{Port: 0, ServiceName: "test", ServiceVersion: "0.0.1"}, log, func(router *gin.Engine) {
		api.RegisterHealthRoutes(router, "test", "0.0.1", map[string]api.HealthChecker{
			"store": api.StoreHealthChecker(func() error { return nil }),
		})
	})

	w := doJSON(server.Router(), http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp api.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode health response: %v", err)
	}
	if resp.Status != api.HealthStatusHealthy {
		t.Fatalf("expected healthy status, got %q", resp.Status)
	}
	if resp.Checks["store"].Status != api.HealthStatusHealthy {
		t.Fatalf("expected healthy store check, got %+v", resp.Checks["store"])
	}
}
