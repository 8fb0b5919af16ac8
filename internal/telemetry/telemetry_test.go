package telemetry_test

import (
	"sync"
	"testing"
	"time"

	"github.com/nyuchitech/harare-metro-sub001/internal/telemetry"
)

// providerOnce ensures we only create one Provider per test run to avoid
// duplicate Prometheus metric registration errors from promauto's global registry
var (
	testProvider *telemetry.Provider
	providerOnce sync.Once
)

func getTestProvider(t *testing.T) *telemetry.Provider {
	t.Helper()
	providerOnce.Do(func() {
		testProvider = telemetry.NewProvider()
	})
	return testProvider
}

func TestNewProvider(t *testing.T) {
	provider := getTestProvider(t)
	if provider == nil {
		t.Fatal("expected non-nil provider")
	}
	if provider.Metrics == nil {
		t.Error("expected non-nil metrics")
	}
}

func TestRecordActorMetrics(t *testing.T) {
	provider := getTestProvider(t)

	// Should not panic
	provider.RecordInteraction("like")
	provider.RecordConflict()
	provider.RecordCounterUpdate("view")
	provider.RecordSideWriteFailure()
	provider.RecordBehaviorUpdate("read_article")
	provider.RecordAnalyticsEvent("search")
	provider.RecordQueryDuration("popular_entities", 5*time.Millisecond)
	provider.RecordThrottled()
}

func TestHandler(t *testing.T) {
	provider := getTestProvider(t)
	if provider.Handler() == nil {
		t.Fatal("expected non-nil metrics handler")
	}
}
