package server

import (
	"context"
	"testing"

	"github.com/mpepping/deal-view/internal/state"
	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func servingStatus(t *testing.T, hs *health.Server) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()

	resp, err := hs.Check(context.Background(), &healthpb.HealthCheckRequest{Service: HealthService})
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	return resp.Status
}

func TestHealthReporterStaleSnapshot(t *testing.T) {
	st := state.NewStore(zap.NewNop())

	// Empty the catalogue from inside the load broadcast, so the reporter
	// sees the empty snapshot before the one that still holds deals
	emptied := false
	st.Subscribe(func(snap state.Snapshot) {
		if len(snap.Deals) > 0 && !emptied {
			emptied = true
			st.LoadDeals(nil)
		}
	})

	hs := health.NewServer()
	defer HealthReporter(st, hs, zap.NewNop())()

	st.LoadDeals(testDeals())

	if st.Len() != 0 {
		t.Fatalf("expected empty catalogue, got %d", st.Len())
	}
	if got := servingStatus(t, hs); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("expected NOT_SERVING for empty catalogue, got %s", got)
	}
}

func TestHealthReporterUnsubscribe(t *testing.T) {
	st := state.NewStore(zap.NewNop())
	hs := health.NewServer()

	unsubscribe := HealthReporter(st, hs, zap.NewNop())
	st.LoadDeals(testDeals())
	if got := servingStatus(t, hs); got != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("expected SERVING, got %s", got)
	}

	unsubscribe()
	st.LoadDeals(nil)
	if got := servingStatus(t, hs); got != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("expected status frozen after unsubscribe, got %s", got)
	}
}
