package server

import (
	"github.com/mpepping/deal-view/internal/state"
	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthService is the gRPC health service name reported for the deal store
const HealthService = "dealview.Store"

// HealthReporter keeps the gRPC health status in line with the catalogue.
// The store is SERVING once it holds at least one deal.
// It returns the unsubscribe function of the underlying store subscription.
func HealthReporter(st *state.Store, hs *health.Server, logger *zap.Logger) func() {
	report := func(deals int) {
		status := healthpb.HealthCheckResponse_NOT_SERVING
		if deals > 0 {
			status = healthpb.HealthCheckResponse_SERVING
		}

		hs.SetServingStatus(HealthService, status)
		hs.SetServingStatus("", status)

		logger.Debug("health status updated",
			zap.String("status", status.String()),
			zap.Int("deals", deals),
		)
	}

	report(st.Len())

	// Snapshots can arrive out of order, so report the current catalogue
	return st.Subscribe(func(state.Snapshot) {
		report(st.Len())
	})
}
