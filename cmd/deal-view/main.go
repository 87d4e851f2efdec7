package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mpepping/deal-view/internal/catalog"
	"github.com/mpepping/deal-view/internal/landing"
	"github.com/mpepping/deal-view/internal/limiter"
	"github.com/mpepping/deal-view/internal/state"
	"github.com/mpepping/deal-view/pkg/limits"
	"github.com/mpepping/deal-view/pkg/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

var (
	// Server flags
	listenAddr  = flag.String("listen-addr", ":3000", "HTTP API and gRPC health listen address")
	landingAddr = flag.String("landing-addr", "", "Optional separate HTTP landing page listen address")
	metricsAddr = flag.String("metrics-addr", ":2122", "Prometheus metrics listen address")

	// Catalogue flags
	cataloguePath  = flag.String("catalogue", "public/db.json", "Path to the deal catalogue JSON file")
	watchCatalogue = flag.Bool("watch-catalogue", false, "Reload the catalogue when the file changes")

	// Logging flags
	debug = flag.Bool("debug", false, "Enable debug logging")
)

const shutdownTimeout = 5 * time.Second

func main() {
	flag.Parse()

	// Initialize logger
	logger := createLogger(*debug)
	defer logger.Sync()

	logger.Info("starting deal view service",
		zap.String("listen_addr", *listenAddr),
		zap.String("landing_addr", *landingAddr),
		zap.String("metrics_addr", *metricsAddr),
		zap.String("catalogue", *cataloguePath),
		zap.Bool("watch_catalogue", *watchCatalogue),
	)

	if err := run(logger); err != nil {
		logger.Fatal("service failed", zap.Error(err))
	}

	logger.Info("shutdown complete")
}

func run(logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Create deal store
	st := state.NewStore(logger)

	deals, err := catalog.LoadFile(*cataloguePath)
	if err != nil {
		return fmt.Errorf("load catalogue: %w", err)
	}

	// Health follows the catalogue from the first load on
	healthServer := health.NewServer()
	defer server.HealthReporter(st, healthServer, logger)()

	st.LoadDeals(deals)

	// Create per-client rate limiter for mutations
	lim := limiter.NewClientLimiter(limits.ClientRateRequestsPerSecondMax, limits.ClientRateBurstSizeMax)

	dealServer := server.NewDealServer(st, lim, logger)

	landingHandler, err := landing.NewHandler(st, logger)
	if err != nil {
		return fmt.Errorf("create landing handler: %w", err)
	}

	// Create gRPC server with logging interceptors
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(server.UnaryRequestLogger(logger)),
		grpc.ChainStreamInterceptor(server.StreamRequestLogger(logger)),
	)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	// Enable gRPC reflection for service discovery
	reflection.Register(grpcServer)

	// Register Prometheus collectors
	prometheus.MustRegister(st)
	prometheus.MustRegister(dealServer)

	api := dealServer.Routes()

	// Landing page controls post to /api on their own origin
	web := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			api.ServeHTTP(w, r)
			return
		}
		landingHandler.ServeHTTP(w, r)
	})

	// Route gRPC, API and landing page traffic on one listener
	mux := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ProtoMajor == 2 && strings.HasPrefix(r.Header.Get("Content-Type"), "application/grpc") {
			grpcServer.ServeHTTP(w, r)
			return
		}
		web.ServeHTTP(w, r)
	})

	g, gctx := errgroup.WithContext(ctx)

	servers := []*http.Server{{
		Addr: *listenAddr,
		// Wrap with h2c handler to support HTTP/2 cleartext
		Handler: h2c.NewHandler(mux, &http2.Server{}),
		// Cancel open watch streams on shutdown
		BaseContext: func(net.Listener) context.Context { return gctx },
	}}

	if *landingAddr != "" && *landingAddr != *listenAddr {
		servers = append(servers, &http.Server{
			Addr:        *landingAddr,
			Handler:     web,
			BaseContext: func(net.Listener) context.Context { return gctx },
		})
	}

	if *metricsAddr != "" {
		servers = append(servers, &http.Server{
			Addr:    *metricsAddr,
			Handler: promhttp.Handler(),
		})
	}

	g.Go(func() error {
		lim.RunGC(gctx, limits.ClientRateGarbageCollectionPeriod, limits.ClientRateIdleMax)
		return nil
	})

	if *watchCatalogue {
		g.Go(func() error {
			return catalog.Watch(gctx, *cataloguePath, logger, st.LoadDeals)
		})
	}

	for _, srv := range servers {
		g.Go(func() error {
			logger.Info("server listening", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server %s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	// Wait for interrupt signal or a failing server
	g.Go(func() error {
		<-gctx.Done()

		logger.Info("shutting down gracefully...")

		// Stop gRPC server gracefully
		grpcServer.GracefulStop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("server shutdown error",
					zap.String("addr", srv.Addr),
					zap.Error(err),
				)
			}
		}
		return nil
	})

	return g.Wait()
}

func createLogger(debug bool) *zap.Logger {
	config := zap.NewProductionConfig()

	if debug {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	// Check if running in development mode
	if os.Getenv("MODE") == "development" {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	logger, err := config.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}

	return logger
}
