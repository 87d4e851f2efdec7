package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// RequestLogger creates an HTTP middleware for logging requests
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			code := ww.Status()
			if code == 0 {
				code = http.StatusOK
			}

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", code),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("peer.address", r.RemoteAddr),
			}

			if code >= http.StatusInternalServerError {
				logger.Error("http request", fields...)
			} else {
				logger.Info("http request", fields...)
			}
		})
	}
}

// UnaryRequestLogger creates a gRPC unary interceptor for logging requests
func UnaryRequestLogger(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()

		resp, err := handler(ctx, req)

		fields := []zap.Field{
			zap.Duration("duration", time.Since(start)),
			zap.String("code", status.Code(err).String()),
			zap.String("peer.address", peerAddress(ctx)),
		}
		fields = append(fields, extractFields(req)...)

		if err != nil {
			fields = append(fields, zap.Error(err))
			logger.Error(info.FullMethod, fields...)
		} else {
			logger.Info(info.FullMethod, fields...)
		}

		return resp, err
	}
}

// StreamRequestLogger creates a gRPC stream interceptor for logging requests
func StreamRequestLogger(logger *zap.Logger) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()

		err := handler(srv, ss)

		fields := []zap.Field{
			zap.Duration("duration", time.Since(start)),
			zap.String("code", status.Code(err).String()),
			zap.String("peer.address", peerAddress(ss.Context())),
		}

		if err != nil {
			fields = append(fields, zap.Error(err))
			logger.Error(info.FullMethod, fields...)
		} else {
			logger.Info(info.FullMethod, fields...)
		}

		return err
	}
}

func peerAddress(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok {
		return p.Addr.String()
	}
	return ""
}

// extractFields extracts common fields from request messages
func extractFields(req interface{}) []zap.Field {
	fields := make([]zap.Field, 0, 1)

	// Health checks name the service being probed
	if reqWithService, ok := req.(interface{ GetService() string }); ok {
		if service := reqWithService.GetService(); service != "" {
			fields = append(fields, zap.String("service", service))
		}
	}

	return fields
}
