// Package grpcserver serves the standard gRPC health protocol for the
// contacts API so orchestrators can probe database readiness.
package grpcserver

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name reported alongside the overall status.
const ServiceName = "contacts.v1.Contacts"

const pingTimeout = 2 * time.Second

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health is a gRPC server exposing only grpc.health.v1.
type Health struct {
	srv *grpc.Server
	hs  *health.Server
	log *zap.Logger
}

// NewHealth constructs the server with recover and logging interceptors.
// Status starts NOT_SERVING until Watch sees a successful ping.
func NewHealth(log *zap.Logger, dev bool, opts ...grpc.ServerOption) *Health {
	opts = append(opts, grpc.ChainUnaryInterceptor(
		RecoverUnary(log),
		LoggingUnary(log),
	))
	s := grpc.NewServer(opts...)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	if dev {
		reflection.Register(s)
	}

	h := &Health{srv: s, hs: hs, log: log}
	h.SetServing(false)
	return h
}

// SetServing flips both the overall and the named service status.
func (h *Health) SetServing(ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	h.hs.SetServingStatus("", st)
	h.hs.SetServingStatus(ServiceName, st)
}

// Watch pings p every interval and mirrors the result into the health
// status until ctx is done.
func (h *Health) Watch(ctx context.Context, p Pinger, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()

	last := false
	for {
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := p.Ping(pctx)
		cancel()

		ok := err == nil
		if ok != last {
			if ok {
				h.log.Info("database reachable")
			} else {
				h.log.Warn("database unreachable", zap.Error(err))
			}
		}
		last = ok
		h.SetServing(ok)

		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// Serve accepts connections on lis until Stop.
func (h *Health) Serve(lis net.Listener) error {
	return h.srv.Serve(lis)
}

// Stop marks everything NOT_SERVING and drains, forcing close after timeout.
func (h *Health) Stop(timeout time.Duration) {
	h.hs.Shutdown()

	done := make(chan struct{})
	go func() {
		h.srv.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		h.srv.Stop()
	}
}
