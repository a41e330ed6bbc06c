package grpcserver

import (
	"context"
	"net"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	apiv1 "github.com/and161185/studyflow/internal/api/v1"
	"github.com/and161185/studyflow/internal/metrics"
)

// publicMethods need no bearer token.
var publicMethods = map[string]bool{
	apiv1.MethodSignUp:               true,
	apiv1.MethodSignIn:               true,
	apiv1.MethodSendPasswordReset:    true,
	apiv1.MethodConfirmPasswordReset: true,
}

func peerAddr(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return ""
}

// peerHost is the peer address without port.
func peerHost(ctx context.Context) string {
	addr := peerAddr(ctx)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// wrappedStream overrides the context of a server stream.
type wrappedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedStream) Context() context.Context { return w.ctx }

// LoggingUnary returns a unary server interceptor for structured logging.
func LoggingUnary(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		// metadata only, never payloads
		log.Info("grpc",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("dur", time.Since(start)),
			zap.String("peer", peerAddr(ctx)),
		)
		return resp, err
	}
}

// LoggingStream logs a server stream once it ends.
func LoggingStream(log *zap.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, next grpc.StreamHandler) error {
		start := time.Now()
		err := next(srv, ss)
		log.Info("grpc stream",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("dur", time.Since(start)),
			zap.String("peer", peerAddr(ss.Context())),
		)
		return err
	}
}

// RecoverUnary returns a unary server interceptor that recovers from panics.
func RecoverUnary(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic",
					zap.Any("reason", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("method", info.FullMethod),
				)
				err = status.Error(codes.Internal, "internal")
			}
		}()
		return next(ctx, req)
	}
}

// RecoverStream is the streaming counterpart of RecoverUnary.
func RecoverStream(log *zap.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, next grpc.StreamHandler) (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic",
					zap.Any("reason", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("method", info.FullMethod),
				)
				err = status.Error(codes.Internal, "internal")
			}
		}()
		return next(srv, ss)
	}
}

// AuthUnary verifies the bearer token of every non-public call and puts the user ID into the context.
func AuthUnary(v TokenVerifier) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if publicMethods[info.FullMethod] {
			return next(ctx, req)
		}
		id, err := authenticate(ctx, v)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "no auth")
		}
		return next(WithUserID(ctx, id), req)
	}
}

// AuthStream is the streaming counterpart of AuthUnary.
func AuthStream(v TokenVerifier) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, next grpc.StreamHandler) error {
		if publicMethods[info.FullMethod] {
			return next(srv, ss)
		}
		id, err := authenticate(ss.Context(), v)
		if err != nil {
			return status.Error(codes.Unauthenticated, "no auth")
		}
		return next(srv, &wrappedStream{ServerStream: ss, ctx: WithUserID(ss.Context(), id)})
	}
}

// MetricsUnary records call count and latency.
func MetricsUnary(rec metrics.RPCRecorder) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		rec.RecordRPC(info.FullMethod, status.Code(err).String(), time.Since(start))
		return resp, err
	}
}

// MetricsStream records open streams and their outcome.
func MetricsStream(rec metrics.RPCRecorder) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, next grpc.StreamHandler) error {
		start := time.Now()
		rec.StreamOpened(info.FullMethod)
		defer rec.StreamClosed(info.FullMethod)
		err := next(srv, ss)
		rec.RecordRPC(info.FullMethod, status.Code(err).String(), time.Since(start))
		return err
	}
}

// Idle peer buckets are dropped once the table grows past throttleSweepAt.
const (
	throttleSweepAt = 4096
	throttleIdleTTL = 10 * time.Minute
)

type peerLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Throttle is a per-peer token bucket for abuse-prone public calls.
type Throttle struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	methods map[string]bool
	peers   map[string]*peerLimiter
	now     func() time.Time
}

// NewThrottle limits each peer host to limit calls per second (burst) on methods.
func NewThrottle(limit rate.Limit, burst int, methods ...string) *Throttle {
	m := make(map[string]bool, len(methods))
	for _, name := range methods {
		m[name] = true
	}
	return &Throttle{limit: limit, burst: burst, methods: m, peers: make(map[string]*peerLimiter), now: time.Now}
}

func (t *Throttle) limiterFor(host string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	pl, ok := t.peers[host]
	if !ok {
		if len(t.peers) >= throttleSweepAt {
			for h, old := range t.peers {
				if now.Sub(old.lastSeen) > throttleIdleTTL {
					delete(t.peers, h)
				}
			}
		}
		pl = &peerLimiter{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.peers[host] = pl
	}
	pl.lastSeen = now
	return pl.limiter
}

// Unary returns the interceptor.
func (t *Throttle) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if t.methods[info.FullMethod] && !t.limiterFor(peerHost(ctx)).Allow() {
			return nil, status.Error(codes.ResourceExhausted, "rate limited")
		}
		return next(ctx, req)
	}
}
