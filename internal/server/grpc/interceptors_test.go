package grpcserver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap/zaptest"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	apiv1 "github.com/and161185/studyflow/internal/api/v1"
)

type fakeAddr string

func (fakeAddr) Network() string  { return "tcp" }
func (a fakeAddr) String() string { return string(a) }

type fakeServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (f *fakeServerStream) Context() context.Context { return f.ctx }

type fakeRecorder struct {
	mu     sync.Mutex
	rpcs   []string
	opened int
	closed int
}

func (r *fakeRecorder) RecordRPC(method, code string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rpcs = append(r.rpcs, method+" "+code)
}
func (r *fakeRecorder) StreamOpened(string) { r.mu.Lock(); r.opened++; r.mu.Unlock() }
func (r *fakeRecorder) StreamClosed(string) { r.mu.Lock(); r.closed++; r.mu.Unlock() }

func TestLoggingUnary_Passthrough(t *testing.T) {
	t.Parallel()

	ic := LoggingUnary(zaptest.NewLogger(t))
	ctx := peer.NewContext(context.Background(), &peer.Peer{Addr: fakeAddr("127.0.0.1:12345")})

	h := func(ctx context.Context, req any) (any, error) { return "ok", nil }
	info := &grpc.UnaryServerInfo{FullMethod: "/sf.Service/Method"}

	resp, err := ic(ctx, "req", info, h)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if s, _ := resp.(string); s != "ok" {
		t.Fatalf("resp mismatch: %v", resp)
	}

	wantErr := errors.New("boom")
	hErr := func(ctx context.Context, req any) (any, error) { return nil, wantErr }
	_, err = ic(ctx, "req", info, hErr)
	if !errors.Is(err, wantErr) {
		t.Fatalf("want original error, got: %v", err)
	}
}

func TestRecoverUnary_CatchesPanic(t *testing.T) {
	t.Parallel()

	ic := RecoverUnary(zaptest.NewLogger(t))
	info := &grpc.UnaryServerInfo{FullMethod: "/sf.Service/Panic"}
	panicH := func(ctx context.Context, req any) (any, error) {
		panic("oh no")
	}

	_, err := ic(context.Background(), "req", info, panicH)
	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Internal {
		t.Fatalf("want codes.Internal, got: %v", err)
	}

	resp, err := ic(context.Background(), "req", info, func(context.Context, any) (any, error) { return 42, nil })
	if err != nil || resp.(int) != 42 {
		t.Fatalf("passthrough: %v %v", resp, err)
	}
}

func TestRecoverStream_CatchesPanic(t *testing.T) {
	t.Parallel()

	ic := RecoverStream(zaptest.NewLogger(t))
	ss := &fakeServerStream{ctx: context.Background()}
	err := ic(nil, ss, &grpc.StreamServerInfo{FullMethod: apiv1.MethodWatchPlans}, func(any, grpc.ServerStream) error {
		panic("stream")
	})
	if status.Code(err) != codes.Internal {
		t.Fatalf("want Internal, got %v", err)
	}
}

func TestAuthUnary_PublicAndProtected(t *testing.T) {
	t.Parallel()

	key := []byte("secret")
	ic := AuthUnary(jwtVerifier(key))
	var seen uuid.UUID
	h := func(ctx context.Context, req any) (any, error) {
		seen, _ = UserIDFromCtx(ctx)
		return "ok", nil
	}

	if _, err := ic(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: apiv1.MethodSignIn}, h); err != nil {
		t.Fatalf("public method must pass without token: %v", err)
	}

	_, err := ic(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: apiv1.MethodListPlans}, h)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("want Unauthenticated, got %v", err)
	}

	id := uuid.Must(uuid.NewV4())
	tok := makeJWT(t, id.String(), key, jwtSigning, time.Now(), time.Minute)
	if _, err := ic(ctxWithAuth(tok), nil, &grpc.UnaryServerInfo{FullMethod: apiv1.MethodListPlans}, h); err != nil {
		t.Fatalf("valid token: %v", err)
	}
	if seen != id {
		t.Fatalf("user id not propagated: %v", seen)
	}
}

func TestAuthStream_InjectsUserID(t *testing.T) {
	t.Parallel()

	key := []byte("secret")
	ic := AuthStream(jwtVerifier(key))
	id := uuid.Must(uuid.NewV4())
	tok := makeJWT(t, id.String(), key, jwtSigning, time.Now(), time.Minute)

	var seen uuid.UUID
	err := ic(nil, &fakeServerStream{ctx: ctxWithAuth(tok)}, &grpc.StreamServerInfo{FullMethod: apiv1.MethodWatchPlans},
		func(_ any, ss grpc.ServerStream) error {
			seen, _ = UserIDFromCtx(ss.Context())
			return nil
		})
	if err != nil || seen != id {
		t.Fatalf("stream auth: seen=%v err=%v", seen, err)
	}

	err = ic(nil, &fakeServerStream{ctx: metadata.NewIncomingContext(context.Background(), metadata.MD{})},
		&grpc.StreamServerInfo{FullMethod: apiv1.MethodWatchPlans}, func(any, grpc.ServerStream) error { return nil })
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("want Unauthenticated, got %v", err)
	}
}

func TestMetricsInterceptors(t *testing.T) {
	t.Parallel()

	rec := &fakeRecorder{}
	_, _ = MetricsUnary(rec)(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/m"},
		func(context.Context, any) (any, error) { return nil, status.Error(codes.NotFound, "x") })
	_ = MetricsStream(rec)(nil, &fakeServerStream{ctx: context.Background()}, &grpc.StreamServerInfo{FullMethod: "/s"},
		func(any, grpc.ServerStream) error { return nil })

	if len(rec.rpcs) != 2 || rec.rpcs[0] != "/m NotFound" || rec.rpcs[1] != "/s OK" {
		t.Fatalf("rpcs=%v", rec.rpcs)
	}
	if rec.opened != 1 || rec.closed != 1 {
		t.Fatalf("opened=%d closed=%d", rec.opened, rec.closed)
	}
}

func TestThrottle_PerPeer(t *testing.T) {
	t.Parallel()

	th := NewThrottle(rate.Every(time.Hour), 2, apiv1.MethodSignUp)
	ic := th.Unary()
	h := func(context.Context, any) (any, error) { return "ok", nil }
	signUp := &grpc.UnaryServerInfo{FullMethod: apiv1.MethodSignUp}
	a := peer.NewContext(context.Background(), &peer.Peer{Addr: fakeAddr("10.0.0.1:1000")})
	a2 := peer.NewContext(context.Background(), &peer.Peer{Addr: fakeAddr("10.0.0.1:2000")})
	b := peer.NewContext(context.Background(), &peer.Peer{Addr: fakeAddr("10.0.0.2:1000")})

	for i := 0; i < 2; i++ {
		if _, err := ic(a, nil, signUp, h); err != nil {
			t.Fatalf("call %d within burst: %v", i, err)
		}
	}
	if _, err := ic(a2, nil, signUp, h); status.Code(err) != codes.ResourceExhausted {
		t.Fatalf("same host on another port must share the bucket, got %v", err)
	}
	if _, err := ic(b, nil, signUp, h); err != nil {
		t.Fatalf("other peer must not be throttled: %v", err)
	}
	if _, err := ic(a, nil, &grpc.UnaryServerInfo{FullMethod: apiv1.MethodListPlans}, h); err != nil {
		t.Fatalf("unthrottled method: %v", err)
	}
}
