package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNotifier_Publish(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	owner := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`SELECT pg_notify\(\$1, \$2\)`).
		WithArgs(PlanChannel, owner.String()).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	require.NoError(t, NewNotifier(db).Publish(context.Background(), owner))
	require.NoError(t, mock.ExpectationsWereMet())
}

type fakeNotifyConn struct {
	mu       sync.Mutex
	execs    []string
	payloads chan string
	closed   bool
}

func (c *fakeNotifyConn) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.execs = append(c.execs, sql)
	return pgconn.NewCommandTag("LISTEN"), nil
}

func (c *fakeNotifyConn) WaitForNotification(ctx context.Context) (*pgconn.Notification, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case p, ok := <-c.payloads:
		if !ok {
			return nil, errors.New("conn lost")
		}
		return &pgconn.Notification{Channel: PlanChannel, Payload: p}, nil
	}
}

func (c *fakeNotifyConn) Close(context.Context) error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func TestListener_ForwardsOwnerIDsAndSkipsGarbage(t *testing.T) {
	conn := &fakeNotifyConn{payloads: make(chan string, 4)}
	got := make(chan uuid.UUID, 4)
	l := NewListenerWithDialer(func(context.Context) (NotifyConn, error) { return conn, nil },
		func(id uuid.UUID) { got <- id }, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	owner := uuid.Must(uuid.NewV4())
	conn.payloads <- "not-a-uuid"
	conn.payloads <- owner.String()

	select {
	case id := <-got:
		require.Equal(t, owner, id)
	case <-time.After(2 * time.Second):
		t.Fatal("notification not forwarded")
	}

	cancel()
	require.NoError(t, <-done)
	conn.mu.Lock()
	defer conn.mu.Unlock()
	require.Equal(t, []string{"LISTEN " + PlanChannel}, conn.execs)
	require.True(t, conn.closed)
}

func TestListener_ReconnectsAfterDialError(t *testing.T) {
	var (
		mu    sync.Mutex
		dials int
	)
	conn := &fakeNotifyConn{payloads: make(chan string, 1)}
	got := make(chan uuid.UUID, 1)
	l := NewListenerWithDialer(func(context.Context) (NotifyConn, error) {
		mu.Lock()
		defer mu.Unlock()
		dials++
		if dials == 1 {
			return nil, errors.New("refused")
		}
		return conn, nil
	}, func(id uuid.UUID) { got <- id }, zaptest.NewLogger(t))
	l.backoff = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	owner := uuid.Must(uuid.NewV4())
	conn.payloads <- owner.String()
	select {
	case id := <-got:
		require.Equal(t, owner, id)
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not reconnect")
	}
}

func TestListener_ResyncsAfterReconnect(t *testing.T) {
	first := &fakeNotifyConn{payloads: make(chan string)}
	second := &fakeNotifyConn{payloads: make(chan string)}
	conns := make(chan NotifyConn, 2)
	conns <- first
	conns <- second

	resyncs := make(chan struct{}, 4)
	l := NewListenerWithDialer(func(ctx context.Context) (NotifyConn, error) {
		select {
		case c := <-conns:
			return c, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}, func(uuid.UUID) {}, zaptest.NewLogger(t)).OnResync(func() { resyncs <- struct{}{} })
	l.backoff = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	require.Eventually(t, func() bool {
		first.mu.Lock()
		defer first.mu.Unlock()
		return len(first.execs) == 1
	}, 2*time.Second, 5*time.Millisecond)
	select {
	case <-resyncs:
		t.Fatal("first LISTEN must not resync")
	case <-time.After(20 * time.Millisecond):
	}

	close(first.payloads)

	select {
	case <-resyncs:
	case <-time.After(2 * time.Second):
		t.Fatal("no resync after reconnect")
	}
	second.mu.Lock()
	require.Equal(t, []string{"LISTEN " + PlanChannel}, second.execs)
	second.mu.Unlock()

	cancel()
	require.NoError(t, <-done)
	require.Len(t, resyncs, 0)
}
