package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// PlanChannel is the LISTEN/NOTIFY channel carrying the owner id of a changed plan set.
const PlanChannel = "plan_changes"

// Notifier announces plan changes to every server instance via pg_notify.
type Notifier struct{ db *DB }

// NewNotifier constructs a notifier over the shared pool.
func NewNotifier(db *DB) *Notifier { return &Notifier{db: db} }

// Publish sends the owner id on PlanChannel.
func (n *Notifier) Publish(ctx context.Context, ownerID uuid.UUID) error {
	_, err := n.db.Pool.Exec(ctx, `SELECT pg_notify($1, $2)`, PlanChannel, ownerID.String())
	return err
}

// NotifyConn is the subset of *pgx.Conn used by Listener.
type NotifyConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Close(ctx context.Context) error
}

// Listener holds a dedicated connection on PlanChannel and forwards every
// notification to the callback. It reconnects after connection loss.
type Listener struct {
	dial     func(ctx context.Context) (NotifyConn, error)
	onChange func(ownerID uuid.UUID)
	onResync func()
	log      *zap.Logger
	backoff  time.Duration
}

// NewListener builds a listener that dials dsn with pgx.Connect.
func NewListener(dsn string, onChange func(uuid.UUID), log *zap.Logger) *Listener {
	dial := func(ctx context.Context) (NotifyConn, error) {
		return pgx.Connect(ctx, dsn)
	}
	return NewListenerWithDialer(dial, onChange, log)
}

// NewListenerWithDialer allows injecting a connection factory (useful for tests).
func NewListenerWithDialer(dial func(context.Context) (NotifyConn, error), onChange func(uuid.UUID), log *zap.Logger) *Listener {
	if log == nil {
		log = zap.NewNop()
	}
	return &Listener{dial: dial, onChange: onChange, log: log, backoff: time.Second}
}

// OnResync sets fn to run every time LISTEN succeeds again after the connection
// was lost. Notifications sent while disconnected are gone, so fn should make
// every watcher reload.
func (l *Listener) OnResync(fn func()) *Listener {
	l.onResync = fn
	return l
}

// Run blocks until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	for attempt := 0; ; attempt++ {
		err := l.listenOnce(ctx, attempt > 0)
		if ctx.Err() != nil {
			return nil
		}
		l.log.Warn("plan listener interrupted", zap.Error(err), zap.Duration("retry_in", l.backoff))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.backoff):
		}
	}
}

func (l *Listener) listenOnce(ctx context.Context, resync bool) error {
	conn, err := l.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close(context.WithoutCancel(ctx))

	if _, err := conn.Exec(ctx, "LISTEN "+PlanChannel); err != nil {
		return err
	}
	l.log.Info("listening for plan changes", zap.String("channel", PlanChannel))
	if resync && l.onResync != nil {
		l.onResync()
	}

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		if n == nil {
			return errors.New("nil notification")
		}
		owner, err := uuid.FromString(n.Payload)
		if err != nil {
			l.log.Warn("bad plan notification payload", zap.String("payload", n.Payload))
			continue
		}
		l.onChange(owner)
	}
}
