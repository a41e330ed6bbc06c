package client

import (
	"context"
	"errors"
	"fmt"
	"io"

	u "github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	pb "github.com/and161185/studyflow/internal/api/v1"
	"github.com/and161185/studyflow/internal/app"
	"github.com/and161185/studyflow/internal/convert"
	model "github.com/and161185/studyflow/internal/model"
)

// ErrStreamEnded is reported when the server closes a plan subscription.
var ErrStreamEnded = errors.New("subscription closed by server")

// Plans is the document store client. Every call is scoped to the signed-in user
// by the access token.
type Plans struct {
	rpc pb.StudyFlowClient
	log *zap.Logger
}

// NewPlans shares c with the session store.
func NewPlans(c *Conn, log *zap.Logger) *Plans {
	if log == nil {
		log = zap.NewNop()
	}
	return &Plans{rpc: c.rpc, log: log}
}

// ListPlans fetches the current plan set once.
func (p *Plans) ListPlans(ctx context.Context) ([]model.Plan, error) {
	resp, err := p.rpc.ListPlans(ctx, &pb.ListPlansRequest{})
	if err != nil {
		return nil, decode(err)
	}
	return convert.FromWirePlans(resp.Plans)
}

// CreatePlan stores a new plan and returns its id.
func (p *Plans) CreatePlan(ctx context.Context, pl model.Plan) (u.UUID, error) {
	resp, err := p.rpc.CreatePlan(ctx, &pb.CreatePlanRequest{Plan: convert.ToWirePlan(pl)})
	if err != nil {
		return u.Nil, decode(err)
	}
	created, err := convert.FromWirePlan(resp.Plan)
	if err != nil {
		return u.Nil, err
	}
	return created.ID, nil
}

// UpdatePlan replaces every field of the plan with the given id.
func (p *Plans) UpdatePlan(ctx context.Context, pl model.Plan) error {
	if pl.ID == u.Nil {
		return fmt.Errorf("update plan: empty id")
	}
	_, err := p.rpc.UpdatePlan(ctx, &pb.UpdatePlanRequest{Plan: convert.ToWirePlan(pl)})
	return decode(err)
}

// DeletePlan removes a plan.
func (p *Plans) DeletePlan(ctx context.Context, id u.UUID) error {
	_, err := p.rpc.DeletePlan(ctx, &pb.DeletePlanRequest{ID: id.String()})
	return decode(err)
}

// SetProfile merges the profile record of the signed-in user.
func (p *Plans) SetProfile(ctx context.Context, pr model.Profile) error {
	_, err := p.rpc.SetProfile(ctx, &pb.SetProfileRequest{Profile: convert.ToWireProfile(pr)})
	return decode(err)
}

// WatchPlans opens a live subscription. The first snapshot is the current set.
func (p *Plans) WatchPlans(ctx context.Context) (app.Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	stream, err := p.rpc.WatchPlans(ctx, &pb.WatchPlansRequest{})
	if err != nil {
		cancel()
		return nil, decode(err)
	}
	s := &subscription{
		ch:     make(chan model.Snapshot, 1),
		cancel: cancel,
		done:   make(chan struct{}),
		log:    p.log,
	}
	go s.run(ctx, stream)
	return s, nil
}

type subscription struct {
	ch     chan model.Snapshot
	cancel context.CancelFunc
	done   chan struct{}
	log    *zap.Logger
}

func (s *subscription) Snapshots() <-chan model.Snapshot { return s.ch }

// Close cancels the stream and waits for the reader to exit.
func (s *subscription) Close() {
	s.cancel()
	<-s.done
}

func (s *subscription) deliver(ctx context.Context, snap model.Snapshot) bool {
	select {
	case s.ch <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *subscription) run(ctx context.Context, stream grpc.ServerStreamingClient[pb.PlanList]) {
	defer close(s.done)
	defer close(s.ch)
	for {
		msg, err := stream.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, io.EOF) {
				err = ErrStreamEnded
			} else {
				err = decode(err)
			}
			s.log.Debug("plan stream ended", zap.Error(err))
			s.deliver(ctx, model.Snapshot{Err: err})
			return
		}
		plans, err := convert.FromWirePlans(msg.Plans)
		if err != nil {
			s.deliver(ctx, model.Snapshot{Err: err})
			return
		}
		if !s.deliver(ctx, model.Snapshot{Plans: plans}) {
			return
		}
	}
}

var (
	_ app.PlanStore    = (*Plans)(nil)
	_ app.SessionStore = (*Sessions)(nil)
)
