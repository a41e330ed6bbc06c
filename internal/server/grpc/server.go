// Package grpcserver exposes the StudyFlow gRPC API handlers.
package grpcserver

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pb "github.com/and161185/studyflow/internal/api/v1"
	"github.com/and161185/studyflow/internal/convert"
	"github.com/and161185/studyflow/internal/errs"
	"github.com/and161185/studyflow/internal/live"
	"github.com/and161185/studyflow/internal/service"
)

// Server wires services into gRPC handlers.
type Server struct {
	pb.UnimplementedStudyFlowServer
	auth     service.AuthService
	plans    service.PlanService
	profiles service.ProfileService
	hub      *live.Hub
	log      *zap.Logger
}

// New constructs a gRPC server with injected services. hub feeds WatchPlans.
func New(auth service.AuthService, plans service.PlanService, profiles service.ProfileService, hub *live.Hub, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{auth: auth, plans: plans, profiles: profiles, hub: hub, log: log}
}

// toStatus maps sentinel errors to gRPC codes. Unknown errors are logged and hidden.
func (s *Server) toStatus(err error, op string) error {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, errs.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, "bad credentials")
	case errors.Is(err, errs.ErrRateLimited):
		return status.Error(codes.ResourceExhausted, "rate limited")
	case errors.Is(err, errs.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, "already exists")
	case errors.Is(err, errs.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, op+": canceled")
	default:
		s.log.Error(op, zap.Error(err))
		return status.Error(codes.Internal, op+": internal error")
	}
}

func userFrom(ctx context.Context) (uuid.UUID, error) {
	id, ok := UserIDFromCtx(ctx)
	if !ok || id == uuid.Nil {
		return uuid.Nil, status.Error(codes.Unauthenticated, "no auth")
	}
	return id, nil
}

// --- Auth ---

// SignUp creates an account and returns its first access token.
func (s *Server) SignUp(ctx context.Context, req *pb.SignUpRequest) (*pb.AuthResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, status.Error(codes.InvalidArgument, "empty email/password")
	}
	tok, u, err := s.auth.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		return nil, s.toStatus(err, "sign up")
	}
	return &pb.AuthResponse{AccessToken: tok.AccessToken, ExpiresAt: tok.ExpiresAt, User: convert.ToWireIdentity(u)}, nil
}

// SignIn authenticates a user and returns an access token with the identity.
func (s *Server) SignIn(ctx context.Context, req *pb.SignInRequest) (*pb.AuthResponse, error) {
	tok, u, err := s.auth.SignIn(ctx, req.Email, req.Password, peerHost(ctx))
	if err != nil {
		return nil, s.toStatus(err, "sign in")
	}
	return &pb.AuthResponse{AccessToken: tok.AccessToken, ExpiresAt: tok.ExpiresAt, User: convert.ToWireIdentity(u)}, nil
}

// WhoAmI restores the identity behind a stored token.
func (s *Server) WhoAmI(ctx context.Context, _ *pb.WhoAmIRequest) (*pb.Identity, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	u, err := s.auth.Identity(ctx, userID)
	if err != nil {
		return nil, s.toStatus(err, "whoami")
	}
	id := convert.ToWireIdentity(u)
	return &id, nil
}

// UpdateDisplayName changes the profile name and returns the refreshed identity.
func (s *Server) UpdateDisplayName(ctx context.Context, req *pb.UpdateDisplayNameRequest) (*pb.Identity, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.auth.SetDisplayName(ctx, userID, req.DisplayName); err != nil {
		return nil, s.toStatus(err, "update display name")
	}
	u, err := s.auth.Identity(ctx, userID)
	if err != nil {
		return nil, s.toStatus(err, "update display name")
	}
	id := convert.ToWireIdentity(u)
	return &id, nil
}

// SendPasswordReset always answers OK for well-formed requests.
func (s *Server) SendPasswordReset(ctx context.Context, req *pb.SendPasswordResetRequest) (*pb.Empty, error) {
	if err := s.auth.RequestPasswordReset(ctx, req.Email); err != nil {
		return nil, s.toStatus(err, "password reset")
	}
	return &pb.Empty{}, nil
}

// ConfirmPasswordReset sets a new password from a mailed token.
func (s *Server) ConfirmPasswordReset(ctx context.Context, req *pb.ConfirmPasswordResetRequest) (*pb.Empty, error) {
	if err := s.auth.ConfirmPasswordReset(ctx, req.Token, req.NewPassword); err != nil {
		return nil, s.toStatus(err, "confirm password reset")
	}
	return &pb.Empty{}, nil
}

// SetProfile merges the caller's profile document.
func (s *Server) SetProfile(ctx context.Context, req *pb.SetProfileRequest) (*pb.Empty, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.profiles.Set(ctx, userID, convert.FromWireProfile(req.Profile)); err != nil {
		return nil, s.toStatus(err, "set profile")
	}
	return &pb.Empty{}, nil
}

// --- Plans ---

// ListPlans returns the caller's plans.
func (s *Server) ListPlans(ctx context.Context, _ *pb.ListPlansRequest) (*pb.PlanList, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	plans, err := s.plans.List(ctx, userID)
	if err != nil {
		return nil, s.toStatus(err, "list plans")
	}
	return &pb.PlanList{Plans: convert.ToWirePlans(plans)}, nil
}

// CreatePlan stores a new plan; any client-supplied id is ignored.
func (s *Server) CreatePlan(ctx context.Context, req *pb.CreatePlanRequest) (*pb.CreatePlanResponse, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	in := req.Plan
	in.ID = ""
	p, err := convert.FromWirePlan(in)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "bad plan: %v", err)
	}
	created, err := s.plans.Create(ctx, userID, p)
	if err != nil {
		return nil, s.toStatus(err, "create plan")
	}
	return &pb.CreatePlanResponse{Plan: convert.ToWirePlan(created)}, nil
}

// UpdatePlan replaces the mutable fields of an existing plan.
func (s *Server) UpdatePlan(ctx context.Context, req *pb.UpdatePlanRequest) (*pb.Empty, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	p, err := convert.FromWirePlan(req.Plan)
	if err != nil || p.ID == uuid.Nil {
		return nil, status.Error(codes.InvalidArgument, "bad id")
	}
	if err := s.plans.Update(ctx, userID, p); err != nil {
		return nil, s.toStatus(err, "update plan")
	}
	return &pb.Empty{}, nil
}

// DeletePlan removes a plan.
func (s *Server) DeletePlan(ctx context.Context, req *pb.DeletePlanRequest) (*pb.Empty, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	planID, err := uuid.FromString(req.ID)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "bad id")
	}
	if err := s.plans.Delete(ctx, userID, planID); err != nil {
		return nil, s.toStatus(err, "delete plan")
	}
	return &pb.Empty{}, nil
}

// WatchPlans sends the full plan set now and again after every change, until the client leaves.
// A failed read ends the stream with an error status.
func (s *Server) WatchPlans(_ *pb.WatchPlansRequest, stream grpc.ServerStreamingServer[pb.PlanList]) error {
	ctx := stream.Context()
	userID, err := userFrom(ctx)
	if err != nil {
		return err
	}
	// subscribe first so a change between the read and the wait is not lost
	sub := s.hub.Subscribe(userID)
	defer sub.Close()

	for {
		plans, err := s.plans.List(ctx, userID)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return s.toStatus(err, "watch plans")
		}
		if err := stream.Send(&pb.PlanList{Plans: convert.ToWirePlans(plans)}); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-sub.C():
		}
	}
}
