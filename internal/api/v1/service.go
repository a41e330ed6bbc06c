package apiv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "studyflow.v1.StudyFlow"

// Full method names, used by interceptors to tell public calls apart.
const (
	MethodSignUp               = "/" + ServiceName + "/SignUp"
	MethodSignIn               = "/" + ServiceName + "/SignIn"
	MethodWhoAmI               = "/" + ServiceName + "/WhoAmI"
	MethodUpdateDisplayName    = "/" + ServiceName + "/UpdateDisplayName"
	MethodSendPasswordReset    = "/" + ServiceName + "/SendPasswordReset"
	MethodConfirmPasswordReset = "/" + ServiceName + "/ConfirmPasswordReset"
	MethodSetProfile           = "/" + ServiceName + "/SetProfile"
	MethodListPlans            = "/" + ServiceName + "/ListPlans"
	MethodCreatePlan           = "/" + ServiceName + "/CreatePlan"
	MethodUpdatePlan           = "/" + ServiceName + "/UpdatePlan"
	MethodDeletePlan           = "/" + ServiceName + "/DeletePlan"
	MethodWatchPlans           = "/" + ServiceName + "/WatchPlans"
)

// StudyFlowServer is the server API.
type StudyFlowServer interface {
	SignUp(context.Context, *SignUpRequest) (*AuthResponse, error)
	SignIn(context.Context, *SignInRequest) (*AuthResponse, error)
	WhoAmI(context.Context, *WhoAmIRequest) (*Identity, error)
	UpdateDisplayName(context.Context, *UpdateDisplayNameRequest) (*Identity, error)
	SendPasswordReset(context.Context, *SendPasswordResetRequest) (*Empty, error)
	ConfirmPasswordReset(context.Context, *ConfirmPasswordResetRequest) (*Empty, error)
	SetProfile(context.Context, *SetProfileRequest) (*Empty, error)
	ListPlans(context.Context, *ListPlansRequest) (*PlanList, error)
	CreatePlan(context.Context, *CreatePlanRequest) (*CreatePlanResponse, error)
	UpdatePlan(context.Context, *UpdatePlanRequest) (*Empty, error)
	DeletePlan(context.Context, *DeletePlanRequest) (*Empty, error)
	WatchPlans(*WatchPlansRequest, grpc.ServerStreamingServer[PlanList]) error
}

// UnimplementedStudyFlowServer answers Unimplemented for every method.
type UnimplementedStudyFlowServer struct{}

func unimplemented(name string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", name)
}

func (UnimplementedStudyFlowServer) SignUp(context.Context, *SignUpRequest) (*AuthResponse, error) {
	return nil, unimplemented("SignUp")
}
func (UnimplementedStudyFlowServer) SignIn(context.Context, *SignInRequest) (*AuthResponse, error) {
	return nil, unimplemented("SignIn")
}
func (UnimplementedStudyFlowServer) WhoAmI(context.Context, *WhoAmIRequest) (*Identity, error) {
	return nil, unimplemented("WhoAmI")
}
func (UnimplementedStudyFlowServer) UpdateDisplayName(context.Context, *UpdateDisplayNameRequest) (*Identity, error) {
	return nil, unimplemented("UpdateDisplayName")
}
func (UnimplementedStudyFlowServer) SendPasswordReset(context.Context, *SendPasswordResetRequest) (*Empty, error) {
	return nil, unimplemented("SendPasswordReset")
}
func (UnimplementedStudyFlowServer) ConfirmPasswordReset(context.Context, *ConfirmPasswordResetRequest) (*Empty, error) {
	return nil, unimplemented("ConfirmPasswordReset")
}
func (UnimplementedStudyFlowServer) SetProfile(context.Context, *SetProfileRequest) (*Empty, error) {
	return nil, unimplemented("SetProfile")
}
func (UnimplementedStudyFlowServer) ListPlans(context.Context, *ListPlansRequest) (*PlanList, error) {
	return nil, unimplemented("ListPlans")
}
func (UnimplementedStudyFlowServer) CreatePlan(context.Context, *CreatePlanRequest) (*CreatePlanResponse, error) {
	return nil, unimplemented("CreatePlan")
}
func (UnimplementedStudyFlowServer) UpdatePlan(context.Context, *UpdatePlanRequest) (*Empty, error) {
	return nil, unimplemented("UpdatePlan")
}
func (UnimplementedStudyFlowServer) DeletePlan(context.Context, *DeletePlanRequest) (*Empty, error) {
	return nil, unimplemented("DeletePlan")
}
func (UnimplementedStudyFlowServer) WatchPlans(*WatchPlansRequest, grpc.ServerStreamingServer[PlanList]) error {
	return unimplemented("WatchPlans")
}

// RegisterStudyFlowServer attaches srv to s.
func RegisterStudyFlowServer(s grpc.ServiceRegistrar, srv StudyFlowServer) {
	s.RegisterService(&StudyFlow_ServiceDesc, srv)
}

func unary[Req, Resp any](name string, call func(StudyFlowServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	full := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(StudyFlowServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(StudyFlowServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func watchPlansHandler(srv any, stream grpc.ServerStream) error {
	in := new(WatchPlansRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(StudyFlowServer).WatchPlans(in, &grpc.GenericServerStream[WatchPlansRequest, PlanList]{ServerStream: stream})
}

// StudyFlow_ServiceDesc describes the service for grpc.Server.
var StudyFlow_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StudyFlowServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("SignUp", StudyFlowServer.SignUp),
		unary("SignIn", StudyFlowServer.SignIn),
		unary("WhoAmI", StudyFlowServer.WhoAmI),
		unary("UpdateDisplayName", StudyFlowServer.UpdateDisplayName),
		unary("SendPasswordReset", StudyFlowServer.SendPasswordReset),
		unary("ConfirmPasswordReset", StudyFlowServer.ConfirmPasswordReset),
		unary("SetProfile", StudyFlowServer.SetProfile),
		unary("ListPlans", StudyFlowServer.ListPlans),
		unary("CreatePlan", StudyFlowServer.CreatePlan),
		unary("UpdatePlan", StudyFlowServer.UpdatePlan),
		unary("DeletePlan", StudyFlowServer.DeletePlan),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchPlans",
			Handler:       watchPlansHandler,
			ServerStreams: true,
		},
	},
	Metadata: "studyflow/v1/studyflow.api",
}

// StudyFlowClient is the client API.
type StudyFlowClient interface {
	SignUp(ctx context.Context, in *SignUpRequest, opts ...grpc.CallOption) (*AuthResponse, error)
	SignIn(ctx context.Context, in *SignInRequest, opts ...grpc.CallOption) (*AuthResponse, error)
	WhoAmI(ctx context.Context, in *WhoAmIRequest, opts ...grpc.CallOption) (*Identity, error)
	UpdateDisplayName(ctx context.Context, in *UpdateDisplayNameRequest, opts ...grpc.CallOption) (*Identity, error)
	SendPasswordReset(ctx context.Context, in *SendPasswordResetRequest, opts ...grpc.CallOption) (*Empty, error)
	ConfirmPasswordReset(ctx context.Context, in *ConfirmPasswordResetRequest, opts ...grpc.CallOption) (*Empty, error)
	SetProfile(ctx context.Context, in *SetProfileRequest, opts ...grpc.CallOption) (*Empty, error)
	ListPlans(ctx context.Context, in *ListPlansRequest, opts ...grpc.CallOption) (*PlanList, error)
	CreatePlan(ctx context.Context, in *CreatePlanRequest, opts ...grpc.CallOption) (*CreatePlanResponse, error)
	UpdatePlan(ctx context.Context, in *UpdatePlanRequest, opts ...grpc.CallOption) (*Empty, error)
	DeletePlan(ctx context.Context, in *DeletePlanRequest, opts ...grpc.CallOption) (*Empty, error)
	WatchPlans(ctx context.Context, in *WatchPlansRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[PlanList], error)
}

type studyFlowClient struct {
	cc grpc.ClientConnInterface
}

// NewStudyFlowClient wraps a connection. Every call is sent with the JSON codec.
func NewStudyFlowClient(cc grpc.ClientConnInterface) StudyFlowClient {
	return &studyFlowClient{cc: cc}
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(Codec)}, opts...)
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := cc.Invoke(ctx, method, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *studyFlowClient) SignUp(ctx context.Context, in *SignUpRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, MethodSignUp, in, opts)
}
func (c *studyFlowClient) SignIn(ctx context.Context, in *SignInRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, MethodSignIn, in, opts)
}
func (c *studyFlowClient) WhoAmI(ctx context.Context, in *WhoAmIRequest, opts ...grpc.CallOption) (*Identity, error) {
	return invoke[Identity](ctx, c.cc, MethodWhoAmI, in, opts)
}
func (c *studyFlowClient) UpdateDisplayName(ctx context.Context, in *UpdateDisplayNameRequest, opts ...grpc.CallOption) (*Identity, error) {
	return invoke[Identity](ctx, c.cc, MethodUpdateDisplayName, in, opts)
}
func (c *studyFlowClient) SendPasswordReset(ctx context.Context, in *SendPasswordResetRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodSendPasswordReset, in, opts)
}
func (c *studyFlowClient) ConfirmPasswordReset(ctx context.Context, in *ConfirmPasswordResetRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodConfirmPasswordReset, in, opts)
}
func (c *studyFlowClient) SetProfile(ctx context.Context, in *SetProfileRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodSetProfile, in, opts)
}
func (c *studyFlowClient) ListPlans(ctx context.Context, in *ListPlansRequest, opts ...grpc.CallOption) (*PlanList, error) {
	return invoke[PlanList](ctx, c.cc, MethodListPlans, in, opts)
}
func (c *studyFlowClient) CreatePlan(ctx context.Context, in *CreatePlanRequest, opts ...grpc.CallOption) (*CreatePlanResponse, error) {
	return invoke[CreatePlanResponse](ctx, c.cc, MethodCreatePlan, in, opts)
}
func (c *studyFlowClient) UpdatePlan(ctx context.Context, in *UpdatePlanRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodUpdatePlan, in, opts)
}
func (c *studyFlowClient) DeletePlan(ctx context.Context, in *DeletePlanRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodDeletePlan, in, opts)
}

func (c *studyFlowClient) WatchPlans(ctx context.Context, in *WatchPlansRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[PlanList], error) {
	stream, err := c.cc.NewStream(ctx, &StudyFlow_ServiceDesc.Streams[0], MethodWatchPlans, withCodec(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[WatchPlansRequest, PlanList]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
