package grpc

import (
	"context"

	"github.com/dmitrijs2005/userauth/internal/server/models"
	"github.com/dmitrijs2005/userauth/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "userauth.v1.AuthService"

const (
	MethodRegister      = "Register"
	MethodLogin         = "Login"
	MethodValidateToken = "ValidateToken"
	MethodCurrentUser   = "CurrentUser"
	MethodChangeRole    = "ChangeRole"
	MethodSetEnabled    = "SetEnabled"
)

// FullMethod returns "/userauth.v1.AuthService/<method>".
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// UserAuthenticator is the part of services.UserService the transport needs.
type UserAuthenticator interface {
	Register(ctx context.Context, req services.RegisterRequest) (*services.AuthResult, error)
	Login(ctx context.Context, login, password string) (*services.AuthResult, error)
	IsTokenValid(ctx context.Context, token string) bool
	CurrentUser(ctx context.Context, token string) (*models.User, error)
	Authenticate(ctx context.Context, token string) (*models.Principal, error)
	ChangeRole(ctx context.Context, id int64, role models.Role) (*models.User, error)
	SetEnabled(ctx context.Context, id int64, enabled bool) (*models.User, error)
}

// AuthServiceServer is the server side of userauth.v1.AuthService. Messages
// are well-known types, so no generated code is needed.
type AuthServiceServer interface {
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ValidateToken(context.Context, *structpb.Struct) (*wrapperspb.BoolValue, error)
	CurrentUser(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ChangeRole(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetEnabled(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func unary[Req any, PReq interface {
	*Req
	proto.Message
}, Resp proto.Message](method string, call func(AuthServiceServer, context.Context, PReq) (Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := PReq(new(Req))
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(AuthServiceServer)
			if interceptor == nil {
				out, err := call(s, ctx, in)
				return out, err
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				out, err := call(s, ctx, req.(PReq))
				return out, err
			})
		},
	}
}

var authServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary[structpb.Struct](MethodRegister, AuthServiceServer.Register),
		unary[structpb.Struct](MethodLogin, AuthServiceServer.Login),
		unary[structpb.Struct](MethodValidateToken, AuthServiceServer.ValidateToken),
		unary[emptypb.Empty](MethodCurrentUser, AuthServiceServer.CurrentUser),
		unary[structpb.Struct](MethodChangeRole, AuthServiceServer.ChangeRole),
		unary[structpb.Struct](MethodSetEnabled, AuthServiceServer.SetEnabled),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "userauth/v1/auth.proto",
}

// RegisterAuthServiceServer registers srv on s.
func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&authServiceDesc, srv)
}
