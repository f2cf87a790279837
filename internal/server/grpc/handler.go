package grpc

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dmitrijs2005/userauth/internal/common"
	"github.com/dmitrijs2005/userauth/internal/server/models"
	"github.com/dmitrijs2005/userauth/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrDuplicate):
		return status.Error(codes.AlreadyExists, common.ErrDuplicate.Error())
	case errors.Is(err, common.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, common.ErrInvalidCredentials.Error())
	case errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, common.ErrInvalidToken.Error())
	case errors.Is(err, common.ErrorForbidden):
		return status.Error(codes.PermissionDenied, common.ErrorForbidden.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "user not found")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func stringField(in *structpb.Struct, key string) string {
	if v, ok := in.GetFields()[key]; ok {
		return v.GetStringValue()
	}
	return ""
}

func idField(in *structpb.Struct) (int64, error) {
	v, ok := in.GetFields()["id"]
	if !ok {
		return 0, status.Error(codes.InvalidArgument, "id is required")
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue != math.Trunc(n.NumberValue) || n.NumberValue < 1 || n.NumberValue >= math.MaxInt64 {
		return 0, status.Error(codes.InvalidArgument, "id must be a positive integer")
	}
	return int64(n.NumberValue), nil
}

func userStruct(u *models.User) (*structpb.Struct, error) {
	m := map[string]any{
		"id":        u.ID,
		"username":  u.UserName,
		"email":     u.Email,
		"firstName": u.FirstName,
		"lastName":  u.LastName,
		"role":      u.Role.String(),
		"enabled":   u.Enabled,
		"createdAt": u.CreatedAt.Format(time.RFC3339),
		"updatedAt": u.UpdatedAt.Format(time.RFC3339),
	}
	if u.PhoneNumber != nil {
		m["phoneNumber"] = *u.PhoneNumber
	}
	if u.LastLogin != nil {
		m["lastLogin"] = u.LastLogin.Format(time.RFC3339)
	}
	return structpb.NewStruct(m)
}

func (s *GRPCServer) authResponse(res *services.AuthResult) (*structpb.Struct, error) {
	user, err := userStruct(res.User)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"token":     structpb.NewStringValue(res.Token),
		"tokenType": structpb.NewStringValue(res.TokenType),
		"user":      structpb.NewStructValue(user),
	}}, nil
}

func (s *GRPCServer) userResponse(u *models.User) (*structpb.Struct, error) {
	out, err := userStruct(u)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

func (s *GRPCServer) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	s.logger.Info(ctx, "Registration request")

	res, err := s.users.Register(ctx, services.RegisterRequest{
		Username:    stringField(req, "username"),
		Email:       stringField(req, "email"),
		Password:    stringField(req, "password"),
		FirstName:   stringField(req, "firstName"),
		LastName:    stringField(req, "lastName"),
		PhoneNumber: stringField(req, "phoneNumber"),
	})
	if err != nil {
		return nil, toStatus(err)
	}

	s.logger.Info(ctx, "Registered", "user_id", res.User.ID)
	return s.authResponse(res)
}

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	res, err := s.users.Login(ctx, stringField(req, "usernameOrEmail"), stringField(req, "password"))
	if err != nil {
		return nil, toStatus(err)
	}

	return s.authResponse(res)
}

func (s *GRPCServer) ValidateToken(ctx context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error) {
	return wrapperspb.Bool(s.users.IsTokenValid(ctx, stringField(req, "token"))), nil
}

// CurrentUser reads the token from the authorization metadata.
func (s *GRPCServer) CurrentUser(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	token := firstMetadata(ctx, common.AuthorizationHeaderName)
	if token == "" {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	u, err := s.users.CurrentUser(ctx, token)
	if err != nil {
		return nil, toStatus(err)
	}
	return s.userResponse(u)
}

func (s *GRPCServer) ChangeRole(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := idField(req)
	if err != nil {
		return nil, err
	}
	role, err := models.ParseRole(stringField(req, "role"))
	if err != nil {
		return nil, toStatus(err)
	}

	u, err := s.users.ChangeRole(ctx, id, role)
	if err != nil {
		return nil, toStatus(err)
	}
	return s.userResponse(u)
}

func (s *GRPCServer) SetEnabled(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := idField(req)
	if err != nil {
		return nil, err
	}
	v, ok := req.GetFields()["enabled"]
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "enabled is required")
	}
	b, ok := v.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("enabled must be a boolean, got %T", v.GetKind()))
	}

	u, err := s.users.SetEnabled(ctx, id, b.BoolValue)
	if err != nil {
		return nil, toStatus(err)
	}
	return s.userResponse(u)
}
