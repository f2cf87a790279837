package grpc

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/userauth/internal/server/auth"
	"github.com/dmitrijs2005/userauth/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func newTestServer() *GRPCServer {
	return &GRPCServer{logger: nopLogger{}, users: &fakeUsers{}}
}

func TestInterceptor_PublicMethod_AllowsWithoutToken(t *testing.T) {
	s := newTestServer()

	info := &grpc.UnaryServerInfo{FullMethod: FullMethod(MethodLogin)}
	handlerCalled := false

	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		handlerCalled = true
		return "ok", nil
	}

	resp, err := s.accessTokenInterceptor(context.Background(), nil, info, h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handlerCalled || resp != "ok" {
		t.Fatalf("handler not called properly: called=%v resp=%v", handlerCalled, resp)
	}
}

func TestInterceptor_AdminMethod_PutsPrincipalInContext(t *testing.T) {
	s := newTestServer()

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer admin-token"))
	info := &grpc.UnaryServerInfo{FullMethod: FullMethod(MethodSetEnabled)}

	var got *models.Principal
	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		got, _ = auth.PrincipalFromContext(ctx)
		return nil, nil
	}

	if _, err := s.accessTokenInterceptor(ctx, nil, info, h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.User.UserName != "root" {
		t.Fatalf("principal not set: %+v", got)
	}
}

func TestInterceptor_AdminMethod_Rejects(t *testing.T) {
	s := newTestServer()
	info := &grpc.UnaryServerInfo{FullMethod: FullMethod(MethodChangeRole)}
	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		t.Fatal("handler must not be called")
		return nil, nil
	}

	tests := []struct {
		name string
		md   metadata.MD
		want codes.Code
	}{
		{"no metadata", nil, codes.Unauthenticated},
		{"bare prefix", metadata.Pairs("authorization", "Bearer "), codes.Unauthenticated},
		{"invalid", metadata.Pairs("authorization", "nope"), codes.Unauthenticated},
		{"not admin", metadata.Pairs("authorization", "user-token"), codes.PermissionDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.md != nil {
				ctx = metadata.NewIncomingContext(ctx, tt.md)
			}
			_, err := s.accessTokenInterceptor(ctx, nil, info, h)
			if status.Code(err) != tt.want {
				t.Fatalf("want %v, got %v", tt.want, err)
			}
		})
	}
}
