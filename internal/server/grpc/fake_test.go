package grpc

import (
	"context"

	"github.com/dmitrijs2005/userauth/internal/common"
	"github.com/dmitrijs2005/userauth/internal/logging"
	"github.com/dmitrijs2005/userauth/internal/server/models"
	"github.com/dmitrijs2005/userauth/internal/server/services"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

// fakeUsers knows two tokens: "user-token" (alice, USER) and "admin-token"
// (root, ADMIN). Everything else is an invalid token.
type fakeUsers struct {
	registerErr error
	loginErr    error
	mutateErr   error

	lastRegister services.RegisterRequest
	lastRole     models.Role
	lastEnabled  *bool
}

func fakeUser(id int64, name string, role models.Role) *models.User {
	u := models.NewUser(name, name+"@example.com", nil)
	u.ID = id
	u.Role = role
	return u
}

func (f *fakeUsers) byToken(token string) (*models.User, error) {
	switch common.StripBearerPrefix(token) {
	case "user-token":
		return fakeUser(1, "alice", models.RoleUser), nil
	case "admin-token":
		return fakeUser(2, "root", models.RoleAdmin), nil
	}
	return nil, common.ErrInvalidToken
}

func (f *fakeUsers) Register(ctx context.Context, req services.RegisterRequest) (*services.AuthResult, error) {
	f.lastRegister = req
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &services.AuthResult{Token: "user-token", TokenType: common.TokenType, User: fakeUser(1, req.Username, models.RoleUser)}, nil
}

func (f *fakeUsers) Login(ctx context.Context, login, password string) (*services.AuthResult, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	if login != "alice" || password != "secret1" {
		return nil, common.ErrInvalidCredentials
	}
	return &services.AuthResult{Token: "user-token", TokenType: common.TokenType, User: fakeUser(1, "alice", models.RoleUser)}, nil
}

func (f *fakeUsers) IsTokenValid(ctx context.Context, token string) bool {
	_, err := f.byToken(token)
	return err == nil
}

func (f *fakeUsers) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	return f.byToken(token)
}

func (f *fakeUsers) Authenticate(ctx context.Context, token string) (*models.Principal, error) {
	u, err := f.byToken(token)
	if err != nil {
		return nil, err
	}
	return models.NewPrincipal(u), nil
}

func (f *fakeUsers) ChangeRole(ctx context.Context, id int64, role models.Role) (*models.User, error) {
	f.lastRole = role
	if f.mutateErr != nil {
		return nil, f.mutateErr
	}
	return fakeUser(id, "target", role), nil
}

func (f *fakeUsers) SetEnabled(ctx context.Context, id int64, enabled bool) (*models.User, error) {
	f.lastEnabled = &enabled
	if f.mutateErr != nil {
		return nil, f.mutateErr
	}
	u := fakeUser(id, "target", models.RoleUser)
	u.Enabled = enabled
	return u, nil
}
