// Package services contains server-side business logic. This file implements
// UserService, which registers users, verifies credentials, issues tokens and
// resolves tokens back to users.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/userauth/internal/common"
	"github.com/dmitrijs2005/userauth/internal/dbx"
	"github.com/dmitrijs2005/userauth/internal/logging"
	"github.com/dmitrijs2005/userauth/internal/server/auth"
	"github.com/dmitrijs2005/userauth/internal/server/metrics"
	"github.com/dmitrijs2005/userauth/internal/server/models"
	"github.com/dmitrijs2005/userauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/userauth/internal/server/repositories/users"
)

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token     string
	TokenType string
	User      *models.User
}

// UserService provides the authentication operations:
//   - Register: create a USER account and issue a token
//   - Login: verify credentials and issue a token
//   - CurrentUser / IsTokenValid / Authenticate: resolve tokens
//   - ChangeRole / SetEnabled and the profile operations in admin.go
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenService
	hasher      *auth.PasswordHasher
	log         logging.Logger
	now         func() time.Time
}

// NewUserService constructs a UserService.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, tokens *auth.TokenService,
	hasher *auth.PasswordHasher, log logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		hasher:      hasher,
		log:         log.With("module", "users"),
		now:         time.Now,
	}
}

func (s *UserService) users() users.Repository {
	return s.repomanager.Users(s.db)
}

func (s *UserService) internal(ctx context.Context, msg string, err error, args ...any) error {
	s.log.Error(ctx, msg, append(args, "error", err)...)
	return common.ErrorInternal
}

// Register validates req, creates a USER account and issues a token for it.
// A taken username or email yields common.ErrDuplicate.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	user, err := s.createUser(ctx, s.users(), req, models.RoleUser)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrDuplicate):
			metrics.Registration(metrics.ResultDuplicate)
		case errors.Is(err, common.ErrorValidation):
			metrics.Registration(metrics.ResultInvalid)
		default:
			metrics.Registration(metrics.ResultError)
		}
		return nil, err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		metrics.Registration(metrics.ResultError)
		return nil, s.internal(ctx, "issue token", err, "user_id", user.ID)
	}

	metrics.Registration(metrics.ResultSuccess)
	s.log.Info(ctx, "user registered", "user_id", user.ID, "username", user.UserName)
	return &AuthResult{Token: token, TokenType: common.TokenType, User: user}, nil
}

// CreateUser creates an account with the given role without issuing a token.
func (s *UserService) CreateUser(ctx context.Context, req RegisterRequest, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, validationError(errors.New("unknown role"))
	}
	return s.createUser(ctx, s.users(), req, role)
}

func (s *UserService) createUser(ctx context.Context, repo users.Repository, req RegisterRequest, role models.Role) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}
	phone, err := normalizePhone(req.PhoneNumber)
	if err != nil {
		return nil, validationError(err)
	}

	exists, err := repo.ExistsByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		return nil, s.internal(ctx, "check user existence", err)
	}
	if exists {
		return nil, common.ErrDuplicate
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, s.internal(ctx, "hash password", err)
	}

	user := models.NewUser(req.Username, req.Email, hash)
	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.PhoneNumber = phone
	user.Role = role

	created, err := repo.Create(ctx, user)
	if err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, common.ErrDuplicate) {
			return nil, common.ErrDuplicate
		}
		return nil, s.internal(ctx, "create user", err)
	}
	return created, nil
}

// Login authenticates by username or email. Every credential failure is
// reported as common.ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, login, password string) (*AuthResult, error) {
	user, err := s.users().GetByUsernameOrEmail(ctx, login)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.VerifyDummy(password)
		} else {
			s.log.Error(ctx, "lookup user", "error", err)
		}
		metrics.Login(metrics.ResultFailure)
		return nil, common.ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		s.log.Error(ctx, "verify password", "user_id", user.ID, "error", err)
	}
	if !ok || !user.CanLogin() {
		metrics.Login(metrics.ResultFailure)
		s.log.Info(ctx, "login rejected", "user_id", user.ID)
		return nil, common.ErrInvalidCredentials
	}

	now := s.now()
	if err := s.users().UpdateLastLogin(ctx, user.ID, now); err != nil {
		metrics.Login(metrics.ResultError)
		return nil, s.internal(ctx, "update last login", err, "user_id", user.ID)
	}
	user.LastLogin = &now

	token, err := s.tokens.Issue(user)
	if err != nil {
		metrics.Login(metrics.ResultError)
		return nil, s.internal(ctx, "issue token", err, "user_id", user.ID)
	}

	metrics.Login(metrics.ResultSuccess)
	s.log.Info(ctx, "user logged in", "user_id", user.ID)
	return &AuthResult{Token: token, TokenType: common.TokenType, User: user}, nil
}

// CurrentUser resolves the user named by token. The token's expiry is not
// checked here; callers that need a live session use Authenticate.
func (s *UserService) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	subject, err := s.tokens.ExtractSubject(common.StripBearerPrefix(token))
	if err != nil {
		return nil, common.ErrInvalidToken
	}
	user, err := s.users().GetByUsername(ctx, subject)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.log.Error(ctx, "lookup user", "error", err)
		}
		return nil, common.ErrInvalidToken
	}
	return user, nil
}

// IsTokenValid reports whether token is correctly signed, unexpired and
// names an existing user.
func (s *UserService) IsTokenValid(ctx context.Context, token string) bool {
	user, err := s.CurrentUser(ctx, token)
	if err != nil {
		metrics.TokenValidation(metrics.ResultInvalid)
		return false
	}
	ok := s.tokens.Validate(common.StripBearerPrefix(token), user.UserName)
	metrics.TokenValidation(metrics.BoolResult(ok))
	return ok
}

// Authenticate turns a bearer token into a Principal for the transports.
// Unlike CurrentUser it rejects expired tokens, tokens whose user id does
// not match the stored user, and users that may not log in.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.Principal, error) {
	claims, err := s.tokens.ExtractClaims(common.StripBearerPrefix(token))
	if err != nil {
		return nil, common.ErrInvalidToken
	}
	if s.tokens.Expired(claims) {
		s.log.Debug(ctx, "token rejected", "subject", claims.Subject, "reason", common.ErrTokenExpired)
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, common.ErrTokenExpired)
	}
	user, err := s.users().GetByUsername(ctx, claims.Subject)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.log.Error(ctx, "lookup user", "error", err)
		}
		return nil, common.ErrInvalidToken
	}
	if user.ID != claims.UserID || !user.CanLogin() {
		return nil, common.ErrInvalidToken
	}
	return models.NewPrincipal(user), nil
}

// ChangeRole sets the role of user id and returns the updated user.
func (s *UserService) ChangeRole(ctx context.Context, id int64, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, validationError(errors.New("unknown role"))
	}
	return s.mutate(ctx, id, func(ctx context.Context, repo users.Repository) error {
		return repo.UpdateRole(ctx, id, role)
	})
}

// SetEnabled enables or disables user id and returns the updated user.
func (s *UserService) SetEnabled(ctx context.Context, id int64, enabled bool) (*models.User, error) {
	return s.mutate(ctx, id, func(ctx context.Context, repo users.Repository) error {
		return repo.UpdateEnabled(ctx, id, enabled)
	})
}

// mutate applies fn and re-reads the user in one transaction.
func (s *UserService) mutate(ctx context.Context, id int64, fn func(context.Context, users.Repository) error) (*models.User, error) {
	var user *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		if err := fn(ctx, repo); err != nil {
			return err
		}
		var err error
		user, err = repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, s.internal(ctx, "update user", err, "user_id", id)
	}
	s.log.Info(ctx, "user updated", "user_id", id, "role", user.Role, "enabled", user.Enabled)
	return user, nil
}
