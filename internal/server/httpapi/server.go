// Package httpapi exposes the user authentication operations as a JSON API
// under /api/users, built on gin.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/userauth/internal/logging"
	"github.com/dmitrijs2005/userauth/internal/server/models"
	"github.com/dmitrijs2005/userauth/internal/server/services"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 5 * time.Second

// Users is the part of services.UserService the HTTP API needs.
type Users interface {
	Register(ctx context.Context, req services.RegisterRequest) (*services.AuthResult, error)
	Login(ctx context.Context, login, password string) (*services.AuthResult, error)
	IsTokenValid(ctx context.Context, token string) bool
	CurrentUser(ctx context.Context, token string) (*models.User, error)
	Authenticate(ctx context.Context, token string) (*models.Principal, error)
	ChangeRole(ctx context.Context, id int64, role models.Role) (*models.User, error)
	SetEnabled(ctx context.Context, id int64, enabled bool) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateUser(ctx context.Context, id int64, req services.UpdateRequest) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// RateLimit throttles login and registration per client address.
// A non-positive PerSecond disables throttling.
type RateLimit struct {
	PerSecond int
	Burst     int
}

type HTTPServer struct {
	address string
	logger  logging.Logger
	engine  *gin.Engine
}

func NewHTTPServer(a string, l logging.Logger, us Users, limit RateLimit) *HTTPServer {
	logger := l.With("module", "http_server")
	h := &handlers{users: us}
	return &HTTPServer{
		address: a,
		logger:  logger,
		engine:  newRouter(h, logger, limit),
	}
}

// Handler returns the routed gin engine.
func (s *HTTPServer) Handler() http.Handler { return s.engine }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
