package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/userauth/internal/common"
	"github.com/dmitrijs2005/userauth/internal/dbx"
	"github.com/dmitrijs2005/userauth/internal/server/models"
)

func (s *UserService) lookupErr(ctx context.Context, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrorNotFound
	}
	return s.internal(ctx, "lookup user", err)
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.users().GetByID(ctx, id)
	if err != nil {
		return nil, s.lookupErr(ctx, err)
	}
	return u, nil
}

func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := s.users().GetByUsername(ctx, username)
	if err != nil {
		return nil, s.lookupErr(ctx, err)
	}
	return u, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	list, err := s.users().List(ctx)
	if err != nil {
		return nil, s.internal(ctx, "list users", err)
	}
	return list, nil
}

// UpdateUser applies req to user id. A new username or email that belongs
// to another user yields common.ErrDuplicate; the password is rehashed only
// when given.
func (s *UserService) UpdateUser(ctx context.Context, id int64, req UpdateRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	var user *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		u, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if req.Username != nil && *req.Username != u.UserName {
			taken, err := repo.ExistsByUsername(ctx, *req.Username)
			if err != nil {
				return err
			}
			if taken {
				return common.ErrDuplicate
			}
			u.UserName = *req.Username
		}
		if req.Email != nil && *req.Email != u.Email {
			taken, err := repo.ExistsByEmail(ctx, *req.Email)
			if err != nil {
				return err
			}
			if taken {
				return common.ErrDuplicate
			}
			u.Email = *req.Email
		}
		if req.Password != nil {
			hash, err := s.hasher.Hash(*req.Password)
			if err != nil {
				return err
			}
			u.PasswordHash = hash
		}
		if req.FirstName != nil {
			u.FirstName = *req.FirstName
		}
		if req.LastName != nil {
			u.LastName = *req.LastName
		}
		if req.PhoneNumber != nil {
			phone, err := normalizePhone(*req.PhoneNumber)
			if err != nil {
				return validationError(err)
			}
			u.PhoneNumber = phone
		}

		if err := repo.Update(ctx, u); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorNotFound), errors.Is(err, common.ErrDuplicate), errors.Is(err, common.ErrorValidation):
			return nil, err
		}
		return nil, s.internal(ctx, "update user", err, "user_id", id)
	}

	s.log.Info(ctx, "user profile updated", "user_id", id)
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.users().Delete(ctx, id); err != nil {
		return s.lookupErr(ctx, err)
	}
	s.log.Info(ctx, "user deleted", "user_id", id)
	return nil
}

type demoUser struct {
	req  RegisterRequest
	role models.Role
}

var demoUsers = []demoUser{
	{RegisterRequest{Username: "admin", Email: "admin@example.com", Password: "admin123", FirstName: "Admin", LastName: "User"}, models.RoleAdmin},
	{RegisterRequest{Username: "john_doe", Email: "john.doe@example.com", Password: "password123", FirstName: "John", LastName: "Doe"}, models.RoleUser},
	{RegisterRequest{Username: "jane_smith", Email: "jane.smith@example.com", Password: "password123", FirstName: "Jane", LastName: "Smith"}, models.RoleUser},
	{RegisterRequest{Username: "moderator", Email: "moderator@example.com", Password: "mod123", FirstName: "Mod", LastName: "User"}, models.RoleModerator},
}

// SeedDemoUsers inserts the demo accounts that do not exist yet, in one
// transaction, and returns how many were created.
func (s *UserService) SeedDemoUsers(ctx context.Context) (int, error) {
	created := 0
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		for _, d := range demoUsers {
			exists, err := repo.ExistsByUsernameOrEmail(ctx, d.req.Username, d.req.Email)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			hash, err := s.hasher.Hash(d.req.Password)
			if err != nil {
				return err
			}
			u := models.NewUser(d.req.Username, d.req.Email, hash)
			u.FirstName = d.req.FirstName
			u.LastName = d.req.LastName
			u.Role = d.role
			if _, err := repo.Create(ctx, u); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, s.internal(ctx, "seed demo users", err)
	}
	s.log.Info(ctx, "demo users seeded", "created", created)
	return created, nil
}
