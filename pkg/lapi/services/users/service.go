package users

import (
	"context"
	"errors"
	"strings"

	"github.com/quatton/libra/pkg/db"
	"github.com/quatton/libra/pkg/db/models"
	"github.com/quatton/libra/pkg/lapi/apierr"
	"github.com/quatton/libra/pkg/lapi/schemas"
	"github.com/quatton/libra/pkg/lapi/services/authconfig"
)

type UsersService struct {
	repo db.Repository[models.User]
	auth *authconfig.AuthService
}

func NewUsersService(repo db.Repository[models.User], auth *authconfig.AuthService) *UsersService {
	return &UsersService{repo: repo, auth: auth}
}

func (s *UsersService) List(ctx context.Context, page db.Page, filter db.Filter) ([]models.User, error) {
	return s.repo.List(ctx, page, filter)
}

func (s *UsersService) Get(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.repo.Get(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apierr.NotFound("user", id)
	}
	return u, err
}

// Update applies the fields present in body. Changing your own password
// requires the current one; librarians editing others do not.
func (s *UsersService) Update(ctx context.Context, id int64, body schemas.UserUpdateBody, self bool) (*models.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if v := strings.TrimSpace(body.Email); v != "" {
		u.Email = v
	}
	if v := strings.TrimSpace(body.FirstName); v != "" {
		u.FirstName = v
	}
	if v := strings.TrimSpace(body.LastName); v != "" {
		u.LastName = v
	}
	if body.ContactNumber != "" {
		u.ContactNumber = body.ContactNumber
	}
	if v := strings.TrimSpace(body.Address); v != "" {
		u.Address = v
	}

	if body.Password != "" {
		if self && !authconfig.CheckPassword(u.PasswordHash, body.OldPassword) {
			return nil, apierr.Invalid("old_password", "does not match the current password")
		}
		if err := authconfig.ValidatePassword(body.Password); err != nil {
			return nil, err
		}
		hash, err := s.auth.HashPassword(body.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}

	if err := s.repo.Update(ctx, u); err != nil {
		if errors.Is(err, db.ErrConflict) {
			return nil, apierr.Conflict("email is already in use")
		}
		return nil, err
	}
	return u, nil
}

// Delete soft-deletes the account and revokes every credential issued to it.
func (s *UsersService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return apierr.NotFound("user", id)
		}
		return err
	}
	return s.auth.RevokeUser(ctx, id)
}

// Filter builds the listing filter from substring queries.
func Filter(email, username, firstName, lastName string) db.Filter {
	var f db.Filter
	f.SetLike("email", email).
		SetLike("username", username).
		SetLike("first_name", firstName).
		SetLike("last_name", lastName)
	return f
}
