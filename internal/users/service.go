// Package users handles accounts: signup, signin, token refresh, and
// profile maintenance.
package users

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"sitepulse/internal/apperr"
	"sitepulse/internal/auth"
	"sitepulse/internal/db"
	"sitepulse/internal/logging"
	"sitepulse/internal/validation"
)

type SignupInput struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=128"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
}

type SigninInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateInput holds optional profile changes. Nil fields are kept.
type UpdateInput struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=128"`
	Password *string `json:"password" validate:"omitempty,min=6"`
	Role     *string `json:"role" validate:"omitempty,oneof=user admin"`
}

// Session is the payload returned on signup and signin.
type Session struct {
	*auth.TokenPair
	User *db.User `json:"user"`
}

type Service struct {
	db     *gorm.DB
	tokens *auth.JWTManager
}

func NewService(gdb *gorm.DB, tokens *auth.JWTManager) *Service {
	return &Service{db: gdb, tokens: tokens}
}

func (s *Service) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = auth.RoleUser
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Persistence("hashing password", err)
	}
	u := &db.User{Email: in.Email, Name: in.Name, PasswordHash: hash, Role: in.Role}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&db.User{}).Where("email = ?", in.Email).Count(&n).Error; err != nil {
			return apperr.Persistence("checking email", err)
		}
		if n > 0 {
			return apperr.Conflict("email already registered")
		}
		if err := tx.Create(u).Error; err != nil {
			return apperr.Persistence("creating user", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Info().Str("user_id", u.ID).Str("role", u.Role).Msg("user signed up")
	return s.session(u)
}

func (s *Service) Signin(ctx context.Context, in SigninInput) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	u, err := s.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Unauthorized("invalid email or password")
		}
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, in.Password) {
		logging.Warn().Str("user_id", u.ID).Msg("signin rejected")
		return nil, apperr.Unauthorized("invalid email or password")
	}
	return s.session(u)
}

// Refresh exchanges a refresh token for a new access token for a user
// that still exists.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	access, err := s.tokens.Refresh(refreshToken, func(userID string) (auth.Identity, error) {
		u, err := s.Get(ctx, userID)
		if err != nil {
			return auth.Identity{}, err
		}
		return identity(u), nil
	})
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) || errors.Is(err, auth.ErrTokenInvalid) || errors.Is(err, apperr.ErrNotFound) {
			return "", apperr.Unauthorized("invalid refresh token")
		}
		return "", err
	}
	return access, nil
}

func (s *Service) Get(ctx context.Context, id string) (*db.User, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*db.User, error) {
	return s.first(ctx, "email = ?", normalizeEmail(email))
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*db.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	cols := map[string]any{}
	if in.Name != nil {
		cols["name"] = *in.Name
	}
	if in.Role != nil {
		cols["role"] = *in.Role
	}
	if in.Password != nil {
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return nil, apperr.Persistence("hashing password", err)
		}
		cols["password_hash"] = hash
	}
	if len(cols) == 0 {
		return s.Get(ctx, id)
	}

	res := s.db.WithContext(ctx).Model(&db.User{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return nil, apperr.Persistence("updating user", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("user")
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&db.User{}, "id = ?", id)
	if res.Error != nil {
		return apperr.Persistence("deleting user", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("user")
	}
	return nil
}

func (s *Service) first(ctx context.Context, query string, arg string) (*db.User, error) {
	var u db.User
	if err := s.db.WithContext(ctx).First(&u, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user")
		}
		return nil, apperr.Persistence("loading user", err)
	}
	return &u, nil
}

func (s *Service) session(u *db.User) (*Session, error) {
	pair, err := s.tokens.Issue(identity(u))
	if err != nil {
		return nil, apperr.Persistence("issuing tokens", err)
	}
	return &Session{TokenPair: pair, User: u}, nil
}

func identity(u *db.User) auth.Identity {
	return auth.Identity{UserID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
