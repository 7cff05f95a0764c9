package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redbrickhq/gatehouse/internal/auth/domain"
	"github.com/redbrickhq/gatehouse/internal/auth/store"
	"github.com/redbrickhq/gatehouse/pkg/cryptox"
	"github.com/redbrickhq/gatehouse/pkg/idx"
	"github.com/redbrickhq/gatehouse/pkg/jwtx"
)

// UserService handles account lifecycle: signup, credential checks,
// social identity resolution, and the one-time GUEST to USER promotion.
type UserService struct {
	users store.Users
}

func NewUserService(st store.Store) *UserService {
	return &UserService{users: st.Users()}
}

// Signup creates a password-based account. New accounts start as USER;
// the GUEST role is reserved for social sign-ins that have not completed
// their profile yet.
func (s *UserService) Signup(ctx context.Context, email, password, nickname string) (domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		Nickname:     nickname,
		PasswordHash: hash,
		Role:         jwtx.RoleUser,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrDuplicateLogin
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login verifies an email/password pair. A missing user and a wrong
// password both report ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, email, password string) (domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	// Social accounts may carry no email; the empty string must never
	// match one of them.
	if email == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	if user.PasswordHash == "" {
		return domain.User{}, ErrInvalidCredentials
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, fmt.Errorf("verify password: %w", err)
	}
	return user, nil
}

// GetByID loads a user, mapping store.ErrNotFound to ErrUserNotFound.
func (s *UserService) GetByID(ctx context.Context, id string) (domain.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// CompleteSignup promotes a GUEST to USER, applying the submitted
// profile. The promotion is a compare-and-swap on the role column, so it
// lands at most once: a repeat call, or any caller who is already USER
// or ADMIN, gets ErrRoleNotEligible.
func (s *UserService) CompleteSignup(ctx context.Context, userID string, profile domain.Profile) (domain.User, error) {
	err := s.users.PromoteRole(ctx, userID, jwtx.RoleGuest, jwtx.RoleUser, profile)
	switch {
	case errors.Is(err, store.ErrConflict):
		return domain.User{}, ErrRoleNotEligible
	case errors.Is(err, store.ErrNotFound):
		return domain.User{}, ErrUserNotFound
	case err != nil:
		return domain.User{}, fmt.Errorf("promote role: %w", err)
	}
	return s.GetByID(ctx, userID)
}

// UpdatePassword replaces the user's password after verifying the
// current one.
func (s *UserService) UpdatePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.PasswordHash == "" {
		return ErrInvalidCredentials
	}
	if err := cryptox.VerifyPassword(current, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("verify password: %w", err)
	}

	hash, err := cryptox.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// Identity is a verified social profile handed back by an OAuth2
// provider exchange.
type Identity struct {
	Provider string
	SocialID string
	Email    string
	Nickname string
	ImageURL string
}

// ResolveSocialUser finds the account bound to a social identity,
// creating a GUEST account on first sight. The returned flag reports
// whether the account was created by this call.
func (s *UserService) ResolveSocialUser(ctx context.Context, id Identity) (domain.User, bool, error) {
	user, err := s.users.GetUserBySocial(ctx, id.Provider, id.SocialID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, false, fmt.Errorf("load social user: %w", err)
	}

	user = domain.User{
		ID:             idx.New().String(),
		Email:          strings.TrimSpace(strings.ToLower(id.Email)),
		Nickname:       id.Nickname,
		ImageURL:       id.ImageURL,
		SocialProvider: id.Provider,
		SocialID:       id.SocialID,
		Role:           jwtx.RoleGuest,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		// Lost a race with a concurrent callback for the same identity.
		if errors.Is(err, store.ErrAlreadyExists) {
			existing, lookupErr := s.users.GetUserBySocial(ctx, id.Provider, id.SocialID)
			if lookupErr != nil {
				return domain.User{}, false, fmt.Errorf("load social user after race: %w", lookupErr)
			}
			return existing, false, nil
		}
		return domain.User{}, false, fmt.Errorf("create social user: %w", err)
	}
	return user, true, nil
}
