package store

import (
	"context"
	"errors"

	"github.com/redbrickhq/gatehouse/internal/auth/domain"
	"github.com/redbrickhq/gatehouse/pkg/jwtx"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrConflict reports a failed compare-and-swap: the stored value
	// changed between read and write (stale refresh token, or a role
	// promotion that already happened).
	ErrConflict = errors.New("store: conflict")
)

// Store is the root data access interface. Concrete drivers implement
// this; the rest of the code only sees the repositories.
type Store interface {
	Users() Users

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Users is the user directory: identity, role, and the single active
// refresh token per user.
type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during the password login flow.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// GetUserBySocial looks up a user by (provider, social id), the
	// identity pair resolved from an OAuth2 login.
	GetUserBySocial(ctx context.Context, provider, socialID string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via
	// ULID). Returns ErrAlreadyExists on a duplicate email or social
	// identity.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateRefreshToken unconditionally overwrites the stored refresh
	// token, invalidating any prior session. Used after login and after
	// the OAuth2 callback.
	UpdateRefreshToken(ctx context.Context, userID, token string) error

	// SwapRefreshToken replaces the stored refresh token only if the
	// stored value still equals old. Returns ErrConflict otherwise.
	// This is the serialization point for concurrent reissues: of two
	// racing rotations only one can win.
	SwapRefreshToken(ctx context.Context, userID, old, new string) error

	// PromoteRole moves a user from one role to the next and records
	// the completed profile in the same statement. Returns ErrConflict
	// when the user no longer holds the from role, which makes the
	// promotion single-shot.
	PromoteRole(ctx context.Context, userID string, from, to jwtx.Role, p domain.Profile) error

	// UpdatePasswordHash sets the password hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error
}
