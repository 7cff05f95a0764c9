package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/redbrickhq/gatehouse/internal/auth/domain"
	"github.com/redbrickhq/gatehouse/internal/auth/store"
	"github.com/redbrickhq/gatehouse/pkg/jwtx"
)

type usersRepo struct {
	db *sql.DB
}

const userColumns = `id, email, nickname, image_url, social_provider, social_id,
	password_hash, role, refresh_token, extra1, extra2, extra3, created_at, updated_at`

func scanUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	var role string
	err := row.Scan(
		&u.ID, &u.Email, &u.Nickname, &u.ImageURL,
		&u.SocialProvider, &u.SocialID,
		&u.PasswordHash, &role, &u.RefreshToken,
		&u.Extra1, &u.Extra2, &u.Extra3,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.Role = jwtx.Role(role)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (r *usersRepo) GetUserBySocial(ctx context.Context, provider, socialID string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE social_provider = ? AND social_id = ?`,
		provider, socialID)
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Nickname, u.ImageURL,
		u.SocialProvider, u.SocialID,
		u.PasswordHash, string(u.Role), u.RefreshToken,
		u.Extra1, u.Extra2, u.Extra3,
		now, now,
	)
	if err != nil && isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *usersRepo) UpdateRefreshToken(ctx context.Context, userID, token string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET refresh_token = ?, updated_at = ? WHERE id = ?`,
		token, time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	return requireRow(res, store.ErrNotFound)
}

// SwapRefreshToken is the compare-and-swap that serializes concurrent
// reissues: the UPDATE only lands when the stored token still equals
// old, so of two racing rotations exactly one wins.
func (r *usersRepo) SwapRefreshToken(ctx context.Context, userID, old, new string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET refresh_token = ?, updated_at = ?
		 WHERE id = ? AND refresh_token = ?`,
		new, time.Now().UTC(), userID, old)
	if err != nil {
		return err
	}
	return requireRow(res, store.ErrConflict)
}

// PromoteRole only lands while the user still holds the from role,
// making the promotion single-shot even under concurrent requests.
func (r *usersRepo) PromoteRole(ctx context.Context, userID string, from, to jwtx.Role, p domain.Profile) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET role = ?, nickname = CASE WHEN ? <> '' THEN ? ELSE nickname END,
		     extra1 = ?, extra2 = ?, extra3 = ?, updated_at = ?
		 WHERE id = ? AND role = ?`,
		string(to), p.Nickname, p.Nickname,
		p.Extra1, p.Extra2, p.Extra3, time.Now().UTC(),
		userID, string(from))
	if err != nil {
		return err
	}
	return requireRow(res, store.ErrConflict)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	return requireRow(res, store.ErrNotFound)
}

func requireRow(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}

func isUniqueViolation(err error) bool {
	// modernc.org/sqlite surfaces constraint failures as plain errors;
	// matching the message avoids importing driver internals.
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "constraint failed")
}
