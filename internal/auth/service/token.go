package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/redbrickhq/gatehouse/internal/auth/domain"
	"github.com/redbrickhq/gatehouse/internal/auth/store"
	"github.com/redbrickhq/gatehouse/pkg/jwtx"
)

// TokenService mints and rotates token pairs. A user holds exactly one
// active refresh token at a time; every successful reissue replaces it.
type TokenService struct {
	codec *jwtx.Codec
	users store.Users
}

func NewTokenService(codec *jwtx.Codec, st store.Store) *TokenService {
	return &TokenService{codec: codec, users: st.Users()}
}

// IssuePair mints a fresh access/refresh pair for the user and stores the
// refresh token as the user's single active one.
func (s *TokenService) IssuePair(ctx context.Context, user domain.User) (domain.TokenPair, error) {
	pair, err := s.mintPair(user)
	if err != nil {
		return domain.TokenPair{}, err
	}

	if err := s.users.UpdateRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return domain.TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}
	return pair, nil
}

// Reissue exchanges a refresh token for a new pair. The presented token
// must byte-match the stored one before it is validated at all, so a
// syntactically broken or expired token that was never ours reports a
// mismatch rather than leaking why it failed. Rotation uses a
// compare-and-swap on the stored value, which serializes concurrent
// reissues: exactly one wins, the rest see a mismatch.
func (s *TokenService) Reissue(ctx context.Context, userID, presented string) (domain.TokenPair, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrUserNotFound
		}
		return domain.TokenPair{}, fmt.Errorf("load user: %w", err)
	}

	if user.RefreshToken == "" ||
		subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(presented)) != 1 {
		return domain.TokenPair{}, ErrRefreshMismatch
	}

	if _, err := s.codec.ParseRefresh(user.RefreshToken); err != nil {
		if errors.Is(err, jwtx.ErrExpired) {
			return domain.TokenPair{}, ErrRefreshExpired
		}
		return domain.TokenPair{}, ErrRefreshInvalid
	}

	// Role is read from the row, not the old token, so a promotion that
	// happened since the last issue shows up in the new access token.
	pair, err := s.mintPair(user)
	if err != nil {
		return domain.TokenPair{}, err
	}

	err = s.users.SwapRefreshToken(ctx, user.ID, user.RefreshToken, pair.RefreshToken)
	switch {
	case errors.Is(err, store.ErrConflict):
		return domain.TokenPair{}, ErrRefreshMismatch
	case err != nil:
		return domain.TokenPair{}, fmt.Errorf("rotate refresh token: %w", err)
	}
	return pair, nil
}

func (s *TokenService) mintPair(user domain.User) (domain.TokenPair, error) {
	now := time.Now()

	access, err := s.codec.MintAt(user.ID, user.Role, jwtx.KindAccess, now)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("mint access token: %w", err)
	}
	refresh, err := s.codec.MintAt(user.ID, user.Role, jwtx.KindRefresh, now)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("mint refresh token: %w", err)
	}

	ttl := s.codec.TTL(jwtx.KindAccess)
	return domain.TokenPair{
		AccessToken:     access,
		RefreshToken:    refresh,
		TokenType:       "Bearer",
		ExpiresIn:       ttl,
		AccessExpiresAt: now.Add(ttl),
	}, nil
}
