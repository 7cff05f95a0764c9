package service_test

import (
	"context"
	"testing"

	"github.com/redbrickhq/gatehouse/internal/auth/domain"
	"github.com/redbrickhq/gatehouse/internal/auth/service"
	"github.com/redbrickhq/gatehouse/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestSignupAndLogin(t *testing.T) {
	st := newTestStore(t)
	users := service.NewUserService(st)
	ctx := context.Background()

	created, err := users.Signup(ctx, "Ada@Example.com", "s3cret", "ada")
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", created.Email)
	require.Equal(t, jwtx.RoleUser, created.Role)
	require.NotEmpty(t, created.PasswordHash)
	require.NotEqual(t, "s3cret", created.PasswordHash)

	t.Run("duplicate email rejected", func(t *testing.T) {
		_, err := users.Signup(ctx, "ada@example.com", "other", "ada2")
		require.ErrorIs(t, err, service.ErrDuplicateLogin)
	})

	t.Run("login with correct password", func(t *testing.T) {
		got, err := users.Login(ctx, "ada@example.com", "s3cret")
		require.NoError(t, err)
		require.Equal(t, created.ID, got.ID)
	})

	t.Run("login is case-insensitive on email", func(t *testing.T) {
		_, err := users.Login(ctx, "ADA@example.com", "s3cret")
		require.NoError(t, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := users.Login(ctx, "ada@example.com", "nope")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := users.Login(ctx, "ghost@example.com", "s3cret")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	})
}

func TestResolveSocialUser(t *testing.T) {
	st := newTestStore(t)
	users := service.NewUserService(st)
	ctx := context.Background()

	id := service.Identity{
		Provider: "kakao",
		SocialID: "sid-1",
		Email:    "social@example.com",
		Nickname: "soc",
		ImageURL: "https://img.example.com/1.png",
	}

	first, isNew, err := users.ResolveSocialUser(ctx, id)
	require.NoError(t, err)
	require.True(t, isNew)
	require.Equal(t, jwtx.RoleGuest, first.Role)
	require.Equal(t, "kakao", first.SocialProvider)

	again, isNew, err := users.ResolveSocialUser(ctx, id)
	require.NoError(t, err)
	require.False(t, isNew)
	require.Equal(t, first.ID, again.ID)
}

func TestResolveSocialUsersWithoutEmail(t *testing.T) {
	st := newTestStore(t)
	users := service.NewUserService(st)
	ctx := context.Background()

	// Some providers expose no email. Distinct identities must still
	// each get their own account instead of colliding on the empty
	// email.
	first, isNew, err := users.ResolveSocialUser(ctx, service.Identity{
		Provider: "kakao", SocialID: "no-email-1",
	})
	require.NoError(t, err)
	require.True(t, isNew)

	second, isNew, err := users.ResolveSocialUser(ctx, service.Identity{
		Provider: "kakao", SocialID: "no-email-2",
	})
	require.NoError(t, err)
	require.True(t, isNew)
	require.NotEqual(t, first.ID, second.ID)

	t.Run("empty email cannot password-login", func(t *testing.T) {
		_, err := users.Login(ctx, "", "anything")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	})
}

func TestCompleteSignup(t *testing.T) {
	st := newTestStore(t)
	users := service.NewUserService(st)
	ctx := context.Background()

	guest, _, err := users.ResolveSocialUser(ctx, service.Identity{
		Provider: "kakao", SocialID: "sid-2", Email: "g@example.com",
	})
	require.NoError(t, err)

	profile := domain.Profile{Nickname: "finished", Extra1: "x"}
	promoted, err := users.CompleteSignup(ctx, guest.ID, profile)
	require.NoError(t, err)
	require.Equal(t, jwtx.RoleUser, promoted.Role)
	require.Equal(t, "finished", promoted.Nickname)

	t.Run("promotion happens at most once", func(t *testing.T) {
		_, err := users.CompleteSignup(ctx, guest.ID, profile)
		require.ErrorIs(t, err, service.ErrRoleNotEligible)
	})

	t.Run("password users are not eligible", func(t *testing.T) {
		u, err := users.Signup(ctx, "pw@example.com", "pw", "pw")
		require.NoError(t, err)

		_, err = users.CompleteSignup(ctx, u.ID, profile)
		require.ErrorIs(t, err, service.ErrRoleNotEligible)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := users.CompleteSignup(ctx, "missing", profile)
		require.ErrorIs(t, err, service.ErrRoleNotEligible)
	})
}

func TestUpdatePassword(t *testing.T) {
	st := newTestStore(t)
	users := service.NewUserService(st)
	ctx := context.Background()

	u, err := users.Signup(ctx, "p@example.com", "old-pass", "p")
	require.NoError(t, err)

	require.ErrorIs(t, users.UpdatePassword(ctx, u.ID, "wrong", "new-pass"), service.ErrInvalidCredentials)

	require.NoError(t, users.UpdatePassword(ctx, u.ID, "old-pass", "new-pass"))

	_, err = users.Login(ctx, "p@example.com", "old-pass")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = users.Login(ctx, "p@example.com", "new-pass")
	require.NoError(t, err)
}
