package domain

import (
	"time"

	"github.com/redbrickhq/gatehouse/pkg/jwtx"
)

// User is the stored identity record. Social-login users have no
// password hash; password users have no social identity. Either way a
// user holds at most one live refresh token.
type User struct {
	ID       string
	Email    string
	Nickname string
	ImageURL string

	// Social identity, empty for password accounts.
	SocialProvider string
	SocialID       string

	// Argon2id PHC string, empty for social-only accounts.
	PasswordHash string

	Role jwtx.Role

	// RefreshToken is the single currently-active refresh token, stored
	// verbatim. Issuing a new one invalidates this value.
	RefreshToken string

	// Profile fields collected at signup completion.
	Extra1 string
	Extra2 string
	Extra3 string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsSocial reports whether the account was created by a social login.
func (u User) IsSocial() bool { return u.SocialProvider != "" }

// Profile carries the fields a guest submits to complete signup.
type Profile struct {
	Nickname string
	Extra1   string
	Extra2   string
	Extra3   string
}
