package jwtx

// Role is the coarse authorization level carried in access-token claims.
// Social-login users start as RoleGuest and are promoted to RoleUser
// exactly once, when they complete the signup step.
type Role string

const (
	RoleGuest Role = "GUEST"
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// rank orders roles for minimum-role checks. Unknown roles rank below
// everything.
var rank = map[Role]int{
	RoleGuest: 1,
	RoleUser:  2,
	RoleAdmin: 3,
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := rank[r]
	return ok
}

// AtLeast reports whether r meets the given minimum role.
func (r Role) AtLeast(min Role) bool {
	return rank[r] >= rank[min] && rank[r] > 0
}

// ParseRole validates a role string coming off the wire.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}
