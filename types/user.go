package types

// Role is the authorization level of a household member.
type Role string

// Supported roles.
const (
	// RoleAdministrator can see every task, create tasks and review
	// submitted work.
	RoleAdministrator Role = "ADMINISTRATOR"

	// RoleParticipant can only see and progress tasks assigned to them.
	RoleParticipant Role = "PARTICIPANT"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdministrator || r == RoleParticipant
}

// User represents a household member.
// It contains identity, role, and the points earned from approved tasks.
type User struct {
	// ID is the unique identifier of the user.
	ID string `json:"id" db:"id"`

	// Name is the user's display name.
	Name string `json:"name" db:"name"`

	// Email is the user's email address. It is unique within the
	// store, compared case-insensitively.
	Email string `json:"email" db:"email"`

	// Role indicates the user's authorization level.
	Role Role `json:"role" db:"role"`

	// AvatarURL points at the user's avatar image.
	AvatarURL string `json:"avatarUrl" db:"avatar_url"`

	// Points is the running total of points awarded for approved tasks.
	Points int `json:"points" db:"points"`

	// PasswordHash stores the bcrypt hash of the user's password, when one
	// was supplied at registration. This field is never exposed in API
	// responses.
	PasswordHash string `json:"-" db:"password_hash"`
}

// IsAdmin reports whether the user holds the administrator role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdministrator
}
