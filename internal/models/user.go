package models

// Role classifies what a user is allowed to do with alerts.
type Role string

const (
	// RoleSender files new critical alerts (lab staff).
	RoleSender Role = "sender"
	// RoleReceiver views and closes alerts (clinicians).
	RoleReceiver Role = "receiver"
	// RoleAdmin is authorized wherever sender or receiver is required.
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleSender, RoleReceiver, RoleAdmin:
		return true
	}
	return false
}

// Satisfies reports whether this role meets the required role. Admin is a
// superset of both sender and receiver.
func (r Role) Satisfies(required Role) bool {
	return r == required || r == RoleAdmin
}

// User is the authenticated caller identity. Users live in a UserDirectory,
// not in the alert database.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Role         Role   `json:"role"`
	PasswordHash string `json:"-"`
}
