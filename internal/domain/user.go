package domain

import "time"

// Role distinguishes building staff from residents.
type Role string

const (
	RoleStaff    Role = "staff"
	RoleResident Role = "resident"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleStaff || r == RoleResident
}

// User is a staff member or a resident of the building.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         Role
	RoomNumber   *string
	PhoneNumber  string
	CreatedAt    time.Time
}

// IsResident reports whether the user is a resident.
func (u *User) IsResident() bool {
	return u != nil && u.Role == RoleResident
}
