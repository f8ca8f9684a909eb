package domain

// Principal is the identity carried by a verified bearer token.
type Principal struct {
	UserID      int64
	Username    string
	Role        Role
	RoomNumber  *string
	PhoneNumber string
}

// IsStaff reports whether the caller acts as building staff.
func (p *Principal) IsStaff() bool {
	return p != nil && p.Role == RoleStaff
}

// Owns reports whether the caller is the resident the record belongs to.
func (p *Principal) Owns(residentID int64) bool {
	return p != nil && p.Role == RoleResident && p.UserID == residentID
}
