package dto

import (
	"time"

	"github.com/icondo/parcel-service/internal/domain"
)

// LoginRequest payload for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginResponse pairs the token with the authenticated user.
type LoginResponse struct {
	Auth AuthResponse `json:"auth"`
	User UserResponse `json:"user"`
}

// RegisterResidentRequest payload for staff-created resident accounts.
type RegisterResidentRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	RoomNumber  string `json:"room_number"`
	PhoneNumber string `json:"phone_number"`
}

// UserResponse is the public shape of a user. The password hash never leaves
// the service.
type UserResponse struct {
	ID          int64       `json:"id"`
	Username    string      `json:"username"`
	Role        domain.Role `json:"role"`
	RoomNumber  *string     `json:"room_number,omitempty"`
	PhoneNumber string      `json:"phone_number"`
	CreatedAt   *time.Time  `json:"created_at,omitempty"`
}

// NewUserResponse maps a stored user.
func NewUserResponse(user *domain.User) UserResponse {
	resp := UserResponse{
		ID:          user.ID,
		Username:    user.Username,
		Role:        user.Role,
		RoomNumber:  user.RoomNumber,
		PhoneNumber: user.PhoneNumber,
	}
	if !user.CreatedAt.IsZero() {
		createdAt := user.CreatedAt
		resp.CreatedAt = &createdAt
	}
	return resp
}
