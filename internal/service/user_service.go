package service

import (
	"context"
	"strings"

	"github.com/icondo/parcel-service/internal/auth"
	"github.com/icondo/parcel-service/internal/domain"
	"github.com/icondo/parcel-service/internal/repository"
	apperrors "github.com/icondo/parcel-service/pkg/util/errorutil"
)

// UserService manages the resident directory.
type UserService struct {
	users      repository.UserRepository
	bcryptCost int
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, bcryptCost int) *UserService {
	return &UserService{users: users, bcryptCost: bcryptCost}
}

// RegisterResidentInput describes a new resident account.
type RegisterResidentInput struct {
	Username    string
	Password    string
	RoomNumber  string
	PhoneNumber string
}

// RegisterResident creates a resident. Username and room uniqueness are
// enforced by the store, not by a lookup here.
func (s *UserService) RegisterResident(ctx context.Context, input RegisterResidentInput) (*domain.User, error) {
	username := strings.TrimSpace(input.Username)
	room := strings.TrimSpace(input.RoomNumber)
	phone := strings.TrimSpace(input.PhoneNumber)

	missing := []string{}
	if username == "" {
		missing = append(missing, "username")
	}
	if input.Password == "" {
		missing = append(missing, "password")
	}
	if room == "" {
		missing = append(missing, "room_number")
	}
	if phone == "" {
		missing = append(missing, "phone_number")
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("missing required fields", map[string]any{"fields": missing})
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Username:     username,
		PasswordHash: hash,
		Role:         domain.RoleResident,
		RoomNumber:   &room,
		PhoneNumber:  phone,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, mapUserConflict(err, user)
	}
	return user, nil
}

// ListResidents returns residents ordered by room number.
func (s *UserService) ListResidents(ctx context.Context) ([]domain.User, error) {
	return s.users.ListByRole(ctx, domain.RoleResident)
}

// Profile is the caller's identity as carried by their token.
type Profile struct {
	UserID      int64
	Username    string
	Role        domain.Role
	RoomNumber  *string
	PhoneNumber string
}

// Profile echoes the principal without a store round trip.
func (s *UserService) Profile(principal *domain.Principal) (Profile, error) {
	if principal == nil {
		return Profile{}, apperrors.NewUnauthorized("missing principal")
	}
	return Profile{
		UserID:      principal.UserID,
		Username:    principal.Username,
		Role:        principal.Role,
		RoomNumber:  principal.RoomNumber,
		PhoneNumber: principal.PhoneNumber,
	}, nil
}
