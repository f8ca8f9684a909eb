package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/icondo/parcel-service/internal/auth"
	"github.com/icondo/parcel-service/internal/config"
	"github.com/icondo/parcel-service/internal/domain"
	"github.com/icondo/parcel-service/internal/repository"
	apperrors "github.com/icondo/parcel-service/pkg/util/errorutil"
)

// AuthService coordinates login and staff provisioning.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	// dummyHash is compared on unknown usernames so both failure paths pay
	// for one bcrypt comparison.
	dummyHash       string
	comparePassword func(hashed, plain string) error
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, users repository.UserRepository) *AuthService {
	dummyHash, err := auth.HashPassword("unknown-user-placeholder", cfg.Auth.BcryptCost)
	if err != nil {
		dummyHash, _ = auth.HashPassword("unknown-user-placeholder", bcrypt.DefaultCost)
	}
	return &AuthService{
		users:           users,
		tokenMgr:        auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost:      cfg.Auth.BcryptCost,
		dummyHash:       dummyHash,
		comparePassword: auth.ComparePassword,
	}
}

// Login authenticates a user acting in the given role. An unknown username
// and a wrong password produce the same error.
func (s *AuthService) Login(ctx context.Context, username, password string, role domain.Role) (*domain.User, string, time.Time, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" || !role.Valid() {
		return nil, "", time.Time{}, apperrors.NewValidationError("username, password and role (staff|resident) required", nil)
	}

	user, err := s.users.GetByUsernameAndRole(ctx, username, role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			_ = s.comparePassword(s.dummyHash, password)
			return nil, "", time.Time{}, apperrors.NewInvalidCredentials()
		}
		return nil, "", time.Time{}, err
	}
	if err := s.comparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewInvalidCredentials()
	}

	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// ProvisionStaff creates a staff account out of band, e.g. from the seed command.
func (s *AuthService) ProvisionStaff(ctx context.Context, username, password, phoneNumber string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	phoneNumber = strings.TrimSpace(phoneNumber)
	if username == "" || password == "" || phoneNumber == "" {
		return nil, apperrors.NewValidationError("username, password and phone_number required", nil)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Username:     username,
		PasswordHash: hash,
		Role:         domain.RoleStaff,
		PhoneNumber:  phoneNumber,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, mapUserConflict(err, user)
	}
	return user, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
