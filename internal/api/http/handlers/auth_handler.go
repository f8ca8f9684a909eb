package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/icondo/parcel-service/internal/api/dto"
	"github.com/icondo/parcel-service/internal/domain"
	"github.com/icondo/parcel-service/internal/service"
)

// AuthHandler exposes login.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}

	role := domain.Role(strings.ToLower(strings.TrimSpace(req.Role)))
	user, token, exp, err := h.auth.Login(c.UserContext(), req.Username, req.Password, role)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.LoginResponse{
			Auth: dto.AuthResponse{Token: token, ExpiresAt: exp},
			User: dto.NewUserResponse(user),
		},
	})
}
