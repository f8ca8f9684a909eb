package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/icondo/parcel-service/internal/api/dto"
	"github.com/icondo/parcel-service/internal/service"
)

// UsersHandler exposes the resident directory.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

// Profile handles GET /api/users/profile.
func (h *UsersHandler) Profile(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	profile, err := h.users.Profile(p)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.UserResponse{
		ID:          profile.UserID,
		Username:    profile.Username,
		Role:        profile.Role,
		RoomNumber:  profile.RoomNumber,
		PhoneNumber: profile.PhoneNumber,
	}})
}

// ListResidents handles GET /api/users/residents.
func (h *UsersHandler) ListResidents(c *fiber.Ctx) error {
	residents, err := h.users.ListResidents(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(residents))
	for i := range residents {
		items = append(items, dto.NewUserResponse(&residents[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// RegisterResident handles POST /api/users/residents.
func (h *UsersHandler) RegisterResident(c *fiber.Ctx) error {
	var req dto.RegisterResidentRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	user, err := h.users.RegisterResident(c.UserContext(), service.RegisterResidentInput{
		Username:    req.Username,
		Password:    req.Password,
		RoomNumber:  req.RoomNumber,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}
