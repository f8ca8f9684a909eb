package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/icondo/parcel-service/internal/domain"
	apperrors "github.com/icondo/parcel-service/pkg/util/errorutil"
)

// RequireStaff ensures the caller is building staff.
func RequireStaff() fiber.Handler {
	return requireRole(domain.RoleStaff, "staff role required")
}

// RequireResident ensures the caller is a resident.
func RequireResident() fiber.Handler {
	return requireRole(domain.RoleResident, "resident role required")
}

// RequireAnyRole ensures caller is authenticated.
func RequireAnyRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

func requireRole(role domain.Role, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if principal.Role != role {
			return apperrors.NewForbidden(message)
		}
		return c.Next()
	}
}
