package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/deskflow/helpdesk-portal/internal/domain"
	"github.com/deskflow/helpdesk-portal/internal/policy"
	apperrors "github.com/deskflow/helpdesk-portal/pkg/util/errorutil"
)

// RequireRoles ensures the actor has one of the allowed roles.
func RequireRoles(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[actor.Role]; !exists {
			return apperrors.NewPermissionDenied("insufficient role", map[string]any{"role": string(actor.Role)})
		}
		return c.Next()
	}
}

// RequireStaff ensures the actor works tickets.
func RequireStaff() fiber.Handler {
	return RequireRoles(domain.RoleAgent, domain.RoleTeamLead, domain.RoleManager, domain.RoleAdmin, domain.RoleSuperAdmin)
}

// RequireCanAssign gates routes that offer assignment at all.
func RequireCanAssign() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !policy.CanAssign(actor) {
			return apperrors.NewPermissionDenied("assignment not permitted", nil)
		}
		return c.Next()
	}
}
