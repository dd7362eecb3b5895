package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"eroz/backend/config"
	"eroz/backend/models"
	"eroz/backend/utils"
)

const currentUserKey = "currentUser"

// AuthMiddleware resolves the bearer token to a stored user. The role is read
// from the database so a role change applies without a new token.
func AuthMiddleware(cfg *config.Config, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := utils.ExtractClaimsFromToken(c, cfg)
		if err != nil {
			return utils.Unauthorized(c, "Not authorized, no valid token")
		}

		var user models.User
		if err := db.WithContext(c.UserContext()).First(&user, claims.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.Unauthorized(c, "Not authorized, unknown user")
			}
			return utils.InternalServerError(c, "Could not load user")
		}

		c.Locals(currentUserKey, &user)
		return c.Next()
	}
}

// RequireRoles lets the request through only for the listed roles. It must
// run after AuthMiddleware.
func RequireRoles(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return utils.Unauthorized(c, "Unauthorized")
		}
		for _, r := range roles {
			if user.Role == r {
				return c.Next()
			}
		}
		return utils.Forbidden(c, "Insufficient role")
	}
}

// StaffOnly admits professors and admins.
func StaffOnly() fiber.Handler {
	return RequireRoles(models.RoleProf, models.RoleAdmin)
}

// AdminMiddleware admits admins only.
func AdminMiddleware() fiber.Handler {
	return RequireRoles(models.RoleAdmin)
}

// CurrentUser returns the user resolved by AuthMiddleware, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(currentUserKey).(*models.User)
	return user
}
