package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"eroz/backend/config"
	"eroz/backend/middleware"
	"eroz/backend/models"
	"eroz/backend/utils"
)

type UserController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewUserController(db *gorm.DB, cfg *config.Config) *UserController {
	return &UserController{DB: db, Cfg: cfg}
}

// ListUsers godoc
// @Summary List users, newest first
// @Tags users
// @Produce json
// @Param search query string false "Matches first name, last name or email"
// @Success 200 {array} models.UserResponse
// @Security ApiKeyAuth
// @Router /users [get]
func (uc *UserController) ListUsers(c *fiber.Ctx) error {
	query := uc.DB.WithContext(c.UserContext()).Model(&models.User{})
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?", like, like, like)
	}

	var users []models.User
	if err := query.Order("created_at DESC").Find(&users).Error; err != nil {
		return utils.InternalServerError(c, "Could not load users")
	}

	out := make([]models.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, u.Response())
	}
	return c.JSON(out)
}

// UpdateRole godoc
// @Summary Change a user's role
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param input body models.UpdateRoleRequest true "New role"
// @Success 200 {object} models.UserResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/{id}/role [put]
func (uc *UserController) UpdateRole(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return utils.BadRequest(c, "Invalid user ID")
	}

	var input models.UpdateRoleRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	input.Role = strings.ToUpper(strings.TrimSpace(input.Role))
	if !models.ValidRole(input.Role) {
		return utils.ValidationError(c, map[string]string{"role": "must be STUDENT, PROF or ADMIN"})
	}

	db := uc.DB.WithContext(c.UserContext())
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "User not found")
		}
		return utils.InternalServerError(c, "Could not load user")
	}

	if err := db.Model(&user).Update("role", input.Role).Error; err != nil {
		return utils.InternalServerError(c, "Could not update user")
	}
	return c.JSON(user.Response())
}

// DeleteUser godoc
// @Summary Delete a user with their history
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} map[string]string
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /users/{id} [delete]
func (uc *UserController) DeleteUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return utils.BadRequest(c, "Invalid user ID")
	}
	if uint(id) == middleware.CurrentUser(c).ID {
		return utils.BadRequest(c, "Cannot delete yourself")
	}

	db := uc.DB.WithContext(c.UserContext())
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "User not found")
		}
		return utils.InternalServerError(c, "Could not load user")
	}

	if err := db.Select("Sessions", "Stats", "Enrollments", "SeriesProgress").Delete(&user).Error; err != nil {
		return utils.InternalServerError(c, "Could not delete user")
	}
	return utils.Message(c, "User deleted")
}
