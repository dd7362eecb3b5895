package controllers

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"eroz/backend/config"
	"eroz/backend/middleware"
	"eroz/backend/models"
	"eroz/backend/utils"
)

type AuthController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewAuthController(db *gorm.DB, cfg *config.Config) *AuthController {
	return &AuthController{DB: db, Cfg: cfg}
}

type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	models.UserResponse
	Token string `json:"token"`
}

// Register godoc
// @Summary Register a new student
// @Description Creates a STUDENT account with empty stats and returns a token
// @Tags auth
// @Accept json
// @Produce json
// @Param input body RegisterRequest true "Registration data"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Router /auth/register [post]
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var input RegisterRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	problems := map[string]string{}
	if strings.TrimSpace(input.FirstName) == "" {
		problems["firstName"] = "is required"
	}
	if strings.TrimSpace(input.LastName) == "" {
		problems["lastName"] = "is required"
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		problems["email"] = "is not a valid address"
	}
	if len(input.Password) < 6 {
		problems["password"] = "must be at least 6 characters"
	}
	if len(problems) > 0 {
		return utils.ValidationError(c, problems)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return utils.InternalServerError(c, "Could not hash password")
	}

	user := models.User{
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		Role:         models.RoleStudent,
	}
	err = ac.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Create(&models.UserStats{UserID: user.ID, Level: 1}).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return utils.BadRequest(c, "User already exists")
	}
	if err != nil {
		return utils.InternalServerError(c, "Could not create user")
	}

	return ac.respondWithToken(c, user)
}

// Login godoc
// @Summary User login
// @Description Authenticate by email and password and return a JWT
// @Tags auth
// @Accept json
// @Produce json
// @Param input body LoginRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Router /auth/login [post]
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var input LoginRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	var user models.User
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := ac.DB.WithContext(c.UserContext()).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.Unauthorized(c, "Invalid email or password")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return utils.Unauthorized(c, "Invalid email or password")
	}

	return ac.respondWithToken(c, user)
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} models.UserResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /auth/me [get]
func (ac *AuthController) Me(c *fiber.Ctx) error {
	return c.JSON(middleware.CurrentUser(c).Response())
}

func (ac *AuthController) respondWithToken(c *fiber.Ctx, user models.User) error {
	token, err := utils.GenerateJWTToken(user.ID, user.Role, ac.Cfg)
	if err != nil {
		return utils.InternalServerError(c, "Could not generate token")
	}
	return c.JSON(AuthResponse{UserResponse: user.Response(), Token: token})
}
