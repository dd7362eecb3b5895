package controllers

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"eroz/backend/config"
	"eroz/backend/middleware"
	"eroz/backend/models"
	"eroz/backend/services"
	"eroz/backend/utils"
)

type ClassesController struct {
	DB    *gorm.DB
	Cfg   *config.Config
	Rand  *rand.Rand
	Clock services.Clock
}

func NewClassesController(db *gorm.DB, cfg *config.Config, rng *rand.Rand, clock services.Clock) *ClassesController {
	if clock == nil {
		clock = services.SystemClock
	}
	return &ClassesController{DB: db, Cfg: cfg, Rand: rng, Clock: clock}
}

// JoinClass godoc
// @Summary Enroll in a classroom with its invite code
// @Tags classes
// @Accept json
// @Produce json
// @Param input body models.JoinByCodeRequest true "Invite code"
// @Success 200 {object} models.JoinClassroomResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /classes/join [post]
func (cc *ClassesController) JoinClass(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var input models.JoinByCodeRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	db := cc.DB.WithContext(c.UserContext())

	var classroom models.Classroom
	if err := db.Where("code = ?", services.NormalizeCode(input.Code)).First(&classroom).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Invalid class code")
		}
		return utils.InternalServerError(c, "Could not load classroom")
	}

	enrollment := models.Enrollment{UserID: user.ID, ClassroomID: classroom.ID, JoinedAt: cc.Clock()}
	message := "Enrolled successfully"
	if err := db.Create(&enrollment).Error; err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.InternalServerError(c, "Could not enroll")
		}
		message = "Already enrolled"
	}

	return c.JSON(models.JoinClassroomResponse{
		Message:       message,
		ClassroomID:   classroom.ID,
		ClassroomName: classroom.Name,
	})
}

// MyClasses godoc
// @Summary Classrooms the caller is enrolled in
// @Tags classes
// @Produce json
// @Success 200 {array} models.ClassroomResponse
// @Security ApiKeyAuth
// @Router /classes/my [get]
func (cc *ClassesController) MyClasses(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var classrooms []models.Classroom
	err := cc.withCounts(cc.DB.WithContext(c.UserContext())).
		Select("classrooms.*").
		Joins("JOIN enrollments ON enrollments.classroom_id = classrooms.id AND enrollments.deleted_at IS NULL").
		Where("enrollments.user_id = ?", user.ID).
		Order("enrollments.joined_at ASC").
		Find(&classrooms).Error
	if err != nil {
		return utils.InternalServerError(c, "Could not load classrooms")
	}
	return c.JSON(classroomResponses(classrooms))
}

// ListClasses godoc
// @Summary Classrooms owned by the caller, or all of them for an admin
// @Tags classes
// @Produce json
// @Success 200 {array} models.ClassroomResponse
// @Security ApiKeyAuth
// @Router /classes [get]
func (cc *ClassesController) ListClasses(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	query := cc.withCounts(cc.DB.WithContext(c.UserContext()))
	if user.Role != models.RoleAdmin {
		query = query.Where("owner_id = ?", user.ID)
	}

	var classrooms []models.Classroom
	if err := query.Order("created_at DESC").Find(&classrooms).Error; err != nil {
		return utils.InternalServerError(c, "Could not load classrooms")
	}
	return c.JSON(classroomResponses(classrooms))
}

// CreateClass godoc
// @Summary Create a classroom owned by the caller
// @Tags classes
// @Accept json
// @Produce json
// @Param input body models.CreateClassroomRequest true "Classroom data"
// @Success 201 {object} models.ClassroomResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /classes [post]
func (cc *ClassesController) CreateClass(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var input models.CreateClassroomRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if strings.TrimSpace(input.Name) == "" {
		return utils.ValidationError(c, map[string]string{"name": "is required"})
	}

	classroom := models.Classroom{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		OwnerID:     user.ID,
	}
	db := cc.DB.WithContext(c.UserContext())
	err := createWithInviteCode(cc.Rand, func(code string) error {
		classroom.Code = code
		return db.Create(&classroom).Error
	})
	if err != nil {
		return utils.InternalServerError(c, "Could not create classroom")
	}
	return utils.Created(c, classroom.Response())
}

// GetClass godoc
// @Summary Classroom detail with its students
// @Description Admins see every class, professors their own, students the ones they are enrolled in
// @Tags classes
// @Produce json
// @Param id path int true "Classroom ID"
// @Success 200 {object} models.ClassroomDetailResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /classes/{id} [get]
func (cc *ClassesController) GetClass(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	classroom, err := cc.load(c, "Enrollments.User", "Series")
	if err != nil {
		return utils.FromError(c, err)
	}

	switch user.Role {
	case models.RoleAdmin:
	case models.RoleProf:
		if classroom.OwnerID != user.ID {
			return utils.Forbidden(c, "Not your class")
		}
	default:
		enrolled := false
		for _, e := range classroom.Enrollments {
			if e.UserID == user.ID {
				enrolled = true
				break
			}
		}
		if !enrolled {
			return utils.Forbidden(c, "Not enrolled in this class")
		}
	}

	students := make([]models.EnrolledStudentResponse, 0, len(classroom.Enrollments))
	for _, e := range classroom.Enrollments {
		students = append(students, models.EnrolledStudentResponse{
			ID:        e.User.ID,
			FirstName: e.User.FirstName,
			LastName:  e.User.LastName,
			Email:     e.User.Email,
		})
	}
	return c.JSON(models.ClassroomDetailResponse{ClassroomResponse: classroom.Response(), Students: students})
}

// UpdateClass godoc
// @Summary Rename or redescribe a classroom
// @Tags classes
// @Accept json
// @Produce json
// @Param id path int true "Classroom ID"
// @Param input body models.UpdateClassroomRequest true "Fields to change"
// @Success 200 {object} models.ClassroomResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /classes/{id} [put]
func (cc *ClassesController) UpdateClass(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var input models.UpdateClassroomRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	classroom, err := cc.load(c, "Enrollments", "Series")
	if err != nil {
		return utils.FromError(c, err)
	}
	if !ownsClassroom(user, classroom) {
		return utils.Forbidden(c, "Not your class")
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return utils.ValidationError(c, map[string]string{"name": "must not be empty"})
		}
		classroom.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		classroom.Description = *input.Description
	}

	err = cc.DB.WithContext(c.UserContext()).Model(classroom).
		Select("Name", "Description").
		Updates(models.Classroom{Name: classroom.Name, Description: classroom.Description}).Error
	if err != nil {
		return utils.InternalServerError(c, "Could not update classroom")
	}
	return c.JSON(classroom.Response())
}

// DeleteClass godoc
// @Summary Delete a classroom with its enrollments and series
// @Tags classes
// @Produce json
// @Param id path int true "Classroom ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /classes/{id} [delete]
func (cc *ClassesController) DeleteClass(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	classroom, err := cc.load(c)
	if err != nil {
		return utils.FromError(c, err)
	}
	if !ownsClassroom(user, classroom) {
		return utils.Forbidden(c, "Not your class")
	}

	err = cc.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		var series []models.Series
		if err := tx.Where("classroom_id = ?", classroom.ID).Find(&series).Error; err != nil {
			return err
		}
		// Soft deletes do not cascade, so each series takes its images and progress along.
		for i := range series {
			if err := tx.Select("Images", "Progress").Delete(&series[i]).Error; err != nil {
				return err
			}
		}
		return tx.Select("Enrollments").Delete(classroom).Error
	})
	if err != nil {
		return utils.InternalServerError(c, "Could not delete classroom")
	}
	return utils.Message(c, "Class deleted")
}

// load fetches the :id classroom with the given preloads.
func (cc *ClassesController) load(c *fiber.Ctx, preloads ...string) (*models.Classroom, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid classroom ID")
	}

	query := cc.DB.WithContext(c.UserContext())
	for _, p := range preloads {
		query = query.Preload(p)
	}

	var classroom models.Classroom
	if err := query.First(&classroom, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("class %w", services.ErrNotFound)
		}
		return nil, err
	}
	return &classroom, nil
}

func (cc *ClassesController) withCounts(db *gorm.DB) *gorm.DB {
	return db.Preload("Enrollments").Preload("Series")
}

func classroomResponses(classrooms []models.Classroom) []models.ClassroomResponse {
	out := make([]models.ClassroomResponse, 0, len(classrooms))
	for _, c := range classrooms {
		out = append(out, c.Response())
	}
	return out
}
