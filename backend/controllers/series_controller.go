package controllers

import (
	"errors"
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

const maxCodeAttempts = 5

type SeriesController struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Catalog  *services.SeriesCatalog
	Tracker  *services.ProgressTracker
	Recorder *services.SessionRecorder
	Rand     *rand.Rand
}

func NewSeriesController(
	db *gorm.DB,
	cfg *config.Config,
	catalog *services.SeriesCatalog,
	tracker *services.ProgressTracker,
	recorder *services.SessionRecorder,
	rng *rand.Rand,
) *SeriesController {
	return &SeriesController{DB: db, Cfg: cfg, Catalog: catalog, Tracker: tracker, Recorder: recorder, Rand: rng}
}

// CreateSeries godoc
// @Summary Create a series in one of the caller's classrooms
// @Tags series
// @Accept json
// @Produce json
// @Param input body models.CreateSeriesRequest true "Series data"
// @Success 201 {object} models.SeriesResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /series [post]
func (sc *SeriesController) CreateSeries(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var input models.CreateSeriesRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	input.Difficulty = strings.ToUpper(strings.TrimSpace(input.Difficulty))
	if input.Difficulty == "" {
		input.Difficulty = models.DifficultyMedium
	}

	problems := map[string]string{}
	if strings.TrimSpace(input.Title) == "" {
		problems["title"] = "is required"
	}
	if !models.ValidDifficulty(input.Difficulty) {
		problems["difficulty"] = "must be EASY, MEDIUM or HARD"
	}
	if len(problems) > 0 {
		return utils.ValidationError(c, problems)
	}

	db := sc.DB.WithContext(c.UserContext())

	var classroom models.Classroom
	if err := db.First(&classroom, input.ClassroomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Classroom not found")
		}
		return utils.InternalServerError(c, "Could not load classroom")
	}
	if !ownsClassroom(user, &classroom) {
		return utils.Forbidden(c, "Not your class")
	}

	series := models.Series{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Difficulty:  input.Difficulty,
		ClassroomID: classroom.ID,
		CreatedByID: user.ID,
	}
	for i, url := range input.ImageURLs {
		series.Images = append(series.Images, models.SeriesImage{ImageURL: url, OrderIndex: i})
	}

	err := createWithInviteCode(sc.Rand, func(code string) error {
		series.Code = code
		return db.Create(&series).Error
	})
	if err != nil {
		return utils.InternalServerError(c, "Could not create series")
	}

	return utils.Created(c, series.Response(nil))
}

// GetRandomSeries godoc
// @Summary Pick a random series for free training
// @Tags series
// @Produce json
// @Param difficulty query string false "EASY, MEDIUM or HARD"
// @Success 200 {object} models.SeriesDetailResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /series/training/random [get]
func (sc *SeriesController) GetRandomSeries(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	series, err := sc.Catalog.Random(c.UserContext(), c.Query("difficulty"), sc.Rand)
	if err != nil {
		return utils.FromError(c, err)
	}
	return sc.detail(c, user, series)
}

// GetSeries godoc
// @Summary Series detail with the caller's progress
// @Tags series
// @Produce json
// @Param id path int true "Series ID"
// @Success 200 {object} models.SeriesDetailResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /series/{id} [get]
func (sc *SeriesController) GetSeries(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return utils.BadRequest(c, "Invalid series ID")
	}

	series, err := sc.Catalog.ByID(c.UserContext(), uint(id))
	if err != nil {
		return utils.FromError(c, err)
	}
	return sc.detail(c, user, series)
}

func (sc *SeriesController) detail(c *fiber.Ctx, user *models.User, series *models.Series) error {
	progress, err := sc.Tracker.Get(c.UserContext(), user.ID, series.ID)
	if err != nil {
		return utils.FromError(c, err)
	}
	return c.JSON(series.DetailResponse(progress))
}

// DeleteSeries godoc
// @Summary Delete a series and its progress
// @Tags series
// @Produce json
// @Param id path int true "Series ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /series/{id} [delete]
func (sc *SeriesController) DeleteSeries(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return utils.BadRequest(c, "Invalid series ID")
	}

	series, err := sc.Catalog.ByID(c.UserContext(), uint(id))
	if err != nil {
		return utils.FromError(c, err)
	}

	db := sc.DB.WithContext(c.UserContext())
	var classroom models.Classroom
	if err := db.First(&classroom, series.ClassroomID).Error; err == nil && !ownsClassroom(user, &classroom) {
		return utils.Forbidden(c, "Not your series")
	}

	if err := db.Select("Images", "Progress").Delete(series).Error; err != nil {
		return utils.InternalServerError(c, "Could not delete series")
	}
	return utils.Message(c, "Series deleted")
}

// GetSeriesProgress godoc
// @Summary Progress of every enrolled student on a series
// @Tags series
// @Produce json
// @Param id path int true "Series ID"
// @Success 200 {array} models.StudentSeriesProgressResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /series/{id}/progress [get]
func (sc *SeriesController) GetSeriesProgress(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return utils.BadRequest(c, "Invalid series ID")
	}

	series, err := sc.Catalog.ByID(c.UserContext(), uint(id))
	if err != nil {
		return utils.FromError(c, err)
	}

	roster, err := sc.Tracker.Roster(c.UserContext(), series)
	if err != nil {
		return utils.FromError(c, err)
	}

	out := make([]models.StudentSeriesProgressResponse, 0, len(roster))
	for _, entry := range roster {
		row := models.StudentSeriesProgressResponse{
			StudentID: entry.Student.ID,
			FirstName: entry.Student.FirstName,
			LastName:  entry.Student.LastName,
			Status:    entry.Status,
		}
		if entry.Progress != nil {
			row.Precision = entry.Progress.Precision
			row.Score = entry.Progress.Score
			row.CompletedAt = entry.Progress.CompletedAt
		}
		out = append(out, row)
	}
	return c.JSON(out)
}

// JoinSeries godoc
// @Summary Join a series with its invite code
// @Tags series
// @Accept json
// @Produce json
// @Param input body models.JoinByCodeRequest true "Invite code"
// @Success 200 {object} models.JoinSeriesResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /series/join [post]
func (sc *SeriesController) JoinSeries(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var input models.JoinByCodeRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	res, err := sc.Tracker.Join(c.UserContext(), user.ID, input.Code)
	if err != nil {
		return utils.FromError(c, err)
	}

	message := "Series joined"
	if res.AlreadyJoined {
		message = "Already joined"
	}
	return c.JSON(models.JoinSeriesResponse{
		Message:  message,
		SeriesID: res.Series.ID,
		Title:    res.Series.Title,
		Status:   res.Progress.Status,
	})
}

// SubmitResult godoc
// @Summary Submit a training result for a series
// @Tags series
// @Accept json
// @Produce json
// @Param id path int true "Series ID"
// @Param input body models.SubmitResultBody true "Result"
// @Success 200 {object} models.SubmitResultResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /series/{id}/submit [post]
func (sc *SeriesController) SubmitResult(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return utils.BadRequest(c, "Invalid series ID")
	}

	var body models.SubmitResultBody
	if err := c.BodyParser(&body); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	input, err := services.ParseSubmission(body)
	if err != nil {
		return utils.FromError(c, err)
	}

	res, err := sc.Recorder.RecordSubmission(c.UserContext(), user.ID, uint(id), input)
	if err != nil {
		return utils.FromError(c, err)
	}
	return c.JSON(models.SubmitResultResponse{Message: "Results submitted", SeriesID: res.Series.ID})
}

// ListClassSeries godoc
// @Summary Series of a classroom, newest first, with the caller's status
// @Tags series
// @Produce json
// @Param classId path int true "Classroom ID"
// @Success 200 {array} models.SeriesResponse
// @Security ApiKeyAuth
// @Router /series/by-class/{classId} [get]
func (sc *SeriesController) ListClassSeries(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	classID, err := c.ParamsInt("classId")
	if err != nil || classID <= 0 {
		return utils.BadRequest(c, "Invalid classroom ID")
	}

	var list []models.Series
	err = sc.DB.WithContext(c.UserContext()).
		Preload("Images").
		Where("classroom_id = ?", classID).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return utils.InternalServerError(c, "Could not load series")
	}

	ids := make([]uint, 0, len(list))
	for _, s := range list {
		ids = append(ids, s.ID)
	}
	progress, err := sc.Tracker.ForSeries(c.UserContext(), user.ID, ids)
	if err != nil {
		return utils.FromError(c, err)
	}

	out := make([]models.SeriesResponse, 0, len(list))
	for _, s := range list {
		var status *string
		if p, ok := progress[s.ID]; ok {
			st := p.Status
			status = &st
		}
		out = append(out, s.Response(status))
	}
	return c.JSON(out)
}

func ownsClassroom(user *models.User, classroom *models.Classroom) bool {
	return user.Role == models.RoleAdmin || classroom.OwnerID == user.ID
}

// createWithInviteCode retries create with fresh codes while the code collides.
func createWithInviteCode(rng *rand.Rand, create func(code string) error) error {
	var err error
	for i := 0; i < maxCodeAttempts; i++ {
		err = create(services.NewInviteCode(rng))
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
	}
	return err
}
