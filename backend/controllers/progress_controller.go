package controllers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"eroz/backend/config"
	"eroz/backend/middleware"
	"eroz/backend/models"
	"eroz/backend/services"
	"eroz/backend/utils"
)

type ProgressController struct {
	DB     *gorm.DB
	Cfg    *config.Config
	Ledger *services.StatsLedger
}

func NewProgressController(db *gorm.DB, cfg *config.Config, ledger *services.StatsLedger) *ProgressController {
	return &ProgressController{DB: db, Cfg: cfg, Ledger: ledger}
}

// GetStats godoc
// @Summary Get the caller's stats
// @Description Returns the aggregate stats, creating them on first access
// @Tags progress
// @Produce json
// @Success 200 {object} models.UserStatsResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /progress/stats [get]
func (pc *ProgressController) GetStats(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	stats, err := pc.Ledger.Get(c.UserContext(), user.ID)
	if err != nil {
		return utils.FromError(c, err)
	}
	return c.JSON(stats.Response())
}

// GetSessions godoc
// @Summary Recent training sessions
// @Tags progress
// @Produce json
// @Param limit query int false "Maximum sessions" default(10)
// @Success 200 {array} models.TrainingSessionResponse
// @Security ApiKeyAuth
// @Router /progress/sessions [get]
func (pc *ProgressController) GetSessions(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	sessions, err := pc.Ledger.ListSessions(c.UserContext(), user.ID, c.QueryInt("limit", 10))
	if err != nil {
		return utils.FromError(c, err)
	}

	out := make([]models.TrainingSessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Response())
	}
	return c.JSON(out)
}

// GetWeeklyActivity godoc
// @Summary Sessions per weekday over the last 7 days
// @Tags progress
// @Produce json
// @Success 200 {object} models.WeeklyActivity
// @Security ApiKeyAuth
// @Router /progress/weekly-activity [get]
func (pc *ProgressController) GetWeeklyActivity(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	activity, err := pc.Ledger.WeeklyActivity(c.UserContext(), user.ID)
	if err != nil {
		return utils.FromError(c, err)
	}
	return c.JSON(activity)
}

// GetXpProgress godoc
// @Summary Progress through the current level
// @Tags progress
// @Produce json
// @Success 200 {object} models.XpProgress
// @Security ApiKeyAuth
// @Router /progress/xp-progress [get]
func (pc *ProgressController) GetXpProgress(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	progress, err := pc.Ledger.XpProgress(c.UserContext(), user.ID)
	if err != nil {
		return utils.FromError(c, err)
	}
	return c.JSON(progress)
}

// RebuildStats godoc
// @Summary Recompute the caller's stats from their session history
// @Tags progress
// @Produce json
// @Success 200 {object} models.UserStatsResponse
// @Security ApiKeyAuth
// @Router /progress/rebuild [post]
func (pc *ProgressController) RebuildStats(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	stats, err := pc.Ledger.Rebuild(c.UserContext(), user.ID)
	if err != nil {
		return utils.FromError(c, err)
	}
	return c.JSON(stats.Response())
}
