package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"eroz/backend/models"
)

const defaultSessionLimit = 10

// weekdayKeys are the keys of a WeeklyActivity, Monday first.
var weekdayKeys = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// StatsLedger owns the per-learner UserStats aggregate.
type StatsLedger struct {
	db   *gorm.DB
	opts options
}

func NewStatsLedger(db *gorm.DB, opts ...Option) *StatsLedger {
	return &StatsLedger{db: db, opts: buildOptions(opts)}
}

// ApplySubmission folds one submission into stats. Level, average time and
// streak are left as they are; only a rebuild refreshes them.
func ApplySubmission(stats *models.UserStats, precision float64, xp int, at time.Time) {
	n := float64(stats.TotalSessions)
	stats.AverageScore = (stats.AverageScore*n + precision) / (n + 1)
	stats.TotalSessions++
	stats.TotalXp += xp
	stats.LastActivityAt = &at
}

// RebuildFromSessions recomputes every aggregate of stats from the complete
// session history. It reports false, leaving stats untouched, when sessions
// is empty.
func RebuildFromSessions(stats *models.UserStats, sessions []models.TrainingSession) bool {
	if len(sessions) == 0 {
		return false
	}

	ordered := make([]models.TrainingSession, len(sessions))
	copy(ordered, sessions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CompletedAt.Before(ordered[j].CompletedAt)
	})

	var (
		totalXp       int
		sumPrecision  float64
		sumDuration   int
		completedDays = make([]time.Time, 0, len(ordered))
	)
	for _, s := range ordered {
		totalXp += s.XpEarned
		sumPrecision += s.Precision
		sumDuration += s.Duration
		completedDays = append(completedDays, s.CompletedAt)
	}

	n := float64(len(ordered))
	last := ordered[len(ordered)-1].CompletedAt

	stats.TotalXp = totalXp
	stats.TotalSessions = len(ordered)
	stats.AverageScore = float64(roundHalfEven(sumPrecision / n))
	stats.AverageTime = roundHalfEven(float64(sumDuration) / n)
	stats.Level = LevelFromXP(totalXp)
	stats.LastActivityAt = &last
	stats.CurrentStreak = StreakFromDates(completedDays)
	return true
}

// Get returns the user's stats, creating an empty row on first access.
func (l *StatsLedger) Get(ctx context.Context, userID uint) (*models.UserStats, error) {
	return getOrCreateStats(l.db.WithContext(ctx), userID)
}

// Rebuild recomputes the user's stats from history. A user without sessions
// keeps whatever row they have.
func (l *StatsLedger) Rebuild(ctx context.Context, userID uint) (*models.UserStats, error) {
	var (
		stats   *models.UserStats
		rebuilt bool
	)
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		stats, rebuilt, err = rebuildStats(tx, userID)
		if err != nil {
			return err
		}
		if !rebuilt {
			stats, err = getOrCreateStats(tx, userID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	if rebuilt {
		l.opts.metrics.StatsRebuilt()
		l.opts.log.Debugw("stats rebuilt", "user_id", userID, "total_xp", stats.TotalXp, "level", stats.Level)
	}
	return stats, nil
}

// ListSessions returns the most recent sessions first. limit <= 0 means the default of 10.
func (l *StatsLedger) ListSessions(ctx context.Context, userID uint, limit int) ([]models.TrainingSession, error) {
	if limit <= 0 {
		limit = defaultSessionLimit
	}

	var sessions []models.TrainingSession
	err := l.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("completed_at DESC").
		Limit(limit).
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// WeeklyActivity counts the sessions of the last seven days per weekday.
func (l *StatsLedger) WeeklyActivity(ctx context.Context, userID uint) (models.WeeklyActivity, error) {
	since := l.opts.clock().AddDate(0, 0, -7)

	var sessions []models.TrainingSession
	err := l.db.WithContext(ctx).
		Where("user_id = ? AND completed_at >= ?", userID, since).
		Order("completed_at ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("weekly activity: %w", err)
	}

	activity := make(models.WeeklyActivity, len(weekdayKeys))
	for _, k := range weekdayKeys {
		activity[k] = 0
	}
	for _, s := range sessions {
		activity[weekdayKey(s.CompletedAt)]++
	}
	return activity, nil
}

// XpProgress reports how far the user is into their current level. It does
// not create a stats row.
func (l *StatsLedger) XpProgress(ctx context.Context, userID uint) (models.XpProgress, error) {
	var stats models.UserStats
	res := l.db.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&stats)
	if res.Error != nil {
		return models.XpProgress{}, fmt.Errorf("xp progress: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.XpProgress{Level: 1, XpForNextLevel: XPPerLevel}, nil
	}

	current := stats.TotalXp % XPPerLevel
	totalXp := stats.TotalXp
	return models.XpProgress{
		Level:          stats.Level,
		TotalXp:        &totalXp,
		CurrentXp:      current,
		XpForNextLevel: XPPerLevel,
		Progress:       roundHalfEven(float64(current) / XPPerLevel * 100),
	}, nil
}

func getOrCreateStats(tx *gorm.DB, userID uint) (*models.UserStats, error) {
	var stats models.UserStats
	err := tx.Where(models.UserStats{UserID: userID}).
		Attrs(models.UserStats{Level: 1}).
		FirstOrCreate(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("load stats for user %d: %w", userID, err)
	}
	return &stats, nil
}

func applySubmissionStats(tx *gorm.DB, userID uint, precision float64, xp int, at time.Time) (*models.UserStats, error) {
	stats, err := getOrCreateStats(tx, userID)
	if err != nil {
		return nil, err
	}
	ApplySubmission(stats, precision, xp, at)
	if err := tx.Save(stats).Error; err != nil {
		return nil, fmt.Errorf("save stats for user %d: %w", userID, err)
	}
	return stats, nil
}

func rebuildStats(tx *gorm.DB, userID uint) (*models.UserStats, bool, error) {
	var sessions []models.TrainingSession
	if err := tx.Where("user_id = ?", userID).Order("completed_at ASC").Find(&sessions).Error; err != nil {
		return nil, false, fmt.Errorf("load sessions for user %d: %w", userID, err)
	}
	if len(sessions) == 0 {
		return nil, false, nil
	}

	stats, err := getOrCreateStats(tx, userID)
	if err != nil {
		return nil, false, err
	}
	RebuildFromSessions(stats, sessions)
	if err := tx.Save(stats).Error; err != nil {
		return nil, false, fmt.Errorf("save stats for user %d: %w", userID, err)
	}
	return stats, true, nil
}

func weekdayKey(t time.Time) string {
	// time.Weekday counts from Sunday.
	return weekdayKeys[(int(t.UTC().Weekday())+6)%7]
}
