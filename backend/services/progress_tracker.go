package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"eroz/backend/metrics"
	"eroz/backend/models"
)

// JoinResult describes the outcome of joining a series by code.
type JoinResult struct {
	Series        *models.Series
	Progress      *models.SeriesProgress
	AlreadyJoined bool
}

// RosterEntry is one enrolled student's state on a series.
type RosterEntry struct {
	Student  models.User
	Status   string
	Progress *models.SeriesProgress
}

// ProgressTracker owns the (learner, series) state machine:
// absent -> IN_PROGRESS -> COMPLETED, or absent -> COMPLETED on a direct submit.
type ProgressTracker struct {
	db      *gorm.DB
	catalog *SeriesCatalog
	opts    options
}

func NewProgressTracker(db *gorm.DB, catalog *SeriesCatalog, opts ...Option) *ProgressTracker {
	return &ProgressTracker{db: db, catalog: catalog, opts: buildOptions(opts)}
}

// Join starts a series for userID. Joining twice while in progress is a no-op;
// joining a completed series is a conflict.
func (t *ProgressTracker) Join(ctx context.Context, userID uint, code string) (*JoinResult, error) {
	series, err := t.catalog.ByCode(ctx, code)
	if err != nil {
		t.opts.metrics.SeriesJoined(metrics.JoinRejected)
		return nil, err
	}

	db := t.db.WithContext(ctx)
	existing, err := findProgress(db, userID, series.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return t.joinExisting(series, existing)
	}

	now := t.opts.clock()
	progress := &models.SeriesProgress{
		UserID:    userID,
		SeriesID:  series.ID,
		Status:    models.StatusInProgress,
		StartedAt: &now,
	}
	if createErr := db.Create(progress).Error; createErr != nil {
		if !errors.Is(createErr, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("create progress: %w", createErr)
		}
		// A concurrent join or submit won the unique index.
		existing, err = findProgress(db, userID, series.ID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, fmt.Errorf("create progress: %w", createErr)
		}
		return t.joinExisting(series, existing)
	}

	t.opts.metrics.SeriesJoined(metrics.JoinCreated)
	t.opts.log.Infow("series joined", "user_id", userID, "series_id", series.ID)
	return &JoinResult{Series: series, Progress: progress}, nil
}

func (t *ProgressTracker) joinExisting(series *models.Series, existing *models.SeriesProgress) (*JoinResult, error) {
	if existing.Status == models.StatusCompleted {
		t.opts.metrics.SeriesJoined(metrics.JoinRejected)
		return nil, fmt.Errorf("series already completed: %w", ErrConflict)
	}
	t.opts.metrics.SeriesJoined(metrics.JoinExisting)
	return &JoinResult{Series: series, Progress: existing, AlreadyJoined: true}, nil
}

// Get returns the user's progress on a series, or nil when not started.
func (t *ProgressTracker) Get(ctx context.Context, userID, seriesID uint) (*models.SeriesProgress, error) {
	return findProgress(t.db.WithContext(ctx), userID, seriesID)
}

// ForSeries maps series id to the user's progress for the given series.
func (t *ProgressTracker) ForSeries(ctx context.Context, userID uint, seriesIDs []uint) (map[uint]models.SeriesProgress, error) {
	out := make(map[uint]models.SeriesProgress, len(seriesIDs))
	if len(seriesIDs) == 0 {
		return out, nil
	}

	var rows []models.SeriesProgress
	err := t.db.WithContext(ctx).
		Where("user_id = ? AND series_id IN ?", userID, seriesIDs).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	for _, p := range rows {
		out[p.SeriesID] = p
	}
	return out, nil
}

// Roster lists every student enrolled in the series' classroom with their
// status, NOT_STARTED when they have no progress row.
func (t *ProgressTracker) Roster(ctx context.Context, series *models.Series) ([]RosterEntry, error) {
	db := t.db.WithContext(ctx)

	var enrollments []models.Enrollment
	err := db.Preload("User").
		Where("classroom_id = ?", series.ClassroomID).
		Order("joined_at ASC").
		Find(&enrollments).Error
	if err != nil {
		return nil, fmt.Errorf("load enrollments: %w", err)
	}

	userIDs := make([]uint, 0, len(enrollments))
	for _, e := range enrollments {
		userIDs = append(userIDs, e.UserID)
	}

	byUser := make(map[uint]models.SeriesProgress, len(userIDs))
	if len(userIDs) > 0 {
		var rows []models.SeriesProgress
		if err := db.Where("series_id = ? AND user_id IN ?", series.ID, userIDs).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("load progress: %w", err)
		}
		for _, p := range rows {
			byUser[p.UserID] = p
		}
	}

	roster := make([]RosterEntry, 0, len(enrollments))
	for _, e := range enrollments {
		entry := RosterEntry{Student: e.User, Status: models.StatusNotStarted}
		if p, ok := byUser[e.UserID]; ok {
			p := p
			entry.Status = p.Status
			entry.Progress = &p
		}
		roster = append(roster, entry)
	}
	return roster, nil
}

// submit marks the series completed with the submitted metrics. Any existing
// row is overwritten, including a completed one.
func (t *ProgressTracker) submit(tx *gorm.DB, userID, seriesID uint, in models.SubmitResultRequest, now time.Time) (*models.SeriesProgress, error) {
	progress, err := findProgress(tx, userID, seriesID)
	if err != nil {
		return nil, err
	}

	precision := in.Precision
	score := in.Score
	if progress == nil {
		progress = &models.SeriesProgress{
			UserID:    userID,
			SeriesID:  seriesID,
			StartedAt: &now,
		}
	}
	progress.Status = models.StatusCompleted
	progress.Precision = &precision
	progress.Score = &score
	progress.CompletedAt = &now

	if err := tx.Save(progress).Error; err != nil {
		return nil, fmt.Errorf("save progress: %w", err)
	}
	return progress, nil
}

func findProgress(tx *gorm.DB, userID, seriesID uint) (*models.SeriesProgress, error) {
	var progress models.SeriesProgress
	res := tx.Where("user_id = ? AND series_id = ?", userID, seriesID).Limit(1).Find(&progress)
	if res.Error != nil {
		return nil, fmt.Errorf("load progress: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &progress, nil
}
