package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"eroz/backend/models"
)

// SubmissionResult is everything a recorded submission wrote.
type SubmissionResult struct {
	Series   *models.Series
	Progress *models.SeriesProgress
	Session  *models.TrainingSession
	Stats    *models.UserStats
}

// SessionRecorder turns a submitted result into a completed progress row, an
// appended training session and updated stats, all in one transaction.
type SessionRecorder struct {
	db      *gorm.DB
	catalog *SeriesCatalog
	tracker *ProgressTracker
	opts    options
}

func NewSessionRecorder(db *gorm.DB, catalog *SeriesCatalog, tracker *ProgressTracker, opts ...Option) *SessionRecorder {
	return &SessionRecorder{db: db, catalog: catalog, tracker: tracker, opts: buildOptions(opts)}
}

// ParseSubmission rejects a body missing precision or score and validates the rest.
func ParseSubmission(body models.SubmitResultBody) (models.SubmitResultRequest, error) {
	fields := map[string]string{}
	if body.Precision == nil {
		fields["precision"] = "is required"
	}
	if body.Score == nil {
		fields["score"] = "is required"
	}
	if len(fields) > 0 {
		return models.SubmitResultRequest{}, &ValidationError{Fields: fields}
	}

	in := models.SubmitResultRequest{
		Precision:      *body.Precision,
		Score:          *body.Score,
		Duration:       body.Duration,
		TotalImages:    body.TotalImages,
		CorrectAnswers: body.CorrectAnswers,
	}
	return in, ValidateSubmission(in)
}

// ValidateSubmission checks a submission before anything is written.
func ValidateSubmission(in models.SubmitResultRequest) error {
	fields := map[string]string{}
	if in.Precision < 0 || in.Precision > 100 {
		fields["precision"] = "must be between 0 and 100"
	}
	if in.Score < 0 {
		fields["score"] = "must not be negative"
	}
	if in.Duration < 0 {
		fields["duration"] = "must not be negative"
	}
	if in.TotalImages < 0 {
		fields["totalImages"] = "must not be negative"
	}
	if in.CorrectAnswers < 0 {
		fields["correctAnswers"] = "must not be negative"
	} else if in.CorrectAnswers > in.TotalImages {
		fields["correctAnswers"] = "must not exceed totalImages"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// RecordSubmission records userID's result on seriesID. Nothing is persisted
// unless every step succeeds.
func (r *SessionRecorder) RecordSubmission(ctx context.Context, userID, seriesID uint, in models.SubmitResultRequest) (*SubmissionResult, error) {
	if err := ValidateSubmission(in); err != nil {
		return nil, err
	}

	series, err := r.catalog.ByID(ctx, seriesID)
	if err != nil {
		return nil, err
	}

	now := r.opts.clock()
	result := &SubmissionResult{Series: series}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		progress, err := r.tracker.submit(tx, userID, series.ID, in, now)
		if err != nil {
			return err
		}
		result.Progress = progress

		xp := XPForScore(in.Score)
		session := &models.TrainingSession{
			UserID:         userID,
			Difficulty:     series.Difficulty,
			Precision:      in.Precision,
			Duration:       in.Duration,
			TotalImages:    in.TotalImages,
			CorrectAnswers: in.CorrectAnswers,
			BaseScore:      in.Score,
			Multiplier:     1.0,
			XpEarned:       xp,
			CompletedAt:    now,
		}
		if err := tx.Create(session).Error; err != nil {
			return fmt.Errorf("append session: %w", err)
		}
		result.Session = session

		var stats *models.UserStats
		if r.opts.statsMode == StatsRebuild {
			stats, _, err = rebuildStats(tx, userID)
		} else {
			stats, err = applySubmissionStats(tx, userID, in.Precision, xp, now)
		}
		if err != nil {
			return err
		}
		result.Stats = stats
		return nil
	})
	if err != nil {
		r.opts.log.Warnw("submission rolled back", "user_id", userID, "series_id", seriesID, "error", err)
		return nil, err
	}

	r.opts.metrics.SubmissionRecorded(series.Difficulty, result.Session.XpEarned)
	r.opts.log.Infow("submission recorded",
		"user_id", userID,
		"series_id", series.ID,
		"xp", result.Session.XpEarned,
		"total_xp", result.Stats.TotalXp,
	)
	return result, nil
}
