package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"eroz/backend/models"
)

func TestSessionRecorder_FirstSubmission(t *testing.T) {
	f := newFixture(t)
	_, _, ledger, recorder := f.services()
	ctx := context.Background()

	res, err := recorder.RecordSubmission(ctx, f.student.ID, f.hard.ID, models.SubmitResultRequest{
		Precision:      87.5,
		Score:          800,
		Duration:       95,
		TotalImages:    8,
		CorrectAnswers: 7,
	})
	require.NoError(t, err)

	assert.Equal(t, 80, res.Session.XpEarned)
	assert.Equal(t, 800, res.Session.BaseScore)
	assert.Equal(t, 1.0, res.Session.Multiplier)
	assert.Equal(t, models.DifficultyHard, res.Session.Difficulty)
	assert.True(t, res.Session.CompletedAt.Equal(testNow))

	assert.Equal(t, models.StatusCompleted, res.Progress.Status)
	assert.True(t, res.Progress.StartedAt.Equal(testNow))
	assert.True(t, res.Progress.CompletedAt.Equal(testNow))

	stats, err := ledger.Get(ctx, f.student.ID)
	require.NoError(t, err)
	assert.Equal(t, 80, stats.TotalXp)
	assert.Equal(t, 1, stats.TotalSessions)
	assert.Equal(t, 87.5, stats.AverageScore)
	assert.Equal(t, 1, stats.Level)
	assert.Zero(t, stats.CurrentStreak)
	require.NotNil(t, stats.LastActivityAt)
	assert.True(t, stats.LastActivityAt.Equal(testNow))
}

func TestSessionRecorder_RunningAverage(t *testing.T) {
	f := newFixture(t)
	_, _, ledger, recorder := f.services()
	ctx := context.Background()

	require.NoError(t, f.db.Create(&models.UserStats{
		UserID: f.student.ID, TotalSessions: 1, AverageScore: 70, TotalXp: 990, Level: 1,
	}).Error)

	_, err := recorder.RecordSubmission(ctx, f.student.ID, f.easy.ID, models.SubmitResultRequest{Precision: 90, Score: 150})
	require.NoError(t, err)

	stats, err := ledger.Get(ctx, f.student.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(80), stats.AverageScore)
	assert.Equal(t, 2, stats.TotalSessions)
	assert.Equal(t, 1005, stats.TotalXp)
	// The incremental path leaves the stored level alone.
	assert.Equal(t, 1, stats.Level)
}

func TestSessionRecorder_ResubmitOverwrites(t *testing.T) {
	f := newFixture(t)
	_, tracker, _, recorder := f.services()
	ctx := context.Background()

	_, err := tracker.Join(ctx, f.student.ID, "EASY0001")
	require.NoError(t, err)

	_, err = recorder.RecordSubmission(ctx, f.student.ID, f.easy.ID, models.SubmitResultRequest{Precision: 50, Score: 300})
	require.NoError(t, err)
	res, err := recorder.RecordSubmission(ctx, f.student.ID, f.easy.ID, models.SubmitResultRequest{Precision: 95, Score: 900})
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, res.Progress.Status)
	assert.Equal(t, 95.0, *res.Progress.Precision)
	assert.Equal(t, 900, *res.Progress.Score)
	assert.Equal(t, int64(1), countProgress(t, f, f.student.ID, f.easy.ID))

	var sessions int64
	require.NoError(t, f.db.Model(&models.TrainingSession{}).Where("user_id = ?", f.student.ID).Count(&sessions).Error)
	assert.Equal(t, int64(2), sessions)
	assert.Equal(t, 2, res.Stats.TotalSessions)
	assert.Equal(t, 120, res.Stats.TotalXp)
}

func TestSessionRecorder_Validation(t *testing.T) {
	f := newFixture(t)
	_, _, _, recorder := f.services()
	ctx := context.Background()

	cases := []models.SubmitResultRequest{
		{Precision: -1, Score: 10},
		{Precision: 100.5, Score: 10},
		{Precision: 50, Score: -10},
		{Precision: 50, Score: 10, Duration: -1},
		{Precision: 50, Score: 10, TotalImages: 2, CorrectAnswers: 3},
	}
	for _, in := range cases {
		_, err := recorder.RecordSubmission(ctx, f.student.ID, f.easy.ID, in)
		assert.ErrorIs(t, err, ErrValidation, "%+v", in)
	}

	assert.Zero(t, countProgress(t, f, f.student.ID, f.easy.ID))
}

func TestParseSubmission(t *testing.T) {
	precision, score := 72.5, 10

	_, err := ParseSubmission(models.SubmitResultBody{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "precision")
	assert.Contains(t, verr.Fields, "score")

	_, err = ParseSubmission(models.SubmitResultBody{Score: &score})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "precision")
	assert.NotContains(t, verr.Fields, "score")

	zero := 0.0
	in, err := ParseSubmission(models.SubmitResultBody{Precision: &zero, Score: &score, Duration: 30})
	require.NoError(t, err)
	assert.Equal(t, models.SubmitResultRequest{Precision: 0, Score: 10, Duration: 30}, in)

	in, err = ParseSubmission(models.SubmitResultBody{Precision: &precision, Score: &score})
	require.NoError(t, err)
	assert.Equal(t, 72.5, in.Precision)

	tooHigh := 101.0
	_, err = ParseSubmission(models.SubmitResultBody{Precision: &tooHigh, Score: &score})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSessionRecorder_UnknownSeries(t *testing.T) {
	f := newFixture(t)
	_, _, _, recorder := f.services()

	_, err := recorder.RecordSubmission(context.Background(), f.student.ID, 4242, models.SubmitResultRequest{Precision: 50, Score: 10})
	assert.ErrorIs(t, err, ErrNotFound)
}

func failWritesTo(t *testing.T, db *gorm.DB, table string) {
	t.Helper()
	fail := func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			_ = tx.AddError(errors.New("injected failure"))
		}
	}
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_create", fail))
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:fail_update", fail))
}

func TestSessionRecorder_RollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	_, _, _, recorder := f.services()
	ctx := context.Background()

	failWritesTo(t, f.db, "user_stats")

	_, err := recorder.RecordSubmission(ctx, f.student.ID, f.easy.ID, models.SubmitResultRequest{Precision: 80, Score: 500})
	require.Error(t, err)

	var sessions, stats int64
	require.NoError(t, f.db.Model(&models.TrainingSession{}).Count(&sessions).Error)
	require.NoError(t, f.db.Model(&models.UserStats{}).Count(&stats).Error)
	assert.Zero(t, sessions)
	assert.Zero(t, stats)
	assert.Zero(t, countProgress(t, f, f.student.ID, f.easy.ID))
}

func TestSessionRecorder_RollsBackStatsUpdate(t *testing.T) {
	f := newFixture(t)
	_, tracker, _, recorder := f.services()
	ctx := context.Background()

	_, err := tracker.Join(ctx, f.student.ID, "EASY0001")
	require.NoError(t, err)
	require.NoError(t, f.db.Create(&models.UserStats{UserID: f.student.ID, TotalSessions: 3, AverageScore: 60, TotalXp: 300, Level: 1}).Error)

	failWritesTo(t, f.db, "user_stats")

	_, err = recorder.RecordSubmission(ctx, f.student.ID, f.easy.ID, models.SubmitResultRequest{Precision: 80, Score: 500})
	require.Error(t, err)

	var stats models.UserStats
	require.NoError(t, f.db.Where("user_id = ?", f.student.ID).First(&stats).Error)
	assert.Equal(t, 3, stats.TotalSessions)
	assert.Equal(t, 300, stats.TotalXp)

	p, err := tracker.Get(ctx, f.student.ID, f.easy.ID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, models.StatusInProgress, p.Status)
	assert.Nil(t, p.Score)
}

func TestSessionRecorder_RebuildMode(t *testing.T) {
	f := newFixture(t)
	_, _, _, recorder := f.services(WithStatsMode(StatsRebuild))
	ctx := context.Background()

	createSession(t, f.db, f.student.ID, 70, 30, 950, day(-1, 9))

	res, err := recorder.RecordSubmission(ctx, f.student.ID, f.easy.ID, models.SubmitResultRequest{Precision: 85, Score: 500, Duration: 41})
	require.NoError(t, err)

	assert.Equal(t, 1000, res.Stats.TotalXp)
	assert.Equal(t, 2, res.Stats.Level)
	assert.Equal(t, 2, res.Stats.TotalSessions)
	assert.Equal(t, float64(78), res.Stats.AverageScore)
	assert.Equal(t, 36, res.Stats.AverageTime)
	assert.Equal(t, 2, res.Stats.CurrentStreak)
}
