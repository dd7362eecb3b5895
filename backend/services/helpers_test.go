package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"eroz/backend/models"
)

var testNow = time.Date(2025, time.March, 12, 10, 30, 0, 0, time.UTC) // a Wednesday

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func createUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()
	u := &models.User{
		Email:        email,
		PasswordHash: "x",
		FirstName:    "Test",
		LastName:     email,
		Role:         role,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createClassroom(t *testing.T, db *gorm.DB, owner *models.User, code string) *models.Classroom {
	t.Helper()
	c := &models.Classroom{Name: "Class " + code, Code: code, OwnerID: owner.ID}
	require.NoError(t, db.Create(c).Error)
	return c
}

func createSeries(t *testing.T, db *gorm.DB, classroom *models.Classroom, code, difficulty string) *models.Series {
	t.Helper()
	s := &models.Series{
		Title:       "Series " + code,
		Difficulty:  difficulty,
		Code:        code,
		ClassroomID: classroom.ID,
		CreatedByID: classroom.OwnerID,
	}
	require.NoError(t, db.Create(s).Error)
	for i := 0; i < 3; i++ {
		img := &models.SeriesImage{SeriesID: s.ID, ImageURL: fmt.Sprintf("/img/%s/%d.png", code, i), OrderIndex: 2 - i}
		require.NoError(t, db.Create(img).Error)
	}
	return s
}

func enroll(t *testing.T, db *gorm.DB, user *models.User, classroom *models.Classroom, at time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&models.Enrollment{UserID: user.ID, ClassroomID: classroom.ID, JoinedAt: at}).Error)
}

func createSession(t *testing.T, db *gorm.DB, userID uint, precision float64, duration, xp int, at time.Time) {
	t.Helper()
	s := &models.TrainingSession{
		UserID:      userID,
		Difficulty:  models.DifficultyEasy,
		Precision:   precision,
		Duration:    duration,
		BaseScore:   xp * ScorePerXP,
		Multiplier:  1.0,
		XpEarned:    xp,
		CompletedAt: at,
	}
	require.NoError(t, db.Create(s).Error)
}

// fixture is a user with a classroom and one series of each difficulty.
type fixture struct {
	db        *gorm.DB
	student   *models.User
	prof      *models.User
	classroom *models.Classroom
	easy      *models.Series
	hard      *models.Series
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	f := &fixture{db: db}
	f.prof = createUser(t, db, "prof@eroz.test", models.RoleProf)
	f.student = createUser(t, db, "student@eroz.test", models.RoleStudent)
	f.classroom = createClassroom(t, db, f.prof, "CLASS001")
	f.easy = createSeries(t, db, f.classroom, "EASY0001", models.DifficultyEasy)
	f.hard = createSeries(t, db, f.classroom, "HARD0001", models.DifficultyHard)
	return f
}

func (f *fixture) services(opts ...Option) (*SeriesCatalog, *ProgressTracker, *StatsLedger, *SessionRecorder) {
	opts = append([]Option{WithClock(FixedClock(testNow))}, opts...)
	catalog := NewSeriesCatalog(f.db)
	tracker := NewProgressTracker(f.db, catalog, opts...)
	ledger := NewStatsLedger(f.db, opts...)
	recorder := NewSessionRecorder(f.db, catalog, tracker, opts...)
	return catalog, tracker, ledger, recorder
}
