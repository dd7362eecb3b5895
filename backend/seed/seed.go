// Package seed fills an empty store with demo users, their training history,
// classrooms, series and progress. Running it again only adds what is missing.
package seed

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"eroz/backend/models"
	"eroz/backend/services"
)

type options struct {
	seed       int64
	clock      services.Clock
	log        *zap.SugaredLogger
	bcryptCost int
}

type Option func(*options)

// WithSeed fixes the random source so two runs generate the same data.
func WithSeed(seed int64) Option {
	return func(o *options) { o.seed = seed }
}

func WithClock(c services.Clock) Option {
	return func(o *options) { o.clock = c }
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(o *options) { o.log = l }
}

// WithBcryptCost lowers the hashing cost, for tests.
func WithBcryptCost(cost int) Option {
	return func(o *options) { o.bcryptCost = cost }
}

// Run seeds db. Users that already have sessions are left alone.
func Run(db *gorm.DB, opts ...Option) error {
	o := options{seed: 42, bcryptCost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(&o)
	}
	if o.clock == nil {
		o.clock = services.SystemClock
	}
	if o.log == nil {
		o.log = zap.NewNop().Sugar()
	}

	s := &seeder{
		db:  db,
		rng: rand.New(rand.NewSource(o.seed)),
		now: o.clock().UTC(),
		o:   o,
	}
	return s.run(context.Background())
}

type seeder struct {
	db  *gorm.DB
	rng *rand.Rand
	now time.Time
	o   options
}

func (s *seeder) run(ctx context.Context) error {
	users := make(map[string]*models.User, len(demoUsers))
	for _, du := range demoUsers {
		u, err := s.seedUser(ctx, du)
		if err != nil {
			return fmt.Errorf("seed user %s: %w", du.Email, err)
		}
		users[du.Email] = u
	}

	classrooms := make(map[string]*models.Classroom, len(demoClassrooms))
	for _, dc := range demoClassrooms {
		c, err := s.seedClassroom(ctx, dc, users)
		if err != nil {
			return fmt.Errorf("seed classroom %s: %w", dc.Code, err)
		}
		classrooms[dc.Code] = c
	}

	for _, ds := range demoSeriesList {
		classroom := classrooms[ds.Classroom]
		series, created, err := s.seedSeries(ctx, ds, classroom)
		if err != nil {
			return fmt.Errorf("seed series %s: %w", ds.Code, err)
		}
		if !created {
			continue
		}
		students := studentsOf(ds.Classroom, users)
		if err := s.seedProgress(ctx, series, ds.Plan, students); err != nil {
			return fmt.Errorf("seed progress %s: %w", ds.Code, err)
		}
	}

	s.o.log.Infow("demo data seeded", "users", len(users), "classrooms", len(classrooms), "series", len(demoSeriesList))
	return nil
}

func (s *seeder) seedUser(ctx context.Context, du demoUser) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("email = ?", du.Email).Limit(1).Find(&user)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			hash, err := bcrypt.GenerateFromPassword([]byte(du.Password), s.o.bcryptCost)
			if err != nil {
				return err
			}
			user = models.User{
				Email:        du.Email,
				PasswordHash: string(hash),
				FirstName:    du.FirstName,
				LastName:     du.LastName,
				Role:         du.Role,
			}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
		}

		var sessions int64
		if err := tx.Model(&models.TrainingSession{}).Where("user_id = ?", user.ID).Count(&sessions).Error; err != nil {
			return err
		}
		if sessions == 0 {
			generated := GenerateSessions(user.ID, du.Sessions, s.now, s.rng)
			if err := tx.CreateInBatches(generated, 100).Error; err != nil {
				return err
			}
		}

		_, err := services.NewStatsLedger(tx).Rebuild(ctx, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *seeder) seedClassroom(ctx context.Context, dc demoClassroom, users map[string]*models.User) (*models.Classroom, error) {
	owner, ok := users[dc.Owner]
	if !ok {
		return nil, fmt.Errorf("unknown owner %s", dc.Owner)
	}

	db := s.db.WithContext(ctx)
	classroom := models.Classroom{Code: dc.Code}
	err := db.Where(models.Classroom{Code: dc.Code}).
		Attrs(models.Classroom{Name: dc.Name, Description: dc.Description, OwnerID: owner.ID}).
		FirstOrCreate(&classroom).Error
	if err != nil {
		return nil, err
	}

	for i, email := range dc.Students {
		student, ok := users[email]
		if !ok {
			continue
		}
		enrollment := models.Enrollment{
			UserID:      student.ID,
			ClassroomID: classroom.ID,
			JoinedAt:    s.now.Add(time.Duration(i) * time.Second),
		}
		err := db.Where(models.Enrollment{UserID: student.ID, ClassroomID: classroom.ID}).
			Attrs(enrollment).
			FirstOrCreate(&enrollment).Error
		if err != nil {
			return nil, err
		}
	}
	return &classroom, nil
}

func (s *seeder) seedSeries(ctx context.Context, ds demoSeries, classroom *models.Classroom) (*models.Series, bool, error) {
	db := s.db.WithContext(ctx)

	var series models.Series
	res := db.Where("code = ?", ds.Code).Limit(1).Find(&series)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return &series, false, nil
	}

	series = models.Series{
		Title:       ds.Title,
		Description: ds.Description,
		Difficulty:  ds.Difficulty,
		Code:        ds.Code,
		ClassroomID: classroom.ID,
		CreatedByID: classroom.OwnerID,
	}
	for i, url := range sampleImages[:ds.Images] {
		series.Images = append(series.Images, models.SeriesImage{ImageURL: url, OrderIndex: i})
	}
	if err := db.Create(&series).Error; err != nil {
		return nil, false, err
	}
	return &series, true, nil
}

// seedProgress gives each student a random state on a newly created series.
// Students who already have a row keep it.
func (s *seeder) seedProgress(ctx context.Context, series *models.Series, plan progressPlan, students []*models.User) error {
	db := s.db.WithContext(ctx)

	for _, student := range students {
		progress, ok := generateProgress(student.ID, series.ID, plan, s.now, s.rng)
		if !ok {
			continue
		}
		err := db.Where(models.SeriesProgress{UserID: student.ID, SeriesID: series.ID}).
			Attrs(progress).
			FirstOrCreate(&progress).Error
		if err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
	}
	return nil
}

func studentsOf(code string, users map[string]*models.User) []*models.User {
	for _, dc := range demoClassrooms {
		if dc.Code != code {
			continue
		}
		out := make([]*models.User, 0, len(dc.Students))
		for _, email := range dc.Students {
			if u, ok := users[email]; ok {
				out = append(out, u)
			}
		}
		return out
	}
	return nil
}

// GenerateSessions draws count demo sessions ending at now. The first seven
// fall on consecutive days so every demo user starts with a streak.
func GenerateSessions(userID uint, count int, now time.Time, rng *rand.Rand) []models.TrainingSession {
	sessions := make([]models.TrainingSession, 0, count)
	for i := 0; i < count; i++ {
		var daysAgo int
		switch {
		case i < 7:
			daysAgo = i
		case float64(i) < float64(count)*0.7:
			daysAgo = randInt(rng, 0, 6)
		default:
			daysAgo = randInt(rng, 7, 20)
		}

		y, m, d := now.AddDate(0, 0, -daysAgo).Date()
		completedAt := time.Date(y, m, d, randInt(rng, 8, 19), randInt(rng, 0, 59), 0, 0, time.UTC)

		var difficulty string
		switch roll := rng.Float64(); {
		case roll < 0.35:
			difficulty = models.DifficultyEasy
		case roll < 0.75:
			difficulty = models.DifficultyMedium
		default:
			difficulty = models.DifficultyHard
		}
		multiplier := services.DifficultyMultiplier(difficulty)

		totalImages := randInt(rng, 10, 20)
		correct := randInt(rng, int(float64(totalImages)*0.6), int(float64(totalImages)*0.95))
		precision := roundTo(float64(correct)/float64(totalImages)*100, 1)
		baseScore := int(precision * 10)

		sessions = append(sessions, models.TrainingSession{
			UserID:         userID,
			Difficulty:     difficulty,
			Precision:      precision,
			Duration:       randInt(rng, 120, 420),
			TotalImages:    totalImages,
			CorrectAnswers: correct,
			BaseScore:      baseScore,
			Multiplier:     multiplier,
			XpEarned:       int(math.RoundToEven(float64(baseScore) * multiplier)),
			CompletedAt:    completedAt,
		})
	}
	return sessions
}

// generateProgress draws a student's state on a series. It reports false
// when the student has not started.
func generateProgress(userID, seriesID uint, plan progressPlan, now time.Time, rng *rand.Rand) (models.SeriesProgress, bool) {
	daysAgo := func(min, max int) *time.Time {
		t := now.AddDate(0, 0, -randInt(rng, min, max))
		return &t
	}

	roll := rng.Float64()
	switch {
	case roll < plan.CompletedBelow:
		precision := roundTo(plan.PrecisionMin+rng.Float64()*(plan.PrecisionMax-plan.PrecisionMin), 1)
		score := randInt(rng, plan.ScoreMin, plan.ScoreMax)
		return models.SeriesProgress{
			UserID:      userID,
			SeriesID:    seriesID,
			Status:      models.StatusCompleted,
			Precision:   &precision,
			Score:       &score,
			StartedAt:   daysAgo(plan.StartedDaysMin, plan.StartedDaysMax),
			CompletedAt: daysAgo(0, plan.DoneDaysMax),
		}, true
	case roll < plan.InProgressBelow:
		return models.SeriesProgress{
			UserID:    userID,
			SeriesID:  seriesID,
			Status:    models.StatusInProgress,
			StartedAt: daysAgo(1, plan.PendingDaysMax),
		}, true
	}
	return models.SeriesProgress{}, false
}

// randInt is uniform over [min, max].
func randInt(rng *rand.Rand, min, max int) int {
	if max <= min {
		return min
	}
	return min + rng.Intn(max-min+1)
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.RoundToEven(v*p) / p
}
