package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"gorm.io/gorm"

	"eroz/backend/models"
)

const (
	inviteCodeLength   = 8
	inviteCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// SeriesCatalog resolves series by id, invite code or at random.
type SeriesCatalog struct {
	db *gorm.DB
}

func NewSeriesCatalog(db *gorm.DB) *SeriesCatalog {
	return &SeriesCatalog{db: db}
}

// NormalizeCode trims and upper-cases an invite code as typed by a user.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NewInviteCode draws an upper-case alphanumeric invite code from rng.
func NewInviteCode(rng *rand.Rand) string {
	var b strings.Builder
	b.Grow(inviteCodeLength)
	for i := 0; i < inviteCodeLength; i++ {
		b.WriteByte(inviteCodeAlphabet[rng.Intn(len(inviteCodeAlphabet))])
	}
	return b.String()
}

// ByID loads a series with its images in display order.
func (c *SeriesCatalog) ByID(ctx context.Context, id uint) (*models.Series, error) {
	return findSeries(c.db.WithContext(ctx), "id = ?", id)
}

// ByCode resolves an invite code after normalizing it.
func (c *SeriesCatalog) ByCode(ctx context.Context, code string) (*models.Series, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, notFound("series")
	}
	return findSeries(c.db.WithContext(ctx), "code = ?", code)
}

// Random picks one series, optionally restricted to a difficulty tier.
func (c *SeriesCatalog) Random(ctx context.Context, difficulty string, rng *rand.Rand) (*models.Series, error) {
	q := c.db.WithContext(ctx).Model(&models.Series{})
	if difficulty != "" {
		q = q.Where("difficulty = ?", strings.ToUpper(difficulty))
	}

	var ids []uint
	if err := q.Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list series ids: %w", err)
	}

	id, ok := PickRandom(ids, rng)
	if !ok {
		return nil, notFound("series")
	}
	return c.ByID(ctx, id)
}

func findSeries(tx *gorm.DB, query string, arg any) (*models.Series, error) {
	var series models.Series
	err := tx.Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_index ASC")
	}).Where(query, arg).First(&series).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("series")
	}
	if err != nil {
		return nil, fmt.Errorf("load series: %w", err)
	}
	return &series, nil
}
