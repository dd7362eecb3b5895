package models

import (
	"time"

	"gorm.io/gorm"
)

// Difficulty tiers
const (
	DifficultyEasy   = "EASY"
	DifficultyMedium = "MEDIUM"
	DifficultyHard   = "HARD"
)

// ValidDifficulty reports whether d is one of the known tiers.
func ValidDifficulty(d string) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// TrainingSession is one completed attempt at a series. Rows are never updated.
type TrainingSession struct {
	gorm.Model
	UserID         uint      `gorm:"index;not null"`
	Difficulty     string    `gorm:"not null"`
	Precision      float64   `gorm:"not null"`
	Duration       int       `gorm:"not null"` // seconds
	TotalImages    int       `gorm:"not null"`
	CorrectAnswers int       `gorm:"not null"`
	BaseScore      int       `gorm:"not null"`
	Multiplier     float64   `gorm:"not null"`
	XpEarned       int       `gorm:"not null"`
	CompletedAt    time.Time `gorm:"index;not null"`
}

type TrainingSessionResponse struct {
	ID             uint      `json:"id"`
	UserID         uint      `json:"userId"`
	Difficulty     string    `json:"difficulty"`
	Precision      float64   `json:"precision"`
	Duration       int       `json:"duration"`
	TotalImages    int       `json:"totalImages"`
	CorrectAnswers int       `json:"correctAnswers"`
	BaseScore      int       `json:"baseScore"`
	Multiplier     float64   `json:"multiplier"`
	XpEarned       int       `json:"xpEarned"`
	CompletedAt    time.Time `json:"completedAt"`
}

func (s TrainingSession) Response() TrainingSessionResponse {
	return TrainingSessionResponse{
		ID:             s.ID,
		UserID:         s.UserID,
		Difficulty:     s.Difficulty,
		Precision:      s.Precision,
		Duration:       s.Duration,
		TotalImages:    s.TotalImages,
		CorrectAnswers: s.CorrectAnswers,
		BaseScore:      s.BaseScore,
		Multiplier:     s.Multiplier,
		XpEarned:       s.XpEarned,
		CompletedAt:    s.CompletedAt,
	}
}
