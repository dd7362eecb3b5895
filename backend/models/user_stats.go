package models

import (
	"time"

	"gorm.io/gorm"
)

// UserStats is the aggregate derived from a user's training sessions.
type UserStats struct {
	gorm.Model
	UserID         uint    `gorm:"uniqueIndex;not null"`
	TotalXp        int     `gorm:"not null;default:0"`
	Level          int     `gorm:"not null;default:1"`
	TotalSessions  int     `gorm:"not null;default:0"`
	AverageScore   float64 `gorm:"not null;default:0"`
	AverageTime    int     `gorm:"not null;default:0"` // seconds
	CurrentStreak  int     `gorm:"not null;default:0"`
	LastActivityAt *time.Time
}

type UserStatsResponse struct {
	ID             uint       `json:"id"`
	UserID         uint       `json:"userId"`
	TotalXp        int        `json:"totalXp"`
	Level          int        `json:"level"`
	TotalSessions  int        `json:"totalSessions"`
	AverageScore   float64    `json:"averageScore"`
	AverageTime    int        `json:"averageTime"`
	CurrentStreak  int        `json:"currentStreak"`
	LastActivityAt *time.Time `json:"lastActivityAt"`
}

func (s UserStats) Response() UserStatsResponse {
	return UserStatsResponse{
		ID:             s.ID,
		UserID:         s.UserID,
		TotalXp:        s.TotalXp,
		Level:          s.Level,
		TotalSessions:  s.TotalSessions,
		AverageScore:   s.AverageScore,
		AverageTime:    s.AverageTime,
		CurrentStreak:  s.CurrentStreak,
		LastActivityAt: s.LastActivityAt,
	}
}
