package models

import (
	"time"

	"gorm.io/gorm"
)

// Progress statuses. NOT_STARTED is never stored: it is the absence of a row.
const (
	StatusNotStarted = "NOT_STARTED"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
)

// Series is an ordered set of images forming one training exercise.
type Series struct {
	gorm.Model
	Title       string `gorm:"not null"`
	Description string
	Difficulty  string `gorm:"not null;default:MEDIUM"`
	Code        string `gorm:"uniqueIndex;not null"`
	ClassroomID uint   `gorm:"index;not null"`
	CreatedByID uint   `gorm:"not null"`

	Images   []SeriesImage    `gorm:"constraint:OnDelete:CASCADE"`
	Progress []SeriesProgress `gorm:"constraint:OnDelete:CASCADE"`
}

type SeriesImage struct {
	gorm.Model
	SeriesID   uint   `gorm:"index;not null"`
	ImageURL   string `gorm:"not null"`
	OrderIndex int    `gorm:"not null;default:0"`
}

// SeriesProgress tracks one learner on one series.
type SeriesProgress struct {
	gorm.Model
	UserID      uint   `gorm:"uniqueIndex:idx_user_series;not null"`
	SeriesID    uint   `gorm:"uniqueIndex:idx_user_series;not null"`
	Status      string `gorm:"not null"`
	Precision   *float64
	Score       *int
	StartedAt   *time.Time
	CompletedAt *time.Time
}

type SeriesResponse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Difficulty  string    `json:"difficulty"`
	Code        string    `json:"code"`
	ClassroomID uint      `json:"classroomId"`
	CreatedByID uint      `json:"createdById"`
	CreatedAt   time.Time `json:"createdAt"`
	ImageCount  int       `json:"imageCount"`
	Status      *string   `json:"status"`
}

type SeriesImageResponse struct {
	ID         uint   `json:"id"`
	ImageURL   string `json:"imageUrl"`
	OrderIndex int    `json:"orderIndex"`
}

type SeriesDetailResponse struct {
	ID          uint                  `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Difficulty  string                `json:"difficulty"`
	Code        string                `json:"code"`
	ClassroomID uint                  `json:"classroomId"`
	CreatedByID uint                  `json:"createdById"`
	CreatedAt   time.Time             `json:"createdAt"`
	Images      []SeriesImageResponse `json:"images"`
	Status      *string               `json:"status"`
	Score       *int                  `json:"score"`
	Precision   *float64              `json:"precision"`
}

type StudentSeriesProgressResponse struct {
	StudentID   uint       `json:"studentId"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Status      string     `json:"status"`
	Precision   *float64   `json:"precision"`
	Score       *int       `json:"score"`
	CompletedAt *time.Time `json:"completedAt"`
}

// CreateSeriesRequest is the body of POST /api/series.
type CreateSeriesRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Difficulty  string   `json:"difficulty"`
	ClassroomID uint     `json:"classroomId"`
	ImageURLs   []string `json:"imageUrls"`
}

func (s Series) Response(status *string) SeriesResponse {
	return SeriesResponse{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Difficulty:  s.Difficulty,
		Code:        s.Code,
		ClassroomID: s.ClassroomID,
		CreatedByID: s.CreatedByID,
		CreatedAt:   s.CreatedAt,
		ImageCount:  len(s.Images),
		Status:      status,
	}
}

// DetailResponse includes images and the caller's progress, if any.
func (s Series) DetailResponse(progress *SeriesProgress) SeriesDetailResponse {
	images := make([]SeriesImageResponse, 0, len(s.Images))
	for _, img := range s.Images {
		images = append(images, SeriesImageResponse{ID: img.ID, ImageURL: img.ImageURL, OrderIndex: img.OrderIndex})
	}
	out := SeriesDetailResponse{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Difficulty:  s.Difficulty,
		Code:        s.Code,
		ClassroomID: s.ClassroomID,
		CreatedByID: s.CreatedByID,
		CreatedAt:   s.CreatedAt,
		Images:      images,
	}
	if progress != nil {
		status := progress.Status
		out.Status = &status
		out.Score = progress.Score
		out.Precision = progress.Precision
	}
	return out
}
