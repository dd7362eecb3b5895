package models

import (
	"time"

	"gorm.io/gorm"
)

type Classroom struct {
	gorm.Model
	Name        string `gorm:"not null"`
	Description string
	Code        string `gorm:"uniqueIndex;not null"`
	OwnerID     uint   `gorm:"index;not null"`

	Enrollments []Enrollment `gorm:"constraint:OnDelete:CASCADE"`
	Series      []Series     `gorm:"constraint:OnDelete:CASCADE"`
}

type Enrollment struct {
	gorm.Model
	UserID      uint      `gorm:"uniqueIndex:idx_user_classroom;not null"`
	ClassroomID uint      `gorm:"uniqueIndex:idx_user_classroom;not null"`
	JoinedAt    time.Time `gorm:"not null"`

	User User
}

type ClassroomResponse struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Code         string    `json:"code"`
	OwnerID      uint      `json:"ownerId"`
	CreatedAt    time.Time `json:"createdAt"`
	StudentCount int       `json:"studentCount"`
	SeriesCount  int       `json:"seriesCount"`
}

type EnrolledStudentResponse struct {
	ID        uint   `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type ClassroomDetailResponse struct {
	ClassroomResponse
	Students []EnrolledStudentResponse `json:"students"`
}

type CreateClassroomRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdateClassroomRequest leaves nil fields unchanged.
type UpdateClassroomRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type JoinClassroomResponse struct {
	Message       string `json:"message"`
	ClassroomID   uint   `json:"classroomId"`
	ClassroomName string `json:"classroomName"`
}

func (c Classroom) Response() ClassroomResponse {
	return ClassroomResponse{
		ID:           c.ID,
		Name:         c.Name,
		Description:  c.Description,
		Code:         c.Code,
		OwnerID:      c.OwnerID,
		CreatedAt:    c.CreatedAt,
		StudentCount: len(c.Enrollments),
		SeriesCount:  len(c.Series),
	}
}
