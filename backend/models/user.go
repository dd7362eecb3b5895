package models

import (
	"time"

	"gorm.io/gorm"
)

// Roles
const (
	RoleStudent = "STUDENT"
	RoleProf    = "PROF"
	RoleAdmin   = "ADMIN"
)

type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	FirstName    string `gorm:"not null"`
	LastName     string `gorm:"not null"`
	Avatar       string
	Role         string `gorm:"not null;default:STUDENT"` // STUDENT, PROF, ADMIN

	Sessions       []TrainingSession `gorm:"constraint:OnDelete:CASCADE"`
	Stats          *UserStats        `gorm:"constraint:OnDelete:CASCADE"`
	Enrollments    []Enrollment      `gorm:"constraint:OnDelete:CASCADE"`
	SeriesProgress []SeriesProgress  `gorm:"constraint:OnDelete:CASCADE"`
}

// IsStaff reports whether the user may manage classrooms and series.
func (u User) IsStaff() bool {
	return u.Role == RoleProf || u.Role == RoleAdmin
}

type UserResponse struct {
	ID        uint      `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u User) Response() UserResponse {
	return UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Avatar:    u.Avatar,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// UpdateRoleRequest is the body of PUT /api/users/:id/role.
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// ValidRole reports whether r is a known role.
func ValidRole(r string) bool {
	switch r {
	case RoleStudent, RoleProf, RoleAdmin:
		return true
	}
	return false
}
