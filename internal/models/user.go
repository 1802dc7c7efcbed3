package models

import "time"

// User represents a platform account. Students log in with their roll or
// phone number; there is no normalization guarantee on that identifier.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Roll         string    `gorm:"size:64;uniqueIndex;not null" json:"roll"`
	PasswordHash string    `gorm:"size:128;not null" json:"-"`
	Role         string    `gorm:"size:16;not null;default:student" json:"role"`
	Institution  string    `gorm:"size:255" json:"institution"`
	Batches      []Batch   `gorm:"many2many:batch_enrollments" json:"batches,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const (
	// RoleStudent is the default role for registered accounts.
	RoleStudent = "student"
	// RoleAdmin marks accounts allowed to manage batches, exams and questions.
	RoleAdmin = "admin"
)

// IsAdmin reports whether the user can access administrative endpoints.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// EnrolledIn reports whether the user is enrolled in the given batch.
func (u User) EnrolledIn(batchID uint) bool {
	for _, batch := range u.Batches {
		if batch.ID == batchID {
			return true
		}
	}
	return false
}
