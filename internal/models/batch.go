package models

import "time"

// Batch is a course cohort that owns a set of exams and a roster of
// enrolled students. Public batches require no enrollment check.
type Batch struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	IsPublic    bool      `gorm:"not null;default:false" json:"is_public"`
	Status      string    `gorm:"size:16;not null;default:active" json:"status"`
	Exams       []Exam    `json:"exams,omitempty"`
	Students    []User    `gorm:"many2many:batch_enrollments" json:"students,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const (
	// BatchStatusActive marks a batch currently running.
	BatchStatusActive = "active"
	// BatchStatusArchived marks a batch no longer accepting enrollments.
	BatchStatusArchived = "archived"
)
