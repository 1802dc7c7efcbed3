package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Question is a single multiple-choice item in an exam's question bank.
// AnswerIndex is 1-based into Options.
type Question struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	ExamID      uint           `gorm:"not null;index" json:"exam_id"`
	Text        string         `gorm:"type:text;not null" json:"text"`
	Options     datatypes.JSON `gorm:"type:json" json:"-"`
	AnswerIndex int            `gorm:"not null" json:"answer_index"`
	Explanation string         `gorm:"type:text" json:"explanation"`
	Subject     string         `gorm:"size:128" json:"subject"`
	Paper       string         `gorm:"size:128" json:"paper"`
	Chapter     string         `gorm:"size:128" json:"chapter"`
	Section     string         `gorm:"size:128" json:"section"`
	Type        string         `gorm:"size:64" json:"type"`
	Highlight   string         `gorm:"size:255" json:"highlight"`
	ImageURL    string         `gorm:"size:512" json:"image_url"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// OptionList decodes the stored JSON options. A decode failure yields an
// empty list rather than an error; imports always write a valid array.
func (q Question) OptionList() []string {
	if len(q.Options) == 0 {
		return nil
	}
	var options []string
	if err := json.Unmarshal(q.Options, &options); err != nil {
		return nil
	}
	return options
}

// SetOptions encodes the option texts into the JSON column.
func (q *Question) SetOptions(options []string) error {
	data, err := json.Marshal(options)
	if err != nil {
		return err
	}
	q.Options = datatypes.JSON(data)
	return nil
}
