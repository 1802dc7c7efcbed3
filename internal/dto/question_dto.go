package dto

import (
	"time"

	"github.com/examify-bd/examify-api/internal/models"
)

// QuestionResponse is the API representation of a question. The answer index
// is only included for admin views; student views zero it out.
type QuestionResponse struct {
	ID          uint      `json:"id"`
	ExamID      uint      `json:"exam_id"`
	Text        string    `json:"text"`
	Options     []string  `json:"options"`
	AnswerIndex int       `json:"answer_index,omitempty"`
	Explanation string    `json:"explanation,omitempty"`
	Subject     string    `json:"subject,omitempty"`
	Paper       string    `json:"paper,omitempty"`
	Chapter     string    `json:"chapter,omitempty"`
	Section     string    `json:"section,omitempty"`
	Type        string    `json:"type,omitempty"`
	Highlight   string    `json:"highlight,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewQuestionResponse maps a question model onto its API representation.
// withAnswers controls whether the answer index and explanation are exposed.
func NewQuestionResponse(question models.Question, withAnswers bool) QuestionResponse {
	response := QuestionResponse{
		ID:        question.ID,
		ExamID:    question.ExamID,
		Text:      question.Text,
		Options:   question.OptionList(),
		Subject:   question.Subject,
		Paper:     question.Paper,
		Chapter:   question.Chapter,
		Section:   question.Section,
		Type:      question.Type,
		Highlight: question.Highlight,
		ImageURL:  question.ImageURL,
		CreatedAt: question.CreatedAt,
	}

	if withAnswers {
		response.AnswerIndex = question.AnswerIndex
		response.Explanation = question.Explanation
	}

	return response
}

// NewQuestionResponseSlice maps a list of questions.
func NewQuestionResponseSlice(questions []models.Question, withAnswers bool) []QuestionResponse {
	responses := make([]QuestionResponse, 0, len(questions))
	for _, question := range questions {
		responses = append(responses, NewQuestionResponse(question, withAnswers))
	}
	return responses
}

// QuestionImportResult summarises a CSV question-bank import.
type QuestionImportResult struct {
	ExamID        uint `json:"exam_id"`
	Imported      int  `json:"imported"`
	ShiftedToOne  bool `json:"shifted_to_one_indexed"`
	StrippedFonts int  `json:"stripped_font_tags"`
}
