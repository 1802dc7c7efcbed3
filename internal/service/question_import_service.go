package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/examify-bd/examify-api/internal/dto"
	"github.com/examify-bd/examify-api/internal/models"
	"github.com/examify-bd/examify-api/internal/repository"
)

// ErrMissingColumns indicates the CSV header lacks required columns. The
// whole file is rejected; partial import is never attempted.
var ErrMissingColumns = errors.New("csv is missing required columns")

var fontTagPattern = regexp.MustCompile(`(?i)</?font[^>]*>`)

// Column synonyms are matched case-insensitively against the header row.
var columnSynonyms = map[string][]string{
	"question":    {"question", "ques", "qstn", "title"},
	"option1":     {"option1", "opt1", "opt_1", "option_1"},
	"option2":     {"option2", "opt2", "opt_2", "option_2"},
	"option3":     {"option3", "opt3", "opt_3", "option_3"},
	"option4":     {"option4", "opt4", "opt_4", "option_4"},
	"option5":     {"option5", "opt5", "opt_5", "option_5"},
	"answer":      {"answer", "ans", "correct", "correct_answer", "correctans"},
	"explanation": {"explanation", "solution", "exp"},
	"subject":     {"subject"},
	"paper":       {"paper"},
	"chapter":     {"chapter"},
	"section":     {"section"},
	"type":        {"type"},
	"highlight":   {"highlight"},
}

var requiredColumns = []string{"question", "option1", "option2", "option3", "answer"}

// QuestionImportService ingests CSV question banks into an exam.
type QuestionImportService interface {
	ImportCSV(ctx context.Context, examID uint, reader io.Reader) (dto.QuestionImportResult, error)
}

type questionImportService struct {
	questions repository.QuestionRepository
	exams     repository.ExamRepository
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewQuestionImportService constructs the importer.
func NewQuestionImportService(questions repository.QuestionRepository, exams repository.ExamRepository, logger zerolog.Logger) QuestionImportService {
	return &questionImportService{
		questions: questions,
		exams:     exams,
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logger.With().Str("component", "question_import_service").Logger(),
	}
}

type importedRow struct {
	question    string
	options     []string
	rawAnswer   string
	explanation string
	subject     string
	paper       string
	chapter     string
	section     string
	qtype       string
	highlight   string
}

// ImportCSV parses, normalizes and stores a question bank. Any row-level
// failure rejects the entire file.
func (s *questionImportService) ImportCSV(ctx context.Context, examID uint, reader io.Reader) (dto.QuestionImportResult, error) {
	if _, err := s.exams.GetByID(ctx, examID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.QuestionImportResult{}, ErrExamNotFound
		}
		return dto.QuestionImportResult{}, err
	}

	parser := csv.NewReader(reader)
	parser.FieldsPerRecord = -1

	records, err := parser.ReadAll()
	if err != nil {
		return dto.QuestionImportResult{}, fmt.Errorf("failed to parse csv: %w", err)
	}

	if len(records) < 2 {
		return dto.QuestionImportResult{}, fmt.Errorf("csv must contain a header row and at least one question")
	}

	columns, err := resolveColumns(records[0])
	if err != nil {
		return dto.QuestionImportResult{}, err
	}

	stripped := 0
	rows := make([]importedRow, 0, len(records)-1)
	for idx, record := range records[1:] {
		row, n, err := buildRow(columns, record)
		if err != nil {
			return dto.QuestionImportResult{}, fmt.Errorf("row %d: %w", idx+2, err)
		}
		stripped += n
		rows = append(rows, row)
	}

	shifted := answersAreZeroIndexed(rows)

	questions := make([]models.Question, 0, len(rows))
	for idx, row := range rows {
		answerIndex, err := resolveAnswerIndex(row, shifted)
		if err != nil {
			return dto.QuestionImportResult{}, fmt.Errorf("row %d: %w", idx+2, err)
		}

		question := models.Question{
			ExamID:      examID,
			Text:        s.sanitizer.Sanitize(row.question),
			AnswerIndex: answerIndex,
			Explanation: s.sanitizer.Sanitize(row.explanation),
			Subject:     row.subject,
			Paper:       row.paper,
			Chapter:     row.chapter,
			Section:     row.section,
			Type:        row.qtype,
			Highlight:   row.highlight,
		}

		sanitized := make([]string, len(row.options))
		for i, option := range row.options {
			sanitized[i] = s.sanitizer.Sanitize(option)
		}
		if err := question.SetOptions(sanitized); err != nil {
			return dto.QuestionImportResult{}, err
		}

		questions = append(questions, question)
	}

	if err := s.questions.CreateBatch(ctx, questions); err != nil {
		return dto.QuestionImportResult{}, err
	}

	s.logger.Info().
		Uint("exam_id", examID).
		Int("imported", len(questions)).
		Bool("shifted", shifted).
		Msg("question bank imported")

	return dto.QuestionImportResult{
		ExamID:        examID,
		Imported:      len(questions),
		ShiftedToOne:  shifted,
		StrippedFonts: stripped,
	}, nil
}

// resolveColumns maps canonical column names to header positions. Matching
// is case-insensitive across each synonym list. Missing required columns
// produce one descriptive error naming every absent column.
func resolveColumns(header []string) (map[string]int, error) {
	positions := make(map[string]int)
	for idx, cell := range header {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for canonical, synonyms := range columnSynonyms {
			if _, taken := positions[canonical]; taken {
				continue
			}
			for _, synonym := range synonyms {
				if normalized == synonym {
					positions[canonical] = idx
					break
				}
			}
		}
	}

	var missing []string
	for _, required := range requiredColumns {
		if _, ok := positions[required]; !ok {
			missing = append(missing, required)
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	return positions, nil
}

func buildRow(columns map[string]int, record []string) (importedRow, int, error) {
	stripped := 0
	cell := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		value := strings.TrimSpace(record[idx])
		if fontTagPattern.MatchString(value) {
			stripped += len(fontTagPattern.FindAllString(value, -1))
			value = fontTagPattern.ReplaceAllString(value, "")
		}
		return value
	}

	row := importedRow{
		question:    cell("question"),
		rawAnswer:   cell("answer"),
		explanation: cell("explanation"),
		subject:     cell("subject"),
		paper:       cell("paper"),
		chapter:     cell("chapter"),
		section:     cell("section"),
		qtype:       cell("type"),
		highlight:   cell("highlight"),
	}

	if row.question == "" {
		return importedRow{}, 0, fmt.Errorf("question text is empty")
	}
	if row.rawAnswer == "" {
		return importedRow{}, 0, fmt.Errorf("answer is empty")
	}

	for _, name := range []string{"option1", "option2", "option3", "option4", "option5"} {
		value := cell(name)
		if value == "" {
			continue
		}
		row.options = append(row.options, value)
	}

	if len(row.options) < 2 {
		return importedRow{}, 0, fmt.Errorf("at least two options are required")
	}

	return row, stripped, nil
}

// answersAreZeroIndexed reports whether the file's numeric answers should be
// reinterpreted as 0-indexed: every answer is numeric, at least one is 0,
// and the file-wide maximum is at most 5.
func answersAreZeroIndexed(rows []importedRow) bool {
	sawZero := false
	max := 0
	for _, row := range rows {
		value, err := strconv.Atoi(row.rawAnswer)
		if err != nil {
			return false
		}
		if value == 0 {
			sawZero = true
		}
		if value > max {
			max = value
		}
	}
	return sawZero && max <= 5
}

func resolveAnswerIndex(row importedRow, shifted bool) (int, error) {
	if value, err := strconv.Atoi(row.rawAnswer); err == nil {
		if shifted {
			value++
		}
		if value < 1 || value > len(row.options) {
			return 0, fmt.Errorf("answer index %d outside options range", value)
		}
		return value, nil
	}

	// Non-numeric answers are matched against the option texts.
	for idx, option := range row.options {
		if strings.EqualFold(strings.TrimSpace(option), row.rawAnswer) {
			return idx + 1, nil
		}
	}

	return 0, fmt.Errorf("answer %q does not match any option", row.rawAnswer)
}
