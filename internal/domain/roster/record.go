// Package roster contains the student roster domain: the tabular dataset
// that every question is ultimately answered from.
package roster

import (
	"fmt"
	"strings"
	"time"

	"github.com/edscope/edscope/internal/domain/shared"
	"github.com/edscope/edscope/pkg/timeutil"
)

// Column names of the roster schema. Datasets may carry extra columns,
// but these must all be present.
const (
	ColStudentName       = "student_name"
	ColGrade             = "grade"
	ColClass             = "class"
	ColRegion            = "region"
	ColHomeworkSubmitted = "homework_submitted"
	ColSubmissionDate    = "submission_date"
	ColQuizScore         = "quiz_score"
	ColQuizDate          = "quiz_date"
)

// RequiredColumns lists every column a dataset must provide, in the
// order they are rendered in result views.
var RequiredColumns = []string{
	ColStudentName,
	ColGrade,
	ColClass,
	ColRegion,
	ColHomeworkSubmitted,
	ColSubmissionDate,
	ColQuizScore,
	ColQuizDate,
}

// Record is one normalized roster row. All fields are already validated;
// a Record never leaves the loader half-parsed.
type Record struct {
	StudentName       string
	Grade             shared.Grade
	Class             shared.ClassCode
	Region            shared.Region
	HomeworkSubmitted bool
	// SubmissionDate is zero when the student has not submitted.
	SubmissionDate time.Time
	QuizScore      shared.Score
	QuizDate       time.Time
}

// Field returns the record's value for a schema column, rendered in the
// dataset's canonical spelling. Unknown columns return ok=false.
func (r Record) Field(column string) (string, bool) {
	switch column {
	case ColStudentName:
		return r.StudentName, true
	case ColGrade:
		return r.Grade.String(), true
	case ColClass:
		return r.Class.String(), true
	case ColRegion:
		return r.Region.String(), true
	case ColHomeworkSubmitted:
		return shared.FormatYesNo(r.HomeworkSubmitted), true
	case ColSubmissionDate:
		if r.SubmissionDate.IsZero() {
			return "", true
		}
		return r.SubmissionDate.Format("2006-01-02"), true
	case ColQuizScore:
		return r.QuizScore.String(), true
	case ColQuizDate:
		if r.QuizDate.IsZero() {
			return "", true
		}
		return r.QuizDate.Format("2006-01-02"), true
	default:
		return "", false
	}
}

// parseRowDate tolerates the date spellings seen in exported datasets.
// An empty cell is a valid absent date.
func parseRowDate(value string) (time.Time, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return time.Time{}, nil
	}
	return timeutil.ParseDateLenient(s)
}

// NewRecordFromRow normalizes one raw dataset row into a Record.
// Column values are matched by the names in RequiredColumns.
func NewRecordFromRow(row map[string]string) (Record, error) {
	name := strings.TrimSpace(row[ColStudentName])
	if name == "" {
		return Record{}, fmt.Errorf("missing %s", ColStudentName)
	}

	grade, err := shared.ParseGrade(row[ColGrade])
	if err != nil {
		return Record{}, fmt.Errorf("%s: %w", ColGrade, err)
	}
	class, err := shared.ParseClassCode(row[ColClass])
	if err != nil {
		return Record{}, fmt.Errorf("%s: %w", ColClass, err)
	}
	region, err := shared.ParseRegion(row[ColRegion])
	if err != nil {
		return Record{}, fmt.Errorf("%s: %w", ColRegion, err)
	}
	submitted, err := shared.ParseYesNo(row[ColHomeworkSubmitted])
	if err != nil {
		return Record{}, fmt.Errorf("%s: %w", ColHomeworkSubmitted, err)
	}
	score, err := shared.ParseScore(row[ColQuizScore])
	if err != nil {
		return Record{}, fmt.Errorf("%s: %w", ColQuizScore, err)
	}
	quizDate, err := parseRowDate(row[ColQuizDate])
	if err != nil {
		return Record{}, fmt.Errorf("%s: %w", ColQuizDate, err)
	}

	var submissionDate time.Time
	if submitted {
		submissionDate, err = parseRowDate(row[ColSubmissionDate])
		if err != nil {
			return Record{}, fmt.Errorf("%s: %w", ColSubmissionDate, err)
		}
	}

	return Record{
		StudentName:       name,
		Grade:             grade,
		Class:             class,
		Region:            region,
		HomeworkSubmitted: submitted,
		SubmissionDate:    submissionDate,
		QuizScore:         score,
		QuizDate:          quizDate,
	}, nil
}

// IsKnownColumn reports whether the column name is part of the schema.
func IsKnownColumn(column string) bool {
	for _, c := range RequiredColumns {
		if c == column {
			return true
		}
	}
	return false
}
