package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edscope/edscope/internal/domain/shared"
	"github.com/edscope/edscope/pkg/timeutil"
)

func validRow() map[string]string {
	return map[string]string{
		ColStudentName:       "Aarav Sharma",
		ColGrade:             "Grade 8",
		ColClass:             "8a",
		ColRegion:            "east",
		ColHomeworkSubmitted: "yes",
		ColSubmissionDate:    "2024-04-10",
		ColQuizScore:         "82.5",
		ColQuizDate:          "2024-04-09",
	}
}

func TestNewRecordFromRow_Normalizes(t *testing.T) {
	rec, err := NewRecordFromRow(validRow())
	require.NoError(t, err)

	assert.Equal(t, "Aarav Sharma", rec.StudentName)
	assert.Equal(t, shared.Grade(8), rec.Grade)
	assert.Equal(t, shared.ClassCode("8A"), rec.Class)
	assert.Equal(t, shared.RegionEast, rec.Region)
	assert.True(t, rec.HomeworkSubmitted)
	assert.True(t, rec.SubmissionDate.Equal(timeutil.Date(2024, 4, 10)))
	assert.Equal(t, shared.Score(82.5), rec.QuizScore)
	assert.True(t, rec.QuizDate.Equal(timeutil.Date(2024, 4, 9)))
}

func TestNewRecordFromRow_BareGradeNumber(t *testing.T) {
	row := validRow()
	row[ColGrade] = "8"

	rec, err := NewRecordFromRow(row)
	require.NoError(t, err)
	assert.Equal(t, shared.Grade(8), rec.Grade)
}

func TestNewRecordFromRow_UnsubmittedIgnoresSubmissionDate(t *testing.T) {
	row := validRow()
	row[ColHomeworkSubmitted] = "no"
	row[ColSubmissionDate] = ""

	rec, err := NewRecordFromRow(row)
	require.NoError(t, err)
	assert.False(t, rec.HomeworkSubmitted)
	assert.True(t, rec.SubmissionDate.IsZero())
}

func TestNewRecordFromRow_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]string)
	}{
		{"blank name", func(r map[string]string) { r[ColStudentName] = "  " }},
		{"grade out of range", func(r map[string]string) { r[ColGrade] = "Grade 13" }},
		{"bad class code", func(r map[string]string) { r[ColClass] = "AA" }},
		{"unknown region", func(r map[string]string) { r[ColRegion] = "central" }},
		{"bad submitted flag", func(r map[string]string) { r[ColHomeworkSubmitted] = "maybe" }},
		{"non-numeric score", func(r map[string]string) { r[ColQuizScore] = "eighty" }},
		{"score out of range", func(r map[string]string) { r[ColQuizScore] = "140" }},
		{"garbled quiz date", func(r map[string]string) { r[ColQuizDate] = "April 9th" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := validRow()
			tt.mutate(row)
			_, err := NewRecordFromRow(row)
			assert.Error(t, err)
		})
	}
}

func TestRecord_Field(t *testing.T) {
	rec, err := NewRecordFromRow(validRow())
	require.NoError(t, err)

	for _, col := range RequiredColumns {
		_, ok := rec.Field(col)
		assert.True(t, ok, "column %s", col)
	}

	got, _ := rec.Field(ColGrade)
	assert.Equal(t, "Grade 8", got)
	got, _ = rec.Field(ColHomeworkSubmitted)
	assert.Equal(t, "yes", got)
	got, _ = rec.Field(ColSubmissionDate)
	assert.Equal(t, "2024-04-10", got)

	_, ok := rec.Field("nonexistent")
	assert.False(t, ok)
}

func TestNewTable(t *testing.T) {
	rec, err := NewRecordFromRow(validRow())
	require.NoError(t, err)

	table, err := NewTable([]Record{rec}, "test.csv", timeutil.Date(2024, 4, 16))
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, "test.csv", table.Source())

	_, err = NewTable(nil, "empty.csv", timeutil.Date(2024, 4, 16))
	assert.ErrorIs(t, err, shared.ErrEmptyDataset)
}

func TestTable_RecordsIsACopy(t *testing.T) {
	rec, err := NewRecordFromRow(validRow())
	require.NoError(t, err)
	table, err := NewTable([]Record{rec}, "test.csv", timeutil.Date(2024, 4, 16))
	require.NoError(t, err)

	records := table.Records()
	records[0].StudentName = "Mutated"

	assert.Equal(t, "Aarav Sharma", table.At(0).StudentName)
}
