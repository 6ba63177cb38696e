package file

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edscope/edscope/internal/domain/shared"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleCSV = `student_name,grade,class,region,homework_submitted,submission_date,quiz_score,quiz_date
Aarav,Grade 8,8A,East,yes,2024-04-10,82,2024-04-09
Meera,Grade 7,7A,West,no,,74,2024-04-11
Dev,Grade 8,8B,East,no,,65,2024-04-12
`

func TestLoader_CSV(t *testing.T) {
	path := writeTemp(t, "students.csv", sampleCSV)
	loader := NewLoader(path, FormatAuto, discardLogger())

	result, err := loader.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Table.Len())
	assert.Empty(t, result.Warnings)
	assert.Equal(t, "Aarav", result.Table.At(0).StudentName)
	assert.Equal(t, shared.Grade(8), result.Table.At(0).Grade)
	assert.True(t, result.Table.At(1).SubmissionDate.IsZero())
}

func TestLoader_JSON(t *testing.T) {
	path := writeTemp(t, "students.json", `[
		{"student_name":"Aarav","grade":"Grade 8","class":"8A","region":"East",
		 "homework_submitted":"yes","submission_date":"2024-04-10",
		 "quiz_score":82,"quiz_date":"2024-04-09"},
		{"student_name":"Sana","grade":7,"class":"7a","region":"west",
		 "homework_submitted":true,"submission_date":"2024-04-16",
		 "quiz_score":91.5,"quiz_date":"2024-04-16"}
	]`)
	loader := NewLoader(path, FormatAuto, discardLogger())

	result, err := loader.Load(context.Background())
	require.NoError(t, err)

	require.Equal(t, 2, result.Table.Len())
	sana := result.Table.At(1)
	assert.Equal(t, shared.Grade(7), sana.Grade)
	assert.Equal(t, shared.ClassCode("7A"), sana.Class)
	assert.Equal(t, shared.RegionWest, sana.Region)
	assert.True(t, sana.HomeworkSubmitted)
	assert.Equal(t, shared.Score(91.5), sana.QuizScore)
}

func TestLoader_SkipsMalformedRows(t *testing.T) {
	csv := `student_name,grade,class,region,homework_submitted,submission_date,quiz_score,quiz_date
Aarav,Grade 8,8A,East,yes,2024-04-10,82,2024-04-09
Broken,Grade 8,8A,East,yes,2024-04-10,not-a-score,2024-04-09
,Grade 7,7A,West,no,,74,2024-04-11
`
	path := writeTemp(t, "students.csv", csv)
	loader := NewLoader(path, FormatCSV, discardLogger())

	result, err := loader.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Table.Len())
	require.Len(t, result.Warnings, 2)
	assert.Equal(t, 2, result.Warnings[0].Row)
	assert.Equal(t, 3, result.Warnings[1].Row)
}

func TestLoader_MissingColumns(t *testing.T) {
	csv := `student_name,grade,class
Aarav,Grade 8,8A
`
	path := writeTemp(t, "students.csv", csv)
	loader := NewLoader(path, FormatCSV, discardLogger())

	_, err := loader.Load(context.Background())
	require.Error(t, err)
	assert.True(t, shared.IsSchemaValidation(err))
	assert.Contains(t, err.Error(), "region")
}

func TestLoader_AllRowsMalformed(t *testing.T) {
	csv := `student_name,grade,class,region,homework_submitted,submission_date,quiz_score,quiz_date
Aarav,Grade 99,8A,East,yes,2024-04-10,82,2024-04-09
`
	path := writeTemp(t, "students.csv", csv)
	loader := NewLoader(path, FormatCSV, discardLogger())

	_, err := loader.Load(context.Background())
	assert.ErrorIs(t, err, shared.ErrEmptyDataset)
}

func TestLoader_MissingFile(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "nope.csv"), FormatAuto, discardLogger())

	_, err := loader.Load(context.Background())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestLoader_UnsupportedExtension(t *testing.T) {
	path := writeTemp(t, "students.xml", "<students/>")
	loader := NewLoader(path, FormatAuto, discardLogger())

	_, err := loader.Load(context.Background())
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
