package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/edscope/edscope/internal/domain/roster"
	"github.com/edscope/edscope/internal/domain/shared"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROSTER REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// RosterRepository reads the roster from PostgreSQL. It implements
// roster.Source, so the rest of the system cannot tell a database
// roster from a file roster.
type RosterRepository struct {
	conn *Connection
	name string
}

// NewRosterRepository creates a new RosterRepository.
func NewRosterRepository(conn *Connection) *RosterRepository {
	return &RosterRepository{
		conn: conn,
		name: "postgres:roster_students",
	}
}

// Name implements roster.Source.
func (r *RosterRepository) Name() string {
	return r.name
}

// Load implements roster.Source. Rows are returned in insertion order so
// result views stay stable across reloads of the same data.
func (r *RosterRepository) Load(ctx context.Context) (*roster.LoadResult, error) {
	query := `
		SELECT student_name, grade, class, region, homework_submitted,
			   submission_date, COALESCE(quiz_score, 0), quiz_date
		FROM roster_students
		ORDER BY created_at, id
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query roster: %w", err)
	}
	defer rows.Close()

	var (
		records  []roster.Record
		warnings []roster.RowWarning
		rowNum   int
	)

	for rows.Next() {
		rowNum++

		var (
			name           string
			grade          int
			class          string
			region         string
			submitted      bool
			submissionDate *time.Time
			quizScore      float64
			quizDate       *time.Time
		)
		if err := rows.Scan(&name, &grade, &class, &region, &submitted,
			&submissionDate, &quizScore, &quizDate); err != nil {
			return nil, fmt.Errorf("failed to scan roster row: %w", err)
		}

		rec, err := buildRecord(name, grade, class, region, submitted,
			submissionDate, quizScore, quizDate)
		if err != nil {
			warnings = append(warnings, roster.RowWarning{
				Row:    rowNum,
				Reason: err.Error(),
			})
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read roster rows: %w", err)
	}

	table, err := roster.NewTable(records, r.name, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	return &roster.LoadResult{
		Table:    table,
		Warnings: warnings,
	}, nil
}

// buildRecord runs database values through the same validation the file
// loader applies, so both sources reject the same malformed rows.
func buildRecord(name string, grade int, class, region string, submitted bool,
	submissionDate *time.Time, quizScore float64, quizDate *time.Time) (roster.Record, error) {

	row := map[string]string{
		roster.ColStudentName:       name,
		roster.ColGrade:             fmt.Sprintf("%d", grade),
		roster.ColClass:             class,
		roster.ColRegion:            region,
		roster.ColHomeworkSubmitted: shared.FormatYesNo(submitted),
		roster.ColQuizScore:         shared.Score(quizScore).String(),
	}
	if submissionDate != nil {
		row[roster.ColSubmissionDate] = submissionDate.Format("2006-01-02")
	}
	if quizDate != nil {
		row[roster.ColQuizDate] = quizDate.Format("2006-01-02")
	}

	return roster.NewRecordFromRow(row)
}

// ─────────────────────────────────────────────────────────────────────────────
// Import
// ─────────────────────────────────────────────────────────────────────────────

// Import replaces the stored roster with the contents of a table.
// Used to seed the database from a file export.
func (r *RosterRepository) Import(ctx context.Context, table *roster.Table) error {
	insert := `
		INSERT INTO roster_students (
			student_name, grade, class, region, homework_submitted,
			submission_date, quiz_score, quiz_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM roster_students"); err != nil {
			return fmt.Errorf("failed to clear roster: %w", err)
		}

		for i := 0; i < table.Len(); i++ {
			rec := table.At(i)

			var submissionDate *time.Time
			if !rec.SubmissionDate.IsZero() {
				d := rec.SubmissionDate
				submissionDate = &d
			}
			var quizDate *time.Time
			if !rec.QuizDate.IsZero() {
				d := rec.QuizDate
				quizDate = &d
			}

			_, err := tx.Exec(ctx, insert,
				rec.StudentName,
				int(rec.Grade),
				string(rec.Class),
				string(rec.Region),
				rec.HomeworkSubmitted,
				submissionDate,
				rec.QuizScore.Float64(),
				quizDate,
			)
			if err != nil {
				return fmt.Errorf("failed to insert roster row %d: %w", i+1, err)
			}
		}

		return nil
	})
}

// Count returns the number of stored roster rows.
func (r *RosterRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, "SELECT COUNT(*) FROM roster_students").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count roster rows: %w", err)
	}
	return count, nil
}
