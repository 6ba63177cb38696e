package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/edscope/edscope/internal/domain/roster"
	"github.com/edscope/edscope/internal/domain/shared"
)

// Predicate is a single pure test over a roster record. Predicates
// compose by logical AND only; the compiler fixes their order. The
// interface is sealed so the compiler's trace stays exhaustive.
type Predicate interface {
	// Match reports whether the record passes the test.
	Match(r roster.Record) bool

	// Describe renders the predicate for trace and audit output.
	Describe() string

	predicateNode()
}

// ─────────────────────────────────────────────────────────────────────
// Scope predicates
// ─────────────────────────────────────────────────────────────────────

// GradeIn passes records whose grade is in the allowed set.
type GradeIn struct {
	Origin string // "scope" or "intent"
	Grades []shared.Grade
}

func (p GradeIn) Match(r roster.Record) bool {
	for _, g := range p.Grades {
		if r.Grade == g {
			return true
		}
	}
	return false
}

func (p GradeIn) Describe() string {
	return fmt.Sprintf("%s: grade in %s", p.Origin, formatGrades(p.Grades))
}

func (p GradeIn) predicateNode() {}

// ClassIn passes records whose class is in the allowed set.
type ClassIn struct {
	Origin  string
	Classes []shared.ClassCode
}

func (p ClassIn) Match(r roster.Record) bool {
	for _, c := range p.Classes {
		if r.Class == c {
			return true
		}
	}
	return false
}

func (p ClassIn) Describe() string {
	return fmt.Sprintf("%s: class in %s", p.Origin, formatClasses(p.Classes))
}

func (p ClassIn) predicateNode() {}

// RegionEquals passes records in exactly one region.
type RegionEquals struct {
	Origin string
	Region shared.Region
}

func (p RegionEquals) Match(r roster.Record) bool {
	return r.Region.Equal(p.Region)
}

func (p RegionEquals) Describe() string {
	return fmt.Sprintf("%s: region == %s", p.Origin, p.Region)
}

func (p RegionEquals) predicateNode() {}

// RejectAll passes nothing. The compiler emits it when a scope
// dimension is empty, so an unconfigured profile fails closed instead
// of falling open to "no constraint".
type RejectAll struct {
	Reason string
}

func (p RejectAll) Match(roster.Record) bool {
	return false
}

func (p RejectAll) Describe() string {
	return fmt.Sprintf("scope: %s (reject all)", p.Reason)
}

func (p RejectAll) predicateNode() {}

// ─────────────────────────────────────────────────────────────────────
// Intent predicates
// ─────────────────────────────────────────────────────────────────────

// SubmittedEquals passes records with the given submission status.
type SubmittedEquals struct {
	Want bool
}

func (p SubmittedEquals) Match(r roster.Record) bool {
	return r.HomeworkSubmitted == p.Want
}

func (p SubmittedEquals) Describe() string {
	return fmt.Sprintf("intent: homework_submitted == %s", shared.FormatYesNo(p.Want))
}

func (p SubmittedEquals) predicateNode() {}

// DateWithin passes records whose date column falls inside the
// inclusive [Start, End] window. Records with no value in the column
// never pass.
type DateWithin struct {
	Column string // roster.ColQuizDate or roster.ColSubmissionDate
	Start  time.Time
	End    time.Time
}

func (p DateWithin) Match(r roster.Record) bool {
	var day time.Time
	switch p.Column {
	case roster.ColSubmissionDate:
		day = r.SubmissionDate
	case roster.ColQuizDate:
		day = r.QuizDate
	default:
		return false
	}
	if day.IsZero() {
		return false
	}
	return !day.Before(p.Start) && !day.After(p.End)
}

func (p DateWithin) Describe() string {
	return fmt.Sprintf("intent: %s within [%s, %s]",
		p.Column, p.Start.Format("2006-01-02"), p.End.Format("2006-01-02"))
}

func (p DateWithin) predicateNode() {}

func formatGrades(grades []shared.Grade) string {
	parts := make([]string, len(grades))
	for i, g := range grades {
		parts[i] = fmt.Sprintf("%d", g.Int())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func formatClasses(classes []shared.ClassCode) string {
	parts := make([]string, len(classes))
	for i, c := range classes {
		parts[i] = c.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
