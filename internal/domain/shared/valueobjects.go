// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// Grade Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Grade represents a school grade level.
type Grade int

const (
	MinGrade Grade = 1
	MaxGrade Grade = 12
)

// IsValid checks if the grade is within the school range.
func (g Grade) IsValid() bool {
	return g >= MinGrade && g <= MaxGrade
}

// Int returns the underlying int value.
func (g Grade) Int() int {
	return int(g)
}

// String returns the display form used in datasets ("Grade 8").
func (g Grade) String() string {
	return fmt.Sprintf("Grade %d", int(g))
}

var gradeDigitsRegex = regexp.MustCompile(`\d{1,2}`)

// ParseGrade parses a grade from any of the dataset spellings:
// "8", "Grade 8", "grade 8".
func ParseGrade(value string) (Grade, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return 0, ErrEmptyValue
	}
	match := gradeDigitsRegex.FindString(s)
	if match == "" {
		return 0, NewDomainError("shared", "ParseGrade", ErrInvalidFormat,
			fmt.Sprintf("%q is not a grade", value))
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0, NewDomainError("shared", "ParseGrade", ErrInvalidFormat,
			fmt.Sprintf("%q is not a grade", value))
	}
	g := Grade(n)
	if !g.IsValid() {
		return 0, NewDomainError("shared", "ParseGrade", ErrValueOutOfRange,
			fmt.Sprintf("grade %d is outside 1-12", n))
	}
	return g, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// ClassCode Value Object
// ═══════════════════════════════════════════════════════════════════════════

// ClassCode represents a class section within a grade, e.g. "8A".
// Canonical form is the grade number followed by one upper-case letter.
type ClassCode string

var classCodeRegex = regexp.MustCompile(`^\d{1,2}[A-Z]$`)

// IsValid checks if the code is in canonical form.
func (c ClassCode) IsValid() bool {
	return classCodeRegex.MatchString(string(c))
}

// Grade returns the grade level the class belongs to.
func (c ClassCode) Grade() Grade {
	s := string(c)
	if len(s) < 2 {
		return 0
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return 0
	}
	return Grade(n)
}

// String returns the canonical class code.
func (c ClassCode) String() string {
	return string(c)
}

// ParseClassCode parses a class code, normalizing case ("8a" -> "8A").
func ParseClassCode(value string) (ClassCode, error) {
	s := strings.ToUpper(strings.TrimSpace(value))
	if s == "" {
		return "", ErrEmptyValue
	}
	c := ClassCode(s)
	if !c.IsValid() {
		return "", NewDomainError("shared", "ParseClassCode", ErrInvalidFormat,
			fmt.Sprintf("%q is not a class code", value))
	}
	return c, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Region Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Region represents the geographic region a student or admin belongs to.
// Comparison is case-insensitive; the canonical form is capitalized.
type Region string

const (
	RegionNorth Region = "North"
	RegionSouth Region = "South"
	RegionEast  Region = "East"
	RegionWest  Region = "West"
)

// validRegions maps lower-cased names to their canonical form.
var validRegions = map[string]Region{
	"north": RegionNorth,
	"south": RegionSouth,
	"east":  RegionEast,
	"west":  RegionWest,
}

// IsValid checks if the region is one of the known values.
func (r Region) IsValid() bool {
	_, ok := validRegions[strings.ToLower(string(r))]
	return ok
}

// Equal compares regions case-insensitively.
func (r Region) Equal(other Region) bool {
	return strings.EqualFold(string(r), string(other))
}

// String returns the canonical region name.
func (r Region) String() string {
	return string(r)
}

// ParseRegion parses a region name, normalizing case.
func ParseRegion(value string) (Region, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return "", ErrEmptyValue
	}
	if canonical, ok := validRegions[strings.ToLower(s)]; ok {
		return canonical, nil
	}
	return "", NewDomainError("shared", "ParseRegion", ErrInvalidInput,
		fmt.Sprintf("%q is not a known region", value))
}

// ═══════════════════════════════════════════════════════════════════════════
// Score Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Score represents a quiz score on a 0-100 scale.
type Score float64

const (
	MinScore Score = 0
	MaxScore Score = 100
)

// IsValid checks if the score is within the grading range.
func (s Score) IsValid() bool {
	return s >= MinScore && s <= MaxScore
}

// Float64 returns the underlying float value.
func (s Score) Float64() float64 {
	return float64(s)
}

// String renders the score without trailing zeros.
func (s Score) String() string {
	return strconv.FormatFloat(float64(s), 'f', -1, 64)
}

// ParseScore parses a numeric quiz score.
func ParseScore(value string) (Score, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return 0, ErrEmptyValue
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, NewDomainError("shared", "ParseScore", ErrInvalidFormat,
			fmt.Sprintf("%q is not a score", value))
	}
	sc := Score(f)
	if !sc.IsValid() {
		return 0, NewDomainError("shared", "ParseScore", ErrValueOutOfRange,
			fmt.Sprintf("score %v is outside 0-100", f))
	}
	return sc, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Yes/No Normalization
// ═══════════════════════════════════════════════════════════════════════════

// ParseYesNo normalizes the dataset's boolean spellings ("yes"/"no",
// "true"/"false", "1"/"0") to a bool.
func ParseYesNo(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "y", "true", "1":
		return true, nil
	case "no", "n", "false", "0":
		return false, nil
	case "":
		return false, ErrEmptyValue
	default:
		return false, NewDomainError("shared", "ParseYesNo", ErrInvalidFormat,
			fmt.Sprintf("%q is not yes/no", value))
	}
}

// FormatYesNo renders a bool in the dataset's canonical spelling.
func FormatYesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
