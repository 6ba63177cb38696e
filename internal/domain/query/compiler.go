package query

import (
	"fmt"
	"sort"

	"github.com/edscope/edscope/internal/domain/admin"
	"github.com/edscope/edscope/internal/domain/roster"
	"github.com/edscope/edscope/internal/domain/shared"
)

// Plan is a compiled query: an ordered AND-chain of predicates plus any
// warnings the compiler emitted while dropping unusable intent filters.
type Plan struct {
	Predicates []Predicate
	Warnings   []string
}

// Trace renders the predicate chain in execution order. Scope
// predicates always come first, so an audit reading the trace sees the
// access boundary before anything the question contributed.
func (p Plan) Trace() []string {
	out := make([]string, len(p.Predicates))
	for i, pred := range p.Predicates {
		out[i] = pred.Describe()
	}
	return out
}

// Compile merges an admin's scope with a parsed intent into an ordered
// predicate chain. It is pure: no I/O, same inputs always produce the
// same plan. Scope predicates are emitted first and unconditionally;
// nothing in the intent can remove or reorder them. An empty scope
// dimension compiles to a reject-all predicate, never to "no
// constraint". Unknown or unparseable intent filters are dropped with a
// warning rather than failing the query.
func Compile(scope *admin.Profile, intent Intent) (Plan, error) {
	if scope == nil {
		return Plan{}, shared.ErrAdminNotRegistered
	}
	if intent.DateRange != nil {
		if err := intent.DateRange.Validate(); err != nil {
			return Plan{}, err
		}
	}

	var plan Plan

	// Scope stage.
	if len(scope.Grades) == 0 {
		plan.Predicates = append(plan.Predicates, RejectAll{Reason: "no grades permitted"})
	} else {
		plan.Predicates = append(plan.Predicates, GradeIn{Origin: "scope", Grades: scope.Grades})
	}
	if len(scope.Classes) == 0 {
		plan.Predicates = append(plan.Predicates, RejectAll{Reason: "no classes permitted"})
	} else {
		plan.Predicates = append(plan.Predicates, ClassIn{Origin: "scope", Classes: scope.Classes})
	}
	if scope.Region == "" {
		plan.Predicates = append(plan.Predicates, RejectAll{Reason: "no region permitted"})
	} else {
		plan.Predicates = append(plan.Predicates, RegionEquals{Origin: "scope", Region: scope.Region})
	}

	// Intent stage. Fields compile in a fixed order independent of map
	// iteration, so plans are reproducible.
	submittedWanted := compileFilterFields(&plan, intent.Filters)

	// Date stage, always last. The column depends on what the question
	// asked about: submission dates only make sense for submitted
	// homework, everything else dates against the quiz calendar.
	if intent.DateRange != nil {
		column, ok := dateColumnFor(intent.Action, submittedWanted)
		if !ok {
			plan.Warnings = append(plan.Warnings,
				"date range ignored: unsubmitted homework has no submission date")
		} else {
			plan.Predicates = append(plan.Predicates, DateWithin{
				Column: column,
				Start:  intent.DateRange.Start,
				End:    intent.DateRange.End,
			})
		}
	}

	return plan, nil
}

// compileFilterFields appends intent-derived predicates and returns the
// submitted constraint, if any, for date column selection.
func compileFilterFields(plan *Plan, filters Filters) *bool {
	var submittedWanted *bool

	if values, ok := filters[FilterGrade]; ok {
		grades := make([]shared.Grade, 0, len(values))
		for _, v := range values {
			g, err := shared.ParseGrade(v)
			if err != nil {
				plan.Warnings = append(plan.Warnings, fmt.Sprintf("grade filter %q dropped: not a grade", v))
				continue
			}
			grades = append(grades, g)
		}
		if len(grades) > 0 {
			plan.Predicates = append(plan.Predicates, GradeIn{Origin: "intent", Grades: grades})
		}
	}

	if values, ok := filters[FilterClass]; ok {
		classes := make([]shared.ClassCode, 0, len(values))
		for _, v := range values {
			c, err := shared.ParseClassCode(v)
			if err != nil {
				plan.Warnings = append(plan.Warnings, fmt.Sprintf("class filter %q dropped: not a class code", v))
				continue
			}
			classes = append(classes, c)
		}
		if len(classes) > 0 {
			plan.Predicates = append(plan.Predicates, ClassIn{Origin: "intent", Classes: classes})
		}
	}

	if values, ok := filters[FilterRegion]; ok && len(values) > 0 {
		r, err := shared.ParseRegion(values[0])
		if err != nil {
			plan.Warnings = append(plan.Warnings, fmt.Sprintf("region filter %q dropped: unknown region", values[0]))
		} else {
			plan.Predicates = append(plan.Predicates, RegionEquals{Origin: "intent", Region: r})
		}
	}

	if values, ok := filters[FilterSubmitted]; ok && len(values) > 0 {
		want, err := shared.ParseYesNo(values[0])
		if err != nil {
			plan.Warnings = append(plan.Warnings, fmt.Sprintf("submission filter %q dropped: not yes/no", values[0]))
		} else {
			plan.Predicates = append(plan.Predicates, SubmittedEquals{Want: want})
			submittedWanted = &want
		}
	}

	// Anything else in the filter map is outside the schema. Treated as
	// parser noise: dropped, recorded, never fatal.
	var unknown []string
	for field := range filters {
		switch field {
		case FilterGrade, FilterClass, FilterRegion, FilterSubmitted:
		default:
			unknown = append(unknown, field)
		}
	}
	sort.Strings(unknown)
	for _, field := range unknown {
		plan.Warnings = append(plan.Warnings, fmt.Sprintf("unknown filter field %q dropped", field))
	}

	return submittedWanted
}

// dateColumnFor picks which date column a range constrains. Asking for
// unsubmitted homework in a window is contradictory, so that case
// reports no usable column.
func dateColumnFor(action Action, submittedWanted *bool) (string, bool) {
	if action == ActionHomeworkStatus {
		if submittedWanted != nil && !*submittedWanted {
			return "", false
		}
		return roster.ColSubmissionDate, true
	}
	return roster.ColQuizDate, true
}
