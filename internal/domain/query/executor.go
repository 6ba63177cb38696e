package query

import (
	"github.com/edscope/edscope/internal/domain/roster"
)

// ResultView is the ordered subsequence of the table that passed every
// predicate. Order is the table's own; the executor never re-sorts.
// An empty view is a valid outcome, not an error.
type ResultView struct {
	Records []roster.Record
	Scanned int
}

// IsEmpty reports whether nothing matched.
func (v ResultView) IsEmpty() bool {
	return len(v.Records) == 0
}

// Execute applies the plan's predicate chain to every record in table
// order. Each record must pass all predicates; a failed predicate
// short-circuits only that record's evaluation, which is observably
// identical to evaluating the full chain.
func Execute(table *roster.Table, plan Plan) ResultView {
	view := ResultView{Scanned: table.Len()}
	for i := 0; i < table.Len(); i++ {
		record := table.At(i)
		if matchesAll(record, plan.Predicates) {
			view.Records = append(view.Records, record)
		}
	}
	return view
}

func matchesAll(record roster.Record, predicates []Predicate) bool {
	for _, p := range predicates {
		if !p.Match(record) {
			return false
		}
	}
	return true
}
