package sqlstore

import (
	"database/sql"
	"strings"
	"time"

	"github.com/kilianp07/fleetops/core/model"
)

// where accumulates AND-ed clauses and their arguments.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, args ...any) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

// in adds "col IN (?, ...)" when vals is not empty.
func in[T any](w *where, col string, vals []T) {
	if len(vals) == 0 {
		return
	}
	marks := make([]string, len(vals))
	for i, v := range vals {
		marks[i] = "?"
		w.args = append(w.args, v)
	}
	w.clauses = append(w.clauses, col+" IN ("+strings.Join(marks, ", ")+")")
}

// dateRange adds bounds on col for the non-zero ends of [from, to].
func (w *where) dateRange(col string, from, to model.Date) {
	if !from.IsZero() {
		w.add(col+" >= ?", from.String())
	}
	if !to.IsZero() {
		w.add(col+" <= ?", to.String())
	}
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func ts(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return model.FormatTimestamp(t)
}

func nullTS(t *time.Time) any {
	if t == nil {
		return nil
	}
	return model.FormatTimestamp(*t)
}

func parseTS(s string) (time.Time, error) {
	return model.ParseTimestamp(s)
}

func parseNullTS(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := model.ParseTimestamp(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type scanner interface {
	Scan(dest ...any) error
}
