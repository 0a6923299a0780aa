package sqlstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRebind(t *testing.T) {
	q := `SELECT id FROM lines WHERE date >= ? AND status IN (?, ?)`
	assert.Equal(t, q, sqliteDialect.rebind(q))
	assert.Equal(t, `SELECT id FROM lines WHERE date >= $1 AND status IN ($2, $3)`, postgresDialect.rebind(q))
}

func TestWhereBuilder(t *testing.T) {
	w := &where{}
	assert.Equal(t, "", w.String())
	w.add("origin = ?", "PLAN")
	in(w, "status", []string{"PENDING", "CONFIRMED"})
	in(w, "driver_id", []string(nil))
	assert.Equal(t, " WHERE origin = ? AND status IN (?, ?)", w.String())
	assert.Equal(t, []any{"PLAN", "PENDING", "CONFIRMED"}, w.args)
}
