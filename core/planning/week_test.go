package planning_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetops/core/apperr"
	"github.com/kilianp07/fleetops/core/planning"
)

func TestParseWeekdays(t *testing.T) {
	got, err := planning.ParseWeekdays("mon, Wednesday,5,")
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday, time.Friday}, got)

	_, err = planning.ParseWeekdays("mon,funday")
	assert.True(t, apperr.IsValidation(err))
	_, err = planning.ParseWeekdays("monx")
	assert.Error(t, err)
}
