package store

import (
	"errors"
	"fmt"

	"github.com/kilianp07/fleetops/core/apperr"
)

// NotFound converts ErrNotFound into an apperr NotFound error for entity id
// and wraps anything else with op.
func NotFound(op, entity string, id any, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound(op, entity, id)
	}
	return fmt.Errorf("%s: %w", op, err)
}
