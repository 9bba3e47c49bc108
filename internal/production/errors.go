package production

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates input rejected before any store call.
	ErrValidation = errors.New("production: validation failed")
	// ErrNotFound indicates a referenced shift record does not exist.
	ErrNotFound = errors.New("production: record not found")
	// ErrConflict indicates a duplicate (machine, date, shift) write lost
	// the race at the uniqueness constraint.
	ErrConflict = errors.New("production: duplicate shift record")
	// ErrBatchUnavailable signals that the store's batch pair endpoint does
	// not exist. Remote stores map HTTP 404 of the endpoint itself to this;
	// it is distinct from ErrNotFound for individual records.
	ErrBatchUnavailable = errors.New("production: batch endpoint unavailable")
	// ErrTransientIO indicates a network or timeout failure. Never retried
	// here; surfaced to the caller.
	ErrTransientIO = errors.New("production: transient i/o failure")
)

// PartialFailureError reports that the legacy fallback path committed the
// first shift's write but failed the second. Terminal; reconciliation is
// manual.
type PartialFailureError struct {
	UnitID        int
	MachineNumber int
	Date          string
	FailedShift   ShiftKind
	Cause         error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("production: partial failure for unit %d machine %d on %s: %s shift failed: %v",
		e.UnitID, e.MachineNumber, e.Date, e.FailedShift, e.Cause)
}

func (e *PartialFailureError) Unwrap() error {
	return e.Cause
}
