package production

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// SubmissionState tracks one combined entry through submission.
type SubmissionState string

const (
	// StateDraft is the initial state before any validation.
	StateDraft SubmissionState = "draft"
	// StateSubmitting marks an in-flight store call.
	StateSubmitting SubmissionState = "submitting"
	// StateCommitted marks a fully persisted submission.
	StateCommitted SubmissionState = "committed"
	// StatePartiallyFailed marks the legacy path's terminal half-write.
	StatePartiallyFailed SubmissionState = "partially_failed"
	// StateRejected marks a submission refused before or by the store.
	StateRejected SubmissionState = "rejected"
)

// Store is the persistence contract the orchestrator drives. The gorm-backed
// Service satisfies it in-process; remote implementations map HTTP statuses
// onto the package error taxonomy, 404 of the batch endpoint itself becoming
// ErrBatchUnavailable.
type Store interface {
	ListShiftRecords(ctx context.Context, filter Filter) (RecordPage, error)
	BatchCreateShiftPair(ctx context.Context, input PairInput) (PairResult, error)
	BatchUpdateShiftPair(ctx context.Context, input PairInput) (PairResult, error)
	CreateShiftRecord(ctx context.Context, input ShiftInput) (ShiftRecord, error)
	UpdateShiftRecord(ctx context.Context, id uint, input ShiftInput) (ShiftRecord, error)
	DeleteShiftRecord(ctx context.Context, id uint) error
	GetShiftRecord(ctx context.Context, id uint) (ShiftRecord, error)
	FindShift(ctx context.Context, unit, machineNumber int, date string, shift ShiftKind) (ShiftRecord, error)
}

// ConfigRecorder captures the machine's current configuration when a
// submission commits, so later percentage calculations can resolve the
// configuration that was active at entry time.
type ConfigRecorder interface {
	RecordConfigSnapshot(ctx context.Context, unit, machineNumber int, date string) error
}

// OrchestratorConfig describes orchestrator dependencies.
type OrchestratorConfig struct {
	Store   Store
	History ConfigRecorder
	Logger  *zap.Logger
}

// Orchestrator turns combined day+night submissions into store calls:
// batch-first, with a legacy two-call fallback for updates when the batch
// path is unavailable, and sibling-aware deletes.
type Orchestrator struct {
	store   Store
	history ConfigRecorder
	logger  *zap.Logger
}

// NewOrchestrator constructs the orchestrator.
func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	if cfg.Store == nil {
		return nil, errors.New("production: orchestrator requires a store")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Orchestrator{store: cfg.Store, history: cfg.History, logger: logger}, nil
}

// SubmissionResult reports the terminal state of one submission.
type SubmissionResult struct {
	State SubmissionState
	Pair  PairResult
}

func validateSubmission(input PairInput) error {
	if _, err := NewEntryDate(input.Date); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if input.MachineNumber <= 0 {
		return fmt.Errorf("%w: machine number %d", ErrValidation, input.MachineNumber)
	}
	if input.DayQuantity <= 0 && input.NightQuantity <= 0 {
		return fmt.Errorf("%w: at least one shift quantity must be positive", ErrValidation)
	}
	return nil
}

// Create persists a new combined entry via the batch path.
func (o *Orchestrator) Create(ctx context.Context, input PairInput) (SubmissionResult, error) {
	if err := validateSubmission(input); err != nil {
		return SubmissionResult{State: StateRejected}, err
	}

	result := SubmissionResult{State: StateSubmitting}
	pair, err := o.store.BatchCreateShiftPair(ctx, input)
	if err != nil {
		result.State = StateRejected
		return result, err
	}

	result.State = StateCommitted
	result.Pair = pair
	o.recordConfig(ctx, input)
	return result, nil
}

// Update rewrites a combined entry. The batch path is tried first; when the
// store reports the batch endpoint itself is unavailable, the legacy path
// updates each shift individually, creating the missing sibling. A failure
// on the second shift after the first succeeded is terminal: no rollback,
// no retry, surfaced as a PartialFailureError.
func (o *Orchestrator) Update(ctx context.Context, input PairInput) (SubmissionResult, error) {
	if err := validateSubmission(input); err != nil {
		return SubmissionResult{State: StateRejected}, err
	}

	result := SubmissionResult{State: StateSubmitting}
	pair, err := o.store.BatchUpdateShiftPair(ctx, input)
	if err == nil {
		result.State = StateCommitted
		result.Pair = pair
		o.recordConfig(ctx, input)
		return result, nil
	}
	if !errors.Is(err, ErrBatchUnavailable) {
		result.State = StateRejected
		return result, err
	}

	o.logger.Warn("batch update path unavailable, using legacy per-shift calls",
		zap.Int("unit", input.UnitID),
		zap.Int("machine_number", input.MachineNumber),
		zap.String("date", input.Date))
	return o.legacyUpdate(ctx, input)
}

func (o *Orchestrator) legacyUpdate(ctx context.Context, input PairInput) (SubmissionResult, error) {
	result := SubmissionResult{State: StateSubmitting}
	committed := 0

	for _, shift := range []ShiftKind{ShiftDay, ShiftNight} {
		record, err := o.applyShift(ctx, input, shift)
		if err != nil {
			if committed == 0 {
				result.State = StateRejected
				return result, err
			}
			result.State = StatePartiallyFailed
			return result, &PartialFailureError{
				UnitID:        input.UnitID,
				MachineNumber: input.MachineNumber,
				Date:          input.Date,
				FailedShift:   shift,
				Cause:         err,
			}
		}
		if record != nil {
			result.Pair.assign(shift, *record)
			committed++
		}
	}

	result.State = StateCommitted
	o.recordConfig(ctx, input)
	return result, nil
}

// applyShift updates an existing shift record or creates the missing one.
// Returns nil when the shift has nothing to persist.
func (o *Orchestrator) applyShift(ctx context.Context, input PairInput, shift ShiftKind) (*ShiftRecord, error) {
	shiftInput := input.shiftInput(shift)

	existing, err := o.store.FindShift(ctx, input.UnitID, input.MachineNumber, input.Date, shift)
	switch {
	case err == nil:
		updated, updateErr := o.store.UpdateShiftRecord(ctx, existing.ID, shiftInput)
		if updateErr != nil {
			return nil, updateErr
		}
		return &updated, nil
	case errors.Is(err, ErrNotFound):
		if shiftInput.Quantity <= 0 {
			return nil, nil
		}
		created, createErr := o.store.CreateShiftRecord(ctx, shiftInput)
		if createErr != nil {
			return nil, createErr
		}
		return &created, nil
	default:
		return nil, err
	}
}

// Delete removes the record with the given id and its sibling shift for the
// same (machine, date). Each deletion is attempted independently; one
// failure does not prevent the other attempt.
func (o *Orchestrator) Delete(ctx context.Context, recordID uint) error {
	record, err := o.store.GetShiftRecord(ctx, recordID)
	if err != nil {
		return err
	}

	var failures []error
	if err := o.store.DeleteShiftRecord(ctx, recordID); err != nil {
		o.logger.Error("shift record deletion failed",
			zap.Uint("record_id", recordID), zap.Error(err))
		failures = append(failures, err)
	}

	sibling, err := o.store.FindShift(ctx, record.UnitID, record.MachineNumber, record.Date, record.Shift.Opposite())
	switch {
	case errors.Is(err, ErrNotFound):
		// one-sided entry, nothing else to remove
	case err != nil:
		failures = append(failures, err)
	default:
		if err := o.store.DeleteShiftRecord(ctx, sibling.ID); err != nil {
			o.logger.Error("sibling shift deletion failed",
				zap.Uint("record_id", sibling.ID), zap.Error(err))
			failures = append(failures, err)
		}
	}

	return errors.Join(failures...)
}

func (o *Orchestrator) recordConfig(ctx context.Context, input PairInput) {
	if o.history == nil {
		return
	}
	if err := o.history.RecordConfigSnapshot(ctx, input.UnitID, input.MachineNumber, input.Date); err != nil {
		o.logger.Warn("configuration snapshot recording failed",
			zap.Int("unit", input.UnitID),
			zap.Int("machine_number", input.MachineNumber),
			zap.Error(err))
	}
}
