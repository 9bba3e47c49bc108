package production

import (
	"context"
	"errors"
	"testing"
)

type fakeStore struct {
	records        map[uint]ShiftRecord
	nextID         uint
	batchCreateErr error
	batchUpdateErr error
	createErrFor   map[ShiftKind]error
	updateErrFor   map[ShiftKind]error
	deleteErrFor   map[uint]error

	batchCreateCalls int
	batchUpdateCalls int
	createCalls      int
	updateCalls      int
	deleteCalls      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records:      make(map[uint]ShiftRecord),
		createErrFor: make(map[ShiftKind]error),
		updateErrFor: make(map[ShiftKind]error),
		deleteErrFor: make(map[uint]error),
	}
}

func (f *fakeStore) seed(record ShiftRecord) ShiftRecord {
	f.nextID++
	record.ID = f.nextID
	f.records[record.ID] = record
	return record
}

func (f *fakeStore) ListShiftRecords(_ context.Context, _ Filter) (RecordPage, error) {
	items := make([]ShiftRecord, 0, len(f.records))
	for _, record := range f.records {
		items = append(items, record)
	}
	return RecordPage{Items: items, Total: int64(len(items)), Page: 1, Limit: defaultPageLimit, TotalPages: 1}, nil
}

func (f *fakeStore) BatchCreateShiftPair(_ context.Context, input PairInput) (PairResult, error) {
	f.batchCreateCalls++
	if f.batchCreateErr != nil {
		return PairResult{}, f.batchCreateErr
	}
	var result PairResult
	if input.DayQuantity > 0 {
		record := f.seed(ShiftRecord{UnitID: input.UnitID, MachineNumber: input.MachineNumber, Date: input.Date, Shift: ShiftDay, Quantity: input.DayQuantity})
		result.Day = &record
	}
	if input.NightQuantity > 0 {
		record := f.seed(ShiftRecord{UnitID: input.UnitID, MachineNumber: input.MachineNumber, Date: input.Date, Shift: ShiftNight, Quantity: input.NightQuantity})
		result.Night = &record
	}
	return result, nil
}

func (f *fakeStore) BatchUpdateShiftPair(_ context.Context, _ PairInput) (PairResult, error) {
	f.batchUpdateCalls++
	if f.batchUpdateErr != nil {
		return PairResult{}, f.batchUpdateErr
	}
	return PairResult{}, nil
}

func (f *fakeStore) CreateShiftRecord(_ context.Context, input ShiftInput) (ShiftRecord, error) {
	f.createCalls++
	if err := f.createErrFor[input.Shift]; err != nil {
		return ShiftRecord{}, err
	}
	record := f.seed(ShiftRecord{
		UnitID:        input.UnitID,
		MachineNumber: input.MachineNumber,
		Date:          input.Date,
		Shift:         input.Shift,
		Quantity:      input.Quantity,
	})
	return record, nil
}

func (f *fakeStore) UpdateShiftRecord(_ context.Context, id uint, input ShiftInput) (ShiftRecord, error) {
	f.updateCalls++
	if err := f.updateErrFor[input.Shift]; err != nil {
		return ShiftRecord{}, err
	}
	record, ok := f.records[id]
	if !ok {
		return ShiftRecord{}, ErrNotFound
	}
	record.Quantity = input.Quantity
	f.records[id] = record
	return record, nil
}

func (f *fakeStore) DeleteShiftRecord(_ context.Context, id uint) error {
	f.deleteCalls++
	if err := f.deleteErrFor[id]; err != nil {
		return err
	}
	if _, ok := f.records[id]; !ok {
		return ErrNotFound
	}
	delete(f.records, id)
	return nil
}

func (f *fakeStore) GetShiftRecord(_ context.Context, id uint) (ShiftRecord, error) {
	record, ok := f.records[id]
	if !ok {
		return ShiftRecord{}, ErrNotFound
	}
	return record, nil
}

func (f *fakeStore) FindShift(_ context.Context, unit, machineNumber int, date string, shift ShiftKind) (ShiftRecord, error) {
	for _, record := range f.records {
		if record.UnitID == unit && record.MachineNumber == machineNumber && record.Date == date && record.Shift == shift {
			return record, nil
		}
	}
	return ShiftRecord{}, ErrNotFound
}

func newTestOrchestrator(t *testing.T, store Store) *Orchestrator {
	t.Helper()
	orchestrator, err := NewOrchestrator(OrchestratorConfig{Store: store})
	if err != nil {
		t.Fatalf("unexpected orchestrator error: %v", err)
	}
	return orchestrator
}

func TestCreateRejectsWhenBothShiftsNonPositive(t *testing.T) {
	store := newFakeStore()
	orchestrator := newTestOrchestrator(t, store)

	result, err := orchestrator.Create(context.Background(), PairInput{
		UnitID: 1, MachineNumber: 7, Date: "2024-03-01",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if result.State != StateRejected {
		t.Fatalf("expected rejected state, got %s", result.State)
	}
	if store.batchCreateCalls != 0 || store.createCalls != 0 {
		t.Fatalf("validation failure must not reach the store")
	}
}

func TestCreateRejectsInvalidDate(t *testing.T) {
	orchestrator := newTestOrchestrator(t, newFakeStore())
	_, err := orchestrator.Create(context.Background(), PairInput{
		UnitID: 1, MachineNumber: 7, Date: "01-03-2024", DayQuantity: 40,
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for malformed date, got %v", err)
	}
}

func TestCreateCommitsDayOnlySubmission(t *testing.T) {
	store := newFakeStore()
	orchestrator := newTestOrchestrator(t, store)

	result, err := orchestrator.Create(context.Background(), PairInput{
		UnitID: 1, MachineNumber: 7, Date: "2024-03-01", DayQuantity: 40,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.State != StateCommitted {
		t.Fatalf("expected committed, got %s", result.State)
	}
	if result.Pair.Day == nil || result.Pair.Day.Quantity != 40 {
		t.Fatalf("day record missing from result: %+v", result.Pair)
	}
	if result.Pair.Night != nil {
		t.Fatalf("zero night shift must not persist a record")
	}

	page, _ := store.ListShiftRecords(context.Background(), Filter{})
	combined := mergeShells(normalizeRecords(page.Items, noOpLogger))
	if len(combined) != 1 {
		t.Fatalf("expected 1 combined entry, got %d", len(combined))
	}
	if combined[0].Total != 40 || !combined[0].Night.Synthesized {
		t.Fatalf("expected total 40 with synthesized night, got %+v", combined[0])
	}
}

func TestUpdateFallsBackToLegacyPathOnBatchUnavailable(t *testing.T) {
	store := newFakeStore()
	store.batchUpdateErr = ErrBatchUnavailable
	store.seed(ShiftRecord{UnitID: 1, MachineNumber: 7, Date: "2024-03-01", Shift: ShiftDay, Quantity: 30})
	orchestrator := newTestOrchestrator(t, store)

	result, err := orchestrator.Update(context.Background(), PairInput{
		UnitID: 1, MachineNumber: 7, Date: "2024-03-01", DayQuantity: 45, NightQuantity: 20,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.State != StateCommitted {
		t.Fatalf("expected committed after legacy fallback, got %s", result.State)
	}
	if store.batchUpdateCalls != 1 {
		t.Fatalf("expected one batch attempt, got %d", store.batchUpdateCalls)
	}
	if store.updateCalls != 1 {
		t.Fatalf("expected existing day record updated once, got %d", store.updateCalls)
	}
	if store.createCalls != 1 {
		t.Fatalf("expected missing night record created once, got %d", store.createCalls)
	}
	if result.Pair.Day == nil || result.Pair.Day.Quantity != 45 {
		t.Fatalf("day record not updated: %+v", result.Pair.Day)
	}
	if result.Pair.Night == nil || result.Pair.Night.Quantity != 20 {
		t.Fatalf("night record not created: %+v", result.Pair.Night)
	}
}

func TestUpdateDoesNotFallBackOnOtherErrors(t *testing.T) {
	store := newFakeStore()
	store.batchUpdateErr = errors.New("database locked")
	orchestrator := newTestOrchestrator(t, store)

	result, err := orchestrator.Update(context.Background(), PairInput{
		UnitID: 1, MachineNumber: 7, Date: "2024-03-01", DayQuantity: 45,
	})
	if err == nil {
		t.Fatalf("expected error to propagate")
	}
	if result.State != StateRejected {
		t.Fatalf("expected rejected, got %s", result.State)
	}
	if store.updateCalls != 0 && store.createCalls != 0 {
		t.Fatalf("non-404 errors must not trigger the legacy path")
	}
}

func TestLegacyUpdateSurfacesPartialFailure(t *testing.T) {
	store := newFakeStore()
	store.batchUpdateErr = ErrBatchUnavailable
	store.seed(ShiftRecord{UnitID: 1, MachineNumber: 7, Date: "2024-03-01", Shift: ShiftDay, Quantity: 30})
	store.seed(ShiftRecord{UnitID: 1, MachineNumber: 7, Date: "2024-03-01", Shift: ShiftNight, Quantity: 25})
	store.updateErrFor[ShiftNight] = errors.New("connection reset")
	orchestrator := newTestOrchestrator(t, store)

	result, err := orchestrator.Update(context.Background(), PairInput{
		UnitID: 1, MachineNumber: 7, Date: "2024-03-01", DayQuantity: 45, NightQuantity: 20,
	})
	if result.State != StatePartiallyFailed {
		t.Fatalf("expected partially failed state, got %s", result.State)
	}

	var partial *PartialFailureError
	if !errors.As(err, &partial) {
		t.Fatalf("expected PartialFailureError, got %v", err)
	}
	if partial.FailedShift != ShiftNight {
		t.Fatalf("expected night shift failure, got %s", partial.FailedShift)
	}
	if partial.MachineNumber != 7 || partial.Date != "2024-03-01" {
		t.Fatalf("partial failure context missing: %+v", partial)
	}

	// the committed day update is not rolled back
	day, findErr := store.FindShift(context.Background(), 1, 7, "2024-03-01", ShiftDay)
	if findErr != nil {
		t.Fatalf("day record vanished: %v", findErr)
	}
	if day.Quantity != 45 {
		t.Fatalf("expected committed day quantity 45, got %v", day.Quantity)
	}
}

func TestLegacyUpdateRejectsWhenFirstShiftFails(t *testing.T) {
	store := newFakeStore()
	store.batchUpdateErr = ErrBatchUnavailable
	store.seed(ShiftRecord{UnitID: 1, MachineNumber: 7, Date: "2024-03-01", Shift: ShiftDay, Quantity: 30})
	store.updateErrFor[ShiftDay] = errors.New("connection reset")
	orchestrator := newTestOrchestrator(t, store)

	result, err := orchestrator.Update(context.Background(), PairInput{
		UnitID: 1, MachineNumber: 7, Date: "2024-03-01", DayQuantity: 45, NightQuantity: 20,
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	var partial *PartialFailureError
	if errors.As(err, &partial) {
		t.Fatalf("first-shift failure must not be a partial failure: %v", err)
	}
	if result.State != StateRejected {
		t.Fatalf("expected rejected, got %s", result.State)
	}
}

func TestDeleteRemovesSiblingShift(t *testing.T) {
	store := newFakeStore()
	day := store.seed(ShiftRecord{UnitID: 1, MachineNumber: 7, Date: "2024-03-01", Shift: ShiftDay, Quantity: 30})
	store.seed(ShiftRecord{UnitID: 1, MachineNumber: 7, Date: "2024-03-01", Shift: ShiftNight, Quantity: 25})
	orchestrator := newTestOrchestrator(t, store)

	if err := orchestrator.Delete(context.Background(), day.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.records) != 0 {
		t.Fatalf("expected both shift records removed, %d remain", len(store.records))
	}
}

func TestDeleteToleratesMissingSibling(t *testing.T) {
	store := newFakeStore()
	day := store.seed(ShiftRecord{UnitID: 1, MachineNumber: 7, Date: "2024-03-01", Shift: ShiftDay, Quantity: 30})
	orchestrator := newTestOrchestrator(t, store)

	if err := orchestrator.Delete(context.Background(), day.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.records) != 0 {
		t.Fatalf("expected record removed")
	}
}

func TestDeleteAttemptsSiblingDespiteFirstFailure(t *testing.T) {
	store := newFakeStore()
	day := store.seed(ShiftRecord{UnitID: 1, MachineNumber: 7, Date: "2024-03-01", Shift: ShiftDay, Quantity: 30})
	night := store.seed(ShiftRecord{UnitID: 1, MachineNumber: 7, Date: "2024-03-01", Shift: ShiftNight, Quantity: 25})
	store.deleteErrFor[day.ID] = errors.New("disk error")
	orchestrator := newTestOrchestrator(t, store)

	err := orchestrator.Delete(context.Background(), day.ID)
	if err == nil {
		t.Fatalf("expected aggregated error")
	}
	if _, ok := store.records[night.ID]; ok {
		t.Fatalf("sibling deletion should still have been attempted and succeeded")
	}
	if store.deleteCalls != 2 {
		t.Fatalf("expected both deletions attempted, got %d calls", store.deleteCalls)
	}
}

func TestDeleteUnknownRecord(t *testing.T) {
	orchestrator := newTestOrchestrator(t, newFakeStore())
	if err := orchestrator.Delete(context.Background(), 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
