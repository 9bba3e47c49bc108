package production

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase   = errors.New("database handle is required")
	errMissingIDProvider = errors.New("id provider is required")
	noOpLogger           = zap.NewNop()
)

// ServiceError carries a stable operation.reason code alongside the cause.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

// Code returns the stable error code.
func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew   = "production.service.new"
	opListRecords  = "production.list_records"
	opCreateRecord = "production.create_record"
	opUpdateRecord = "production.update_record"
	opDeleteRecord = "production.delete_record"
	opBatchCreate  = "production.batch_create_pair"
	opBatchUpdate  = "production.batch_update_pair"
	opPurge        = "production.purge_entries"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// IDProvider issues identifiers for audit rows.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies of the production store.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
}

// Service is the gorm-backed shift-record store. It implements the Store
// contract consumed by the Orchestrator and Aggregator, plus the
// EntryChecker and ProductionPurger hooks used by the machines package.
type Service struct {
	db         *gorm.DB
	clock      func() time.Time
	idProvider IDProvider
	logger     *zap.Logger
}

// NewService constructs the production store.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}
	if cfg.IDProvider == nil {
		return nil, newServiceError(opServiceNew, "missing_id_provider", errMissingIDProvider)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{db: cfg.Database, clock: clock, idProvider: cfg.IDProvider, logger: logger}, nil
}

// Filter narrows shift-record listings.
type Filter struct {
	UnitID        int
	MachineNumber *int
	DateFrom      string
	DateTo        string
	Page          int
	Limit         int
}

const (
	defaultPageLimit = 50
	maxPageLimit     = 500
)

// RecordPage is one page of raw shift records.
type RecordPage struct {
	Items      []ShiftRecord
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// ShiftInput carries one shift's submission fields.
type ShiftInput struct {
	UnitID                int
	MachineNumber         int
	Date                  string
	Shift                 ShiftKind
	Quantity              float64
	WorkerName            string
	MainsReading          float64
	YarnType              string
	TheoreticalProduction float64
}

// PairInput carries a combined day+night submission.
type PairInput struct {
	UnitID                int
	MachineNumber         int
	Date                  string
	DayQuantity           float64
	NightQuantity         float64
	DayWorker             string
	NightWorker           string
	DayMains              float64
	NightMains            float64
	YarnType              string
	TheoreticalProduction float64
}

func (p PairInput) shiftInput(shift ShiftKind) ShiftInput {
	input := ShiftInput{
		UnitID:                p.UnitID,
		MachineNumber:         p.MachineNumber,
		Date:                  p.Date,
		Shift:                 shift,
		YarnType:              p.YarnType,
		TheoreticalProduction: p.TheoreticalProduction,
	}
	if shift == ShiftDay {
		input.Quantity = p.DayQuantity
		input.WorkerName = p.DayWorker
		input.MainsReading = p.DayMains
	} else {
		input.Quantity = p.NightQuantity
		input.WorkerName = p.NightWorker
		input.MainsReading = p.NightMains
	}
	return input
}

// PairResult references the persisted records of a pair operation. Either
// side may be nil when that shift had no quantity to persist.
type PairResult struct {
	Day   *ShiftRecord
	Night *ShiftRecord
}

// ListShiftRecords returns a page of raw shift records matching the filter.
func (s *Service) ListShiftRecords(ctx context.Context, filter Filter) (RecordPage, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	query := s.db.WithContext(ctx).Model(&ShiftRecord{})
	if filter.UnitID != 0 {
		query = query.Where("unit_id = ?", filter.UnitID)
	}
	if filter.MachineNumber != nil {
		query = query.Where("machine_number = ?", *filter.MachineNumber)
	}
	if filter.DateFrom != "" {
		query = query.Where("entry_date >= ?", filter.DateFrom)
	}
	if filter.DateTo != "" {
		query = query.Where("entry_date <= ?", filter.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return RecordPage{}, newServiceError(opListRecords, "count_failed", err)
	}

	var items []ShiftRecord
	if err := query.
		Order("entry_date DESC, machine_number ASC, shift ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&items).Error; err != nil {
		return RecordPage{}, newServiceError(opListRecords, "query_failed", err)
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return RecordPage{Items: items, Total: total, Page: page, Limit: limit, TotalPages: totalPages}, nil
}

// CreateShiftRecord persists one shift's record. A duplicate
// (machine, date, shift) surfaces ErrConflict.
func (s *Service) CreateShiftRecord(ctx context.Context, input ShiftInput) (ShiftRecord, error) {
	var created ShiftRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := s.createInTx(tx, input)
		if err != nil {
			return err
		}
		created = record
		return nil
	})
	if err != nil {
		return ShiftRecord{}, err
	}
	return created, nil
}

func (s *Service) createInTx(tx *gorm.DB, input ShiftInput) (ShiftRecord, error) {
	now := s.clock().UTC().Unix()
	record := ShiftRecord{
		UnitID:                input.UnitID,
		MachineNumber:         input.MachineNumber,
		Date:                  input.Date,
		Shift:                 input.Shift,
		Quantity:              input.Quantity,
		WorkerName:            input.WorkerName,
		MainsReading:          input.MainsReading,
		YarnType:              input.YarnType,
		TheoreticalProduction: input.TheoreticalProduction,
		CreatedAtSeconds:      now,
		UpdatedAtSeconds:      now,
	}

	if err := tx.Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return ShiftRecord{}, fmt.Errorf("%w: unit %d machine %d %s %s",
				ErrConflict, input.UnitID, input.MachineNumber, input.Date, input.Shift)
		}
		return ShiftRecord{}, newServiceError(opCreateRecord, "insert_failed", err)
	}

	if err := s.appendAudit(tx, record, AuditOperationCreate, nil, &record.Quantity); err != nil {
		return ShiftRecord{}, err
	}
	return record, nil
}

// GetShiftRecord loads one record by id.
func (s *Service) GetShiftRecord(ctx context.Context, id uint) (ShiftRecord, error) {
	var record ShiftRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ShiftRecord{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return ShiftRecord{}, newServiceError(opListRecords, "query_failed", err)
	}
	return record, nil
}

// FindShift locates the record for one shift of a (machine, date) pair.
func (s *Service) FindShift(ctx context.Context, unit, machineNumber int, date string, shift ShiftKind) (ShiftRecord, error) {
	var record ShiftRecord
	err := s.db.WithContext(ctx).
		Where("unit_id = ? AND machine_number = ? AND entry_date = ? AND shift = ?",
			unit, machineNumber, date, shift).
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ShiftRecord{}, fmt.Errorf("%w: unit %d machine %d %s %s",
			ErrNotFound, unit, machineNumber, date, shift)
	}
	if err != nil {
		return ShiftRecord{}, newServiceError(opListRecords, "query_failed", err)
	}
	return record, nil
}

// UpdateShiftRecord rewrites the mutable fields of one record.
func (s *Service) UpdateShiftRecord(ctx context.Context, id uint, input ShiftInput) (ShiftRecord, error) {
	var updated ShiftRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := s.updateInTx(tx, id, input)
		if err != nil {
			return err
		}
		updated = record
		return nil
	})
	if err != nil {
		return ShiftRecord{}, err
	}
	return updated, nil
}

func (s *Service) updateInTx(tx *gorm.DB, id uint, input ShiftInput) (ShiftRecord, error) {
	var record ShiftRecord
	err := tx.Where("id = ?", id).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ShiftRecord{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return ShiftRecord{}, newServiceError(opUpdateRecord, "query_failed", err)
	}

	previous := record.Quantity
	record.Quantity = input.Quantity
	if input.WorkerName != "" {
		record.WorkerName = input.WorkerName
	}
	if input.MainsReading != 0 {
		record.MainsReading = input.MainsReading
	}
	if input.YarnType != "" {
		record.YarnType = input.YarnType
	}
	if input.TheoreticalProduction > 0 {
		record.TheoreticalProduction = input.TheoreticalProduction
	}
	record.UpdatedAtSeconds = s.clock().UTC().Unix()

	if err := tx.Save(&record).Error; err != nil {
		return ShiftRecord{}, newServiceError(opUpdateRecord, "save_failed", err)
	}
	if err := s.appendAudit(tx, record, AuditOperationUpdate, &previous, &record.Quantity); err != nil {
		return ShiftRecord{}, err
	}
	return record, nil
}

// DeleteShiftRecord removes one record by id. ErrNotFound when absent.
func (s *Service) DeleteShiftRecord(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record ShiftRecord
		err := tx.Where("id = ?", id).Take(&record).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		if err != nil {
			return newServiceError(opDeleteRecord, "query_failed", err)
		}
		if err := tx.Delete(&ShiftRecord{}, id).Error; err != nil {
			return newServiceError(opDeleteRecord, "delete_failed", err)
		}
		return s.appendAudit(tx, record, AuditOperationDelete, &record.Quantity, nil)
	})
}

// BatchCreateShiftPair creates both shifts' records in one transaction.
// Shifts with zero quantity are not persisted; the merged view synthesizes
// their placeholders on read.
func (s *Service) BatchCreateShiftPair(ctx context.Context, input PairInput) (PairResult, error) {
	var result PairResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if input.DayQuantity > 0 {
			record, err := s.createInTx(tx, input.shiftInput(ShiftDay))
			if err != nil {
				return err
			}
			result.Day = &record
		}
		if input.NightQuantity > 0 {
			record, err := s.createInTx(tx, input.shiftInput(ShiftNight))
			if err != nil {
				return err
			}
			result.Night = &record
		}
		return nil
	})
	if err != nil {
		return PairResult{}, err
	}
	return result, nil
}

// BatchUpdateShiftPair updates both shifts' records in one transaction,
// creating a missing sibling when its submitted quantity is positive.
func (s *Service) BatchUpdateShiftPair(ctx context.Context, input PairInput) (PairResult, error) {
	var result PairResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, shift := range []ShiftKind{ShiftDay, ShiftNight} {
			shiftInput := input.shiftInput(shift)

			var existing ShiftRecord
			err := tx.Where("unit_id = ? AND machine_number = ? AND entry_date = ? AND shift = ?",
				input.UnitID, input.MachineNumber, input.Date, shift).
				Take(&existing).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				if shiftInput.Quantity <= 0 {
					continue
				}
				record, createErr := s.createInTx(tx, shiftInput)
				if createErr != nil {
					return createErr
				}
				result.assign(shift, record)
			case err != nil:
				return newServiceError(opBatchUpdate, "query_failed", err)
			default:
				record, updateErr := s.updateInTx(tx, existing.ID, shiftInput)
				if updateErr != nil {
					return updateErr
				}
				result.assign(shift, record)
			}
		}
		return nil
	})
	if err != nil {
		return PairResult{}, err
	}
	return result, nil
}

func (r *PairResult) assign(shift ShiftKind, record ShiftRecord) {
	if shift == ShiftDay {
		r.Day = &record
	} else {
		r.Night = &record
	}
}

// HasEntries reports whether a machine has any persisted shift records.
// Satisfies the machines package's EntryChecker.
func (s *Service) HasEntries(ctx context.Context, unit, machineNumber int) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&ShiftRecord{}).
		Where("unit_id = ? AND machine_number = ?", unit, machineNumber).
		Count(&count).Error; err != nil {
		return false, newServiceError(opListRecords, "count_failed", err)
	}
	return count > 0, nil
}

// PurgeEntries removes every shift record for a machine. Satisfies the
// machines package's ProductionPurger; used by force delete only.
func (s *Service) PurgeEntries(ctx context.Context, unit, machineNumber int) error {
	if err := s.db.WithContext(ctx).
		Where("unit_id = ? AND machine_number = ?", unit, machineNumber).
		Delete(&ShiftRecord{}).Error; err != nil {
		return newServiceError(opPurge, "delete_failed", err)
	}
	s.logger.Info("production records purged",
		zap.Int("unit", unit), zap.Int("machine_number", machineNumber))
	return nil
}

func (s *Service) appendAudit(tx *gorm.DB, record ShiftRecord, op AuditOperation, previous, next *float64) error {
	changeID, err := s.idProvider.NewID()
	if err != nil {
		return newServiceError(opCodeFor(op), "id_generation_failed", err)
	}
	audit := AuditRecord{
		ChangeID:          changeID,
		UnitID:            record.UnitID,
		MachineNumber:     record.MachineNumber,
		Date:              record.Date,
		Shift:             record.Shift,
		Operation:         op,
		PreviousQuantity:  previous,
		NewQuantity:       next,
		RecordedAtSeconds: s.clock().UTC().Unix(),
	}
	if err := tx.Create(&audit).Error; err != nil {
		return newServiceError(opCodeFor(op), "audit_insert_failed", err)
	}
	return nil
}

func opCodeFor(op AuditOperation) string {
	switch op {
	case AuditOperationCreate:
		return opCreateRecord
	case AuditOperationUpdate:
		return opUpdateRecord
	default:
		return opDeleteRecord
	}
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
