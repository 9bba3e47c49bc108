package machines

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
	// ErrMachineNotFound indicates the referenced machine does not exist.
	ErrMachineNotFound = errors.New("machines: machine not found")
	// ErrDuplicateMachineNumber indicates the machine number is already taken
	// within the unit.
	ErrDuplicateMachineNumber = errors.New("machines: duplicate machine number")
)

// ProductionPurger removes all production records for a machine. Used by
// force delete only; archive leaves production history intact.
type ProductionPurger interface {
	PurgeEntries(ctx context.Context, unit, machineNumber int) error
}

// ServiceConfig describes the dependencies required for machine management.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
	CacheTTL time.Duration
	Tracker  *Tracker
	Purger   ProductionPurger
}

// Service manages spinning machines and their configuration history.
type Service struct {
	db      *gorm.DB
	clock   func() time.Time
	logger  *zap.Logger
	cache   *ListCache
	tracker *Tracker
	purger  ProductionPurger
}

// MachineInput carries operator-supplied machine attributes. Count arrives
// as free text ("30s") and is parsed on write.
type MachineInput struct {
	UnitID          int
	MachineNumber   int
	Name            string
	YarnType        string
	Count           string
	Spindles        int
	SpeedRPM        float64
	ProductionAt100 float64
}

// NewService constructs the machine service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errors.New("machines: database handle is required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Service{
		db:      cfg.Database,
		clock:   clock,
		logger:  logger,
		cache:   NewListCache(ttl, clock),
		tracker: cfg.Tracker,
		purger:  cfg.Purger,
	}, nil
}

func (s *Service) validateInput(input MachineInput) (float64, error) {
	if input.UnitID != 1 && input.UnitID != 2 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidUnit, input.UnitID)
	}
	if input.MachineNumber <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidMachineNumber, input.MachineNumber)
	}
	return ParseCountValue(input.Count)
}

// Create registers a new machine. The machine number must be unique within
// its unit.
func (s *Service) Create(ctx context.Context, input MachineInput) (Machine, error) {
	countValue, err := s.validateInput(input)
	if err != nil {
		return Machine{}, err
	}

	now := s.clock().UTC().Unix()
	machine := Machine{
		UnitID:           input.UnitID,
		MachineNumber:    input.MachineNumber,
		Name:             strings.TrimSpace(input.Name),
		YarnType:         strings.TrimSpace(input.YarnType),
		CountText:        strings.TrimSpace(input.Count),
		CountValue:       countValue,
		Spindles:         input.Spindles,
		SpeedRPM:         input.SpeedRPM,
		ProductionAt100:  input.ProductionAt100,
		IsActive:         true,
		CreatedAtSeconds: now,
		UpdatedAtSeconds: now,
	}

	if err := s.db.WithContext(ctx).Create(&machine).Error; err != nil {
		if isUniqueViolation(err) {
			return Machine{}, fmt.Errorf("%w: unit %d machine %d", ErrDuplicateMachineNumber, input.UnitID, input.MachineNumber)
		}
		return Machine{}, err
	}

	s.cache.Invalidate()
	s.logger.Info("machine created",
		zap.Int("unit", machine.UnitID),
		zap.Int("machine_number", machine.MachineNumber))
	return machine, nil
}

// Update edits machine attributes and records a configuration snapshot when
// a tracked field changed.
func (s *Service) Update(ctx context.Context, id uint, input MachineInput) (Machine, error) {
	countValue, err := s.validateInput(input)
	if err != nil {
		return Machine{}, err
	}

	machine, err := s.Get(ctx, id)
	if err != nil {
		return Machine{}, err
	}

	machine.UnitID = input.UnitID
	machine.MachineNumber = input.MachineNumber
	machine.Name = strings.TrimSpace(input.Name)
	machine.YarnType = strings.TrimSpace(input.YarnType)
	machine.CountText = strings.TrimSpace(input.Count)
	machine.CountValue = countValue
	machine.Spindles = input.Spindles
	machine.SpeedRPM = input.SpeedRPM
	machine.ProductionAt100 = input.ProductionAt100
	machine.UpdatedAtSeconds = s.clock().UTC().Unix()

	if err := s.db.WithContext(ctx).Save(&machine).Error; err != nil {
		if isUniqueViolation(err) {
			return Machine{}, fmt.Errorf("%w: unit %d machine %d", ErrDuplicateMachineNumber, input.UnitID, input.MachineNumber)
		}
		return Machine{}, err
	}

	s.cache.Invalidate()

	if s.tracker != nil {
		effectiveDate := s.clock().UTC().Format("2006-01-02")
		if err := s.tracker.Record(ctx, machine, effectiveDate); err != nil {
			s.logger.Warn("configuration snapshot recording failed",
				zap.Uint("machine_id", machine.ID), zap.Error(err))
		}
	}

	return machine, nil
}

// Get loads one machine by id.
func (s *Service) Get(ctx context.Context, id uint) (Machine, error) {
	var machine Machine
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&machine).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Machine{}, fmt.Errorf("%w: id %d", ErrMachineNotFound, id)
	}
	if err != nil {
		return Machine{}, err
	}
	return machine, nil
}

// ByNumber loads one machine by its unit-scoped machine number.
func (s *Service) ByNumber(ctx context.Context, unit, machineNumber int) (Machine, error) {
	var machine Machine
	err := s.db.WithContext(ctx).
		Where("unit_id = ? AND machine_number = ?", unit, machineNumber).
		Take(&machine).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Machine{}, fmt.Errorf("%w: unit %d machine %d", ErrMachineNotFound, unit, machineNumber)
	}
	if err != nil {
		return Machine{}, err
	}
	return machine, nil
}

// List returns machines, served from the TTL cache. Archived machines are
// included only when includeArchived is set.
func (s *Service) List(ctx context.Context, unit int, includeArchived bool) ([]Machine, error) {
	all, err := s.cache.Get(func() ([]Machine, error) {
		var items []Machine
		if err := s.db.WithContext(ctx).
			Order("unit_id ASC, machine_number ASC").
			Find(&items).Error; err != nil {
			return nil, err
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}

	filtered := make([]Machine, 0, len(all))
	for _, machine := range all {
		if unit != 0 && machine.UnitID != unit {
			continue
		}
		if !includeArchived && !machine.IsActive {
			continue
		}
		filtered = append(filtered, machine)
	}
	return filtered, nil
}

// Archive deactivates a machine without touching its production history.
func (s *Service) Archive(ctx context.Context, id uint) error {
	machine, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	machine.IsActive = false
	machine.UpdatedAtSeconds = s.clock().UTC().Unix()
	if err := s.db.WithContext(ctx).Save(&machine).Error; err != nil {
		return err
	}
	s.cache.Invalidate()
	s.logger.Info("machine archived", zap.Uint("machine_id", id))
	return nil
}

// ForceDelete removes the machine together with its production records and
// configuration snapshots.
func (s *Service) ForceDelete(ctx context.Context, id uint) error {
	machine, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if s.purger != nil {
		if err := s.purger.PurgeEntries(ctx, machine.UnitID, machine.MachineNumber); err != nil {
			return err
		}
	}
	if err := s.db.WithContext(ctx).
		Where("machine_id = ?", machine.ID).
		Delete(&ConfigSnapshot{}).Error; err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&Machine{}, machine.ID).Error; err != nil {
		return err
	}

	s.cache.Invalidate()
	s.logger.Info("machine force deleted",
		zap.Int("unit", machine.UnitID),
		zap.Int("machine_number", machine.MachineNumber))
	return nil
}

// ConfigHistory lists the machine's configuration snapshots, oldest first.
func (s *Service) ConfigHistory(ctx context.Context, id uint) ([]ConfigSnapshot, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if s.tracker == nil {
		return nil, nil
	}
	return s.tracker.History(ctx, id)
}

// HistoricalCapacity resolves the theoretical production recorded for the
// machine at or before the given date. Returns 0 when no snapshot exists;
// callers fall through to the next capacity source.
func (s *Service) HistoricalCapacity(ctx context.Context, unit, machineNumber int, date string) (float64, error) {
	if s.tracker == nil {
		return 0, nil
	}
	machine, err := s.ByNumber(ctx, unit, machineNumber)
	if err != nil {
		if errors.Is(err, ErrMachineNotFound) {
			return 0, nil
		}
		return 0, err
	}
	snapshot, err := s.tracker.Resolve(ctx, machine.ID, date)
	if errors.Is(err, ErrNoSnapshot) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return snapshot.ProductionAt100, nil
}

// CurrentCapacity returns the machine's currently configured theoretical
// production, or 0 when the machine is unknown.
func (s *Service) CurrentCapacity(ctx context.Context, unit, machineNumber int) (float64, error) {
	machine, err := s.ByNumber(ctx, unit, machineNumber)
	if err != nil {
		if errors.Is(err, ErrMachineNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return machine.ProductionAt100, nil
}

// RecordConfigSnapshot captures the machine's current configuration as
// effective on the given date. No-op for unknown machines.
func (s *Service) RecordConfigSnapshot(ctx context.Context, unit, machineNumber int, date string) error {
	if s.tracker == nil {
		return nil
	}
	machine, err := s.ByNumber(ctx, unit, machineNumber)
	if err != nil {
		if errors.Is(err, ErrMachineNotFound) {
			return nil
		}
		return err
	}
	return s.tracker.Record(ctx, machine, date)
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
