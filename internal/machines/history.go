package machines

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNoSnapshot reports that a machine has no configuration history at all.
// Callers treat this as a normal fallthrough, not a failure.
var ErrNoSnapshot = errors.New("machines: no configuration snapshot")

// EntryChecker reports whether a machine has any persisted production
// records. History recording is gated behind it so machines that never
// produced anything do not accumulate snapshots.
type EntryChecker interface {
	HasEntries(ctx context.Context, unit, machineNumber int) (bool, error)
}

// TrackerConfig describes the dependencies for the configuration history tracker.
type TrackerConfig struct {
	Database *gorm.DB
	Entries  EntryChecker
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Tracker maintains the append-only, deduplicated configuration timeline
// per machine and answers "what was the configuration on date D" queries.
type Tracker struct {
	db      *gorm.DB
	entries EntryChecker
	clock   func() time.Time
	logger  *zap.Logger
}

// NewTracker constructs a Tracker.
func NewTracker(cfg TrackerConfig) (*Tracker, error) {
	if cfg.Database == nil {
		return nil, errors.New("machines: tracker requires a database handle")
	}
	if cfg.Entries == nil {
		return nil, errors.New("machines: tracker requires an entry checker")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{db: cfg.Database, entries: cfg.Entries, clock: clock, logger: logger}, nil
}

// Record appends a snapshot of the machine's current configuration effective
// on the given date. It is a no-op when the machine has no production
// records yet, or when the normalized configuration matches the latest
// existing snapshot; repeated identical calls are idempotent.
func (t *Tracker) Record(ctx context.Context, machine Machine, effectiveDate string) error {
	hasEntries, err := t.entries.HasEntries(ctx, machine.UnitID, machine.MachineNumber)
	if err != nil {
		return err
	}
	if !hasEntries {
		return nil
	}

	candidate := snapshotOf(machine, effectiveDate, t.clock().UTC().Unix())

	var latest ConfigSnapshot
	err = t.db.WithContext(ctx).
		Where("machine_id = ?", machine.ID).
		Order("effective_date DESC, id DESC").
		Take(&latest).Error
	if err == nil && latest.normalizedKey() == candidate.normalizedKey() {
		return nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := t.db.WithContext(ctx).Create(&candidate).Error; err != nil {
		return err
	}
	t.logger.Info("machine configuration snapshot recorded",
		zap.Uint("machine_id", machine.ID),
		zap.String("effective_date", effectiveDate))
	return nil
}

// Resolve returns the snapshot whose effective date is the latest one at or
// before the requested date. When every snapshot is newer than the date, the
// earliest snapshot is returned instead; an old configuration beats having
// no denominator at all for historical percentages.
func (t *Tracker) Resolve(ctx context.Context, machineID uint, date string) (ConfigSnapshot, error) {
	var snapshot ConfigSnapshot
	err := t.db.WithContext(ctx).
		Where("machine_id = ? AND effective_date <= ?", machineID, date).
		Order("effective_date DESC, id DESC").
		Take(&snapshot).Error
	if err == nil {
		return snapshot, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return ConfigSnapshot{}, err
	}

	err = t.db.WithContext(ctx).
		Where("machine_id = ?", machineID).
		Order("effective_date ASC, id ASC").
		Take(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ConfigSnapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return ConfigSnapshot{}, err
	}
	return snapshot, nil
}

// History lists all snapshots for a machine, oldest first.
func (t *Tracker) History(ctx context.Context, machineID uint) ([]ConfigSnapshot, error) {
	var snapshots []ConfigSnapshot
	if err := t.db.WithContext(ctx).
		Where("machine_id = ?", machineID).
		Order("effective_date ASC, id ASC").
		Find(&snapshots).Error; err != nil {
		return nil, err
	}
	return snapshots, nil
}
