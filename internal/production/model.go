package production

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ShiftKind tags one of the two daily production periods.
type ShiftKind string

const (
	// ShiftDay is the day production shift.
	ShiftDay ShiftKind = "day"
	// ShiftNight is the night production shift.
	ShiftNight ShiftKind = "night"
)

var (
	// ErrUnknownShift indicates a shift designator outside day/night.
	ErrUnknownShift = errors.New("production: unknown shift designator")
	// ErrInvalidDate indicates a date that is not a YYYY-MM-DD calendar day.
	ErrInvalidDate = errors.New("production: invalid date")
)

// ParseShiftKind validates a raw shift designator at the boundary.
func ParseShiftKind(raw string) (ShiftKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(ShiftDay):
		return ShiftDay, nil
	case string(ShiftNight):
		return ShiftNight, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownShift, raw)
	}
}

// Opposite returns the sibling shift.
func (k ShiftKind) Opposite() ShiftKind {
	if k == ShiftDay {
		return ShiftNight
	}
	return ShiftDay
}

// NewEntryDate validates a calendar-day string.
func NewEntryDate(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if _, err := time.Parse("2006-01-02", trimmed); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return trimmed, nil
}

// ShiftRecord is one shift's persisted output for a machine on a date.
// At most one row exists per (unit, machine, date, shift); the unique index
// is the arbiter under concurrent writers.
type ShiftRecord struct {
	ID                    uint      `gorm:"column:id;primaryKey;autoIncrement"`
	UnitID                int       `gorm:"column:unit_id;not null;default:1;uniqueIndex:idx_entries_machine_date_shift,priority:1"`
	MachineNumber         int       `gorm:"column:machine_number;not null;uniqueIndex:idx_entries_machine_date_shift,priority:2"`
	Date                  string    `gorm:"column:entry_date;size:10;not null;uniqueIndex:idx_entries_machine_date_shift,priority:3"`
	Shift                 ShiftKind `gorm:"column:shift;size:8;not null;uniqueIndex:idx_entries_machine_date_shift,priority:4"`
	Quantity              float64   `gorm:"column:quantity;not null;default:0"`
	WorkerName            string    `gorm:"column:worker_name;size:190;not null;default:''"`
	MainsReading          float64   `gorm:"column:mains_reading;not null;default:0"`
	YarnType              string    `gorm:"column:yarn_type;size:190;not null;default:''"`
	TheoreticalProduction float64   `gorm:"column:theoretical_production;not null;default:0"`
	CreatedAtSeconds      int64     `gorm:"column:created_at_s;not null"`
	UpdatedAtSeconds      int64     `gorm:"column:updated_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (ShiftRecord) TableName() string {
	return "production_shift_records"
}

// AuditOperation enumerates audited shift-record mutations.
type AuditOperation string

const (
	// AuditOperationCreate marks a record creation.
	AuditOperationCreate AuditOperation = "create"
	// AuditOperationUpdate marks a record update.
	AuditOperationUpdate AuditOperation = "update"
	// AuditOperationDelete marks a record deletion.
	AuditOperationDelete AuditOperation = "delete"
)

// AuditRecord captures an append-only trail of shift-record mutations,
// written in the same transaction as the mutation itself.
type AuditRecord struct {
	ChangeID          string         `gorm:"column:change_id;primaryKey;size:190;not null"`
	UnitID            int            `gorm:"column:unit_id;not null"`
	MachineNumber     int            `gorm:"column:machine_number;not null;index:idx_audit_machine_time,priority:1"`
	Date              string         `gorm:"column:entry_date;size:10;not null"`
	Shift             ShiftKind      `gorm:"column:shift;size:8;not null"`
	Operation         AuditOperation `gorm:"column:op;size:16;not null"`
	PreviousQuantity  *float64       `gorm:"column:prev_quantity"`
	NewQuantity       *float64       `gorm:"column:new_quantity"`
	RecordedAtSeconds int64          `gorm:"column:recorded_at_s;not null;index:idx_audit_machine_time,priority:2"`
}

// TableName provides the explicit table binding for GORM.
func (AuditRecord) TableName() string {
	return "production_audit_log"
}

// ShiftSlot holds one shift's share of a combined entry.
type ShiftSlot struct {
	RecordID     uint
	Quantity     float64
	WorkerName   string
	MainsReading float64
	// Synthesized marks a zero-valued placeholder for a shift that has no
	// persisted record.
	Synthesized bool
}

// CombinedEntry is the merged day+night view of one machine's production on
// one calendar day. It is reconstructed on every read and never persisted.
type CombinedEntry struct {
	UnitID                int
	MachineNumber         int
	Date                  string
	YarnType              string
	Day                   ShiftSlot
	Night                 ShiftSlot
	TheoreticalProduction float64
	Total                 float64
	Percentage            float64
}

type entryKey struct {
	unit          int
	machineNumber int
	date          string
}
