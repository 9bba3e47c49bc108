package machines

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidMachineNumber indicates a non-positive machine number.
	ErrInvalidMachineNumber = errors.New("machines: invalid machine number")
	// ErrInvalidUnit indicates an unknown production unit.
	ErrInvalidUnit = errors.New("machines: invalid unit")
	// ErrInvalidCount indicates count text that cannot be parsed to a number.
	ErrInvalidCount = errors.New("machines: invalid count")
)

// Machine models one spinning machine within a production unit.
type Machine struct {
	ID               uint    `gorm:"column:id;primaryKey;autoIncrement"`
	UnitID           int     `gorm:"column:unit_id;not null;default:1;uniqueIndex:idx_machines_unit_number,priority:1"`
	MachineNumber    int     `gorm:"column:machine_number;not null;uniqueIndex:idx_machines_unit_number,priority:2"`
	Name             string  `gorm:"column:machine_name;size:190;not null;default:''"`
	YarnType         string  `gorm:"column:yarn_type;size:190;not null;default:''"`
	CountText        string  `gorm:"column:count_text;size:64;not null;default:''"`
	CountValue       float64 `gorm:"column:count_value;not null;default:0"`
	Spindles         int     `gorm:"column:spindles;not null;default:0"`
	SpeedRPM         float64 `gorm:"column:speed_rpm;not null;default:0"`
	ProductionAt100  float64 `gorm:"column:production_at_100;not null;default:0"`
	IsActive         bool    `gorm:"column:is_active;not null;default:true"`
	CreatedAtSeconds int64   `gorm:"column:created_at_s;not null"`
	UpdatedAtSeconds int64   `gorm:"column:updated_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Machine) TableName() string {
	return "machines"
}

// ConfigSnapshot is one point-in-time record of a machine's configuration.
// Rows are append-only; see Tracker.
type ConfigSnapshot struct {
	ID               uint    `gorm:"column:id;primaryKey;autoIncrement"`
	MachineID        uint    `gorm:"column:machine_id;not null;index:idx_config_snapshots_machine_date,priority:1"`
	CountValue       float64 `gorm:"column:count_value;not null;default:0"`
	YarnType         string  `gorm:"column:yarn_type;size:190;not null;default:''"`
	Spindles         int     `gorm:"column:spindles;not null;default:0"`
	SpeedRPM         float64 `gorm:"column:speed_rpm;not null;default:0"`
	ProductionAt100  float64 `gorm:"column:production_at_100;not null;default:0"`
	EffectiveDate    string  `gorm:"column:effective_date;size:10;not null;index:idx_config_snapshots_machine_date,priority:2"`
	CreatedAtSeconds int64   `gorm:"column:created_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (ConfigSnapshot) TableName() string {
	return "machine_config_snapshots"
}

// normalizedKey renders the tracked configuration fields at fixed precision
// so that floating-point formatting differences never register as changes.
func (s ConfigSnapshot) normalizedKey() string {
	return strings.Join([]string{
		strconv.FormatFloat(s.CountValue, 'f', 2, 64),
		strings.ToLower(strings.TrimSpace(s.YarnType)),
		strconv.Itoa(s.Spindles),
		strconv.FormatFloat(s.SpeedRPM, 'f', 2, 64),
		strconv.FormatFloat(s.ProductionAt100, 'f', 2, 64),
	}, "|")
}

// snapshotOf captures the machine's current tracked configuration.
func snapshotOf(machine Machine, effectiveDate string, nowSeconds int64) ConfigSnapshot {
	return ConfigSnapshot{
		MachineID:        machine.ID,
		CountValue:       machine.CountValue,
		YarnType:         machine.YarnType,
		Spindles:         machine.Spindles,
		SpeedRPM:         machine.SpeedRPM,
		ProductionAt100:  machine.ProductionAt100,
		EffectiveDate:    effectiveDate,
		CreatedAtSeconds: nowSeconds,
	}
}

// ParseCountValue extracts the numeric yarn count from operator-entered text.
// Entries arrive as "30", "30s", "30.5 s" and similar; trailing letters are
// stripped before parsing.
func ParseCountValue(raw string) (float64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, nil
	}
	end := len(trimmed)
	for end > 0 {
		c := trimmed[end-1]
		if (c >= '0' && c <= '9') || c == '.' {
			break
		}
		end--
	}
	numeric := strings.TrimSpace(trimmed[:end])
	if numeric == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCount, raw)
	}
	value, err := strconv.ParseFloat(numeric, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCount, raw)
	}
	if value < 0 {
		return 0, fmt.Errorf("%w: negative %q", ErrInvalidCount, raw)
	}
	return value, nil
}
