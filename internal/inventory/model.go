package inventory

import (
	"errors"
	"fmt"
	"strings"
)

// MovementKind tags a stock entry as incoming or outgoing.
type MovementKind string

const (
	// MovementIn records stock entering the godown.
	MovementIn MovementKind = "in"
	// MovementOut records stock leaving the godown.
	MovementOut MovementKind = "out"
)

// ErrUnknownMovement indicates a movement kind outside in/out.
var ErrUnknownMovement = errors.New("inventory: unknown movement kind")

// ParseMovementKind validates a raw movement tag at the boundary.
func ParseMovementKind(raw string) (MovementKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(MovementIn):
		return MovementIn, nil
	case string(MovementOut):
		return MovementOut, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMovement, raw)
	}
}

// StockEntry is one ledger line of count-product stock movement.
type StockEntry struct {
	ID               uint         `gorm:"column:id;primaryKey;autoIncrement"`
	Count            string       `gorm:"column:yarn_count;size:64;not null;index:idx_stock_count"`
	YarnType         string       `gorm:"column:yarn_type;size:190;not null;default:''"`
	Lot              string       `gorm:"column:lot;size:64;not null;default:''"`
	Movement         MovementKind `gorm:"column:movement;size:8;not null"`
	Quantity         float64      `gorm:"column:quantity;not null"`
	Remarks          string       `gorm:"column:remarks;type:text;not null;default:''"`
	EntryDate        string       `gorm:"column:entry_date;size:10;not null"`
	CreatedAtSeconds int64        `gorm:"column:created_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (StockEntry) TableName() string {
	return "stock_entries"
}

// CountStock summarizes the ledger position for one yarn count.
type CountStock struct {
	Count    string
	In       float64
	Out      float64
	OnHand   float64
	LastDate string
}
