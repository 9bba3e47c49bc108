package dyeing

import (
	"errors"
	"fmt"
	"strings"
)

// OrderStatus enumerates dyeing order lifecycle states.
type OrderStatus string

const (
	// StatusPending is the initial state of a new order.
	StatusPending OrderStatus = "pending"
	// StatusSent marks yarn dispatched to the dyeing firm.
	StatusSent OrderStatus = "sent"
	// StatusReceived marks dyed yarn received back.
	StatusReceived OrderStatus = "received"
	// StatusCompleted marks the order reconciled and closed.
	StatusCompleted OrderStatus = "completed"
)

var (
	// ErrUnknownStatus indicates a status outside the lifecycle enum.
	ErrUnknownStatus = errors.New("dyeing: unknown order status")
	// ErrInvalidTransition indicates a status change the lifecycle forbids.
	ErrInvalidTransition = errors.New("dyeing: invalid status transition")
)

// ParseOrderStatus validates a raw status value at the boundary.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(StatusPending):
		return StatusPending, nil
	case string(StatusSent):
		return StatusSent, nil
	case string(StatusReceived):
		return StatusReceived, nil
	case string(StatusCompleted):
		return StatusCompleted, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}
}

// canTransition encodes the order lifecycle. Completed orders may be
// reopened back to sent when a return shipment is disputed.
func canTransition(from, to OrderStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusSent
	case StatusSent:
		return to == StatusReceived
	case StatusReceived:
		return to == StatusCompleted
	case StatusCompleted:
		return to == StatusSent
	default:
		return false
	}
}

// Firm models one dyeing firm, deduplicated by normalized name.
type Firm struct {
	ID               uint   `gorm:"column:id;primaryKey;autoIncrement"`
	Name             string `gorm:"column:firm_name;size:190;not null"`
	NormalizedName   string `gorm:"column:normalized_name;size:190;not null;uniqueIndex:idx_dyeing_firms_normalized"`
	ContactPerson    string `gorm:"column:contact_person;size:190;not null;default:''"`
	Phone            string `gorm:"column:phone;size:64;not null;default:''"`
	CreatedAtSeconds int64  `gorm:"column:created_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Firm) TableName() string {
	return "dyeing_firms"
}

// Order models one dyeing order: a quantity of yarn of a given count sent
// to a firm on behalf of a party.
type Order struct {
	ID                 uint        `gorm:"column:id;primaryKey;autoIncrement"`
	PartyID            uint        `gorm:"column:party_id;not null;index"`
	FirmID             uint        `gorm:"column:firm_id;not null;index"`
	Count              string      `gorm:"column:yarn_count;size:64;not null;default:''"`
	Shade              string      `gorm:"column:shade;size:190;not null;default:''"`
	Quantity           float64     `gorm:"column:quantity;not null;default:0"`
	ReceivedQuantity   float64     `gorm:"column:received_quantity;not null;default:0"`
	Status             OrderStatus `gorm:"column:status;size:16;not null;default:'pending'"`
	SentDate           string      `gorm:"column:sent_date;size:10;not null;default:''"`
	ExpectedReturnDate string      `gorm:"column:expected_return_date;size:10;not null;default:''"`
	ReceivedDate       string      `gorm:"column:received_date;size:10;not null;default:''"`
	Remarks            string      `gorm:"column:remarks;type:text;not null;default:''"`
	CreatedAtSeconds   int64       `gorm:"column:created_at_s;not null"`
	UpdatedAtSeconds   int64       `gorm:"column:updated_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Order) TableName() string {
	return "dyeing_orders"
}
