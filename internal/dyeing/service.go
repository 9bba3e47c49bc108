package dyeing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rakshitjain7rj/erp-web-app-sub004/internal/parties"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrOrderNotFound indicates the referenced order does not exist.
	ErrOrderNotFound = errors.New("dyeing: order not found")
	// ErrFirmNotFound indicates the referenced firm does not exist.
	ErrFirmNotFound = errors.New("dyeing: firm not found")
	// ErrInvalidOrder indicates an order submission missing required fields.
	ErrInvalidOrder = errors.New("dyeing: invalid order")
)

// ServiceConfig describes the dependencies for dyeing order management.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service manages dyeing firms and dyeing orders.
type Service struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewService constructs the dyeing service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errors.New("dyeing: database handle is required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: cfg.Database, clock: clock, logger: logger}, nil
}

// FindOrCreateFirm resolves a dyeing firm by normalized name, creating it
// when unseen. Operator-entered firm names vary in casing and spacing; the
// normalized key keeps "Rainbow Dyers" and "rainbow  dyers" one firm.
func (s *Service) FindOrCreateFirm(ctx context.Context, name, contactPerson, phone string) (Firm, error) {
	trimmed := strings.TrimSpace(name)
	normalized := parties.NormalizeName(trimmed)
	if normalized == "" {
		return Firm{}, fmt.Errorf("%w: firm name is required", ErrInvalidOrder)
	}

	var firm Firm
	err := s.db.WithContext(ctx).
		Where("normalized_name = ?", normalized).
		First(&firm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		firm = Firm{
			Name:             trimmed,
			NormalizedName:   normalized,
			ContactPerson:    strings.TrimSpace(contactPerson),
			Phone:            strings.TrimSpace(phone),
			CreatedAtSeconds: s.clock().UTC().Unix(),
		}
		if err := s.db.WithContext(ctx).Create(&firm).Error; err != nil {
			return Firm{}, err
		}
		s.logger.Info("dyeing firm created", zap.String("firm", trimmed))
		return firm, nil
	}
	if err != nil {
		return Firm{}, err
	}
	return firm, nil
}

// ListFirms returns all dyeing firms ordered by name.
func (s *Service) ListFirms(ctx context.Context) ([]Firm, error) {
	var firms []Firm
	if err := s.db.WithContext(ctx).
		Order("normalized_name ASC").
		Find(&firms).Error; err != nil {
		return nil, err
	}
	return firms, nil
}

// OrderInput carries dyeing order attributes. FirmName goes through
// find-or-create; FirmID is used directly when non-zero.
type OrderInput struct {
	PartyID            uint
	FirmID             uint
	FirmName           string
	Count              string
	Shade              string
	Quantity           float64
	SentDate           string
	ExpectedReturnDate string
	Remarks            string
}

// CreateOrder registers a new dyeing order in pending state.
func (s *Service) CreateOrder(ctx context.Context, input OrderInput) (Order, error) {
	if input.PartyID == 0 {
		return Order{}, fmt.Errorf("%w: party is required", ErrInvalidOrder)
	}
	if input.Quantity <= 0 {
		return Order{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidOrder)
	}

	firmID := input.FirmID
	if firmID == 0 {
		firm, err := s.FindOrCreateFirm(ctx, input.FirmName, "", "")
		if err != nil {
			return Order{}, err
		}
		firmID = firm.ID
	} else {
		var firm Firm
		err := s.db.WithContext(ctx).Where("id = ?", firmID).Take(&firm).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Order{}, fmt.Errorf("%w: id %d", ErrFirmNotFound, firmID)
		}
		if err != nil {
			return Order{}, err
		}
	}

	now := s.clock().UTC().Unix()
	order := Order{
		PartyID:            input.PartyID,
		FirmID:             firmID,
		Count:              strings.TrimSpace(input.Count),
		Shade:              strings.TrimSpace(input.Shade),
		Quantity:           input.Quantity,
		Status:             StatusPending,
		SentDate:           strings.TrimSpace(input.SentDate),
		ExpectedReturnDate: strings.TrimSpace(input.ExpectedReturnDate),
		Remarks:            strings.TrimSpace(input.Remarks),
		CreatedAtSeconds:   now,
		UpdatedAtSeconds:   now,
	}
	if err := s.db.WithContext(ctx).Create(&order).Error; err != nil {
		return Order{}, err
	}
	return order, nil
}

// GetOrder loads one order by id.
func (s *Service) GetOrder(ctx context.Context, id uint) (Order, error) {
	var order Order
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Order{}, fmt.Errorf("%w: id %d", ErrOrderNotFound, id)
	}
	if err != nil {
		return Order{}, err
	}
	return order, nil
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	PartyID uint
	FirmID  uint
	Status  OrderStatus
}

// ListOrders returns orders matching the filter, newest first.
func (s *Service) ListOrders(ctx context.Context, filter OrderFilter) ([]Order, error) {
	query := s.db.WithContext(ctx).Model(&Order{})
	if filter.PartyID != 0 {
		query = query.Where("party_id = ?", filter.PartyID)
	}
	if filter.FirmID != 0 {
		query = query.Where("firm_id = ?", filter.FirmID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var orders []Order
	if err := query.Order("id DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// TransitionOrder moves an order to a new lifecycle state. ReceivedQuantity
// and ReceivedDate are applied on the transition to received.
func (s *Service) TransitionOrder(ctx context.Context, id uint, to OrderStatus, receivedQuantity float64, receivedDate string) (Order, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !canTransition(order.Status, to) {
		return Order{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, to)
	}

	order.Status = to
	if to == StatusReceived {
		order.ReceivedQuantity = receivedQuantity
		order.ReceivedDate = strings.TrimSpace(receivedDate)
	}
	order.UpdatedAtSeconds = s.clock().UTC().Unix()

	if err := s.db.WithContext(ctx).Save(&order).Error; err != nil {
		return Order{}, err
	}
	s.logger.Info("dyeing order transitioned",
		zap.Uint("order_id", order.ID),
		zap.String("status", string(to)))
	return order, nil
}

// DeleteOrder removes an order.
func (s *Service) DeleteOrder(ctx context.Context, id uint) error {
	if _, err := s.GetOrder(ctx, id); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&Order{}, id).Error
}
