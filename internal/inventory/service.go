package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrEntryNotFound indicates the referenced stock entry does not exist.
	ErrEntryNotFound = errors.New("inventory: stock entry not found")
	// ErrInvalidEntry indicates a stock entry missing required fields.
	ErrInvalidEntry = errors.New("inventory: invalid stock entry")
)

// ServiceConfig describes the dependencies for inventory management.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service manages the count-product stock ledger.
type Service struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewService constructs the inventory service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errors.New("inventory: database handle is required")
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

// EntryInput carries one stock ledger line.
type EntryInput struct {
	Count     string
	YarnType  string
	Lot       string
	Movement  MovementKind
	Quantity  float64
	Remarks   string
	EntryDate string
}

// Record appends one stock movement to the ledger.
func (s *Service) Record(ctx context.Context, input EntryInput) (StockEntry, error) {
	count := strings.TrimSpace(input.Count)
	if count == "" {
		return StockEntry{}, fmt.Errorf("%w: count is required", ErrInvalidEntry)
	}
	if input.Quantity <= 0 {
		return StockEntry{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidEntry)
	}
	if _, err := ParseMovementKind(string(input.Movement)); err != nil {
		return StockEntry{}, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	entry := StockEntry{
		Count:            count,
		YarnType:         strings.TrimSpace(input.YarnType),
		Lot:              strings.TrimSpace(input.Lot),
		Movement:         input.Movement,
		Quantity:         input.Quantity,
		Remarks:          strings.TrimSpace(input.Remarks),
		EntryDate:        strings.TrimSpace(input.EntryDate),
		CreatedAtSeconds: s.clock().UTC().Unix(),
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return StockEntry{}, err
	}
	return entry, nil
}

// List returns ledger lines, newest first, optionally narrowed to one count.
func (s *Service) List(ctx context.Context, count string) ([]StockEntry, error) {
	query := s.db.WithContext(ctx).Model(&StockEntry{})
	if trimmed := strings.TrimSpace(count); trimmed != "" {
		query = query.Where("yarn_count = ?", trimmed)
	}
	var entries []StockEntry
	if err := query.Order("id DESC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Delete removes one ledger line.
func (s *Service) Delete(ctx context.Context, id uint) error {
	var entry StockEntry
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: id %d", ErrEntryNotFound, id)
	}
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&StockEntry{}, id).Error
}

// Summary folds the ledger into per-count positions.
func (s *Service) Summary(ctx context.Context) ([]CountStock, error) {
	var entries []StockEntry
	if err := s.db.WithContext(ctx).Find(&entries).Error; err != nil {
		return nil, err
	}

	byCount := make(map[string]*CountStock)
	for _, entry := range entries {
		stock, ok := byCount[entry.Count]
		if !ok {
			stock = &CountStock{Count: entry.Count}
			byCount[entry.Count] = stock
		}
		switch entry.Movement {
		case MovementIn:
			stock.In += entry.Quantity
		case MovementOut:
			stock.Out += entry.Quantity
		}
		if entry.EntryDate > stock.LastDate {
			stock.LastDate = entry.EntryDate
		}
	}

	summary := make([]CountStock, 0, len(byCount))
	for _, stock := range byCount {
		stock.OnHand = stock.In - stock.Out
		summary = append(summary, *stock)
	}
	sort.Slice(summary, func(i, j int) bool { return summary[i].Count < summary[j].Count })
	return summary, nil
}
