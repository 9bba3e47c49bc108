package dashboard

import (
	"context"
	"errors"
	"sort"

	"github.com/rakshitjain7rj/erp-web-app-sub004/internal/dyeing"
	"github.com/rakshitjain7rj/erp-web-app-sub004/internal/parties"
	"github.com/rakshitjain7rj/erp-web-app-sub004/internal/production"
	"go.uber.org/zap"
)

// ProductionView supplies merged production entries.
type ProductionView interface {
	ListCombined(ctx context.Context, filter production.Filter) (production.CombinedPage, error)
}

// OrderLister supplies dyeing orders.
type OrderLister interface {
	ListOrders(ctx context.Context, filter dyeing.OrderFilter) ([]dyeing.Order, error)
}

// PartyLister supplies the customer registry.
type PartyLister interface {
	List(ctx context.Context) ([]parties.Party, error)
}

// ServiceConfig describes the dashboard's read-side dependencies.
type ServiceConfig struct {
	Production ProductionView
	Orders     OrderLister
	Parties    PartyLister
	Logger     *zap.Logger
}

// Service computes read-only summaries for the dashboard views. All output
// is derived on demand; nothing here is persisted.
type Service struct {
	production ProductionView
	orders     OrderLister
	parties    PartyLister
	logger     *zap.Logger
}

// NewService constructs the dashboard service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Production == nil {
		return nil, errors.New("dashboard: production view is required")
	}
	if cfg.Orders == nil {
		return nil, errors.New("dashboard: order lister is required")
	}
	if cfg.Parties == nil {
		return nil, errors.New("dashboard: party lister is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		production: cfg.Production,
		orders:     cfg.Orders,
		parties:    cfg.Parties,
		logger:     logger,
	}, nil
}

const summaryPageLimit = 500

func (s *Service) collectEntries(ctx context.Context, unit int, dateFrom, dateTo string) ([]production.CombinedEntry, error) {
	var entries []production.CombinedEntry
	page := 1
	for {
		combined, err := s.production.ListCombined(ctx, production.Filter{
			UnitID:   unit,
			DateFrom: dateFrom,
			DateTo:   dateTo,
			Page:     page,
			Limit:    summaryPageLimit,
		})
		if err != nil {
			return nil, err
		}
		entries = append(entries, combined.Items...)
		if page >= combined.TotalPages || len(combined.Items) == 0 {
			return entries, nil
		}
		page++
	}
}

// YarnTypeSummary aggregates production for one yarn type over a range.
type YarnTypeSummary struct {
	YarnType          string
	TotalQuantity     float64
	EntryCount        int
	AveragePercentage float64
}

// YarnSummary groups merged production entries by yarn type.
func (s *Service) YarnSummary(ctx context.Context, unit int, dateFrom, dateTo string) ([]YarnTypeSummary, error) {
	entries, err := s.collectEntries(ctx, unit, dateFrom, dateTo)
	if err != nil {
		return nil, err
	}

	type acc struct {
		quantity   float64
		percentage float64
		count      int
	}
	byType := make(map[string]*acc)
	for _, entry := range entries {
		yarnType := entry.YarnType
		if yarnType == "" {
			yarnType = "unspecified"
		}
		bucket, ok := byType[yarnType]
		if !ok {
			bucket = &acc{}
			byType[yarnType] = bucket
		}
		bucket.quantity += entry.Total
		bucket.percentage += entry.Percentage
		bucket.count++
	}

	summaries := make([]YarnTypeSummary, 0, len(byType))
	for yarnType, bucket := range byType {
		average := 0.0
		if bucket.count > 0 {
			average = bucket.percentage / float64(bucket.count)
		}
		summaries = append(summaries, YarnTypeSummary{
			YarnType:          yarnType,
			TotalQuantity:     bucket.quantity,
			EntryCount:        bucket.count,
			AveragePercentage: average,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].TotalQuantity > summaries[j].TotalQuantity
	})
	return summaries, nil
}

// MachinePerformance aggregates efficiency for one machine over a range.
type MachinePerformance struct {
	UnitID            int
	MachineNumber     int
	TotalQuantity     float64
	EntryCount        int
	AveragePercentage float64
}

// MachineSummary groups merged production entries by machine.
func (s *Service) MachineSummary(ctx context.Context, unit int, dateFrom, dateTo string) ([]MachinePerformance, error) {
	entries, err := s.collectEntries(ctx, unit, dateFrom, dateTo)
	if err != nil {
		return nil, err
	}

	type machineKey struct {
		unit   int
		number int
	}
	byMachine := make(map[machineKey]*MachinePerformance)
	for _, entry := range entries {
		key := machineKey{unit: entry.UnitID, number: entry.MachineNumber}
		perf, ok := byMachine[key]
		if !ok {
			perf = &MachinePerformance{UnitID: entry.UnitID, MachineNumber: entry.MachineNumber}
			byMachine[key] = perf
		}
		perf.TotalQuantity += entry.Total
		perf.AveragePercentage += entry.Percentage
		perf.EntryCount++
	}

	summaries := make([]MachinePerformance, 0, len(byMachine))
	for _, perf := range byMachine {
		if perf.EntryCount > 0 {
			perf.AveragePercentage /= float64(perf.EntryCount)
		}
		summaries = append(summaries, *perf)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].UnitID != summaries[j].UnitID {
			return summaries[i].UnitID < summaries[j].UnitID
		}
		return summaries[i].MachineNumber < summaries[j].MachineNumber
	})
	return summaries, nil
}

// PartyOrderSummary aggregates dyeing orders for one party.
type PartyOrderSummary struct {
	PartyID          uint
	PartyName        string
	TotalOrders      int
	PendingOrders    int
	CompletedOrders  int
	TotalQuantity    float64
	ReceivedQuantity float64
}

// PartySummary folds dyeing orders into per-party positions.
func (s *Service) PartySummary(ctx context.Context) ([]PartyOrderSummary, error) {
	allParties, err := s.parties.List(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.ListOrders(ctx, dyeing.OrderFilter{})
	if err != nil {
		return nil, err
	}

	byParty := make(map[uint]*PartyOrderSummary, len(allParties))
	for _, party := range allParties {
		byParty[party.ID] = &PartyOrderSummary{PartyID: party.ID, PartyName: party.Name}
	}
	for _, order := range orders {
		summary, ok := byParty[order.PartyID]
		if !ok {
			// order referencing a deleted party still counts
			summary = &PartyOrderSummary{PartyID: order.PartyID}
			byParty[order.PartyID] = summary
		}
		summary.TotalOrders++
		switch order.Status {
		case dyeing.StatusCompleted:
			summary.CompletedOrders++
		case dyeing.StatusPending:
			summary.PendingOrders++
		}
		summary.TotalQuantity += order.Quantity
		summary.ReceivedQuantity += order.ReceivedQuantity
	}

	summaries := make([]PartyOrderSummary, 0, len(byParty))
	for _, summary := range byParty {
		summaries = append(summaries, *summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].TotalOrders != summaries[j].TotalOrders {
			return summaries[i].TotalOrders > summaries[j].TotalOrders
		}
		return summaries[i].PartyID < summaries[j].PartyID
	})
	return summaries, nil
}
