package production

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// AggregatorConfig describes aggregator dependencies.
type AggregatorConfig struct {
	Store    Store
	Capacity *CapacityResolver
	Logger   *zap.Logger
}

// Aggregator builds the combined day+night view: raw records from the store
// are normalized into per-(machine, date) shells, merged with placeholder
// shifts, and annotated with efficiency percentages.
type Aggregator struct {
	store    Store
	capacity *CapacityResolver
	logger   *zap.Logger
}

// NewAggregator constructs the aggregator.
func NewAggregator(cfg AggregatorConfig) (*Aggregator, error) {
	if cfg.Store == nil {
		return nil, errors.New("production: aggregator requires a store")
	}
	if cfg.Capacity == nil {
		return nil, errors.New("production: aggregator requires a capacity resolver")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Aggregator{store: cfg.Store, capacity: cfg.Capacity, logger: logger}, nil
}

// CombinedPage is one page of merged entries. Pagination applies to the
// underlying raw records, matching the store contract.
type CombinedPage struct {
	Items      []CombinedEntry
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// ListCombined returns merged production entries for the filter.
func (a *Aggregator) ListCombined(ctx context.Context, filter Filter) (CombinedPage, error) {
	page, err := a.store.ListShiftRecords(ctx, filter)
	if err != nil {
		return CombinedPage{}, err
	}

	entries := a.Combine(ctx, page.Items)
	return CombinedPage{
		Items:      entries,
		Total:      page.Total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.TotalPages,
	}, nil
}

// Combine runs the normalize/merge/efficiency pipeline over raw records.
// Pure with respect to its input; merging the same set twice yields the
// same entries.
func (a *Aggregator) Combine(ctx context.Context, records []ShiftRecord) []CombinedEntry {
	shells := normalizeRecords(records, a.logger)
	entries := mergeShells(shells)
	for i := range entries {
		capacity := a.capacity.ResolveTheoreticalCapacity(ctx, entries[i])
		entries[i].TheoreticalProduction = capacity
		entries[i].Percentage = Percentage(entries[i].Total, capacity)
	}
	return entries
}
