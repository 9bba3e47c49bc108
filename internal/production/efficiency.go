package production

import (
	"context"
	"errors"
	"math"

	"go.uber.org/zap"
)

// MachineCapacitySource answers capacity questions about a machine: its
// historical configuration snapshots and its current configuration.
type MachineCapacitySource interface {
	HistoricalCapacity(ctx context.Context, unit, machineNumber int, date string) (float64, error)
	CurrentCapacity(ctx context.Context, unit, machineNumber int) (float64, error)
}

// CapacityResolverConfig describes the dependencies for capacity resolution.
type CapacityResolverConfig struct {
	Machines MachineCapacitySource
	// Fallback is the capacity used when every other source comes up empty.
	// A deliberate configured default, not a derived value.
	Fallback float64
	Logger   *zap.Logger
}

type capacityResolverFunc func(ctx context.Context, entry CombinedEntry) (float64, bool, error)

// CapacityResolver resolves the theoretical-100%-output denominator for a
// combined entry by evaluating an ordered list of sources and returning the
// first positive value: historical snapshot, the entry's own stored value,
// the machine's current configuration, then the configured fallback.
type CapacityResolver struct {
	resolvers []capacityResolverFunc
	fallback  float64
	logger    *zap.Logger
}

// NewCapacityResolver constructs the resolver chain.
func NewCapacityResolver(cfg CapacityResolverConfig) (*CapacityResolver, error) {
	if cfg.Fallback <= 0 {
		return nil, errors.New("production: fallback capacity must be positive")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	resolver := &CapacityResolver{fallback: cfg.Fallback, logger: logger}

	if cfg.Machines != nil {
		resolver.resolvers = append(resolver.resolvers, func(ctx context.Context, entry CombinedEntry) (float64, bool, error) {
			capacity, err := cfg.Machines.HistoricalCapacity(ctx, entry.UnitID, entry.MachineNumber, entry.Date)
			if err != nil {
				return 0, false, err
			}
			return capacity, capacity > 0, nil
		})
	}
	resolver.resolvers = append(resolver.resolvers, func(_ context.Context, entry CombinedEntry) (float64, bool, error) {
		return entry.TheoreticalProduction, entry.TheoreticalProduction > 0, nil
	})
	if cfg.Machines != nil {
		resolver.resolvers = append(resolver.resolvers, func(ctx context.Context, entry CombinedEntry) (float64, bool, error) {
			capacity, err := cfg.Machines.CurrentCapacity(ctx, entry.UnitID, entry.MachineNumber)
			if err != nil {
				return 0, false, err
			}
			return capacity, capacity > 0, nil
		})
	}

	return resolver, nil
}

// ResolveTheoreticalCapacity evaluates the resolver chain. A failing source
// is logged and skipped; the configured fallback guarantees a positive
// result, so downstream division is always defined.
func (r *CapacityResolver) ResolveTheoreticalCapacity(ctx context.Context, entry CombinedEntry) float64 {
	for _, resolve := range r.resolvers {
		capacity, ok, err := resolve(ctx, entry)
		if err != nil {
			r.logger.Warn("capacity source failed, trying next",
				zap.Int("unit", entry.UnitID),
				zap.Int("machine_number", entry.MachineNumber),
				zap.String("date", entry.Date),
				zap.Error(err))
			continue
		}
		if ok {
			return capacity
		}
	}
	return r.fallback
}

// Percentage computes total/capacity*100 guarded against a non-positive
// capacity and non-finite inputs. Returns 0 rather than NaN or Infinity.
func Percentage(total, capacity float64) float64 {
	if capacity <= 0 || math.IsNaN(total) || math.IsInf(total, 0) ||
		math.IsNaN(capacity) || math.IsInf(capacity, 0) {
		return 0
	}
	result := total / capacity * 100
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0
	}
	return result
}
