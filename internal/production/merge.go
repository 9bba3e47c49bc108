package production

import (
	"math"
	"sort"

	"go.uber.org/zap"
)

// normalizeRecords routes raw per-shift records into per-(machine, date)
// combined-entry shells. Records with an unrecognized shift designator are
// skipped with a warning; they never abort the aggregation.
func normalizeRecords(records []ShiftRecord, logger *zap.Logger) map[entryKey]*CombinedEntry {
	shells := make(map[entryKey]*CombinedEntry, len(records))

	for _, record := range records {
		shift, err := ParseShiftKind(string(record.Shift))
		if err != nil {
			logger.Warn("skipping record with unknown shift designator",
				zap.Uint("record_id", record.ID),
				zap.String("shift", string(record.Shift)))
			continue
		}

		key := entryKey{unit: record.UnitID, machineNumber: record.MachineNumber, date: record.Date}
		shell, ok := shells[key]
		if !ok {
			shell = &CombinedEntry{
				UnitID:        record.UnitID,
				MachineNumber: record.MachineNumber,
				Date:          record.Date,
			}
			shells[key] = shell
		}

		slot := ShiftSlot{
			RecordID:     record.ID,
			Quantity:     sanitizeQuantity(record.Quantity, record.ID, logger),
			WorkerName:   record.WorkerName,
			MainsReading: record.MainsReading,
		}
		switch shift {
		case ShiftDay:
			shell.Day = slot
		case ShiftNight:
			shell.Night = slot
		}

		if shell.YarnType == "" {
			shell.YarnType = record.YarnType
		}
		if shell.TheoreticalProduction == 0 && record.TheoreticalProduction > 0 {
			shell.TheoreticalProduction = record.TheoreticalProduction
		}
	}

	return shells
}

// mergeShells finalizes the shells: any one-sided entry gets a synthesized
// zero-quantity placeholder for the missing shift, carrying the sibling's
// theoretical production so percentage computation stays well-defined.
// Output is ordered newest date first, then by unit and machine number.
func mergeShells(shells map[entryKey]*CombinedEntry) []CombinedEntry {
	entries := make([]CombinedEntry, 0, len(shells))
	for _, shell := range shells {
		if shell.Day.RecordID == 0 && !shell.Day.Synthesized {
			shell.Day = ShiftSlot{Synthesized: true}
		}
		if shell.Night.RecordID == 0 && !shell.Night.Synthesized {
			shell.Night = ShiftSlot{Synthesized: true}
		}
		shell.Total = shell.Day.Quantity + shell.Night.Quantity
		entries = append(entries, *shell)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date > entries[j].Date
		}
		if entries[i].UnitID != entries[j].UnitID {
			return entries[i].UnitID < entries[j].UnitID
		}
		return entries[i].MachineNumber < entries[j].MachineNumber
	})
	return entries
}

// sanitizeQuantity coerces non-finite values to 0 so NaN never reaches a
// total or percentage.
func sanitizeQuantity(value float64, recordID uint, logger *zap.Logger) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		logger.Warn("coercing non-finite quantity to zero", zap.Uint("record_id", recordID))
		return 0
	}
	return value
}
