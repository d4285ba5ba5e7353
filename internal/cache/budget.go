package cache

import (
	"encoding/json"
	"fmt"

	"github.com/dgnsrekt/incidentsync/internal/collect"
	"github.com/dgnsrekt/incidentsync/internal/data"
)

// Level classifies an estimated footprint against the budget thresholds.
type Level int

const (
	Normal Level = iota
	High
	Critical
)

func (l Level) String() string {
	switch l {
	case High:
		return "high"
	case Critical:
		return "critical"
	default:
		return "normal"
	}
}

const (
	DefaultHighBytes     int64 = 50 << 20
	DefaultCriticalBytes int64 = 100 << 20
)

// BudgetMonitor estimates how much memory collected data holds and flags
// soft and hard thresholds. It only reports; nothing is evicted on its behalf.
type BudgetMonitor struct {
	high     int64
	critical int64
}

func NewBudgetMonitor(high, critical int64) (*BudgetMonitor, error) {
	if high <= 0 || critical <= 0 {
		return nil, fmt.Errorf("budget thresholds must be positive (high=%d critical=%d)", high, critical)
	}
	if critical <= high {
		return nil, fmt.Errorf("critical threshold %d must exceed high threshold %d", critical, high)
	}
	return &BudgetMonitor{high: high, critical: critical}, nil
}

// EstimateSizeBytes approximates the resident size of v by its JSON encoding.
func (m *BudgetMonitor) EstimateSizeBytes(v any) int64 {
	switch val := v.(type) {
	case nil:
		return 0
	case *collect.Run:
		if val == nil {
			return 0
		}
		return recordsSize(val.Items)
	case *data.PageResult:
		if val == nil {
			return 0
		}
		return recordsSize(val.Items)
	case []data.Record:
		return recordsSize(val)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return 0
		}
		return int64(len(b))
	}
}

func (m *BudgetMonitor) Classify(sizeBytes int64) Level {
	switch {
	case sizeBytes >= m.critical:
		return Critical
	case sizeBytes >= m.high:
		return High
	default:
		return Normal
	}
}

// Check estimates v and classifies the result in one step.
func (m *BudgetMonitor) Check(v any) (int64, Level) {
	size := m.EstimateSizeBytes(v)
	return size, m.Classify(size)
}

func recordsSize(items []data.Record) int64 {
	var total int64
	for _, r := range items {
		b, err := json.Marshal(r)
		if err != nil {
			continue
		}
		total += int64(len(b)) + 1 // separator
	}
	return total
}
