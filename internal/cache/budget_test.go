package cache

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgnsrekt/incidentsync/internal/collect"
	"github.com/dgnsrekt/incidentsync/internal/data"
)

func TestClassifyDefaults(t *testing.T) {
	m, err := NewBudgetMonitor(DefaultHighBytes, DefaultCriticalBytes)
	require.NoError(t, err)

	assert.Equal(t, Normal, m.Classify(0))
	assert.Equal(t, Normal, m.Classify(DefaultHighBytes-1))
	assert.Equal(t, High, m.Classify(DefaultHighBytes))
	assert.Equal(t, High, m.Classify(DefaultCriticalBytes-1))
	assert.Equal(t, Critical, m.Classify(DefaultCriticalBytes))
}

func TestNewBudgetMonitorRejectsInvertedThresholds(t *testing.T) {
	_, err := NewBudgetMonitor(100, 50)
	assert.Error(t, err)
	_, err = NewBudgetMonitor(0, 50)
	assert.Error(t, err)
}

func TestEstimateSizeBytes(t *testing.T) {
	m, err := NewBudgetMonitor(DefaultHighBytes, DefaultCriticalBytes)
	require.NoError(t, err)

	items := []data.Record{{"id": 1, "title": "flood"}, {"id": 2, "title": "fire"}}
	want := int64(0)
	for _, it := range items {
		b, _ := json.Marshal(it)
		want += int64(len(b)) + 1
	}

	assert.Equal(t, want, m.EstimateSizeBytes(items))
	assert.Equal(t, want, m.EstimateSizeBytes(&collect.Run{Items: items}))
	assert.Equal(t, want, m.EstimateSizeBytes(&data.PageResult{Items: items}))
	assert.Equal(t, int64(0), m.EstimateSizeBytes(nil))
	assert.Equal(t, int64(len(`{"a":1}`)), m.EstimateSizeBytes(map[string]int{"a": 1}))

	size, level := m.Check(items)
	assert.Equal(t, want, size)
	assert.Equal(t, Normal, level)
}
