package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recovai/recovery-engine/internal/models"
)

func TestAmountLogTransform(t *testing.T) {
	fields := EngineeredFields()
	require.Equal(t, FieldAmountLog, fields[0].Name)

	v, ok := fields[0].Compute(models.AccountRecord{"amount": 250000.0})
	require.True(t, ok)
	assert.InDelta(t, math.Log1p(250000), v.(float64), 1e-12)

	// Negative amounts clamp to zero before the log.
	v, ok = fields[0].Compute(models.AccountRecord{"amount": -10.0})
	require.True(t, ok)
	assert.Equal(t, 0.0, v.(float64))

	// Absent amount behaves like zero.
	v, ok = fields[0].Compute(models.AccountRecord{})
	require.True(t, ok)
	assert.Equal(t, 0.0, v.(float64))
}

func TestBinDaysOverdue(t *testing.T) {
	tests := []struct {
		days float64
		want string
		ok   bool
	}{
		{0, "0-30", true},
		{30, "0-30", true},
		{31, "30-60", true},
		{60, "30-60", true},
		{61, "60-90", true},
		{90, "60-90", true},
		{91, "90+", true},
		{365, "90+", true},
		{-1, "", false},
	}

	for _, tt := range tests {
		got, ok := binDaysOverdue(tt.days)
		assert.Equal(t, tt.ok, ok, "days=%v", tt.days)
		assert.Equal(t, tt.want, got, "days=%v", tt.days)
	}
}

func TestBinPaymentHistory(t *testing.T) {
	tests := []struct {
		score float64
		want  string
		ok    bool
	}{
		{0, "poor", true},
		{0.4, "poor", true},
		{0.5, "fair", true},
		{0.6, "fair", true},
		{0.7, "good", true},
		{0.8, "good", true},
		{0.81, "excellent", true},
		{1.0, "excellent", true},
		{1.5, "", false},
		{-0.1, "", false},
	}

	for _, tt := range tests {
		got, ok := binPaymentHistory(tt.score)
		assert.Equal(t, tt.ok, ok, "score=%v", tt.score)
		assert.Equal(t, tt.want, got, "score=%v", tt.score)
	}
}
