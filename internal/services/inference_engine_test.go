package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recovai/recovery-engine/internal/artifact"
	"github.com/recovai/recovery-engine/internal/utils"
)

func TestInferProducesAllThreeOutputs(t *testing.T) {
	art := testModelArtifact()
	engine := NewInferenceEngine(&art.Models, testLogger())

	// payment_history_score 0.72, days_overdue 20
	vec := []float64{0, 20, 0.72, 0}
	result, err := engine.Infer(context.Background(), vec)
	require.NoError(t, err)

	assert.InDelta(t, 0.8, result.Probability, 1e-12)
	assert.InDelta(t, 25, result.Days, 1e-12)
	assert.InDelta(t, 0.9, result.Percentage, 1e-12)
}

func TestInferClampsProbabilityOnly(t *testing.T) {
	art := testModelArtifact()
	// Classifier emitting a score above one must be clamped.
	art.Models.Classifier = singleStumpEnsemble(2, 0.5, -0.3, 1.4)
	// Regressor emitting a negative day count passes through raw.
	art.Models.RegressorDays = singleStumpEnsemble(1, 60, -12, 80)

	engine := NewInferenceEngine(&art.Models, testLogger())

	result, err := engine.Infer(context.Background(), []float64{0, 20, 0.72, 0})
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.Probability)
	assert.Equal(t, -12.0, result.Days)

	result, err = engine.Infer(context.Background(), []float64{0, 20, 0.1, 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Probability)
}

func TestInferMissingSubModels(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(b *artifact.ModelBundle)
		model  string
	}{
		{"classifier", func(b *artifact.ModelBundle) { b.Classifier = nil }, "classifier"},
		{"days regressor", func(b *artifact.ModelBundle) { b.RegressorDays = nil }, "regressor_days"},
		{"pct regressor", func(b *artifact.ModelBundle) { b.RegressorPct = nil }, "regressor_pct"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			art := testModelArtifact()
			tt.mutate(&art.Models)
			engine := NewInferenceEngine(&art.Models, testLogger())

			_, err := engine.Infer(context.Background(), []float64{0, 0, 0, 0})
			require.Error(t, err)
			assert.True(t, utils.IsModelUnavailable(err))
			assert.Contains(t, err.Error(), tt.model)
		})
	}
}

func TestInferNilBundle(t *testing.T) {
	engine := NewInferenceEngine(nil, testLogger())
	_, err := engine.Infer(context.Background(), []float64{0})
	require.Error(t, err)
	assert.True(t, utils.IsModelUnavailable(err))
}
