package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/recovai/recovery-engine/internal/artifact"
	"github.com/recovai/recovery-engine/internal/models"
	"github.com/recovai/recovery-engine/internal/utils"
)

// InferenceEngine runs the three trained models against an aligned feature
// vector. All three outputs are required together; there is no partial-result
// policy because downstream metrics combine them.
type InferenceEngine struct {
	bundle *artifact.ModelBundle
	logger *logrus.Logger
}

// NewInferenceEngine creates an InferenceEngine over a loaded model bundle.
// The bundle may be nil when the artifact failed to load; every Infer call
// then fails with ModelUnavailable while the process stays up.
func NewInferenceEngine(bundle *artifact.ModelBundle, logger *logrus.Logger) *InferenceEngine {
	return &InferenceEngine{bundle: bundle, logger: logger}
}

// Infer produces the raw predictions for one vector. Probability is clamped
// to [0,1]; days and percentage are returned exactly as the regressors emit
// them, clamping belongs to the response boundary.
func (e *InferenceEngine) Infer(ctx context.Context, vec []float64) (*models.InferenceResult, error) {
	if e.bundle == nil {
		return nil, utils.NewModelUnavailableError("artifact")
	}
	if e.bundle.Classifier == nil {
		return nil, utils.NewModelUnavailableError("classifier")
	}
	if e.bundle.RegressorDays == nil {
		return nil, utils.NewModelUnavailableError("regressor_days")
	}
	if e.bundle.RegressorPct == nil {
		return nil, utils.NewModelUnavailableError("regressor_pct")
	}

	result := &models.InferenceResult{
		Probability: clamp01(e.bundle.Classifier.Predict(vec)),
		Days:        e.bundle.RegressorDays.Predict(vec),
		Percentage:  e.bundle.RegressorPct.Predict(vec),
	}

	e.logger.WithFields(logrus.Fields{
		"probability": result.Probability,
		"days":        result.Days,
		"percentage":  result.Percentage,
	}).Debug("Inference complete")

	return result, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
