package services

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/recovai/recovery-engine/internal/models"
)

// UnknownAccountID is the placeholder used when a request carries no account
// identifier. The request is not rejected; this is a deliberate contract.
const UnknownAccountID = "Unknown"

// PredictionAssembler composes the pipeline outputs into the final response
// record. Pure composition: no prediction math happens here, only boundary
// clamping and identity defaults.
type PredictionAssembler struct {
	modelVersion string
	now          func() time.Time
	newID        func() string
}

// NewPredictionAssembler creates a PredictionAssembler stamping responses
// with the given model version.
func NewPredictionAssembler(modelVersion string) *PredictionAssembler {
	return &PredictionAssembler{
		modelVersion: modelVersion,
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

// Assemble builds the immutable response record.
func (p *PredictionAssembler) Assemble(rec models.AccountRecord, inference *models.InferenceResult, attribution models.AttributionResult, derived models.DerivedMetrics) *models.PredictionResponse {
	accountID := rec.String(models.FieldAccountID)
	if accountID == "" {
		accountID = UnknownAccountID
	}

	return &models.PredictionResponse{
		ID:                    p.newID(),
		AccountID:             accountID,
		CompanyName:           rec.String(models.FieldCompanyName),
		RecoveryProbability:   inference.Probability,
		RecoveryPercentage:    clamp01(inference.Percentage),
		ExpectedDays:          expectedDays(inference.Days),
		RecoveryVelocityScore: derived.VelocityScore,
		RiskLevel:             derived.RiskLevel,
		RecommendedAgency:     derived.RecommendedAgency,
		TopFactors:            attribution.TopFactors,
		BaseValue:             attribution.BaseValue,
		ModelVersion:          p.modelVersion,
		Timestamp:             p.now().UTC(),
	}
}

// expectedDays rounds the raw regressor output to a non-negative integer.
// Regressors are unconstrained and can emit negative or fractional values.
func expectedDays(days float64) int {
	if days < 0 {
		return 0
	}
	return int(math.Round(days))
}
