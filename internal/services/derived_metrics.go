package services

import (
	"math"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/recovai/recovery-engine/internal/models"
)

// Agency routing thresholds.
var (
	premiumAmountThreshold = decimal.NewFromInt(2_000_000)
	smbAmountThreshold     = decimal.NewFromInt(500_000)
)

const growthVolumeChangeThreshold = 0.20

// Collection agencies assigned by the routing table.
var (
	agencyPremium = models.AgencyRecommendation{Name: "Premium", Specialization: "High-value B2B"}
	agencyGrowth  = models.AgencyRecommendation{Name: "Growth-Focused", Specialization: "Expanding businesses"}
	agencyQuick   = models.AgencyRecommendation{Name: "Quick Collections", Specialization: "SMB"}
	agencyDefault = models.AgencyRecommendation{Name: "Standard Pool", Specialization: "General"}
)

// DerivedMetricsCalculator combines raw predictions into a risk tier, a
// composite velocity score, and an agency-routing recommendation. The rules
// are a closed, deterministic decision table so they stay auditable and
// testable independently of the model outputs.
type DerivedMetricsCalculator struct {
	logger *logrus.Logger
}

// NewDerivedMetricsCalculator creates a DerivedMetricsCalculator.
func NewDerivedMetricsCalculator(logger *logrus.Logger) *DerivedMetricsCalculator {
	return &DerivedMetricsCalculator{logger: logger}
}

// Derive applies the business rules to the raw predictions and account
// attributes.
func (c *DerivedMetricsCalculator) Derive(inference *models.InferenceResult, rec models.AccountRecord) models.DerivedMetrics {
	return models.DerivedMetrics{
		RiskLevel:         riskLevel(inference.Probability, inference.Days),
		VelocityScore:     velocityScore(inference.Probability, inference.Percentage, inference.Days),
		RecommendedAgency: routeAgency(rec),
	}
}

// velocityScore is a dimensionless monthly throughput proxy. The max(days,1)
// guard prevents division by zero or a negative day count from a regressor.
func velocityScore(probability, percentage, days float64) float64 {
	return probability * percentage / math.Max(days, 1) * 30
}

// riskLevel assigns the three-way tier. Probability and days are jointly
// required at each tier, first match wins.
func riskLevel(probability, days float64) string {
	switch {
	case probability > 0.75 && days < 30:
		return models.RiskLow
	case probability > 0.50 && days < 60:
		return models.RiskMedium
	default:
		return models.RiskHigh
	}
}

// routeAgency walks the mutually exclusive first-match rule list.
func routeAgency(rec models.AccountRecord) models.AgencyRecommendation {
	amount := rec.Amount()
	industry := rec.String(models.FieldIndustry)

	switch {
	case amount.GreaterThan(premiumAmountThreshold) && (industry == "Technology" || industry == "Healthcare"):
		return agencyPremium
	case rec.Float(models.FieldShipmentVolumeChange) > growthVolumeChangeThreshold:
		return agencyGrowth
	case amount.LessThan(smbAmountThreshold):
		return agencyQuick
	default:
		return agencyDefault
	}
}
