package models

import "time"

// Risk tiers assigned by the derived metrics layer.
const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// Attribution directions.
const (
	DirectionPositive = "positive"
	DirectionNegative = "negative"
)

// TopFactor is a single per-feature contribution to the recovery probability.
type TopFactor struct {
	Feature   string  `json:"feature"`
	Impact    float64 `json:"impact"`
	Direction string  `json:"direction"`
}

// AttributionResult holds the ranked top contributing factors for one
// prediction plus the model's expected output before any contributions.
type AttributionResult struct {
	TopFactors []TopFactor `json:"top_factors"`
	BaseValue  float64     `json:"base_value"`
}

// AgencyRecommendation is the collection strategy assigned by the routing
// rule table.
type AgencyRecommendation struct {
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
}

// InferenceResult carries the raw outputs of the three models. Days and
// percentage are unconstrained regressor outputs; clamping happens at the
// response boundary.
type InferenceResult struct {
	Probability float64 `json:"probability"`
	Days        float64 `json:"days"`
	Percentage  float64 `json:"percentage"`
}

// DerivedMetrics combines raw predictions through the fixed business rules.
type DerivedMetrics struct {
	RiskLevel         string               `json:"risk_level"`
	VelocityScore     float64              `json:"velocity_score"`
	RecommendedAgency AgencyRecommendation `json:"recommended_agency"`
}

// PredictionResponse is the assembled, immutable result of one prediction
// request, intended for JSON serialization by the API layer.
type PredictionResponse struct {
	ID                    string               `json:"id"`
	AccountID             string               `json:"account_id"`
	CompanyName           string               `json:"company_name"`
	RecoveryProbability   float64              `json:"recovery_probability"`
	RecoveryPercentage    float64              `json:"recovery_percentage"`
	ExpectedDays          int                  `json:"expected_days"`
	RecoveryVelocityScore float64              `json:"recovery_velocity_score"`
	RiskLevel             string               `json:"risk_level"`
	RecommendedAgency     AgencyRecommendation `json:"recommended_agency"`
	TopFactors            []TopFactor          `json:"top_factors"`
	BaseValue             float64              `json:"base_value"`
	ModelVersion          string               `json:"model_version"`
	Timestamp             time.Time            `json:"timestamp"`
}
