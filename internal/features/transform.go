package features

import (
	"math"

	"github.com/recovai/recovery-engine/internal/models"
)

// EngineeredField is one named, deterministic scalar derivation applied to a
// raw account record before alignment. The list returned by EngineeredFields
// is the single source of truth for these transforms: the training pipeline
// consumes the same definitions, so training and inference cannot drift.
type EngineeredField struct {
	Name string
	// Compute derives the field value. The second return is false when the
	// input falls outside the transform's domain, in which case the field is
	// simply not produced.
	Compute func(rec models.AccountRecord) (interface{}, bool)
}

// Engineered field names.
const (
	FieldAmountLog              = "amount_log"
	FieldDaysOverdueCategory    = "days_overdue_category"
	FieldPaymentHistoryCategory = "payment_history_category"
)

// EngineeredFields returns the ordered engineered field definitions.
func EngineeredFields() []EngineeredField {
	return []EngineeredField{
		{
			Name: FieldAmountLog,
			Compute: func(rec models.AccountRecord) (interface{}, bool) {
				amount := rec.Float(models.FieldAmount)
				if amount < 0 {
					amount = 0
				}
				return math.Log1p(amount), true
			},
		},
		{
			Name: FieldDaysOverdueCategory,
			Compute: func(rec models.AccountRecord) (interface{}, bool) {
				return binDaysOverdue(rec.Float(models.FieldDaysOverdue))
			},
		},
		{
			Name: FieldPaymentHistoryCategory,
			Compute: func(rec models.AccountRecord) (interface{}, bool) {
				return binPaymentHistory(rec.Float(models.FieldPaymentHistoryScore))
			},
		},
	}
}

// binDaysOverdue buckets days overdue into the bands the models were trained
// on. Values outside [0, inf) produce no category.
func binDaysOverdue(days float64) (string, bool) {
	switch {
	case days < 0:
		return "", false
	case days <= 30:
		return "0-30", true
	case days <= 60:
		return "30-60", true
	case days <= 90:
		return "60-90", true
	default:
		return "90+", true
	}
}

// binPaymentHistory buckets a payment history score in [0, 1]. Out-of-range
// scores produce no category.
func binPaymentHistory(score float64) (string, bool) {
	switch {
	case score < 0 || score > 1:
		return "", false
	case score <= 0.4:
		return "poor", true
	case score <= 0.6:
		return "fair", true
	case score <= 0.8:
		return "good", true
	default:
		return "excellent", true
	}
}
