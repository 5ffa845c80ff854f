package models

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// AccountRecord is an open-ended mapping of field name to scalar value,
// supplied per prediction request. Fields the pipeline does not recognize are
// ignored; absent fields fall back to a neutral default.
type AccountRecord map[string]interface{}

// Well-known account fields used by the business rule layer.
const (
	FieldAccountID            = "account_id"
	FieldCompanyName          = "company_name"
	FieldAmount               = "amount"
	FieldDaysOverdue          = "days_overdue"
	FieldPaymentHistoryScore  = "payment_history_score"
	FieldShipmentVolumeChange = "shipment_volume_change_30d"
	FieldIndustry             = "industry"
	FieldRegion               = "region"
)

// Float returns the named field coerced to float64. Malformed or absent
// values coerce to zero rather than failing, because request payloads are not
// guaranteed to match the training schema.
func (r AccountRecord) Float(key string) float64 {
	v, ok := r[key]
	if !ok {
		return 0
	}
	f, ok := CoerceFloat(v)
	if !ok {
		return 0
	}
	return f
}

// Bool returns the named field coerced to bool, false on absence or mismatch.
func (r AccountRecord) Bool(key string) bool {
	v, ok := r[key]
	if !ok {
		return false
	}
	b, ok := CoerceBool(v)
	if !ok {
		return false
	}
	return b
}

// String returns the named field as a trimmed string, empty on absence.
func (r AccountRecord) String(key string) string {
	v, ok := r[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// Amount returns the monetary amount as an exact decimal. Non-numeric values
// coerce to zero.
func (r AccountRecord) Amount() decimal.Decimal {
	return decimal.NewFromFloat(r.Float(FieldAmount))
}

// CoerceFloat converts a scalar of any JSON-compatible type to float64.
func CoerceFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// CoerceBool converts a scalar of any JSON-compatible type to bool.
func CoerceBool(v interface{}) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case float64:
		return val != 0, true
	case int:
		return val != 0, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err != nil {
			return false, false
		}
		return b, true
	default:
		return false, false
	}
}
