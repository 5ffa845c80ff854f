package features

import (
	"github.com/sirupsen/logrus"

	"github.com/recovai/recovery-engine/internal/models"
)

// Aligner converts a raw account record into a fixed-order numeric feature
// vector matching the trained model's column order. It is total over its
// input domain: unknown fields are ignored, absent fields stay at the zero
// default, and unknown categorical values one-hot to all zeros.
type Aligner struct {
	logger *logrus.Logger
}

// NewAligner creates an Aligner.
func NewAligner(logger *logrus.Logger) *Aligner {
	return &Aligner{logger: logger}
}

// Align produces one float64 per entry of featureNames, in that exact order.
// Numeric fields copy directly, booleans coerce to {0,1}, and categorical
// fields set the "<field>_<value>" composite slot to 1 when the composite
// name exists in the schema.
func (a *Aligner) Align(rec models.AccountRecord, featureNames []string) []float64 {
	index := make(map[string]int, len(featureNames))
	for i, name := range featureNames {
		index[name] = i
	}

	vec := make([]float64, len(featureNames))
	matched := 0
	for field, raw := range a.merged(rec) {
		if a.setSlot(vec, index, field, raw) {
			matched++
		}
	}

	if matched == 0 && a.logger != nil {
		a.logger.WithField("fields", len(rec)).Warn("No record field matched the model schema")
	}
	return vec
}

// merged overlays the engineered fields on top of the raw record.
func (a *Aligner) merged(rec models.AccountRecord) models.AccountRecord {
	out := make(models.AccountRecord, len(rec)+4)
	for k, v := range rec {
		out[k] = v
	}
	for _, field := range EngineeredFields() {
		if v, ok := field.Compute(rec); ok {
			out[field.Name] = v
		}
	}
	return out
}

// setSlot writes one field into the vector, reporting whether it matched a
// schema column.
func (a *Aligner) setSlot(vec []float64, index map[string]int, field string, raw interface{}) bool {
	switch v := raw.(type) {
	case bool:
		if i, ok := index[field]; ok {
			if v {
				vec[i] = 1
			}
			return true
		}
	case string:
		// A numeric value arriving as a string still belongs to a numeric
		// column when one exists; otherwise the string is a category value.
		if i, ok := index[field]; ok {
			if f, numeric := models.CoerceFloat(v); numeric {
				vec[i] = f
				return true
			}
			return false
		}
		if v == "" {
			return false
		}
		if i, ok := index[field+"_"+v]; ok {
			vec[i] = 1
			return true
		}
	case nil:
		return false
	default:
		if f, ok := models.CoerceFloat(raw); ok {
			if i, present := index[field]; present {
				vec[i] = f
				return true
			}
		}
	}
	return false
}
