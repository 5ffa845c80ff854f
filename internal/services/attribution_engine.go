package services

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/recovai/recovery-engine/internal/artifact"
	"github.com/recovai/recovery-engine/internal/models"
)

var titleCaser = cases.Title(language.English)

// DefaultTopFactors is the number of factors returned when no override is
// configured.
const DefaultTopFactors = 3

// AttributionEngine attributes the classifier's output for a single vector
// to the individual input features and reduces them to a ranked top-N list.
// Prediction availability never depends on it: any backend failure degrades
// to an empty result.
type AttributionEngine struct {
	classifier   *artifact.Ensemble
	featureNames []string
	labels       map[string]string
	topN         int
	logger       *logrus.Logger

	// The backend's concurrency contract is not relied upon; calls into it
	// are serialized so one request can never observe another's factors.
	mu sync.Mutex
}

// NewAttributionEngine creates an AttributionEngine. A topN of zero or less
// disables truncation. Labels map technical feature names to display names;
// unmapped names pass through unchanged.
func NewAttributionEngine(classifier *artifact.Ensemble, featureNames []string, labels map[string]string, topN int, logger *logrus.Logger) *AttributionEngine {
	return &AttributionEngine{
		classifier:   classifier,
		featureNames: featureNames,
		labels:       labels,
		topN:         topN,
		logger:       logger,
	}
}

// DefaultFeatureLabels returns the human-readable names for the technical
// feature columns.
func DefaultFeatureLabels() map[string]string {
	return map[string]string{
		"shipment_volume_change_30d": "Shipping Trend (30d)",
		"payment_history_score":      "Payment History",
		"days_overdue":               "Days Overdue",
		"amount_log":                 "Invoice Amount",
		"express_ratio":              "Express Shipping Usage",
		"destination_diversity":      "Customer Base Diversity",
	}
}

// Explain computes per-feature contributions for the vector. On any backend
// failure it returns an empty attribution list rather than an error.
func (e *AttributionEngine) Explain(ctx context.Context, vec []float64) models.AttributionResult {
	if e.classifier == nil {
		return models.AttributionResult{TopFactors: []models.TopFactor{}}
	}

	e.mu.Lock()
	out, err := e.classifier.ShapValues(vec, len(e.featureNames))
	e.mu.Unlock()
	if err != nil {
		e.logger.WithError(err).Warn("Attribution failed, returning empty factors")
		return models.AttributionResult{TopFactors: []models.TopFactor{}}
	}

	values, base := normalizeShap(out)
	return models.AttributionResult{
		TopFactors: e.rank(values),
		BaseValue:  base,
	}
}

// normalizeShap reduces every backend output shape to one flat per-feature
// array for the positive class plus its base value. All business logic runs
// on this canonical form only.
func normalizeShap(out *artifact.ShapOutput) ([]float64, float64) {
	var values []float64
	switch out.Shape {
	case artifact.ShapPerClass:
		values = out.Values[1]
	default:
		// ShapSingle and ShapPositiveOnly both carry one array that already
		// represents the positive class.
		values = out.Values[0]
	}

	base := out.Base[0]
	if len(out.Base) > 1 {
		base = out.Base[1]
	}
	return values, base
}

// rank sorts features by descending absolute impact, stable so that ties keep
// the original feature order, then truncates to topN.
func (e *AttributionEngine) rank(values []float64) []models.TopFactor {
	factors := make([]models.TopFactor, 0, len(values))
	for i, impact := range values {
		factors = append(factors, models.TopFactor{
			Feature:   e.displayName(e.featureNames[i]),
			Impact:    impact,
			Direction: impactDirection(impact),
		})
	}

	sort.SliceStable(factors, func(i, j int) bool {
		return abs(factors[i].Impact) > abs(factors[j].Impact)
	})

	if e.topN > 0 && len(factors) > e.topN {
		factors = factors[:e.topN]
	}
	return factors
}

// displayName maps a technical column name to its display label, falling back
// to title-cased words for names outside the map (one-hot composites mostly).
func (e *AttributionEngine) displayName(name string) string {
	if label, ok := e.labels[name]; ok {
		return label
	}
	return titleCaser.String(strings.ReplaceAll(name, "_", " "))
}

// impactDirection classifies an impact. Zero is negative by convention, not
// by fallthrough.
func impactDirection(impact float64) string {
	if impact > 0 {
		return models.DirectionPositive
	}
	return models.DirectionNegative
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
