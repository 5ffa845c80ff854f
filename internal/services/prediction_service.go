package services

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/recovai/recovery-engine/internal/artifact"
	"github.com/recovai/recovery-engine/internal/features"
	"github.com/recovai/recovery-engine/internal/models"
)

// PredictionStore persists assembled responses. Persistence is best-effort
// supporting infrastructure; a store failure never fails the prediction.
type PredictionStore interface {
	SavePrediction(ctx context.Context, prediction *models.PredictionResponse) error
}

// PredictionCache caches assembled responses keyed by account and model
// version.
type PredictionCache interface {
	Get(ctx context.Context, accountID, modelVersion string) (*models.PredictionResponse, bool)
	Set(ctx context.Context, prediction *models.PredictionResponse)
}

// PredictionService wires the full pipeline: raw record, alignment, inference
// and attribution, derived metrics, assembly. Stateless across requests; the
// shared artifact is read-only for the process lifetime.
type PredictionService struct {
	art         *artifact.ModelArtifact
	aligner     *features.Aligner
	inference   *InferenceEngine
	attribution *AttributionEngine
	metrics     *DerivedMetricsCalculator
	assembler   *PredictionAssembler
	store       PredictionStore
	cache       PredictionCache
	logger      *logrus.Logger
	tracer      trace.Tracer
}

// Option configures optional collaborators of a PredictionService.
type Option func(*PredictionService)

// WithStore attaches a prediction history store.
func WithStore(store PredictionStore) Option {
	return func(s *PredictionService) { s.store = store }
}

// WithCache attaches a prediction response cache.
func WithCache(cache PredictionCache) Option {
	return func(s *PredictionService) { s.cache = cache }
}

// WithTopFactors overrides the number of attribution factors returned.
func WithTopFactors(n int) Option {
	return func(s *PredictionService) { s.attribution.topN = n }
}

// NewPredictionService builds the pipeline around a loaded artifact. The
// artifact may be nil when loading failed at startup; the service then
// reports not ready and every prediction fails with ModelUnavailable.
func NewPredictionService(art *artifact.ModelArtifact, logger *logrus.Logger, opts ...Option) *PredictionService {
	var bundle *artifact.ModelBundle
	var classifier *artifact.Ensemble
	var featureNames []string
	version := ""
	if art != nil {
		bundle = &art.Models
		classifier = art.Models.Classifier
		featureNames = art.FeatureNames
		version = art.Version
	}

	s := &PredictionService{
		art:         art,
		aligner:     features.NewAligner(logger),
		inference:   NewInferenceEngine(bundle, logger),
		attribution: NewAttributionEngine(classifier, featureNames, DefaultFeatureLabels(), DefaultTopFactors, logger),
		metrics:     NewDerivedMetricsCalculator(logger),
		assembler:   NewPredictionAssembler(version),
		logger:      logger,
		tracer:      otel.Tracer("recovery-engine/prediction"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ready reports whether a valid artifact is loaded and predictions can be
// served.
func (s *PredictionService) Ready() bool {
	return s.art != nil
}

// ModelVersion returns the loaded artifact version, empty when not ready.
func (s *PredictionService) ModelVersion() string {
	if s.art == nil {
		return ""
	}
	return s.art.Version
}

// Predict runs the pipeline for one account record.
func (s *PredictionService) Predict(ctx context.Context, rec models.AccountRecord) (*models.PredictionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.predict",
		trace.WithAttributes(attribute.String("account_id", rec.String(models.FieldAccountID))))
	defer span.End()

	accountID := rec.String(models.FieldAccountID)
	if s.cache != nil && accountID != "" {
		if cached, hit := s.cache.Get(ctx, accountID, s.ModelVersion()); hit {
			span.AddEvent("cache_hit")
			return cached, nil
		}
	}

	var featureNames []string
	if s.art != nil {
		featureNames = s.art.FeatureNames
	}
	vec := s.aligner.Align(rec, featureNames)

	inference, err := s.inference.Infer(ctx, vec)
	if err != nil {
		return nil, err
	}

	attribution := s.attribution.Explain(ctx, vec)
	if len(attribution.TopFactors) == 0 {
		attribution = placeholderAttribution(rec)
	}

	derived := s.metrics.Derive(inference, rec)
	response := s.assembler.Assemble(rec, inference, attribution, derived)

	s.logger.WithFields(logrus.Fields{
		"account_id":  response.AccountID,
		"probability": response.RecoveryProbability,
		"risk_level":  response.RiskLevel,
		"agency":      response.RecommendedAgency.Name,
	}).Info("Prediction complete")

	if s.store != nil {
		if err := s.store.SavePrediction(ctx, response); err != nil {
			s.logger.WithError(err).Warn("Failed to persist prediction")
		}
	}
	if s.cache != nil && accountID != "" {
		s.cache.Set(ctx, response)
	}
	return response, nil
}

// placeholderAttribution is the deterministic fallback used when the
// attribution engine degrades: the days-overdue signal with zero impact,
// directed by the 60-day mark.
func placeholderAttribution(rec models.AccountRecord) models.AttributionResult {
	direction := models.DirectionPositive
	if rec.Float(models.FieldDaysOverdue) > 60 {
		direction = models.DirectionNegative
	}
	return models.AttributionResult{
		TopFactors: []models.TopFactor{
			{Feature: "Days Overdue", Impact: 0, Direction: direction},
		},
	}
}
