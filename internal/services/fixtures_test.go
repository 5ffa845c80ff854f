package services

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/recovai/recovery-engine/internal/artifact"
)

// testLogger returns a quiet logger for tests.
func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

// testFeatureNames is the column order used by the test artifact.
var testFeatureNames = []string{
	"amount_log",
	"days_overdue",
	"payment_history_score",
	"shipment_volume_change_30d",
}

// stump builds a single-split tree.
func stump(feature int, threshold, leftValue, rightValue, leftCover, rightCover float64, class int) artifact.Tree {
	return artifact.Tree{
		Class: class,
		Nodes: []artifact.Node{
			{Feature: feature, Threshold: threshold, Left: 1, Right: 2, Cover: leftCover + rightCover},
			{Leaf: true, Value: leftValue, Cover: leftCover},
			{Leaf: true, Value: rightValue, Cover: rightCover},
		},
	}
}

// singleStumpEnsemble wraps one stump into an ensemble.
func singleStumpEnsemble(feature int, threshold, leftValue, rightValue float64) *artifact.Ensemble {
	return &artifact.Ensemble{Trees: []artifact.Tree{stump(feature, threshold, leftValue, rightValue, 5, 5, 0)}}
}

// testModelArtifact builds a small deterministic artifact:
//   - classifier: payment_history_score < 0.5 -> 0.3, else 0.8
//   - regressor_days: days_overdue < 60 -> 25, else 80
//   - regressor_pct: payment_history_score < 0.5 -> 0.4, else 0.9
func testModelArtifact() *artifact.ModelArtifact {
	return &artifact.ModelArtifact{
		Models: artifact.ModelBundle{
			Classifier:    singleStumpEnsemble(2, 0.5, 0.3, 0.8),
			RegressorDays: singleStumpEnsemble(1, 60, 25, 80),
			RegressorPct:  singleStumpEnsemble(2, 0.5, 0.4, 0.9),
		},
		FeatureNames: testFeatureNames,
		Version:      "1.0.0-test",
		TrainedAt:    time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}
