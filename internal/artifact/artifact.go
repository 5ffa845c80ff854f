package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/recovai/recovery-engine/internal/utils"
)

// ModelBundle holds the three trained sub-models. All three were trained
// against the identical column ordering and are required together.
type ModelBundle struct {
	Classifier    *Ensemble `json:"classifier"`
	RegressorDays *Ensemble `json:"regressor_days"`
	RegressorPct  *Ensemble `json:"regressor_pct"`
}

// ModelArtifact is the immutable serialized bundle produced by the training
// pipeline. FeatureNames defines the only valid column order for any vector
// passed to any of the three models. Loaded once per process, read-only for
// the process lifetime.
type ModelArtifact struct {
	Models       ModelBundle `json:"models"`
	FeatureNames []string    `json:"feature_names"`
	Version      string      `json:"version"`
	TrainedAt    time.Time   `json:"trained_at"`
}

// Load reads and validates an artifact file. Schema problems are rejected
// here, at load time, never at first use.
func Load(path string, logger *logrus.Logger) (*ModelArtifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", utils.ErrArtifactMissing, path)
		}
		return nil, fmt.Errorf("reading artifact %s: %w", path, err)
	}

	var a ModelArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrArtifactMalformed, err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"path":       path,
		"version":    a.Version,
		"trained_at": a.TrainedAt,
		"features":   len(a.FeatureNames),
	}).Info("Model artifact loaded")

	return &a, nil
}

// Validate checks the artifact structure: all three models present, a
// non-empty ordered feature list, and internally consistent trees.
func (a *ModelArtifact) Validate() error {
	if len(a.FeatureNames) == 0 {
		return fmt.Errorf("%w: feature_names is empty", utils.ErrArtifactMalformed)
	}
	seen := make(map[string]struct{}, len(a.FeatureNames))
	for _, name := range a.FeatureNames {
		if name == "" {
			return fmt.Errorf("%w: feature_names contains an empty name", utils.ErrArtifactMalformed)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: duplicate feature name %q", utils.ErrArtifactMalformed, name)
		}
		seen[name] = struct{}{}
	}

	for _, m := range []struct {
		name  string
		model *Ensemble
	}{
		{"classifier", a.Models.Classifier},
		{"regressor_days", a.Models.RegressorDays},
		{"regressor_pct", a.Models.RegressorPct},
	} {
		if m.model == nil {
			return fmt.Errorf("%w: missing model %q", utils.ErrArtifactMalformed, m.name)
		}
		if err := m.model.Validate(len(a.FeatureNames)); err != nil {
			return fmt.Errorf("%w: model %q: %v", utils.ErrArtifactMalformed, m.name, err)
		}
	}
	return nil
}
