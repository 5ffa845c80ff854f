package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/recovai/recovery-engine/internal/models"
)

// DatabasePool defines the interface for database pool operations.
// This interface allows for both real pool and mock pool implementations.
type DatabasePool interface {
	// QueryRow executes a query that is expected to return at most one row.
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	// Exec executes a query without returning any rows.
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	// Query executes a query that returns rows.
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// ErrPredictionNotFound is returned when no prediction exists for a lookup.
var ErrPredictionNotFound = errors.New("prediction not found")

// PredictionRepository persists assembled prediction responses. Ranked factors
// are stored as a JSONB document alongside the scalar columns so history rows
// round-trip the full response.
type PredictionRepository struct {
	pool DatabasePool
}

// NewPredictionRepository creates a new prediction repository.
func NewPredictionRepository(pool DatabasePool) *PredictionRepository {
	return &PredictionRepository{
		pool: pool,
	}
}

// SavePrediction inserts one prediction response into the history table.
func (r *PredictionRepository) SavePrediction(ctx context.Context, p *models.PredictionResponse) error {
	if p == nil {
		return errors.New("nil prediction")
	}

	factors, err := json.Marshal(p.TopFactors)
	if err != nil {
		return fmt.Errorf("failed to serialize top factors: %w", err)
	}

	query := `
		INSERT INTO prediction_history (
			id, account_id, company_name,
			recovery_probability, recovery_percentage, expected_days,
			recovery_velocity_score, risk_level,
			agency_name, agency_specialization,
			top_factors, base_value, model_version, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err = r.pool.Exec(ctx, query,
		p.ID,
		p.AccountID,
		p.CompanyName,
		p.RecoveryProbability,
		p.RecoveryPercentage,
		p.ExpectedDays,
		p.RecoveryVelocityScore,
		p.RiskLevel,
		p.RecommendedAgency.Name,
		p.RecommendedAgency.Specialization,
		factors,
		p.BaseValue,
		p.ModelVersion,
		p.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to save prediction: %w", err)
	}

	return nil
}

// GetLatestForAccount returns the most recent stored prediction for an
// account, or ErrPredictionNotFound.
func (r *PredictionRepository) GetLatestForAccount(ctx context.Context, accountID string) (*models.PredictionResponse, error) {
	query := `
		SELECT id, account_id, company_name,
		       recovery_probability, recovery_percentage, expected_days,
		       recovery_velocity_score, risk_level,
		       agency_name, agency_specialization,
		       top_factors, base_value, model_version, created_at
		FROM prediction_history
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	p, err := scanPrediction(r.pool.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPredictionNotFound
		}
		return nil, fmt.Errorf("failed to get prediction for account %s: %w", accountID, err)
	}

	return p, nil
}

// GetHistory returns stored predictions for an account, newest first.
func (r *PredictionRepository) GetHistory(ctx context.Context, accountID string, limit int) ([]*models.PredictionResponse, error) {
	query := `
		SELECT id, account_id, company_name,
		       recovery_probability, recovery_percentage, expected_days,
		       recovery_velocity_score, risk_level,
		       agency_name, agency_specialization,
		       top_factors, base_value, model_version, created_at
		FROM prediction_history
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction history: %w", err)
	}
	defer rows.Close()

	var predictions []*models.PredictionResponse
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction history row: %w", err)
		}
		predictions = append(predictions, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prediction history: %w", err)
	}

	return predictions, nil
}

// DeleteOlderThan removes history rows older than the given number of days,
// returning how many were deleted.
func (r *PredictionRepository) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	query := `
		DELETE FROM prediction_history
		WHERE created_at < CURRENT_TIMESTAMP - make_interval(days => $1)
	`

	result, err := r.pool.Exec(ctx, query, days)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old predictions: %w", err)
	}

	return result.RowsAffected(), nil
}

func scanPrediction(row pgx.Row) (*models.PredictionResponse, error) {
	var p models.PredictionResponse
	var factors []byte
	err := row.Scan(
		&p.ID,
		&p.AccountID,
		&p.CompanyName,
		&p.RecoveryProbability,
		&p.RecoveryPercentage,
		&p.ExpectedDays,
		&p.RecoveryVelocityScore,
		&p.RiskLevel,
		&p.RecommendedAgency.Name,
		&p.RecommendedAgency.Specialization,
		&factors,
		&p.BaseValue,
		&p.ModelVersion,
		&p.Timestamp,
	)
	if err != nil {
		return nil, err
	}

	if len(factors) > 0 {
		if err := json.Unmarshal(factors, &p.TopFactors); err != nil {
			return nil, fmt.Errorf("failed to deserialize top factors: %w", err)
		}
	}

	return &p, nil
}
