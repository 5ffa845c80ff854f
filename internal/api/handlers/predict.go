package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/recovai/recovery-engine/internal/database"
	"github.com/recovai/recovery-engine/internal/models"
	"github.com/recovai/recovery-engine/internal/utils"
)

// Predictor runs the prediction pipeline for one account record.
type Predictor interface {
	Predict(ctx context.Context, rec models.AccountRecord) (*models.PredictionResponse, error)
	Ready() bool
	ModelVersion() string
}

// HistoryProvider serves stored prediction history for an account.
type HistoryProvider interface {
	GetHistory(ctx context.Context, accountID string, limit int) ([]*models.PredictionResponse, error)
}

type PredictHandler struct {
	predictor Predictor
	history   HistoryProvider
	logger    *logrus.Logger
}

func NewPredictHandler(predictor Predictor, history HistoryProvider, logger *logrus.Logger) *PredictHandler {
	return &PredictHandler{
		predictor: predictor,
		history:   history,
		logger:    logger,
	}
}

// Predict handles POST /api/v1/predict. The request body is a flat JSON
// object of account fields; unknown fields are accepted and ignored by the
// alignment layer.
func (h *PredictHandler) Predict(c *gin.Context) {
	if !h.predictor.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "prediction model is not loaded"})
		return
	}

	var record models.AccountRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON object"})
		return
	}
	if len(record) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must not be empty"})
		return
	}

	prediction, err := h.predictor.Predict(c.Request.Context(), record)
	if err != nil {
		switch {
		case utils.IsModelUnavailable(err):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		case utils.IsValidationError(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.WithError(err).Error("Prediction failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "prediction failed"})
		}
		return
	}

	c.JSON(http.StatusOK, prediction)
}

// GetHistory handles GET /api/v1/predictions/:account_id.
func (h *PredictHandler) GetHistory(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "prediction history is not enabled"})
		return
	}

	accountID := c.Param("account_id")
	if accountID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "account_id is required"})
		return
	}

	history, err := h.history.GetHistory(c.Request.Context(), accountID, 50)
	if err != nil {
		if errors.Is(err, database.ErrPredictionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no predictions for account"})
			return
		}
		h.logger.WithError(err).Error("Failed to load prediction history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load prediction history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account_id":  accountID,
		"predictions": history,
		"count":       len(history),
	})
}
