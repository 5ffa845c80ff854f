package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recovai/recovery-engine/internal/models"
	"github.com/recovai/recovery-engine/internal/utils"
)

type fakePredictor struct {
	ready    bool
	version  string
	response *models.PredictionResponse
	err      error
	lastRec  models.AccountRecord
}

func (p *fakePredictor) Predict(_ context.Context, rec models.AccountRecord) (*models.PredictionResponse, error) {
	p.lastRec = rec
	if p.err != nil {
		return nil, p.err
	}
	return p.response, nil
}

func (p *fakePredictor) Ready() bool          { return p.ready }
func (p *fakePredictor) ModelVersion() string { return p.version }

type fakeHistory struct {
	predictions []*models.PredictionResponse
	err         error
}

func (h *fakeHistory) GetHistory(_ context.Context, _ string, _ int) ([]*models.PredictionResponse, error) {
	if h.err != nil {
		return nil, h.err
	}
	return h.predictions, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func samplePrediction() *models.PredictionResponse {
	return &models.PredictionResponse{
		ID:                  "pred-0001",
		AccountID:           "ACC-1001",
		CompanyName:         "Meridian Freight",
		RecoveryProbability: 0.8,
		RecoveryPercentage:  0.9,
		ExpectedDays:        25,
		RiskLevel:           models.RiskLow,
		RecommendedAgency:   models.AgencyRecommendation{Name: "Quick Collections", Specialization: "SMB"},
		ModelVersion:        "1.0.0",
		Timestamp:           time.Date(2026, 6, 15, 8, 0, 0, 0, time.UTC),
	}
}

func setupPredictRouter(predictor Predictor, history HistoryProvider) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewPredictHandler(predictor, history, testLogger())
	router.POST("/api/v1/predict", handler.Predict)
	router.GET("/api/v1/predictions/:account_id", handler.GetHistory)
	return router
}

func TestPredict_Success(t *testing.T) {
	predictor := &fakePredictor{ready: true, version: "1.0.0", response: samplePrediction()}
	router := setupPredictRouter(predictor, nil)

	body := `{"account_id":"ACC-1001","amount":100000,"days_overdue":20}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.PredictionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ACC-1001", resp.AccountID)
	assert.InDelta(t, 0.8, resp.RecoveryProbability, 1e-12)

	// Raw fields reach the pipeline untouched.
	assert.Equal(t, "ACC-1001", predictor.lastRec["account_id"])
	assert.Equal(t, 20.0, predictor.lastRec["days_overdue"])
}

func TestPredict_NotReady(t *testing.T) {
	router := setupPredictRouter(&fakePredictor{ready: false}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(`{"account_id":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "not loaded")
}

func TestPredict_InvalidBody(t *testing.T) {
	router := setupPredictRouter(&fakePredictor{ready: true}, nil)

	for _, body := range []string{`not json`, `[1,2,3]`, `{}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
	}
}

func TestPredict_ModelUnavailableError(t *testing.T) {
	predictor := &fakePredictor{
		ready: true,
		err:   &utils.ModelUnavailableError{Model: "classifier"},
	}
	router := setupPredictRouter(predictor, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(`{"account_id":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestPredict_InternalError(t *testing.T) {
	predictor := &fakePredictor{ready: true, err: errors.New("boom")}
	router := setupPredictRouter(predictor, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(`{"account_id":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	// Internal details never leak to the client.
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestGetHistory_Success(t *testing.T) {
	history := &fakeHistory{predictions: []*models.PredictionResponse{samplePrediction()}}
	router := setupPredictRouter(&fakePredictor{ready: true}, history)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/predictions/ACC-1001", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		AccountID   string                       `json:"account_id"`
		Predictions []*models.PredictionResponse `json:"predictions"`
		Count       int                          `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ACC-1001", resp.AccountID)
	assert.Equal(t, 1, resp.Count)
}

func TestGetHistory_Disabled(t *testing.T) {
	router := setupPredictRouter(&fakePredictor{ready: true}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/predictions/ACC-1001", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotImplemented, w.Code)
}
