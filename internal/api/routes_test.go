package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recovai/recovery-engine/internal/config"
	"github.com/recovai/recovery-engine/internal/models"
)

type stubPredictor struct {
	ready    bool
	version  string
	response *models.PredictionResponse
}

func (p *stubPredictor) Predict(_ context.Context, _ models.AccountRecord) (*models.PredictionResponse, error) {
	if p.response == nil {
		return nil, errors.New("no response configured")
	}
	return p.response, nil
}

func (p *stubPredictor) Ready() bool          { return p.ready }
func (p *stubPredictor) ModelVersion() string { return p.version }

func testRouter(predictor *stubPredictor, dbCheck, redisPing func() error) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	cfg := &config.Config{
		Server: config.ServerConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	SetupRoutes(router, cfg, predictor, nil, dbCheck, redisPing, logger)
	return router
}

func TestHealthEndpoint_Ready(t *testing.T) {
	router := testRouter(&stubPredictor{ready: true, version: "1.0.0"}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, "1.0.0", resp["model_version"])

	services, ok := resp["services"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "healthy", services["model"])
	assert.Equal(t, "disabled", services["database"])
	assert.Equal(t, "disabled", services["redis"])
}

func TestHealthEndpoint_ModelNotLoaded(t *testing.T) {
	router := testRouter(&stubPredictor{ready: false}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "not ready")
}

func TestHealthEndpoint_DegradedDatabase(t *testing.T) {
	dbCheck := func() error { return errors.New("connection refused") }
	router := testRouter(&stubPredictor{ready: true}, dbCheck, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "unhealthy")
}

func TestLivenessEndpoint(t *testing.T) {
	router := testRouter(&stubPredictor{ready: false}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORS_AllowedOrigin(t *testing.T) {
	router := testRouter(&stubPredictor{ready: true}, nil, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/predict", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_DisallowedOrigin(t *testing.T) {
	router := testRouter(&stubPredictor{ready: true}, nil, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/predict", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestPredictRoute_Wired(t *testing.T) {
	pred := &models.PredictionResponse{AccountID: "ACC-1001", RiskLevel: models.RiskLow}
	router := testRouter(&stubPredictor{ready: true, response: pred}, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(`{"account_id":"ACC-1001"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ACC-1001")
}
