package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

var startTime = time.Now()

type HealthHandler struct {
	predictor Predictor
	dbCheck   func() error
	redisPing func() error
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Timestamp    time.Time         `json:"timestamp"`
	ModelVersion string            `json:"model_version,omitempty"`
	Services     map[string]string `json:"services"`
	Uptime       string            `json:"uptime"`
	System       SystemStats       `json:"system"`
}

// SystemStats is a small process and host resource snapshot.
type SystemStats struct {
	Goroutines    int     `json:"goroutines"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
}

// NewHealthHandler builds the health endpoint. dbCheck and redisPing are nil
// when the corresponding backend is disabled; disabled backends report
// "disabled" and never degrade overall status.
func NewHealthHandler(predictor Predictor, dbCheck, redisPing func() error) *HealthHandler {
	return &HealthHandler{
		predictor: predictor,
		dbCheck:   dbCheck,
		redisPing: redisPing,
	}
}

// Health handles GET /health. The model gates readiness: without a loaded
// artifact the service reports not ready with 503 so orchestrators hold
// traffic, while the process itself stays up.
func (h *HealthHandler) Health(c *gin.Context) {
	services := make(map[string]string)

	if h.predictor.Ready() {
		services["model"] = "healthy"
	} else {
		services["model"] = "not ready: artifact not loaded"
	}

	if h.dbCheck != nil {
		if err := h.dbCheck(); err != nil {
			services["database"] = "unhealthy: " + err.Error()
		} else {
			services["database"] = "healthy"
		}
	} else {
		services["database"] = "disabled"
	}

	if h.redisPing != nil {
		if err := h.redisPing(); err != nil {
			services["redis"] = "unhealthy: " + err.Error()
		} else {
			services["redis"] = "healthy"
		}
	} else {
		services["redis"] = "disabled"
	}

	overallStatus := "healthy"
	for _, status := range services {
		if status != "healthy" && status != "disabled" {
			overallStatus = "unhealthy"
			break
		}
	}

	response := HealthResponse{
		Status:       overallStatus,
		Timestamp:    time.Now(),
		ModelVersion: h.predictor.ModelVersion(),
		Services:     services,
		Uptime:       time.Since(startTime).String(),
		System:       collectSystemStats(),
	}

	statusCode := http.StatusOK
	if overallStatus != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, response)
}

// Liveness handles GET /health/live. Always 200 while the process responds.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func collectSystemStats() SystemStats {
	stats := SystemStats{
		Goroutines: runtime.NumGoroutine(),
	}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		stats.MemoryPercent = vm.UsedPercent
	}

	return stats
}
