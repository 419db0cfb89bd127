package health

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is anything whose reachability the health check reports on.
type Pinger interface {
	Ping() error
}

// Checker handles health check endpoints
type Checker struct {
	sourceDB    Pinger
	warehouseDB Pinger
	redis       Pinger
	version     string
	startTime   time.Time
	ready       atomic.Bool
}

// NewChecker creates a new health checker. redis may be nil when not
// configured.
func NewChecker(sourceDB, warehouseDB, redis Pinger, version string) *Checker {
	return &Checker{
		sourceDB:    sourceDB,
		warehouseDB: warehouseDB,
		redis:       redis,
		version:     version,
		startTime:   time.Now(),
	}
}

// SetReady sets the readiness state
func (c *Checker) SetReady(ready bool) {
	c.ready.Store(ready)
}

// RegisterRoutes registers health check endpoints
func (c *Checker) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/health", c.Health)
	e.GET("/api/v1/health/live", c.Live)
	e.GET("/api/v1/health/ready", c.Ready)
}

// HealthStatus represents the health check response
type HealthStatus struct {
	Status     string                  `json:"status"`
	Version    string                  `json:"version"`
	Uptime     string                  `json:"uptime"`
	Checks     map[string]*CheckResult `json:"checks"`
	ReportedAt time.Time               `json:"reported_at"`
}

// CheckResult represents an individual check result
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Health returns the overall health status
func (c *Checker) Health(ctx echo.Context) error {
	status := &HealthStatus{
		Status:     "healthy",
		Version:    c.version,
		Uptime:     time.Since(c.startTime).Round(time.Second).String(),
		Checks:     make(map[string]*CheckResult),
		ReportedAt: time.Now(),
	}

	c.check(status, "source_database", c.sourceDB, true)
	c.check(status, "warehouse_database", c.warehouseDB, true)
	if c.redis != nil {
		c.check(status, "redis", c.redis, true)
	}

	httpStatus := http.StatusOK
	if status.Status == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	return ctx.JSON(httpStatus, status)
}

func (c *Checker) check(status *HealthStatus, name string, p Pinger, required bool) {
	if p == nil {
		if required {
			status.Status = "unhealthy"
			status.Checks[name] = &CheckResult{
				Status:  "unhealthy",
				Message: name + " not configured",
			}
		}
		return
	}

	start := time.Now()
	err := p.Ping()
	latency := time.Since(start)

	if err != nil {
		status.Status = "unhealthy"
		status.Checks[name] = &CheckResult{
			Status:  "unhealthy",
			Message: err.Error(),
		}
		return
	}

	status.Checks[name] = &CheckResult{
		Status:  "healthy",
		Latency: latency.String(),
	}
}

// Live returns the liveness status (is the service running)
func (c *Checker) Live(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "alive"})
}

// Ready returns the readiness status (is the service ready to accept traffic)
func (c *Checker) Ready(ctx echo.Context) error {
	if c.ready.Load() {
		return ctx.JSON(http.StatusOK, map[string]string{"status": "ready"})
	}
	return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
}
