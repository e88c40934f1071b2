package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/codearena/backend/internal/infrastructure/logging"
	"github.com/codearena/backend/internal/infrastructure/monitoring"
	"github.com/codearena/backend/internal/secure/runner"
	"github.com/codearena/backend/internal/shared/types"
	"github.com/codearena/backend/internal/shared/utils"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	runner     *runner.Runner
	env        runner.Environment
	metrics    *monitoring.Metrics
	aggregator *PerfAggregator
	logger     *logging.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(r *runner.Runner, env runner.Environment, metrics *monitoring.Metrics, aggregator *PerfAggregator, logger *logging.Logger) *Handlers {
	return &Handlers{
		runner:     r,
		env:        env,
		metrics:    metrics,
		aggregator: aggregator,
		logger:     logger,
	}
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "Challenge Execution Service (Go)",
		"version": "0.2.0",
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"store":    h.runner.SecurityMetrics(),
		"executor": gin.H{"ready": h.env != nil},
	})
}

// initializeRequest is the body for test-case initialization
type initializeRequest struct {
	TestCases []*types.TestCase `json:"test_cases" binding:"required,min=1"`
}

// InitializeTests stores a challenge's test cases encrypted
func (h *Handlers) InitializeTests(c *gin.Context) {
	challengeID := c.Param("id")
	if err := utils.ValidateID(challengeID, "challenge_id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req initializeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	for _, tc := range req.TestCases {
		if err := utils.ValidateID(tc.ID, "test_case_id", true); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := utils.ValidateDepth(tc.Input, 20); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if err := h.runner.InitializeTestsForChallenge(challengeID, req.TestCases); err != nil {
		h.logger.Error("test initialization failed",
			zap.String("challenge_id", challengeID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to initialize test cases"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"challenge_id": challengeID,
		"count":        len(req.TestCases),
	})
}

// ListTests returns the UI-safe test case projection
func (h *Handlers) ListTests(c *gin.Context) {
	challengeID := c.Param("id")

	c.JSON(http.StatusOK, gin.H{
		"challenge_id": challengeID,
		"test_cases":   h.runner.TestCaseInfo(challengeID),
	})
}

// runRequest is the body for a suite run
type runRequest struct {
	Code string `json:"code" binding:"required"`
}

// RunTests executes a full suite and returns sanitized results
func (h *Handlers) RunTests(c *gin.Context) {
	challengeID := c.Param("id")
	if err := utils.ValidateID(challengeID, "challenge_id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := utils.ValidateCode(req.Code); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.metrics.IncRunsActive()
	defer h.metrics.DecRunsActive()

	start := time.Now()
	results, err := h.runner.RunSecureTests(c.Request.Context(), challengeID, req.Code, h.env)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "challenge has no test cases"})
		return
	}

	summary := types.Summarize(challengeID, results)
	h.metrics.RecordSuite(summary.Failed == 0)
	h.aggregator.Observe(time.Since(start))

	c.JSON(http.StatusOK, summary)
}

// AuditLog returns recent access-log entries for a challenge
func (h *Handlers) AuditLog(c *gin.Context) {
	challengeID := c.Param("id")

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	c.JSON(http.StatusOK, gin.H{
		"challenge_id": challengeID,
		"entries":      h.runner.SecurityAudit(challengeID, limit),
	})
}

// SecurityMetrics returns the store's health snapshot
func (h *Handlers) SecurityMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.runner.SecurityMetrics())
}

// Integrity runs the store's self-test
func (h *Handlers) Integrity(c *gin.Context) {
	ok := h.runner.ValidateSystemIntegrity()
	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"intact": ok})
}

// Performance returns latency quantiles over recent suite runs plus the
// JSON metrics snapshot
func (h *Handlers) Performance(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"suite_latency": h.aggregator.Stats(),
		"snapshot":      h.metrics.Snapshot(),
	})
}
