package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/codearena/backend/internal/infrastructure/logging"
	"github.com/codearena/backend/internal/infrastructure/monitoring"
	"github.com/codearena/backend/internal/secure/runner"
	"github.com/codearena/backend/internal/shared/id"
	"github.com/codearena/backend/internal/shared/types"
)

// runTimeout bounds one streamed suite end to end
const runTimeout = 2 * time.Minute

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in dev
	},
}

// Message is the client-to-server WebSocket frame
type Message struct {
	Type        string `json:"type"`
	ChallengeID string `json:"challenge_id,omitempty"`
	Code        string `json:"code,omitempty"`
}

// Handler manages WebSocket connections and streams per-case results
// as a suite runs.
type Handler struct {
	runner  *runner.Runner
	env     runner.Environment
	metrics *monitoring.Metrics
	logger  *logging.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(r *runner.Runner, env runner.Environment, metrics *monitoring.Metrics, logger *logging.Logger) *Handler {
	return &Handler{
		runner:  r,
		env:     env,
		metrics: metrics,
		logger:  logger,
	}
}

// HandleConnection handles WebSocket upgrade and messages
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.metrics.IncWSConnections()
	defer h.metrics.DecWSConnections()

	session := id.NewSessionID()
	log := h.logger.WithSession(session.String())
	reqCtx := c.Request.Context()

	h.send(conn, gin.H{
		"type":       "system",
		"message":    "Connected to Challenge Execution Service (Go)",
		"session_id": session.String(),
	})

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			log.Debug("websocket read ended", zap.Error(err))
			break
		}
		h.metrics.RecordWSMessage("in", msg.Type)

		switch msg.Type {
		case "run":
			h.handleRun(conn, msg, reqCtx)
		case "ping":
			h.send(conn, gin.H{"type": "pong"})
		default:
			h.sendError(conn, "unknown message type")
		}
	}
}

// handleRun executes a suite and forwards each sanitized result to the
// client as it completes.
func (h *Handler) handleRun(conn *websocket.Conn, msg Message, reqCtx context.Context) {
	if msg.ChallengeID == "" || msg.Code == "" {
		h.sendError(conn, "run requires challenge_id and code")
		return
	}

	ctx, cancel := context.WithTimeout(reqCtx, runTimeout)
	defer cancel()

	h.metrics.IncRunsActive()
	defer h.metrics.DecRunsActive()

	results, err := h.runner.StreamSecureTests(ctx, msg.ChallengeID, msg.Code, h.env, func(res types.TestResult) {
		h.send(conn, gin.H{
			"type":      "test_result",
			"result":    res,
			"timestamp": time.Now().Unix(),
		})
	})
	if err != nil {
		h.sendError(conn, "challenge has no test cases")
		return
	}

	summary := types.Summarize(msg.ChallengeID, results)
	h.metrics.RecordSuite(summary.Failed == 0)
	h.send(conn, gin.H{
		"type":      "complete",
		"summary":   summary,
		"timestamp": time.Now().Unix(),
	})
}

func (h *Handler) send(conn *websocket.Conn, payload interface{}) {
	if err := conn.WriteJSON(payload); err != nil {
		h.logger.Debug("websocket write failed", zap.Error(err))
		return
	}
	h.metrics.RecordWSMessage("out", "json")
}

func (h *Handler) sendError(conn *websocket.Conn, message string) {
	h.send(conn, gin.H{"type": "error", "message": message})
}
