package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/verisant/proctor-backend/internal/config"
	"github.com/verisant/proctor-backend/internal/middleware"
	"github.com/verisant/proctor-backend/internal/model"
	"github.com/verisant/proctor-backend/internal/response"
	"github.com/verisant/proctor-backend/internal/service"
)

const (
	monitorRefreshInterval = 15 * time.Second
	monitorKeepAlive       = 30 * time.Second
	monitorQueryTimeout    = 5 * time.Second // slow queries must not stall the SSE loop
)

// MonitorHandler serves the proctoring staff's live exam overview.
type MonitorHandler struct {
	rdb            *redis.Client
	examService    *service.ExamService
	sessionService *service.SessionService
	monitorService *service.MonitorService
	log            zerolog.Logger
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(
	rdb *redis.Client,
	examService *service.ExamService,
	sessionService *service.SessionService,
	monitorService *service.MonitorService,
	log zerolog.Logger,
) *MonitorHandler {
	return &MonitorHandler{
		rdb:            rdb,
		examService:    examService,
		sessionService: sessionService,
		monitorService: monitorService,
		log:            log.With().Str("component", "monitor_handler").Logger(),
	}
}

// GetExamSnapshot godoc
// GET /api/v1/operator/exams/:exam_id/snapshot
// Returns the per-candidate violation and submission rollup for one exam.
func (h *MonitorHandler) GetExamSnapshot(c *gin.Context) {
	examID, ok := parseUUIDParam(c, "exam_id")
	if !ok {
		return
	}

	snapshot, err := h.monitorService.GetExamSnapshot(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"snapshot": snapshot})
}

// MonitorExamSSE godoc
// GET /api/v1/operator/exams/:exam_id/monitor
// Streams the live exam overview: an initial snapshot, then every
// violation as it is detected, plus periodic refreshes and keep-alives.
func (h *MonitorHandler) MonitorExamSSE(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, ok := parseUUIDParam(c, "exam_id")
	if !ok {
		return
	}

	exam, err := h.examService.GetByID(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	reqCtx := c.Request.Context()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	h.sendSnapshot(c, reqCtx, examID, exam)

	// Every queued violation is also published on the exam channel, so
	// the dashboard sees it without polling PostgreSQL.
	pubsub := h.rdb.Subscribe(reqCtx, config.CacheKey.ExamViolationChannel(examID.String()))
	defer pubsub.Close()
	ch := pubsub.Channel()

	keepAliveTicker := time.NewTicker(monitorKeepAlive)
	defer keepAliveTicker.Stop()

	refreshTicker := time.NewTicker(monitorRefreshInterval)
	defer refreshTicker.Stop()

	h.log.Info().Str("exam_id", examID.String()).Msg("Operator attached to live monitor SSE")

	pingPayload, _ := json.Marshal(map[string]string{"type": "ping"})

	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().Str("exam_id", examID.String()).Msg("Operator disconnected from live monitor SSE")
			return

		case msg := <-ch:
			// Violation payloads are forwarded as-is.
			c.Writer.Write([]byte("data: {\"type\":\"violation\",\"data\":"))
			c.Writer.Write([]byte(msg.Payload))
			c.Writer.Write([]byte("}\n\n"))
			c.Writer.Flush()

		case <-refreshTicker.C:
			h.sendSnapshot(c, reqCtx, examID, exam)

		case <-keepAliveTicker.C:
			c.Writer.Write([]byte("data: "))
			c.Writer.Write(pingPayload)
			c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		}
	}
}

// sendSnapshot gathers the current overview and writes one SSE event.
func (h *MonitorHandler) sendSnapshot(c *gin.Context, ctx context.Context, examID uuid.UUID, exam *model.Exam) {
	fetchCtx, cancel := context.WithTimeout(ctx, monitorQueryTimeout)
	defer cancel()

	sessions, err := h.sessionService.ListSessions(fetchCtx, examID)
	if err != nil {
		h.log.Warn().Err(err).Msg("Snapshot session fetch failed")
		return
	}

	totalStarted := len(sessions)
	totalInProgress := 0
	totalSubmitted := 0

	candidates := make([]map[string]interface{}, 0, len(sessions))
	for _, sess := range sessions {
		switch sess.Status {
		case model.SessionStatusInProgress:
			totalInProgress++
		case model.SessionStatusSubmitted:
			totalSubmitted++
		}

		candidates = append(candidates, map[string]interface{}{
			"candidate_id":    sess.CandidateID,
			"status":          sess.Status,
			"started_at":      sess.StartedAt,
			"submitted_at":    sess.SubmittedAt,
			"violation_count": int64(0),
		})
	}

	var totalViolations int64
	if snapshot, err := h.monitorService.GetExamSnapshot(fetchCtx, examID); err == nil {
		totalViolations = snapshot.TotalViolations
		for i, entry := range candidates {
			cid, ok := entry["candidate_id"].(int)
			if !ok {
				continue
			}
			if count, found := snapshot.ViolationCounts[cid]; found {
				candidates[i]["violation_count"] = count
			}
		}
	}

	c.SSEvent("message", map[string]interface{}{
		"type": "snapshot",
		"data": map[string]interface{}{
			"exam": map[string]interface{}{
				"id":       examID.String(),
				"title":    exam.Title,
				"duration": exam.DurationMinutes,
			},
			"stats": map[string]interface{}{
				"total_started":     totalStarted,
				"total_in_progress": totalInProgress,
				"total_submitted":   totalSubmitted,
				"total_violations":  totalViolations,
			},
			"candidates": candidates,
		},
	})
	c.Writer.Flush()
}
