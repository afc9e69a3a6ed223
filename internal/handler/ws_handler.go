package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/verisant/proctor-backend/internal/exam"
	"github.com/verisant/proctor-backend/internal/middleware"
	"github.com/verisant/proctor-backend/internal/proctor"
	"github.com/verisant/proctor-backend/internal/schedule"
	"github.com/verisant/proctor-backend/internal/service"
	ws "github.com/verisant/proctor-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allow-list permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler runs the exam stream: one connection per candidate attempt,
// hosting the session engine, the violation monitor, and the countdown.
type WSHandler struct {
	examService    *service.ExamService
	sessionService *service.SessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(examService *service.ExamService, sessionService *service.SessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		examService:    examService,
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// connFullscreen implements the fullscreen capability over the stream:
// requesting or exiting fullscreen sends a directive frame the client
// executes. A dead connection surfaces as a denied request.
type connFullscreen struct {
	conn *ws.Conn
}

func (f *connFullscreen) RequestFullscreen() error {
	return f.conn.WriteTyped(ws.FullscreenResponse{Event: ws.EventFullscreen, Command: ws.FullscreenEnter})
}

func (f *connFullscreen) ExitFullscreen() error {
	return f.conn.WriteTyped(ws.FullscreenResponse{Event: ws.EventFullscreen, Command: ws.FullscreenExit})
}

// connEvents pushes runtime events down the stream. expired is signaled
// so the read loop can force submission from its own goroutine.
type connEvents struct {
	conn    *ws.Conn
	expired chan struct{}
}

func (e *connEvents) OnAlert(a proctor.Alert) {
	e.conn.WriteTyped(ws.AlertResponse{
		Event:     ws.EventAlert,
		Violation: a.Violation,
		Escalated: a.Escalated,
	})
}

func (e *connEvents) OnCountdown(remaining time.Duration) {
	e.conn.WriteTyped(ws.CountdownResponse{
		Event:            ws.EventCountdown,
		RemainingSeconds: int(remaining.Seconds()),
	})
}

func (e *connEvents) OnTimeExpired() {
	e.conn.WriteTyped(ws.ExpiredResponse{Event: ws.EventExpired})
	select {
	case e.expired <- struct{}{}:
	default:
	}
	// Unblock the read loop so the forced submission runs now, not on
	// the next inbound frame.
	e.conn.Interrupt()
}

// ExamStream godoc
// WS /ws/v1/candidate/exams/:exam_id/stream
// Upgrades to WebSocket and hosts the candidate's exam engine for the
// lifetime of the connection.
func (h *WSHandler) ExamStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid exam ID"})
		return
	}

	candidateID := claims.UserID
	ctx := c.Request.Context()

	if err := h.sessionService.VerifyActiveSession(ctx, examID, candidateID); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "no active session for this exam"})
		return
	}

	payload, err := h.examService.GetExamPayload(ctx, examID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "exam not available"})
		return
	}

	remaining, err := h.sessionService.RemainingTime(ctx, examID, candidateID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session state unavailable"})
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.Wrap(raw)
	defer conn.Close()

	wsLog := h.log.With().
		Int("candidate_id", candidateID).
		Str("exam_id", examID.String()).
		Logger()

	events := &connEvents{conn: conn, expired: make(chan struct{}, 1)}
	rt := h.sessionService.NewRuntime(
		examID, candidateID, payload, remaining,
		&connFullscreen{conn}, events, schedule.New(), h.log,
	)
	defer rt.Close()

	wsLog.Info().Int("questions", len(payload.Questions)).Msg("Candidate stream attached")

	// The exam runs fullscreen from the first frame.
	rt.Monitor.RequestFullscreen()
	h.sendState(conn, rt)
	rt.StartCountdown()

	for {
		var msg ws.RequestPayload
		readErr := conn.ReadJSON(&msg)

		// Expiry interrupts a blocked read, and it also invalidates any
		// frame that raced the deadline: nothing received after this
		// point may mutate the session.
		select {
		case <-events.expired:
			h.forceSubmit(wsLog, rt, conn)
			return
		default:
		}

		if readErr != nil {
			if websocket.IsUnexpectedCloseError(readErr, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(readErr).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionNavigate:
			if msg.Index != nil {
				rt.Session.GoToQuestion(*msg.Index)
			}
			h.sendState(conn, rt)
		case ws.ActionAnswer:
			h.handleAnswer(conn, rt, &msg)
		case ws.ActionClear:
			if msg.Index != nil && h.validIndex(rt, *msg.Index) {
				rt.Session.ClearResponse(*msg.Index)
			}
			h.sendState(conn, rt)
		case ws.ActionMark:
			if msg.Index != nil && h.validIndex(rt, *msg.Index) {
				rt.Session.MarkForReview(*msg.Index)
			}
			h.sendState(conn, rt)
		case ws.ActionSignal:
			h.handleSignal(conn, rt, &msg)
		case ws.ActionAckAlert:
			rt.Presenter.Acknowledge()
		case ws.ActionSubmit:
			if h.handleSubmit(wsLog, rt, conn) {
				return
			}
		case ws.ActionPing:
			conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			conn.WriteError("unknown action: " + string(msg.Action))
		}
	}
}

func (h *WSHandler) validIndex(rt *service.ExamRuntime, i int) bool {
	return i >= 0 && i < rt.Session.Len()
}

// handleAnswer decodes the response value and stores it on the engine.
// JSON decoding picks the natural Go shape: strings stay strings, arrays
// become []any, objects become maps.
func (h *WSHandler) handleAnswer(conn *ws.Conn, rt *service.ExamRuntime, msg *ws.RequestPayload) {
	if msg.Index == nil || !h.validIndex(rt, *msg.Index) {
		conn.WriteError("index out of range")
		return
	}

	var value any
	if len(msg.Value) > 0 {
		if err := json.Unmarshal(msg.Value, &value); err != nil {
			conn.WriteError("malformed answer value")
			return
		}
	}

	rt.Session.SaveResponse(*msg.Index, value)
	h.sendState(conn, rt)
}

// handleSignal forwards a raw browser event into the monitor and answers
// with the suppress/prompt decision.
func (h *WSHandler) handleSignal(conn *ws.Conn, rt *service.ExamRuntime, msg *ws.RequestPayload) {
	ack := ws.SignalAckResponse{Event: ws.EventSignalAck, Signal: msg.Signal}

	switch msg.Signal {
	case ws.SignalVisibilityHidden:
		rt.Monitor.OnVisibilityHidden()
	case ws.SignalFullscreenChange:
		if msg.Active != nil {
			rt.Monitor.OnFullscreenChanged(*msg.Active)
		}
	case ws.SignalContextMenu:
		ack.Suppress = rt.Monitor.OnContextMenu()
	case ws.SignalKeyDown:
		if msg.Key != nil {
			ack.Suppress = rt.Monitor.OnKeyDown(proctor.KeyEvent{
				Key:   msg.Key.Key,
				Ctrl:  msg.Key.Ctrl,
				Shift: msg.Key.Shift,
				Alt:   msg.Key.Alt,
				Meta:  msg.Key.Meta,
			})
		}
	case ws.SignalBeforeUnload:
		ack.Prompt = rt.Monitor.OnBeforeUnload()
	case ws.SignalCameraState:
		if msg.Active != nil {
			rt.Monitor.OnCameraStateChanged(*msg.Active)
		}
	default:
		conn.WriteError("unknown signal: " + string(msg.Signal))
		return
	}

	conn.WriteTyped(ack)
}

// handleSubmit finalizes the attempt on candidate request. Returns true
// when the stream should close.
func (h *WSHandler) handleSubmit(log zerolog.Logger, rt *service.ExamRuntime, conn *ws.Conn) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	env, err := rt.Submit(ctx)
	if err != nil {
		if errors.Is(err, service.ErrExamCompleted) {
			conn.WriteError("exam already submitted")
			return true
		}
		log.Error().Err(err).Msg("Submission failed")
		conn.WriteError("submission failed, try again")
		return false
	}

	conn.WriteTyped(ws.SubmittedResponse{
		Event:       ws.EventSubmitted,
		SubmittedAt: env.SubmissionDateTime,
	})
	return true
}

// forceSubmit finalizes the attempt when the time budget runs out.
func (h *WSHandler) forceSubmit(log zerolog.Logger, rt *service.ExamRuntime, conn *ws.Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	env, err := rt.Submit(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Forced submission failed")
		conn.WriteError("submission failed")
		return
	}

	log.Info().Msg("Time expired, submission forced")
	conn.WriteTyped(ws.SubmittedResponse{
		Event:       ws.EventSubmitted,
		SubmittedAt: env.SubmissionDateTime,
	})
}

func (h *WSHandler) sendState(conn *ws.Conn, rt *service.ExamRuntime) {
	states := rt.Session.States()
	statuses := make([]exam.Status, len(states))
	for i, st := range states {
		statuses[i] = exam.DeriveStatus(st)
	}

	conn.WriteTyped(ws.StateResponse{
		Event:        ws.EventState,
		CurrentIndex: rt.Session.CurrentIndex(),
		Statuses:     statuses,
		Counts:       exam.CountStatuses(states),
	})
}

var _ proctor.FullscreenController = (*connFullscreen)(nil)
var _ service.RuntimeEvents = (*connEvents)(nil)
