package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/verisant/proctor-backend/internal/middleware"
	"github.com/verisant/proctor-backend/internal/model"
	"github.com/verisant/proctor-backend/internal/response"
	"github.com/verisant/proctor-backend/internal/service"
	"github.com/verisant/proctor-backend/internal/validator"
)

// ExamHandler handles the candidate-facing exam endpoints.
type ExamHandler struct {
	examService    *service.ExamService
	sessionService *service.SessionService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService, sessionService *service.SessionService) *ExamHandler {
	return &ExamHandler{
		examService:    examService,
		sessionService: sessionService,
	}
}

// ListExams godoc
// GET /api/v1/candidate/exams
// Returns the published exams the candidate may take.
func (h *ExamHandler) ListExams(c *gin.Context) {
	exams, err := h.examService.ListAvailable(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// GetExamPayload godoc
// GET /api/v1/candidate/exams/:exam_id/payload
// Returns the cached question catalog for a started session. The payload
// is only handed out while the candidate's session is IN_PROGRESS.
func (h *ExamHandler) GetExamPayload(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, ok := parseUUIDParam(c, "exam_id")
	if !ok {
		return
	}

	if err := h.sessionService.VerifyActiveSession(c.Request.Context(), examID, claims.UserID); err != nil {
		failSessionError(c, err)
		return
	}

	payload, err := h.examService.GetExamPayload(c.Request.Context(), examID)
	if err != nil {
		if errors.Is(err, service.ErrExamNotAvailable) {
			response.Fail(c, http.StatusNotFound, response.ErrExamNotAvailable)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"payload": payload})
}

// StartExam godoc
// POST /api/v1/candidate/exams/:exam_id/start
// Validates the integrity preconditions and creates or resumes the
// candidate's exam session.
func (h *ExamHandler) StartExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, ok := parseUUIDParam(c, "exam_id")
	if !ok {
		return
	}

	var req model.StartExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, payload, err := h.sessionService.StartExam(c.Request.Context(), examID, claims.UserID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExamNotAvailable):
			response.Fail(c, http.StatusNotFound, response.ErrExamNotAvailable)
		case errors.Is(err, service.ErrIntegrityNotGranted):
			response.Fail(c, http.StatusForbidden, response.ErrIntegrityNotGranted)
		case errors.Is(err, service.ErrExamCompleted):
			response.Fail(c, http.StatusConflict, response.ErrExamCompleted)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	remaining, err := h.sessionService.RemainingTime(c.Request.Context(), examID, claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"session":           session,
		"payload":           payload,
		"remaining_seconds": int(remaining.Seconds()),
	})
}

// GetSessionState godoc
// GET /api/v1/candidate/exams/:exam_id/session
// Returns the remaining time for a running session. The client calls it
// on reload before reattaching the stream.
func (h *ExamHandler) GetSessionState(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, ok := parseUUIDParam(c, "exam_id")
	if !ok {
		return
	}

	if err := h.sessionService.VerifyActiveSession(c.Request.Context(), examID, claims.UserID); err != nil {
		failSessionError(c, err)
		return
	}

	remaining, err := h.sessionService.RemainingTime(c.Request.Context(), examID, claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"remaining_seconds": int(remaining.Seconds()),
	})
}

// failSessionError maps the session service sentinels onto the response
// taxonomy.
func failSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoActiveSession):
		response.Fail(c, http.StatusForbidden, response.ErrNoActiveSession)
	case errors.Is(err, service.ErrExamCompleted):
		response.Fail(c, http.StatusConflict, response.ErrExamCompleted)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
