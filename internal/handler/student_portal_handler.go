package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rvclass/examroom-backend/internal/middleware"
	"github.com/rvclass/examroom-backend/internal/model"
	"github.com/rvclass/examroom-backend/internal/response"
	"github.com/rvclass/examroom-backend/internal/service"
	"github.com/rvclass/examroom-backend/internal/validator"
)

// StudentPortalHandler handles the student-facing exam flow: browsing
// active exams, entering an attempt, answering, and submitting.
type StudentPortalHandler struct {
	examService    *service.ExamService
	sessionService *service.SessionService
}

// NewStudentPortalHandler creates a new StudentPortalHandler.
func NewStudentPortalHandler(examService *service.ExamService, sessionService *service.SessionService) *StudentPortalHandler {
	return &StudentPortalHandler{examService: examService, sessionService: sessionService}
}

// ListExams godoc
// GET /api/v1/student/exams
func (h *StudentPortalHandler) ListExams(c *gin.Context) {
	exams, err := h.examService.ListActive(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if exams == nil {
		exams = []model.Exam{}
	}
	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// Start godoc
// POST /api/v1/student/exams/:exam_id/start
// Enters the exam, creating the attempt on first entry and resuming it
// afterwards. Re-entering never creates a second attempt.
func (h *StudentPortalHandler) Start(c *gin.Context) {
	claims := middleware.GetClaims(c)

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	state, err := h.sessionService.Start(c.Request.Context(), examID, claims.UserID)
	if err != nil {
		failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": state})
}

// Paper godoc
// GET /api/v1/student/exams/:exam_id/paper
// Returns the exam paper without correct answers.
func (h *StudentPortalHandler) Paper(c *gin.Context) {
	claims := middleware.GetClaims(c)

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	// The paper is only served to students with a live attempt.
	if _, err := h.sessionService.State(c.Request.Context(), examID, claims.UserID); err != nil {
		failSession(c, err)
		return
	}

	paper, err := h.examService.GetPaper(c.Request.Context(), examID)
	if err != nil {
		failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}

// SelectAnswer godoc
// POST /api/v1/student/exams/:exam_id/answer
func (h *StudentPortalHandler) SelectAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SelectAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.sessionService.SelectAnswer(c.Request.Context(), examID, claims.UserID, req.QuestionID, req.SelectedOption); err != nil {
		failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"saved": true})
}

// State godoc
// GET /api/v1/student/exams/:exam_id/state
// Snapshot for page reloads: buffered answers and the remaining clock.
func (h *StudentPortalHandler) State(c *gin.Context) {
	claims := middleware.GetClaims(c)

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	state, err := h.sessionService.State(c.Request.Context(), examID, claims.UserID)
	if err != nil {
		failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": state})
}

// Submit godoc
// POST /api/v1/student/exams/:exam_id/submit
func (h *StudentPortalHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.sessionService.Submit(c.Request.Context(), examID, claims.UserID)
	if err != nil {
		failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"attempt": result.Attempt,
		"score":   result.Score,
		"reason":  result.Reason,
	})
}

// History godoc
// GET /api/v1/student/attempts
func (h *StudentPortalHandler) History(c *gin.Context) {
	claims := middleware.GetClaims(c)

	entries, err := h.sessionService.History(c.Request.Context(), claims.UserID)
	if err != nil {
		failSession(c, err)
		return
	}
	if entries == nil {
		entries = []model.AttemptHistoryEntry{}
	}
	response.Success(c, http.StatusOK, gin.H{"attempts": entries})
}
