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

// QuestionHandler handles teacher-side question management.
type QuestionHandler struct {
	questionService *service.QuestionService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// List godoc
// GET /api/v1/teacher/exams/:exam_id/questions?difficulty=easy
func (h *QuestionHandler) List(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var (
		questions []model.Question
	)
	if d := model.Difficulty(c.Query("difficulty")); d != "" {
		if !d.Valid() {
			response.Fail(c, http.StatusBadRequest, response.ErrValidation)
			return
		}
		questions, err = h.questionService.ListByDifficulty(c.Request.Context(), examID, d)
	} else {
		questions, err = h.questionService.ListByExam(c.Request.Context(), examID)
	}
	if err != nil {
		failSession(c, err)
		return
	}
	if questions == nil {
		questions = []model.Question{}
	}
	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// Add godoc
// POST /api/v1/teacher/exams/:exam_id/questions
func (h *QuestionHandler) Add(c *gin.Context) {
	claims := middleware.GetClaims(c)

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q := &model.Question{
		ExamID:        examID,
		QuestionText:  req.QuestionText,
		Options:       req.Options,
		CorrectOption: req.CorrectOption,
		Difficulty:    model.Difficulty(req.Difficulty),
	}
	if err := h.questionService.Add(c.Request.Context(), claims.UserID, q); err != nil {
		failSession(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"question": q})
}

// BulkAdd godoc
// POST /api/v1/teacher/exams/:exam_id/questions/bulk
func (h *QuestionHandler) BulkAdd(c *gin.Context) {
	claims := middleware.GetClaims(c)

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.BulkAddQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions := make([]model.Question, 0, len(req.Questions))
	for _, item := range req.Questions {
		questions = append(questions, model.Question{
			ExamID:        examID,
			QuestionText:  item.QuestionText,
			Options:       item.Options,
			CorrectOption: item.CorrectOption,
			Difficulty:    model.Difficulty(item.Difficulty),
		})
	}
	if err := h.questionService.BulkAdd(c.Request.Context(), examID, claims.UserID, questions); err != nil {
		failSession(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"added": len(questions)})
}

// Update godoc
// PUT /api/v1/teacher/exams/:exam_id/questions/:question_id
func (h *QuestionHandler) Update(c *gin.Context) {
	claims := middleware.GetClaims(c)

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q := &model.Question{
		ID:            questionID,
		ExamID:        examID,
		QuestionText:  req.QuestionText,
		Options:       req.Options,
		CorrectOption: req.CorrectOption,
		Difficulty:    model.Difficulty(req.Difficulty),
	}
	if err := h.questionService.Update(c.Request.Context(), claims.UserID, q); err != nil {
		failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question": q})
}

// Delete godoc
// DELETE /api/v1/teacher/exams/:exam_id/questions/:question_id
func (h *QuestionHandler) Delete(c *gin.Context) {
	claims := middleware.GetClaims(c)

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.questionService.Delete(c.Request.Context(), examID, questionID, claims.UserID); err != nil {
		failSession(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
