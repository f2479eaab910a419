package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rvclass/examroom-backend/internal/response"
	"github.com/rvclass/examroom-backend/internal/service"
	"github.com/rvclass/examroom-backend/internal/session"
)

// failSession maps session and service domain errors onto API error
// codes. Unknown errors fall through as internal.
func failSession(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrExamNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrExamNotFound)
	case errors.Is(err, session.ErrExamInactive):
		response.Fail(c, http.StatusForbidden, response.ErrExamInactive)
	case errors.Is(err, session.ErrSessionFinalized):
		response.Fail(c, http.StatusConflict, response.ErrSessionFinalized)
	case errors.Is(err, session.ErrInvalidAnswerIndex):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidAnswerIndex)
	case errors.Is(err, session.ErrQuestionNotFound):
		response.Fail(c, http.StatusBadRequest, response.ErrQuestionNotFound)
	case errors.Is(err, session.ErrNoAttempt):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case session.IsPersistence(err):
		// Retryable: the client may repeat the call safely.
		response.Fail(c, http.StatusServiceUnavailable, response.ErrPersistence)
	case errors.Is(err, service.ErrNotExamOwner):
		response.Fail(c, http.StatusForbidden, response.ErrNotExamOwner)
	case errors.Is(err, service.ErrExamLocked):
		response.Fail(c, http.StatusConflict, response.ErrExamLocked)
	case errors.Is(err, service.ErrNoQuestions):
		response.Fail(c, http.StatusBadRequest, response.ErrNoQuestions)
	case errors.Is(err, service.ErrCorrectOptionOutOfRange):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidAnswerIndex)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
