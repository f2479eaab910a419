package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rvclass/examroom-backend/internal/model"
	"github.com/rvclass/examroom-backend/internal/response"
	"github.com/rvclass/examroom-backend/internal/service"
)

// LeaderboardHandler serves ranked submitted attempts.
type LeaderboardHandler struct {
	leaderboardService *service.LeaderboardService
}

// NewLeaderboardHandler creates a new LeaderboardHandler.
func NewLeaderboardHandler(leaderboardService *service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService}
}

// Overall godoc
// GET /api/v1/leaderboard
func (h *LeaderboardHandler) Overall(c *gin.Context) {
	entries, err := h.leaderboardService.Overall(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	response.Success(c, http.StatusOK, gin.H{"leaderboard": entries})
}

// ByExam godoc
// GET /api/v1/leaderboard/:exam_id
func (h *LeaderboardHandler) ByExam(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	entries, err := h.leaderboardService.ByExam(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	response.Success(c, http.StatusOK, gin.H{"leaderboard": entries})
}
