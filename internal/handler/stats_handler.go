package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qbank/exam-platform/internal/response"
	"github.com/qbank/exam-platform/internal/service"
)

// StatsHandler serves practice statistics.
type StatsHandler struct {
	statsService *service.StatsService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// MyStats godoc
// GET /api/v1/stats/me
func (h *StatsHandler) MyStats(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	stats, err := h.statsService.Mine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"stats": stats})
}

// Leaderboard godoc
// GET /api/v1/stats/leaderboard?limit=
func (h *StatsHandler) Leaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	entries, err := h.statsService.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"leaderboard": entries})
}
