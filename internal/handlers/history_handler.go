package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/models"
	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/repositories"
	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/utils"
)

// recentHistoryLimit matches the dashboard, which shows the last three
// sessions alongside the total count.
const recentHistoryLimit = 3

type HistoryHandler struct {
	log  *zap.Logger
	repo repositories.HistoryRepository
}

func NewHistoryHandler(log *zap.Logger, repo repositories.HistoryRepository) *HistoryHandler {
	return &HistoryHandler{log: log, repo: repo}
}

// GetUserHistory returns a user's most recent session records, newest first,
// plus the total number of sessions they have completed or abandoned.
func (h *HistoryHandler) GetUserHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		utils.WriteError(w, http.StatusBadRequest, "userId is required")
		return
	}

	recent, err := h.repo.RecentByUser(r.Context(), userID, recentHistoryLimit)
	if err != nil {
		h.log.Error("history fetch failed", zap.String("userId", userID), zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "failed to retrieve history")
		return
	}

	total, err := h.repo.CountByUser(r.Context(), userID)
	if err != nil {
		h.log.Error("history count failed", zap.String("userId", userID), zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "failed to retrieve history")
		return
	}

	utils.WriteJSON(w, http.StatusOK, models.HistorySummary{
		TotalSessions:  total,
		RecentSessions: recent,
	})
}
