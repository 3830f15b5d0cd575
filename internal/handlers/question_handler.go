package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/models"
	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/repositories"
	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/utils"
)

type QuestionHandler struct {
	log  *zap.Logger
	repo repositories.QuestionSetRepository
}

func NewQuestionHandler(log *zap.Logger, repo repositories.QuestionSetRepository) *QuestionHandler {
	return &QuestionHandler{log: log, repo: repo}
}

// CheckQuestions reports whether the user has enough unused questions to
// start an interview. The client gates the join button on this.
func (h *QuestionHandler) CheckQuestions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		utils.WriteError(w, http.StatusBadRequest, "userId is required")
		return
	}

	canStart := false
	set, err := h.repo.Get(r.Context(), userID)
	switch {
	case err == nil:
		canStart = len(set.Unused()) >= models.MinQuestionsPerSide
	case errors.Is(err, repositories.ErrNotFound):
		// no set yet, canStart stays false
	default:
		h.log.Error("question set fetch failed", zap.String("userId", userID), zap.Error(err))
	}

	utils.WriteJSON(w, http.StatusOK, map[string]bool{"canStart": canStart})
}

// GetQuestions returns the user's stored question set.
func (h *QuestionHandler) GetQuestions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		utils.WriteError(w, http.StatusBadRequest, "userId is required")
		return
	}

	set, err := h.repo.Get(r.Context(), userID)
	if errors.Is(err, repositories.ErrNotFound) {
		utils.WriteError(w, http.StatusNotFound, "questions not found")
		return
	}
	if err != nil {
		h.log.Error("question set fetch failed", zap.String("userId", userID), zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "server error")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{"questions": set.Questions})
}

type saveQuestionsRequest struct {
	UserID              string          `json:"user_id"`
	Questions           json.RawMessage `json:"questions"`
	SourceResumeVersion string          `json:"source_resume_version"`
	Append              bool            `json:"append"`
}

// SaveQuestions is the AI-worker callback: it upserts the generated
// question set for a user, or extends it when the worker generates
// incrementally (append). The worker has shipped several payload shapes
// over time, so the questions field is normalized before storage.
func (h *QuestionHandler) SaveQuestions(w http.ResponseWriter, r *http.Request) {
	var req saveQuestionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.UserID == "" || len(req.Questions) == 0 {
		utils.WriteError(w, http.StatusBadRequest, "user_id and questions are required")
		return
	}

	questions := normalizeQuestionsPayload(req.Questions)
	if len(questions) == 0 {
		utils.WriteError(w, http.StatusBadRequest, "no questions in payload")
		return
	}

	var (
		set *models.QuestionSet
		err error
	)
	if req.Append {
		set, err = h.repo.AppendQuestions(r.Context(), req.UserID, questions)
	} else {
		set, err = h.repo.Upsert(r.Context(), req.UserID, questions, req.SourceResumeVersion)
	}
	if err != nil {
		h.log.Error("question set save failed", zap.String("userId", req.UserID), zap.Error(err))
		utils.WriteError(w, http.StatusInternalServerError, "server error")
		return
	}

	h.log.Info("question set saved",
		zap.String("userId", req.UserID),
		zap.Bool("append", req.Append),
		zap.Int("count", len(set.Questions)))
	utils.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "count": len(set.Questions)})
}

type incomingQuestion struct {
	Section  string `json:"section"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// normalizeQuestionsPayload accepts a bare array, {"questions": [...]}, or
// {"data": [...]} and returns clean unused question entries.
func normalizeQuestionsPayload(raw json.RawMessage) []models.SessionQuestion {
	var items []incomingQuestion
	if err := json.Unmarshal(raw, &items); err != nil {
		var wrapper struct {
			Questions []incomingQuestion `json:"questions"`
			Data      []incomingQuestion `json:"data"`
		}
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return nil
		}
		items = wrapper.Questions
		if len(items) == 0 {
			items = wrapper.Data
		}
	}

	out := make([]models.SessionQuestion, 0, len(items))
	for _, it := range items {
		if it.Question == "" {
			continue
		}
		out = append(out, models.SessionQuestion{
			Section:  it.Section,
			Question: it.Question,
			Answer:   it.Answer,
		})
	}
	return out
}
