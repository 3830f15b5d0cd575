package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/models"
	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/testhelpers"
)

func historyRouter(repo *testhelpers.MemHistoryRepo) *chi.Mux {
	h := NewHistoryHandler(zap.NewNop(), repo)
	r := chi.NewRouter()
	r.Get("/api/v1/history/{userId}", h.GetUserHistory)
	return r
}

func TestGetUserHistoryEmpty(t *testing.T) {
	router := historyRouter(testhelpers.NewMemHistoryRepo())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/history/u1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body models.HistorySummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Zero(t, body.TotalSessions)
	assert.Empty(t, body.RecentSessions)
}

func TestGetUserHistoryCapsRecentAtThree(t *testing.T) {
	repo := testhelpers.NewMemHistoryRepo()
	ctx := context.Background()
	for _, partner := range []string{"p1", "p2", "p3", "p4", "p5"} {
		require.NoError(t, repo.Insert(ctx, &models.SessionHistory{
			User:    "u1",
			Partner: partner,
			Status:  models.HistoryCompleted,
		}))
	}
	// another user's records must not leak in
	require.NoError(t, repo.Insert(ctx, &models.SessionHistory{
		User:    "u2",
		Partner: "u1",
		Status:  models.HistoryAbandoned,
	}))
	router := historyRouter(repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/history/u1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body models.HistorySummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 5, body.TotalSessions)
	require.Len(t, body.RecentSessions, 3)

	// newest first
	assert.Equal(t, "p5", body.RecentSessions[0].Partner)
	assert.Equal(t, "p4", body.RecentSessions[1].Partner)
	assert.Equal(t, "p3", body.RecentSessions[2].Partner)
}
