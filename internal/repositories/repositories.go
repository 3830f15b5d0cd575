package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/models"
)

// ErrNotFound is returned when a lookup matches no document. Terminal-state
// handlers rely on it: "session not found" during completion or abandonment
// means the other side already archived it.
var ErrNotFound = errors.New("repositories: not found")

// SessionRepository persists the one mutable document per active pairing.
// Every method is single-document atomic at the store level.
type SessionRepository interface {
	Create(ctx context.Context, s *models.InterviewSession) error
	Get(ctx context.Context, id string) (*models.InterviewSession, error)
	Update(ctx context.Context, s *models.InterviewSession) error

	// FinishActive atomically moves the session out of "active" into the
	// given terminal status and returns the document as it was. It returns
	// ErrNotFound if the session does not exist or is no longer active, which
	// is how concurrent completion/abandonment settle on a single winner.
	FinishActive(ctx context.Context, id, status string) (*models.InterviewSession, error)

	Delete(ctx context.Context, id string) error

	// ActiveOlderThan lists active sessions created before the cutoff, for
	// the stale-session sweeper.
	ActiveOlderThan(ctx context.Context, cutoff time.Time) ([]models.InterviewSession, error)
}

// HistoryRepository writes and reads the immutable terminal records.
type HistoryRepository interface {
	Insert(ctx context.Context, records ...*models.SessionHistory) error
	RecentByUser(ctx context.Context, userID string, limit int64) ([]models.SessionHistory, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
}

// QuestionSetRepository is the question bank store. MarkUsed is best-effort
// from the caller's point of view; it still reports errors so they can be
// logged.
type QuestionSetRepository interface {
	Get(ctx context.Context, userID string) (*models.QuestionSet, error)
	Upsert(ctx context.Context, userID string, questions []models.SessionQuestion, resumeVersion string) (*models.QuestionSet, error)
	AppendQuestions(ctx context.Context, userID string, questions []models.SessionQuestion) (*models.QuestionSet, error)
	MarkUsed(ctx context.Context, userID, questionText string) error
}
