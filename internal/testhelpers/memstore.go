// Package testhelpers provides in-memory repository implementations for
// tests, with the same single-document-atomic semantics as the Mongo
// backends.
package testhelpers

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/models"
	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/repositories"
)

// MemSessionRepo is an in-memory SessionRepository.
type MemSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*models.InterviewSession

	// FailNext makes the next mutating call return this error, for
	// partial-failure tests.
	FailNext error
}

func NewMemSessionRepo() *MemSessionRepo {
	return &MemSessionRepo{sessions: make(map[string]*models.InterviewSession)}
}

func (r *MemSessionRepo) takeFailure() error {
	err := r.FailNext
	r.FailNext = nil
	return err
}

func clone(s *models.InterviewSession) *models.InterviewSession {
	cp := *s
	if s.CurrentQuestion != nil {
		q := *s.CurrentQuestion
		cp.CurrentQuestion = &q
	}
	cp.QuestionsForA = append([]models.SessionQuestion(nil), s.QuestionsForA...)
	cp.QuestionsForB = append([]models.SessionQuestion(nil), s.QuestionsForB...)
	return &cp
}

func (r *MemSessionRepo) Create(_ context.Context, s *models.InterviewSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(); err != nil {
		return err
	}
	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now
	r.sessions[s.ID] = clone(s)
	return nil
}

func (r *MemSessionRepo) Get(_ context.Context, id string) (*models.InterviewSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return clone(s), nil
}

func (r *MemSessionRepo) Update(_ context.Context, s *models.InterviewSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(); err != nil {
		return err
	}
	if _, ok := r.sessions[s.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.UpdatedAt = time.Now().UTC()
	r.sessions[s.ID] = clone(s)
	return nil
}

func (r *MemSessionRepo) FinishActive(_ context.Context, id, status string) (*models.InterviewSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Status != models.SessionActive {
		return nil, repositories.ErrNotFound
	}
	s.Status = status
	s.UpdatedAt = time.Now().UTC()
	return clone(s), nil
}

func (r *MemSessionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r *MemSessionRepo) ActiveOlderThan(_ context.Context, cutoff time.Time) ([]models.InterviewSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.InterviewSession
	for _, s := range r.sessions {
		if s.Status == models.SessionActive && s.CreatedAt.Before(cutoff) {
			out = append(out, *clone(s))
		}
	}
	return out, nil
}

// Len returns the number of stored sessions.
func (r *MemSessionRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Backdate rewrites a session's creation time, for sweeper tests.
func (r *MemSessionRepo) Backdate(id string, createdAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.CreatedAt = createdAt
	}
}

// MemHistoryRepo is an in-memory HistoryRepository.
type MemHistoryRepo struct {
	mu      sync.Mutex
	records []models.SessionHistory

	FailNext error
}

func NewMemHistoryRepo() *MemHistoryRepo {
	return &MemHistoryRepo{}
}

func (r *MemHistoryRepo) Insert(_ context.Context, records ...*models.SessionHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.FailNext; err != nil {
		r.FailNext = nil
		return err
	}
	now := time.Now().UTC()
	for _, rec := range records {
		cp := *rec
		if cp.ID == "" {
			cp.ID = uuid.NewString()
		}
		if cp.CreatedAt.IsZero() {
			cp.CreatedAt = now
		}
		cp.Questions = append([]models.SessionQuestion(nil), rec.Questions...)
		r.records = append(r.records, cp)
	}
	return nil
}

func (r *MemHistoryRepo) RecentByUser(_ context.Context, userID string, limit int64) ([]models.SessionHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.SessionHistory{}
	// newest first: records are appended in time order
	for i := len(r.records) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		if r.records[i].User == userID {
			out = append(out, r.records[i])
		}
	}
	return out, nil
}

func (r *MemHistoryRepo) CountByUser(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, rec := range r.records {
		if rec.User == userID {
			n++
		}
	}
	return n, nil
}

// ByUser returns every record owned by userID, oldest first.
func (r *MemHistoryRepo) ByUser(userID string) []models.SessionHistory {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.SessionHistory
	for _, rec := range r.records {
		if rec.User == userID {
			out = append(out, rec)
		}
	}
	return out
}

// All returns every stored record.
func (r *MemHistoryRepo) All() []models.SessionHistory {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.SessionHistory(nil), r.records...)
}

// MemQuestionSetRepo is an in-memory QuestionSetRepository.
type MemQuestionSetRepo struct {
	mu   sync.Mutex
	sets map[string]*models.QuestionSet

	FailNext     error
	MarkUsedErrs []error // popped per MarkUsed call when non-empty
}

func NewMemQuestionSetRepo() *MemQuestionSetRepo {
	return &MemQuestionSetRepo{sets: make(map[string]*models.QuestionSet)}
}

// Seed stores a question set for userID with the given number of unused
// questions.
func (r *MemQuestionSetRepo) Seed(userID string, unused int) {
	questions := make([]models.SessionQuestion, unused)
	for i := range questions {
		questions[i] = models.SessionQuestion{
			Section:  "Technical",
			Question: userID + " question " + string(rune('A'+i)),
			Answer:   userID + " answer " + string(rune('A'+i)),
		}
	}
	r.mu.Lock()
	r.sets[userID] = &models.QuestionSet{UserID: userID, Questions: questions}
	r.mu.Unlock()
}

func (r *MemQuestionSetRepo) Get(_ context.Context, userID string) (*models.QuestionSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.FailNext; err != nil {
		r.FailNext = nil
		return nil, err
	}
	set, ok := r.sets[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *set
	cp.Questions = append([]models.SessionQuestion(nil), set.Questions...)
	return &cp, nil
}

func (r *MemQuestionSetRepo) Upsert(_ context.Context, userID string, questions []models.SessionQuestion, resumeVersion string) (*models.QuestionSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.FailNext; err != nil {
		r.FailNext = nil
		return nil, err
	}
	set := &models.QuestionSet{
		UserID:              userID,
		Questions:           append([]models.SessionQuestion(nil), questions...),
		SourceResumeVersion: resumeVersion,
		UpdatedAt:           time.Now().UTC(),
	}
	r.sets[userID] = set
	return set, nil
}

func (r *MemQuestionSetRepo) AppendQuestions(_ context.Context, userID string, questions []models.SessionQuestion) (*models.QuestionSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.sets[userID]
	if !ok {
		set = &models.QuestionSet{UserID: userID}
		r.sets[userID] = set
	}
	set.Questions = append(set.Questions, questions...)
	set.UpdatedAt = time.Now().UTC()
	return set, nil
}

func (r *MemQuestionSetRepo) MarkUsed(_ context.Context, userID, questionText string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.MarkUsedErrs) > 0 {
		err := r.MarkUsedErrs[0]
		r.MarkUsedErrs = r.MarkUsedErrs[1:]
		if err != nil {
			return err
		}
	}
	set, ok := r.sets[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	for i := range set.Questions {
		if set.Questions[i].Question == questionText {
			set.Questions[i].Used = true
			return nil
		}
	}
	return repositories.ErrNotFound
}

// UsedCount returns how many of userID's questions are marked used.
func (r *MemQuestionSetRepo) UsedCount(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.sets[userID]
	if !ok {
		return 0
	}
	n := 0
	for _, q := range set.Questions {
		if q.Used {
			n++
		}
	}
	return n
}
