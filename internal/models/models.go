package models

import (
	"time"
)

// Session status values. A session document only ever exists with status
// "active"; terminal statuses appear on the history records it leaves behind.
const (
	SessionActive    = "active"
	SessionEnded     = "ended"
	SessionAbandoned = "abandoned"

	HistoryCompleted = "completed"
	HistoryAbandoned = "abandoned"
)

// MinQuestionsPerSide is how many unused questions each participant must have
// before a session can start. Each side answers exactly this many questions.
const MinQuestionsPerSide = 5

// SessionQuestion is one generated question/answer pair. Used marks global
// consumption in the owner's question set, distinct from the per-session cursors.
type SessionQuestion struct {
	Section  string `bson:"section" json:"section"`
	Question string `bson:"question" json:"question"`
	Answer   string `bson:"answer" json:"answer"`
	Used     bool   `bson:"used" json:"used"`
}

// QuestionSet is a user's bank of generated questions, upserted by the AI
// worker callback and consumed when a session starts.
type QuestionSet struct {
	UserID              string            `bson:"user_id" json:"userId"`
	Questions           []SessionQuestion `bson:"questions" json:"questions"`
	SourceResumeVersion string            `bson:"source_resume_version,omitempty" json:"sourceResumeVersion,omitempty"`
	UpdatedAt           time.Time         `bson:"updated_at" json:"updatedAt"`
}

// Unused returns the questions not yet marked used, in stored order.
func (qs *QuestionSet) Unused() []SessionQuestion {
	out := make([]SessionQuestion, 0, len(qs.Questions))
	for _, q := range qs.Questions {
		if !q.Used {
			out = append(out, q)
		}
	}
	return out
}

// InterviewSession is the mutable record of one active pairing.
//
// QuestionsForA is the list A answers (generated from A's own resume); the
// interviewer on the other side works through it via IndexForA, and vice versa.
// CurrentTurn holds the user id of the current interviewer.
type InterviewSession struct {
	ID              string            `bson:"_id" json:"id"`
	UserA           string            `bson:"userA" json:"userA"`
	UserB           string            `bson:"userB" json:"userB"`
	QuestionsForA   []SessionQuestion `bson:"questionsForA" json:"questionsForA"`
	QuestionsForB   []SessionQuestion `bson:"questionsForB" json:"questionsForB"`
	IndexForA       int               `bson:"indexForA" json:"indexForA"`
	IndexForB       int               `bson:"indexForB" json:"indexForB"`
	CurrentTurn     string            `bson:"currentTurn" json:"currentTurn"`
	CurrentQuestion *SessionQuestion  `bson:"currentQuestion,omitempty" json:"currentQuestion,omitempty"`
	QuestionActive  bool              `bson:"questionActive" json:"questionActive"`
	Status          string            `bson:"status" json:"status"`
	CreatedAt       time.Time         `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time         `bson:"updatedAt" json:"updatedAt"`
}

// Partner returns the other participant's user id, or "" if userID is not a
// participant.
func (s *InterviewSession) Partner(userID string) string {
	switch userID {
	case s.UserA:
		return s.UserB
	case s.UserB:
		return s.UserA
	}
	return ""
}

// HasParticipant reports whether userID is one of the two participants.
func (s *InterviewSession) HasParticipant(userID string) bool {
	return userID == s.UserA || userID == s.UserB
}

// SessionHistory is the immutable terminal record of a finished session, one
// per participant. Questions is the full list that was assigned to User,
// regardless of how far the cursors got.
type SessionHistory struct {
	ID          string            `bson:"_id,omitempty" json:"id,omitempty"`
	User        string            `bson:"user" json:"user"`
	Partner     string            `bson:"partner" json:"partner"`
	PartnerName string            `bson:"partnerName,omitempty" json:"partnerName,omitempty"`
	Questions   []SessionQuestion `bson:"questions" json:"questions"`
	Duration    int64             `bson:"duration" json:"duration"` // whole seconds
	Status      string            `bson:"status" json:"status"`
	CreatedAt   time.Time         `bson:"createdAt" json:"createdAt"`
}

// HistorySummary is the read-side response for a user's recent sessions.
type HistorySummary struct {
	TotalSessions  int64            `json:"totalSessions"`
	RecentSessions []SessionHistory `json:"recentSessions"`
}
