package interview

import (
	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/models"
)

// The turn protocol is expressed as pure functions over a loaded session so
// it can be tested without a store or transport. The coordinator is the
// imperative shell around them: it loads, validates, applies, persists, and
// emits. Validation always runs on freshly loaded state, after any store
// round-trip.

// canAsk returns "" when caller may draw the next question, otherwise a
// short reason for the audit log. Every non-empty reason is a silent no-op
// at the protocol level.
func canAsk(s *models.InterviewSession, caller string) string {
	switch {
	case s.Status != models.SessionActive:
		return "session not active"
	case caller != s.CurrentTurn:
		return "not caller's turn"
	case s.QuestionActive:
		return "question already active"
	}
	list, idx := interviewTarget(s, caller)
	if idx >= len(list) {
		return "question list exhausted"
	}
	return ""
}

// interviewTarget returns the list the interviewer works through and its
// cursor: always the partner's prepared questions.
func interviewTarget(s *models.InterviewSession, interviewer string) ([]models.SessionQuestion, int) {
	if interviewer == s.UserA {
		return s.QuestionsForB, s.IndexForB
	}
	return s.QuestionsForA, s.IndexForA
}

// applyAsk marks the next question live and returns it. Callers must have
// checked canAsk on the same state.
func applyAsk(s *models.InterviewSession, caller string) *models.SessionQuestion {
	list, idx := interviewTarget(s, caller)
	q := list[idx]
	s.CurrentQuestion = &q
	s.QuestionActive = true
	return &q
}

// canFinishAsking validates the interviewer's courtesy signal. No state
// transition follows either way.
func canFinishAsking(s *models.InterviewSession, caller string) string {
	switch {
	case s.Status != models.SessionActive:
		return "session not active"
	case caller != s.CurrentTurn:
		return "not caller's turn"
	case !s.QuestionActive:
		return "no question active"
	}
	return ""
}

// canAnswer covers both start-answer and stop-answer: the candidate (the
// non-interviewer) acts while a question is live.
func canAnswer(s *models.InterviewSession, caller string) string {
	switch {
	case s.Status != models.SessionActive:
		return "session not active"
	case !s.HasParticipant(caller):
		return "caller not in session"
	case caller == s.CurrentTurn:
		return "caller is the interviewer"
	case !s.QuestionActive:
		return "no question active"
	}
	return ""
}

// applyStopAnswer retires the live question: advances the cursor of the list
// it came from, hands the interviewer role to the other participant, and
// clears the live-question state. Reports whether both lists are now
// exhausted, in which case the session is due for completion instead of a
// turn-switch notification.
func applyStopAnswer(s *models.InterviewSession) (completed bool) {
	if s.CurrentTurn == s.UserA {
		s.IndexForB++
	} else {
		s.IndexForA++
	}
	s.CurrentTurn = s.Partner(s.CurrentTurn)
	s.QuestionActive = false
	s.CurrentQuestion = nil

	return s.IndexForA >= len(s.QuestionsForA) && s.IndexForB >= len(s.QuestionsForB)
}
