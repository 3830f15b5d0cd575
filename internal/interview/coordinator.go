// Package interview coordinates the turn-based question protocol on top of a
// pairing: session creation, question issuance, turn switching, completion
// and abandonment.
package interview

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/events"
	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/matchmaking"
	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/metrics"
	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/models"
	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/registry"
	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/repositories"
)

// Coordinator drives the session lifecycle and the turn protocol. Every
// operation re-loads the session from the store and validates it on the
// fresh copy: handlers suspend during store round-trips, and the partner may
// have disconnected in the meantime.
type Coordinator struct {
	log          *zap.Logger
	reg          *registry.Registry
	mm           *matchmaking.Matchmaker
	sessions     repositories.SessionRepository
	histories    repositories.HistoryRepository
	questionSets repositories.QuestionSetRepository
	publisher    events.Publisher
	opTimeout    time.Duration

	// pickStarter chooses the first interviewer; swapped in tests.
	pickStarter func(a, b string) string
}

func NewCoordinator(
	log *zap.Logger,
	reg *registry.Registry,
	mm *matchmaking.Matchmaker,
	sessions repositories.SessionRepository,
	histories repositories.HistoryRepository,
	questionSets repositories.QuestionSetRepository,
	publisher events.Publisher,
	opTimeout time.Duration,
) *Coordinator {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if opTimeout <= 0 {
		opTimeout = 5 * time.Second
	}
	return &Coordinator{
		log:          log,
		reg:          reg,
		mm:           mm,
		sessions:     sessions,
		histories:    histories,
		questionSets: questionSets,
		publisher:    publisher,
		opTimeout:    opTimeout,
		pickStarter: func(a, b string) string {
			if rand.Intn(2) == 0 {
				return a
			}
			return b
		},
	}
}

func (c *Coordinator) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.opTimeout)
}

// HandleJoinRoom processes a pairing request from connID.
func (c *Coordinator) HandleJoinRoom(ctx context.Context, connID string) {
	conn, ok := c.reg.Get(connID)
	if !ok {
		return
	}

	partnerID, outcome := c.mm.RequestPairing(connID)
	c.updateWaitingGauge()

	switch outcome {
	case matchmaking.OutcomeAlreadyPaired:
		c.log.Debug("join-room from already paired connection", zap.String("connId", connID))
	case matchmaking.OutcomeWaiting:
		c.reg.Send(connID, models.NewFrame(models.EventWaiting, nil))
	case matchmaking.OutcomePaired:
		partner, ok := c.reg.Get(partnerID)
		if !ok {
			// The occupant vanished between slot-clear and now; put the
			// caller into the slot instead.
			c.log.Warn("paired with vanished connection, re-queueing",
				zap.String("connId", connID), zap.String("partnerId", partnerID))
			c.mm.Unpair(connID)
			c.HandleJoinRoom(ctx, connID)
			return
		}
		if partner.UserID == conn.UserID {
			// Same user on two connections (a second tab). A session with
			// itself can never retire a question, so dissolve the pairing
			// and keep one connection in the slot.
			c.log.Warn("paired with own identity, re-queueing",
				zap.String("connId", connID), zap.String("userId", conn.UserID))
			c.mm.Unpair(connID)
			c.HandleJoinRoom(ctx, connID)
			return
		}
		c.createSession(ctx, conn, partner)
	}
}

// createSession attempts to start a session for a fresh pairing. Clients are
// only told they matched once the session exists; a failed creation aborts
// the pairing with a question-error on both sides.
func (c *Coordinator) createSession(ctx context.Context, a, b *registry.Connection) {
	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	questionsA, reason := c.drawQuestions(opCtx, a.UserID)
	if reason == "" {
		var questionsB []models.SessionQuestion
		questionsB, reason = c.drawQuestions(opCtx, b.UserID)
		if reason == "" {
			c.startSession(opCtx, a, b, questionsA, questionsB)
			return
		}
	}

	c.log.Info("pairing aborted",
		zap.String("userA", a.UserID),
		zap.String("userB", b.UserID),
		zap.String("reason", reason))
	frame := models.NewFrame(models.EventQuestionError, models.QuestionErrorPayload{Reason: reason})
	c.reg.Send(a.ID, frame)
	c.reg.Send(b.ID, frame)
	c.mm.Unpair(a.ID)
	c.updateWaitingGauge()
}

// drawQuestions fetches a user's unused questions and enforces the per-side
// minimum. The returned reason distinguishes "never generated a set" from
// "set exhausted"; a store failure also aborts (fail closed).
func (c *Coordinator) drawQuestions(ctx context.Context, userID string) ([]models.SessionQuestion, string) {
	set, err := c.questionSets.Get(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, models.ReasonNoQuestionSet
	}
	if err != nil {
		c.log.Error("question bank fetch failed", zap.String("userId", userID), zap.Error(err))
		return nil, models.ReasonServiceError
	}
	unused := set.Unused()
	if len(unused) < models.MinQuestionsPerSide {
		return nil, models.ReasonInsufficientQuestions
	}
	return unused[:models.MinQuestionsPerSide], ""
}

func (c *Coordinator) startSession(ctx context.Context, a, b *registry.Connection, questionsA, questionsB []models.SessionQuestion) {
	sess := &models.InterviewSession{
		ID:            uuid.NewString(),
		UserA:         a.UserID,
		UserB:         b.UserID,
		QuestionsForA: questionsA,
		QuestionsForB: questionsB,
		CurrentTurn:   c.pickStarter(a.UserID, b.UserID),
		Status:        models.SessionActive,
	}

	if err := c.sessions.Create(ctx, sess); err != nil {
		c.log.Error("session create failed", zap.Error(err))
		frame := models.NewFrame(models.EventQuestionError, models.QuestionErrorPayload{Reason: models.ReasonServiceError})
		c.reg.Send(a.ID, frame)
		c.reg.Send(b.ID, frame)
		c.mm.Unpair(a.ID)
		c.updateWaitingGauge()
		return
	}

	c.reg.AttachSession(a.ID, sess.ID)
	c.reg.AttachSession(b.ID, sess.ID)

	c.log.Info("session created",
		zap.String("sessionId", sess.ID),
		zap.String("userA", sess.UserA),
		zap.String("userB", sess.UserB),
		zap.String("startingTurn", sess.CurrentTurn))
	metrics.MatchesFormed.Inc()
	c.publisher.Publish(ctx, events.SessionEvent{
		Type:      events.TypeSessionStarted,
		SessionID: sess.ID,
		UserA:     sess.UserA,
		UserB:     sess.UserB,
	})

	c.reg.Send(a.ID, models.NewFrame(models.EventMatched, models.MatchedPayload{
		PeerID:      b.ID,
		PartnerName: b.DisplayName,
	}))
	c.reg.Send(b.ID, models.NewFrame(models.EventMatched, models.MatchedPayload{
		PeerID:      a.ID,
		PartnerName: a.DisplayName,
	}))

	turn := models.NewFrame(models.EventTurnUpdated, models.TurnUpdatedPayload{CurrentTurn: sess.CurrentTurn})
	c.reg.Send(a.ID, turn)
	c.reg.Send(b.ID, turn)
}

// loadFor re-loads the caller's session and re-checks that the connection
// still references it after the store round-trip.
func (c *Coordinator) loadFor(ctx context.Context, connID string) (*registry.Connection, *models.InterviewSession, bool) {
	conn, ok := c.reg.Get(connID)
	if !ok {
		return nil, nil, false
	}
	sid := conn.SessionID()
	if sid == "" {
		c.log.Debug("operation without attached session", zap.String("connId", connID))
		return nil, nil, false
	}

	s, err := c.sessions.Get(ctx, sid)
	if errors.Is(err, repositories.ErrNotFound) {
		c.log.Debug("session gone", zap.String("sessionId", sid))
		return nil, nil, false
	}
	if err != nil {
		c.log.Error("session load failed", zap.String("sessionId", sid), zap.Error(err))
		return nil, nil, false
	}
	if conn.SessionID() != sid {
		c.log.Debug("session detached mid-operation", zap.String("connId", connID))
		return nil, nil, false
	}
	return conn, s, true
}

// HandleAskQuestion issues the next question of the candidate's list. All
// precondition violations are silent no-ops.
func (c *Coordinator) HandleAskQuestion(ctx context.Context, connID string) {
	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	conn, s, ok := c.loadFor(opCtx, connID)
	if !ok {
		return
	}
	if reason := canAsk(s, conn.UserID); reason != "" {
		c.log.Debug("ask-question ignored",
			zap.String("sessionId", s.ID),
			zap.String("userId", conn.UserID),
			zap.String("reason", reason))
		return
	}

	q := applyAsk(s, conn.UserID)
	if err := c.sessions.Update(opCtx, s); err != nil {
		c.log.Error("session persist failed on ask", zap.String("sessionId", s.ID), zap.Error(err))
		return
	}

	// The question belongs to the candidate's bank; consuming it there is
	// at-least-once and explicitly non-transactional with the turn state.
	owner := s.Partner(conn.UserID)
	markCtx, markCancel := c.opContext(context.Background())
	if err := c.questionSets.MarkUsed(markCtx, owner, q.Question); err != nil {
		c.log.Warn("mark-used failed",
			zap.String("userId", owner),
			zap.String("question", q.Question),
			zap.Error(err))
	}
	markCancel()

	metrics.QuestionsAsked.Inc()
	frame := models.NewFrame(models.EventQuestionReceived, models.QuestionReceivedPayload{
		Question:      q.Question,
		Section:       q.Section,
		InterviewerID: conn.UserID,
	})
	c.reg.SendToUser(s.UserA, frame)
	c.reg.SendToUser(s.UserB, frame)
}

// HandleFinishAsking only audits the interviewer's signal; there is no state
// transition.
func (c *Coordinator) HandleFinishAsking(ctx context.Context, connID string) {
	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	conn, s, ok := c.loadFor(opCtx, connID)
	if !ok {
		return
	}
	if reason := canFinishAsking(s, conn.UserID); reason != "" {
		c.log.Debug("finish-asking ignored",
			zap.String("sessionId", s.ID),
			zap.String("userId", conn.UserID),
			zap.String("reason", reason))
		return
	}
	c.log.Info("interviewer finished asking",
		zap.String("sessionId", s.ID),
		zap.String("interviewerId", conn.UserID))
}

// HandleStartAnswer reveals the canonical answer to the interviewer only.
func (c *Coordinator) HandleStartAnswer(ctx context.Context, connID string) {
	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	conn, s, ok := c.loadFor(opCtx, connID)
	if !ok {
		return
	}
	if reason := canAnswer(s, conn.UserID); reason != "" {
		c.log.Debug("start-answer ignored",
			zap.String("sessionId", s.ID),
			zap.String("userId", conn.UserID),
			zap.String("reason", reason))
		return
	}

	c.reg.SendToUser(s.CurrentTurn, models.NewFrame(models.EventAIAnswer, models.AIAnswerPayload{
		Answer: s.CurrentQuestion.Answer,
	}))
}

// HandleStopAnswer retires the live question: cursor advance, turn flip, and
// either a turn-updated broadcast or session completion when both lists are
// exhausted.
func (c *Coordinator) HandleStopAnswer(ctx context.Context, connID string) {
	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	conn, s, ok := c.loadFor(opCtx, connID)
	if !ok {
		return
	}
	if reason := canAnswer(s, conn.UserID); reason != "" {
		c.log.Debug("stop-answer ignored",
			zap.String("sessionId", s.ID),
			zap.String("userId", conn.UserID),
			zap.String("reason", reason))
		return
	}

	if completed := applyStopAnswer(s); completed {
		c.finalize(opCtx, s.ID, models.SessionEnded)
		return
	}

	if err := c.sessions.Update(opCtx, s); err != nil {
		c.log.Error("session persist failed on stop-answer", zap.String("sessionId", s.ID), zap.Error(err))
		return
	}

	frame := models.NewFrame(models.EventTurnUpdated, models.TurnUpdatedPayload{CurrentTurn: s.CurrentTurn})
	c.reg.SendToUser(s.UserA, frame)
	c.reg.SendToUser(s.UserB, frame)
}

// HandleDisconnect tears down every trace of the connection: registry entry,
// waiting slot, pairing, and the active session if one is attached. Safe
// under duplicate and concurrent disconnect signals.
func (c *Coordinator) HandleDisconnect(ctx context.Context, connID string) {
	conn := c.reg.Remove(connID)
	metrics.ConnectedClients.Set(float64(c.reg.Count()))
	if conn == nil {
		return
	}

	partnerID, wasPaired := c.mm.Disconnect(connID)
	c.updateWaitingGauge()
	if wasPaired {
		c.reg.Send(partnerID, models.NewFrame(models.EventPeerDisconnected, nil))
	}

	if sid := conn.SessionID(); sid != "" {
		opCtx, cancel := c.opContext(ctx)
		defer cancel()
		c.finalize(opCtx, sid, models.SessionAbandoned)
	}
}

// SweepStale abandons active sessions older than cutoff whose participants
// both dropped off without a clean disconnect (process restarts, network
// partitions). Runs on a schedule.
func (c *Coordinator) SweepStale(ctx context.Context, olderThan time.Duration) {
	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	stale, err := c.sessions.ActiveOlderThan(opCtx, time.Now().UTC().Add(-olderThan))
	if err != nil {
		c.log.Error("stale session scan failed", zap.Error(err))
		return
	}
	for _, s := range stale {
		if c.reg.HasUser(s.UserA) || c.reg.HasUser(s.UserB) {
			continue
		}
		c.log.Warn("sweeping stale session", zap.String("sessionId", s.ID))
		sweepCtx, sweepCancel := c.opContext(ctx)
		c.finalize(sweepCtx, s.ID, models.SessionAbandoned)
		sweepCancel()
	}
}

// finalize moves a session to a terminal state exactly once: compare-and-set
// out of "active", write both history records, delete the session, notify.
// "Session not found" means the other side (or a racing disconnect) already
// handled it.
func (c *Coordinator) finalize(ctx context.Context, sessionID, terminalStatus string) {
	s, err := c.sessions.FinishActive(ctx, sessionID, terminalStatus)
	if errors.Is(err, repositories.ErrNotFound) {
		c.log.Debug("session already finalized", zap.String("sessionId", sessionID))
		return
	}
	if err != nil {
		c.log.Error("terminal transition failed", zap.String("sessionId", sessionID), zap.Error(err))
		return
	}

	duration := int64(time.Since(s.CreatedAt).Seconds())
	if duration < 0 {
		duration = 0
	}

	histStatus := models.HistoryCompleted
	if terminalStatus == models.SessionAbandoned {
		histStatus = models.HistoryAbandoned
	}

	histA := &models.SessionHistory{
		User:        s.UserA,
		Partner:     s.UserB,
		PartnerName: c.displayName(s.UserB),
		Questions:   s.QuestionsForA,
		Duration:    duration,
		Status:      histStatus,
	}
	histB := &models.SessionHistory{
		User:        s.UserB,
		Partner:     s.UserA,
		PartnerName: c.displayName(s.UserA),
		Questions:   s.QuestionsForB,
		Duration:    duration,
		Status:      histStatus,
	}

	if err := c.histories.Insert(ctx, histA, histB); err != nil {
		// The session is consumed at this point; dump enough to rebuild the
		// records by hand rather than lose them silently.
		c.log.Error("history write failed, manual reconstruction needed",
			zap.String("sessionId", s.ID),
			zap.String("status", histStatus),
			zap.Int64("duration", duration),
			zap.Any("session", s),
			zap.Error(err))
	}

	if err := c.sessions.Delete(ctx, s.ID); err != nil {
		c.log.Error("session delete failed", zap.String("sessionId", s.ID), zap.Error(err))
	}

	for _, userID := range []string{s.UserA, s.UserB} {
		if conn, ok := c.reg.GetByUser(userID); ok {
			c.reg.DetachSession(conn.ID, s.ID)
		}
	}

	metrics.SessionsEnded.WithLabelValues(histStatus).Inc()
	c.publisher.Publish(ctx, events.SessionEvent{
		Type:      events.TypeSessionEnded,
		SessionID: s.ID,
		UserA:     s.UserA,
		UserB:     s.UserB,
		Status:    histStatus,
	})
	c.log.Info("session finalized",
		zap.String("sessionId", s.ID),
		zap.String("status", histStatus),
		zap.Int64("duration", duration))

	if terminalStatus == models.SessionEnded {
		done := models.NewFrame(models.EventInterviewCompleted, nil)
		c.reg.SendToUser(s.UserA, done)
		c.reg.SendToUser(s.UserB, done)
	}
}

func (c *Coordinator) displayName(userID string) string {
	if conn, ok := c.reg.GetByUser(userID); ok {
		return conn.DisplayName
	}
	return ""
}

func (c *Coordinator) updateWaitingGauge() {
	if c.mm.Waiting() {
		metrics.WaitingClients.Set(1)
	} else {
		metrics.WaitingClients.Set(0)
	}
}
