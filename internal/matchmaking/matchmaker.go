// Package matchmaking implements the single-slot waiting queue and the
// exclusive pairing relation between connections.
package matchmaking

import (
	"sync"

	"go.uber.org/zap"
)

// Outcome of a pairing request.
type Outcome int

const (
	// OutcomeWaiting means the caller is now the waiting-slot occupant.
	OutcomeWaiting Outcome = iota
	// OutcomePaired means the caller was paired with the previous occupant.
	OutcomePaired
	// OutcomeAlreadyPaired means the caller is in a pairing already; the
	// request changes nothing.
	OutcomeAlreadyPaired
)

// Matchmaker holds the process-wide waiting slot and pairing map. One mutex
// covers both so a pairing request is a single check-and-clear step: two
// near-simultaneous requests can never both see an empty slot.
type Matchmaker struct {
	log *zap.Logger

	mu      sync.Mutex
	waiting string            // conn id of the slot occupant, "" when empty
	pairs   map[string]string // bidirectional: both directions always present
}

func New(log *zap.Logger) *Matchmaker {
	return &Matchmaker{
		log:   log,
		pairs: make(map[string]string),
	}
}

// RequestPairing places connID in the waiting slot or pairs it with the
// current occupant. On OutcomePaired the returned partner is the previous
// occupant and the slot is already clear.
func (m *Matchmaker) RequestPairing(connID string) (partner string, outcome Outcome) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, paired := m.pairs[connID]; paired {
		return "", OutcomeAlreadyPaired
	}
	if m.waiting == "" || m.waiting == connID {
		m.waiting = connID
		m.log.Info("connection waiting for a partner", zap.String("connId", connID))
		return "", OutcomeWaiting
	}

	partner = m.waiting
	m.waiting = ""
	m.pairs[connID] = partner
	m.pairs[partner] = connID
	m.log.Info("pairing formed",
		zap.String("connId", connID),
		zap.String("partnerId", partner))
	return partner, OutcomePaired
}

// PartnerOf returns the paired partner of connID, if any.
func (m *Matchmaker) PartnerOf(connID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pairs[connID]
	return p, ok
}

// Unpair removes the pairing connID belongs to, both directions at once.
// Idempotent: unpairing an unpaired connection is a no-op. Returns the former
// partner when a pairing was actually removed.
func (m *Matchmaker) Unpair(connID string) (partner string, removed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unpairLocked(connID)
}

func (m *Matchmaker) unpairLocked(connID string) (string, bool) {
	partner, ok := m.pairs[connID]
	if !ok {
		return "", false
	}
	delete(m.pairs, connID)
	delete(m.pairs, partner)
	m.log.Info("pairing removed",
		zap.String("connId", connID),
		zap.String("partnerId", partner))
	return partner, true
}

// Disconnect clears every matchmaking trace of connID: the waiting slot if it
// is the occupant, and its pairing if it has one. Safe to call more than once
// for the same connection.
func (m *Matchmaker) Disconnect(connID string) (partner string, wasPaired bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.waiting == connID {
		m.waiting = ""
		m.log.Info("waiting slot cleared on disconnect", zap.String("connId", connID))
	}
	return m.unpairLocked(connID)
}

// Waiting reports whether the slot is occupied, for metrics and tests.
func (m *Matchmaker) Waiting() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.waiting != ""
}

// PairCount returns the number of active pairings.
func (m *Matchmaker) PairCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pairs) / 2
}
