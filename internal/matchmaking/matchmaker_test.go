package matchmaking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestMatchmaker() *Matchmaker {
	return New(zap.NewNop())
}

func TestFirstRequestWaits(t *testing.T) {
	mm := newTestMatchmaker()

	partner, outcome := mm.RequestPairing("c1")
	assert.Equal(t, OutcomeWaiting, outcome)
	assert.Empty(t, partner)
	assert.True(t, mm.Waiting())
	assert.Equal(t, 0, mm.PairCount())
}

func TestSecondRequestPairsWithOccupant(t *testing.T) {
	mm := newTestMatchmaker()
	mm.RequestPairing("c1")

	partner, outcome := mm.RequestPairing("c2")
	require.Equal(t, OutcomePaired, outcome)
	assert.Equal(t, "c1", partner)

	// slot is clear again, both directions of the pairing exist
	assert.False(t, mm.Waiting())
	assert.Equal(t, 1, mm.PairCount())

	p, ok := mm.PartnerOf("c1")
	require.True(t, ok)
	assert.Equal(t, "c2", p)
	p, ok = mm.PartnerOf("c2")
	require.True(t, ok)
	assert.Equal(t, "c1", p)
}

func TestRepeatedRequestFromWaiterStaysWaiting(t *testing.T) {
	mm := newTestMatchmaker()
	mm.RequestPairing("c1")

	_, outcome := mm.RequestPairing("c1")
	assert.Equal(t, OutcomeWaiting, outcome)
	assert.True(t, mm.Waiting())
	assert.Equal(t, 0, mm.PairCount())
}

func TestRequestWhilePairedIsRejected(t *testing.T) {
	mm := newTestMatchmaker()
	mm.RequestPairing("c1")
	mm.RequestPairing("c2")

	_, outcome := mm.RequestPairing("c1")
	assert.Equal(t, OutcomeAlreadyPaired, outcome)
	assert.False(t, mm.Waiting())
	assert.Equal(t, 1, mm.PairCount())
}

func TestThirdConnectionStartsNewSlot(t *testing.T) {
	mm := newTestMatchmaker()
	mm.RequestPairing("c1")
	mm.RequestPairing("c2")

	_, outcome := mm.RequestPairing("c3")
	assert.Equal(t, OutcomeWaiting, outcome)
	assert.True(t, mm.Waiting())

	partner, outcome := mm.RequestPairing("c4")
	require.Equal(t, OutcomePaired, outcome)
	assert.Equal(t, "c3", partner)
	assert.Equal(t, 2, mm.PairCount())
}

func TestUnpairRemovesBothDirections(t *testing.T) {
	mm := newTestMatchmaker()
	mm.RequestPairing("c1")
	mm.RequestPairing("c2")

	partner, removed := mm.Unpair("c2")
	require.True(t, removed)
	assert.Equal(t, "c1", partner)
	assert.Equal(t, 0, mm.PairCount())

	_, ok := mm.PartnerOf("c1")
	assert.False(t, ok)
	_, ok = mm.PartnerOf("c2")
	assert.False(t, ok)

	// idempotent
	_, removed = mm.Unpair("c2")
	assert.False(t, removed)
}

func TestDisconnectClearsWaitingSlot(t *testing.T) {
	mm := newTestMatchmaker()
	mm.RequestPairing("c1")

	partner, wasPaired := mm.Disconnect("c1")
	assert.False(t, wasPaired)
	assert.Empty(t, partner)
	assert.False(t, mm.Waiting())

	// the next request cannot pair with the departed occupant
	_, outcome := mm.RequestPairing("c2")
	assert.Equal(t, OutcomeWaiting, outcome)
}

func TestDisconnectWhilePairedReportsPartner(t *testing.T) {
	mm := newTestMatchmaker()
	mm.RequestPairing("c1")
	mm.RequestPairing("c2")

	partner, wasPaired := mm.Disconnect("c1")
	require.True(t, wasPaired)
	assert.Equal(t, "c2", partner)
	assert.Equal(t, 0, mm.PairCount())

	// a second disconnect for the same connection is a no-op
	_, wasPaired = mm.Disconnect("c1")
	assert.False(t, wasPaired)
}

func TestDisconnectUnrelatedConnectionLeavesSlot(t *testing.T) {
	mm := newTestMatchmaker()
	mm.RequestPairing("c1")

	_, wasPaired := mm.Disconnect("c9")
	assert.False(t, wasPaired)
	assert.True(t, mm.Waiting())
}
