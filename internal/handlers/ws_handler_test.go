package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/interview"
	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/matchmaking"
	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/models"
	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/registry"
	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/testhelpers"
)

const testSecret = "test-secret"

type wsFixture struct {
	server *httptest.Server
	reg    *registry.Registry
	banks  *testhelpers.MemQuestionSetRepo
}

func newWSFixture(t *testing.T, requireAuth bool) *wsFixture {
	t.Helper()
	log := zap.NewNop()
	reg := registry.New(log)
	mm := matchmaking.New(log)
	sessions := testhelpers.NewMemSessionRepo()
	histories := testhelpers.NewMemHistoryRepo()
	banks := testhelpers.NewMemQuestionSetRepo()
	coord := interview.NewCoordinator(log, reg, mm, sessions, histories, banks, nil, time.Second)

	h := NewWSHandler(log, reg, coord, testSecret, requireAuth)
	server := httptest.NewServer(http.HandlerFunc(h.Serve))
	t.Cleanup(server.Close)
	return &wsFixture{server: server, reg: reg, banks: banks}
}

func (f *wsFixture) wsURL(query string) string {
	u := "ws" + strings.TrimPrefix(f.server.URL, "http")
	if query != "" {
		u += "?" + query
	}
	return u
}

func (f *wsFixture) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(f.wsURL(query), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return tok
}

func readFrame(t *testing.T, conn *websocket.Conn) models.Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame models.Frame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func sendFrame(t *testing.T, conn *websocket.Conn, frame models.Frame) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(frame))
}

func TestServeRejectsMissingTokenWhenAuthRequired(t *testing.T) {
	f := newWSFixture(t, true)

	_, resp, err := websocket.DefaultDialer.Dial(f.wsURL(""), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServeRejectsForgedToken(t *testing.T) {
	f := newWSFixture(t, true)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1"}).
		SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	_, resp, dialErr := websocket.DefaultDialer.Dial(f.wsURL("token="+forged), nil)
	require.Error(t, dialErr)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServeIdentifiesUserFromToken(t *testing.T) {
	f := newWSFixture(t, true)
	token := signToken(t, jwt.MapClaims{"sub": "u1", "name": "User One"})

	conn := f.dial(t, "token="+token)
	sendFrame(t, conn, models.Frame{Type: models.EventJoinRoom})

	frame := readFrame(t, conn)
	assert.Equal(t, models.EventWaiting, frame.Type)

	c, ok := f.reg.GetByUser("u1")
	require.True(t, ok)
	assert.Equal(t, "User One", c.DisplayName)
}

func TestServeAnonymousFallsBackToQueryIdentity(t *testing.T) {
	f := newWSFixture(t, false)

	conn := f.dial(t, "userId=u9&name=Guest")
	sendFrame(t, conn, models.Frame{Type: models.EventJoinRoom})
	readFrame(t, conn)

	c, ok := f.reg.GetByUser("u9")
	require.True(t, ok)
	assert.Equal(t, "Guest", c.DisplayName)
}

func TestServePairsTwoClients(t *testing.T) {
	f := newWSFixture(t, false)
	f.banks.Seed("u1", 6)
	f.banks.Seed("u2", 6)

	c1 := f.dial(t, "userId=u1&name=One")
	c2 := f.dial(t, "userId=u2&name=Two")

	sendFrame(t, c1, models.Frame{Type: models.EventJoinRoom})
	require.Equal(t, models.EventWaiting, readFrame(t, c1).Type)

	sendFrame(t, c2, models.Frame{Type: models.EventJoinRoom})

	m1 := readFrame(t, c1)
	require.Equal(t, models.EventMatched, m1.Type)
	var matched models.MatchedPayload
	require.NoError(t, json.Unmarshal(m1.Data, &matched))
	assert.Equal(t, "Two", matched.PartnerName)
	require.Equal(t, models.EventTurnUpdated, readFrame(t, c1).Type)

	require.Equal(t, models.EventMatched, readFrame(t, c2).Type)
	require.Equal(t, models.EventTurnUpdated, readFrame(t, c2).Type)
}

func TestServeRelaysSignalingFrames(t *testing.T) {
	f := newWSFixture(t, false)
	f.banks.Seed("u1", 6)
	f.banks.Seed("u2", 6)

	c1 := f.dial(t, "userId=u1&name=One")
	c2 := f.dial(t, "userId=u2&name=Two")

	sendFrame(t, c1, models.Frame{Type: models.EventJoinRoom})
	require.Equal(t, models.EventWaiting, readFrame(t, c1).Type)
	sendFrame(t, c2, models.Frame{Type: models.EventJoinRoom})

	m1 := readFrame(t, c1)
	require.Equal(t, models.EventMatched, m1.Type)
	var matched models.MatchedPayload
	require.NoError(t, json.Unmarshal(m1.Data, &matched))
	readFrame(t, c1) // turn-updated
	readFrame(t, c2) // matched
	readFrame(t, c2) // turn-updated

	offer, err := json.Marshal(map[string]any{"to": matched.PeerID, "sdp": "v=0 fake offer"})
	require.NoError(t, err)
	sendFrame(t, c1, models.Frame{Type: models.EventOffer, Data: offer})

	relayed := readFrame(t, c2)
	require.Equal(t, models.EventOffer, relayed.Type)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(relayed.Data, &payload))
	assert.Equal(t, "v=0 fake offer", payload["sdp"])
	assert.NotEmpty(t, payload["from"])
	assert.NotContains(t, payload, "to")
}

func TestServeDisconnectNotifiesPartner(t *testing.T) {
	f := newWSFixture(t, false)
	f.banks.Seed("u1", 6)
	f.banks.Seed("u2", 6)

	c1 := f.dial(t, "userId=u1&name=One")
	c2 := f.dial(t, "userId=u2&name=Two")

	sendFrame(t, c1, models.Frame{Type: models.EventJoinRoom})
	require.Equal(t, models.EventWaiting, readFrame(t, c1).Type)
	sendFrame(t, c2, models.Frame{Type: models.EventJoinRoom})
	readFrame(t, c1) // matched
	readFrame(t, c1) // turn-updated
	readFrame(t, c2) // matched
	readFrame(t, c2) // turn-updated

	require.NoError(t, c1.Close())

	frame := readFrame(t, c2)
	assert.Equal(t, models.EventPeerDisconnected, frame.Type)
}

func TestServeClosesConnectionOnOversizedFrame(t *testing.T) {
	f := newWSFixture(t, false)
	conn := f.dial(t, "userId=u1")

	blob, err := json.Marshal(map[string]string{"blob": strings.Repeat("x", maxFrameSize+1)})
	require.NoError(t, err)
	sendFrame(t, conn, models.Frame{Type: models.EventOffer, Data: blob})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame models.Frame
	assert.Error(t, conn.ReadJSON(&frame), "server must drop the connection instead of buffering the frame")
}

func TestServeIgnoresUnknownEvents(t *testing.T) {
	f := newWSFixture(t, false)
	conn := f.dial(t, "userId=u1")

	sendFrame(t, conn, models.Frame{Type: "nonsense"})
	sendFrame(t, conn, models.Frame{Type: models.EventJoinRoom})

	// the connection survived the unknown frame
	assert.Equal(t, models.EventWaiting, readFrame(t, conn).Type)
}
