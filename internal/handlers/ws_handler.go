package handlers

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/interview"
	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/metrics"
	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/models"
	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/registry"
	"github.com/sinhaatharv23/Mini-Project-6th-Sem/internal/utils"
)

// maxFrameSize bounds inbound messages. SDP offers are the largest legitimate
// frames and stay well under this.
const maxFrameSize = 64 << 10

// wsSender adapts a websocket connection to the registry's Sender. The write
// mutex matters: besides the owning read loop, partner handlers and the
// sweeper emit frames to this connection.
type wsSender struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSender) Send(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

func (s *wsSender) Close() error {
	return s.conn.Close()
}

// WSHandler is the event-surface entry point: it authenticates the upgrade,
// registers the connection, and pumps inbound frames into the coordinator.
type WSHandler struct {
	log         *zap.Logger
	upgrader    websocket.Upgrader
	reg         *registry.Registry
	coord       *interview.Coordinator
	jwtSecret   string
	requireAuth bool
}

func NewWSHandler(log *zap.Logger, reg *registry.Registry, coord *interview.Coordinator, jwtSecret string, requireAuth bool) *WSHandler {
	return &WSHandler{
		log:         log,
		upgrader:    websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		reg:         reg,
		coord:       coord,
		jwtSecret:   jwtSecret,
		requireAuth: requireAuth,
	}
}

// identify extracts the user identity and display name from the upgrade
// request. When verification is required a bad token refuses the handshake.
func (h *WSHandler) identify(r *http.Request) (userID, name string, err error) {
	token := utils.TokenFromRequest(r)
	if token != "" {
		claims, verr := utils.VerifyToken(token, h.jwtSecret)
		if verr == nil {
			userID = utils.ClaimString(claims, "sub")
			if userID == "" {
				userID = utils.ClaimString(claims, "userId")
			}
			name = utils.ClaimString(claims, "name")
			if name == "" {
				name = utils.ClaimString(claims, "username")
			}
		} else if h.requireAuth {
			return "", "", verr
		}
	} else if h.requireAuth {
		return "", "", utils.ErrMissingToken
	}

	if userID == "" {
		userID = r.URL.Query().Get("userId")
	}
	if name == "" {
		name = r.URL.Query().Get("name")
	}
	if name == "" {
		name = "Anonymous"
	}
	return userID, name, nil
}

func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	userID, name, err := h.identify(r)
	if err != nil {
		h.log.Warn("rejecting websocket handshake", zap.Error(err))
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn.SetReadLimit(maxFrameSize)

	connID := uuid.NewString()
	if userID == "" {
		// Anonymous mode: the connection id doubles as the identity, the
		// way the original pairing worked before accounts existed.
		userID = connID
	}

	h.reg.Add(connID, userID, name, &wsSender{conn: conn})
	metrics.ConnectedClients.Set(float64(h.reg.Count()))

	defer func() {
		h.coord.HandleDisconnect(r.Context(), connID)
		conn.Close()
	}()

	for {
		var frame models.Frame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("websocket read error", zap.String("connId", connID), zap.Error(err))
			}
			return
		}
		h.dispatch(r, connID, frame)
	}
}

func (h *WSHandler) dispatch(r *http.Request, connID string, frame models.Frame) {
	ctx := r.Context()
	switch frame.Type {
	case models.EventJoinRoom:
		h.coord.HandleJoinRoom(ctx, connID)
	case models.EventAskQuestion:
		h.coord.HandleAskQuestion(ctx, connID)
	case models.EventFinishAsking:
		h.coord.HandleFinishAsking(ctx, connID)
	case models.EventStartAnswer:
		h.coord.HandleStartAnswer(ctx, connID)
	case models.EventStopAnswer:
		h.coord.HandleStopAnswer(ctx, connID)
	case models.EventOffer, models.EventAnswer, models.EventICECandidate:
		h.relay(connID, frame)
	default:
		h.log.Debug("unknown event type",
			zap.String("connId", connID),
			zap.String("type", frame.Type))
	}
}

// relay forwards a signaling frame to the addressed peer, stamping the
// sender. Payloads are opaque; only the routing fields are touched.
func (h *WSHandler) relay(connID string, frame models.Frame) {
	var payload map[string]any
	if err := json.Unmarshal(frame.Data, &payload); err != nil {
		h.log.Debug("malformed signaling payload", zap.String("connId", connID), zap.Error(err))
		return
	}
	to, _ := payload["to"].(string)
	if to == "" {
		h.log.Debug("signaling frame without target", zap.String("connId", connID))
		return
	}
	delete(payload, "to")
	payload["from"] = connID

	h.reg.Send(to, models.NewFrame(frame.Type, payload))
}
