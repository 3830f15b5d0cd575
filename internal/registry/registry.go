// Package registry tracks live connections and the identity attached to each.
// It owns the connection-id -> transport-handle side table; nothing else in
// the process touches websocket connections directly.
package registry

import (
	"sync"

	"go.uber.org/zap"
)

// Sender is the transport handle for one connection. The websocket
// implementation lives in the handlers package; tests substitute a recorder.
type Sender interface {
	Send(v any) error
	Close() error
}

// Connection is one live client link. UserID is empty until the handshake
// established an identity; SessionID is empty until a session is attached.
type Connection struct {
	ID          string
	UserID      string
	DisplayName string

	mu        sync.Mutex
	sessionID string
	sender    Sender
}

// SessionID returns the currently attached session reference, if any.
func (c *Connection) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *Connection) setSession(id string) {
	c.mu.Lock()
	c.sessionID = id
	c.mu.Unlock()
}

// Send writes one event frame to the client. Errors are reported so the
// caller can log them; a failed send never tears anything down here.
func (c *Connection) Send(v any) error {
	c.mu.Lock()
	sender := c.sender
	c.mu.Unlock()
	if sender == nil {
		return nil
	}
	return sender.Send(v)
}

// Registry is the process-wide connection table.
type Registry struct {
	log *zap.Logger

	mu     sync.RWMutex
	conns  map[string]*Connection
	byUser map[string]string // user id -> connection id
}

func New(log *zap.Logger) *Registry {
	return &Registry{
		log:    log,
		conns:  make(map[string]*Connection),
		byUser: make(map[string]string),
	}
}

// Add records a new connection. If the user already has a live connection the
// old mapping is displaced; the stale link will clean itself up on disconnect.
func (r *Registry) Add(connID, userID, displayName string, sender Sender) *Connection {
	c := &Connection{ID: connID, UserID: userID, DisplayName: displayName, sender: sender}

	r.mu.Lock()
	r.conns[connID] = c
	if userID != "" {
		r.byUser[userID] = connID
	}
	r.mu.Unlock()

	r.log.Info("connection registered",
		zap.String("connId", connID),
		zap.String("userId", userID),
		zap.String("name", displayName))
	return c
}

// Remove drops all registry entries for the connection. Idempotent; returns
// the removed connection, or nil if it was already gone.
func (r *Registry) Remove(connID string) *Connection {
	r.mu.Lock()
	c, ok := r.conns[connID]
	if ok {
		delete(r.conns, connID)
		if c.UserID != "" && r.byUser[c.UserID] == connID {
			delete(r.byUser, c.UserID)
		}
	}
	r.mu.Unlock()

	if !ok {
		return nil
	}
	r.log.Info("connection removed", zap.String("connId", connID), zap.String("userId", c.UserID))
	return c
}

// Get looks a connection up by its id.
func (r *Registry) Get(connID string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[connID]
	return c, ok
}

// GetByUser looks a connection up by the attached user identity.
func (r *Registry) GetByUser(userID string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byUser[userID]
	if !ok {
		return nil, false
	}
	c, ok := r.conns[id]
	return c, ok
}

// HasUser reports whether the user currently has a live connection.
func (r *Registry) HasUser(userID string) bool {
	_, ok := r.GetByUser(userID)
	return ok
}

// AttachSession links a session reference to the connection.
func (r *Registry) AttachSession(connID, sessionID string) {
	if c, ok := r.Get(connID); ok {
		c.setSession(sessionID)
	}
}

// DetachSession clears the session reference, if it still points at
// sessionID. A newer attachment is left alone.
func (r *Registry) DetachSession(connID, sessionID string) {
	c, ok := r.Get(connID)
	if !ok {
		return
	}
	c.mu.Lock()
	if c.sessionID == sessionID {
		c.sessionID = ""
	}
	c.mu.Unlock()
}

// Send delivers an event to a connection by id, logging delivery failures.
func (r *Registry) Send(connID string, v any) {
	c, ok := r.Get(connID)
	if !ok {
		r.log.Debug("send to unknown connection", zap.String("connId", connID))
		return
	}
	if err := c.Send(v); err != nil {
		r.log.Warn("send failed", zap.String("connId", connID), zap.Error(err))
	}
}

// SendToUser delivers an event to whatever connection the user currently has.
func (r *Registry) SendToUser(userID string, v any) {
	c, ok := r.GetByUser(userID)
	if !ok {
		r.log.Debug("send to offline user", zap.String("userId", userID))
		return
	}
	if err := c.Send(v); err != nil {
		r.log.Warn("send failed", zap.String("userId", userID), zap.Error(err))
	}
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
