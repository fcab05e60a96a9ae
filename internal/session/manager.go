package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"backend-routesmith/internal/metrics"
	"backend-routesmith/internal/planner"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("session not found")

// Publisher receives every snapshot a session produces, already encoded.
type Publisher interface {
	Broadcast(sessionID string, payload []byte)
}

// EngineFactory builds the engine for a new session. The manager appends its
// own observer to opts.
type EngineFactory func(opts ...planner.Option) *planner.Engine

// Session is one planning session: an engine plus the active map tool.
type Session struct {
	ID     string
	Engine *planner.Engine

	mu       sync.Mutex
	tool     planner.ToolMode
	lastSeen time.Time
}

func (s *Session) Tool() planner.ToolMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tool
}

func (s *Session) SetTool(m planner.ToolMode) {
	s.mu.Lock()
	s.tool = m
	s.mu.Unlock()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

type Manager struct {
	newEngine EngineFactory
	publisher Publisher
	ttl       time.Duration
	logger    *zap.Logger
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager returns an empty registry. publisher may be nil; ttl <= 0 keeps
// sessions until they are deleted.
func NewManager(factory EngineFactory, publisher Publisher, ttl time.Duration, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		newEngine: factory,
		publisher: publisher,
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
		sessions:  map[string]*Session{},
	}
}

func (m *Manager) Create() *Session {
	id := uuid.NewString()
	s := &Session{ID: id, tool: planner.ToolMode{Kind: planner.ToolNone}, lastSeen: m.now()}
	s.Engine = m.newEngine(planner.WithObserver(m.publish(id)))

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	metrics.ActiveSessions.Inc()
	m.logger.Debug("session created", zap.String("session", id))
	return s
}

// Get returns the session and marks it as active.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	s.touch(m.now())
	return s, nil
}

func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		metrics.ActiveSessions.Dec()
	}
	return ok
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// SnapshotJSON encodes the current snapshot of a session for a newly
// connected stream client.
func (m *Manager) SnapshotJSON(id string) ([]byte, bool) {
	s, err := m.Get(id)
	if err != nil {
		return nil, false
	}
	payload, err := json.Marshal(s.Engine.Snapshot())
	if err != nil {
		m.logger.Error("encode snapshot", zap.String("session", id), zap.Error(err))
		return nil, false
	}
	return payload, true
}

// Sweep drops sessions idle for longer than the TTL and reports how many were
// removed.
func (m *Manager) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.ttl)
	m.mu.Lock()
	var expired []string
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			expired = append(expired, id)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, id := range expired {
		metrics.ActiveSessions.Dec()
		m.logger.Info("session expired", zap.String("session", id))
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

func (m *Manager) publish(id string) func(planner.Snapshot) {
	return func(snap planner.Snapshot) {
		if m.publisher == nil {
			return
		}
		payload, err := json.Marshal(snap)
		if err != nil {
			m.logger.Error("encode snapshot", zap.String("session", id), zap.Error(err))
			return
		}
		m.publisher.Broadcast(id, payload)
	}
}
