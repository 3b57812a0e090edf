package intake

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/clinic-intake/internal/observability/metrics"
	"github.com/wolfman30/clinic-intake/internal/scheduling"
	"github.com/wolfman30/clinic-intake/pkg/logging"
)

// ErrSessionNotFound is returned for unknown or evicted session IDs.
var ErrSessionNotFound = errors.New("intake: session not found")

const (
	SpeakerAgent = "agent"
	SpeakerUser  = "user"
)

// Turn is one line of the transcript, in arrival order.
type Turn struct {
	Speaker string    `json:"speaker"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}

// Snapshot is the read model of a session for UIs that reconnect.
type Snapshot struct {
	SessionID string         `json:"session_id"`
	State     State          `json:"state"`
	Turns     []Turn         `json:"turns"`
	Slots     *SlotDirective `json:"slots,omitempty"`
}

type session struct {
	id       string
	mu       sync.Mutex
	engine   *Engine
	turns    []Turn
	slots    *SlotDirective
	lastSeen time.Time
}

// Manager owns the live sessions. Events for one session run one at a time;
// different sessions proceed in parallel and meet only at the stores.
type Manager struct {
	mu        sync.Mutex
	sessions  map[string]*session
	newEngine func() *Engine
	idleTTL   time.Duration
	metrics   *metrics.IntakeMetrics
	logger    *logging.Logger
	now       func() time.Time
}

// NewManager creates a registry. newEngine builds a fresh engine per session;
// idleTTL <= 0 disables eviction.
func NewManager(newEngine func() *Engine, idleTTL time.Duration, m *metrics.IntakeMetrics, logger *logging.Logger) *Manager {
	if newEngine == nil {
		panic("intake: engine factory required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Manager{
		sessions:  make(map[string]*session),
		newEngine: newEngine,
		idleTTL:   idleTTL,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// Start opens a new session and returns its ID with the greeting.
func (m *Manager) Start() (string, Reply) {
	id, reply, _ := m.Open("")
	return id, reply
}

// Open resumes the session with the given ID, or starts a new one when the ID
// is empty or unknown. created reports which happened. A resumed session
// returns its current state without a new agent turn.
func (m *Manager) Open(id string) (string, Reply, bool) {
	m.mu.Lock()
	if id != "" {
		if s, ok := m.sessions[id]; ok {
			m.mu.Unlock()
			s.mu.Lock()
			defer s.mu.Unlock()
			s.lastSeen = m.now()
			return s.id, Reply{State: s.engine.State(), Slots: s.slots}, false
		}
	}
	if id == "" {
		id = uuid.New().String()
	}
	s := &session{id: id, engine: m.newEngine(), lastSeen: m.now()}
	m.sessions[id] = s
	count := len(m.sessions)
	m.mu.Unlock()

	m.metrics.SetActiveSessions(count)
	greeting := s.engine.Greeting()
	s.mu.Lock()
	s.record(SpeakerAgent, greeting.Message, m.now())
	s.mu.Unlock()
	m.logger.Info("intake session started", "session_id", id)
	return id, greeting, true
}

// Message feeds free text to a session.
func (m *Manager) Message(ctx context.Context, id, text string) (Reply, error) {
	return m.with(id, "message", func(s *session) (Reply, error) {
		s.record(SpeakerUser, text, m.now())
		return s.engine.Process(ctx, text), nil
	})
}

// Select feeds a structured slot selection to a session. Selection errors are
// returned alongside a displayable Reply.
func (m *Manager) Select(ctx context.Context, id string, sel scheduling.Selection) (Reply, error) {
	return m.with(id, "select", func(s *session) (Reply, error) {
		s.record(SpeakerUser, fmt.Sprintf("Selected %s on %s at %s", sel.Doctor, sel.Date, sel.Time), m.now())
		return s.engine.SelectSlot(ctx, sel)
	})
}

// SelectKey is Select for the raw doctor|date|time form.
func (m *Manager) SelectKey(ctx context.Context, id, raw string) (Reply, error) {
	sel, err := scheduling.ParseSelection(raw)
	if err != nil {
		return m.with(id, "select", func(s *session) (Reply, error) {
			return s.engine.SelectSlotKey(ctx, raw)
		})
	}
	return m.Select(ctx, id, sel)
}

// Snapshot returns the transcript and state of a session.
func (m *Manager) Snapshot(id string) (Snapshot, error) {
	s, ok := m.get(id)
	if !ok {
		return Snapshot{}, ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	turns := make([]Turn, len(s.turns))
	copy(turns, s.turns)
	return Snapshot{SessionID: s.id, State: s.engine.State(), Turns: turns, Slots: s.slots}, nil
}

// Close drops a session.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	count := len(m.sessions)
	m.mu.Unlock()
	m.metrics.SetActiveSessions(count)
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep evicts sessions idle for longer than the TTL and returns how many went.
func (m *Manager) Sweep() int {
	if m.idleTTL <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.idleTTL)

	m.mu.Lock()
	var evicted int
	for id, s := range m.sessions {
		s.mu.Lock()
		idle := s.lastSeen.Before(cutoff)
		s.mu.Unlock()
		if idle {
			delete(m.sessions, id)
			evicted++
		}
	}
	count := len(m.sessions)
	m.mu.Unlock()

	if evicted > 0 {
		m.metrics.SetActiveSessions(count)
		m.logger.Info("idle intake sessions evicted", "evicted", evicted, "remaining", count)
	}
	return evicted
}

// Run sweeps on every tick until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if m.idleTTL <= 0 || interval <= 0 {
		return
	}
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

func (m *Manager) get(id string) (*session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *Manager) with(id, kind string, fn func(*session) (Reply, error)) (Reply, error) {
	s, ok := m.get(id)
	if !ok {
		return Reply{}, ErrSessionNotFound
	}
	start := m.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	reply, err := fn(s)
	s.slots = reply.Slots
	s.lastSeen = m.now()
	if reply.Message != "" {
		s.record(SpeakerAgent, reply.Message, s.lastSeen)
	}
	m.metrics.ObserveTurnLatency(kind, s.lastSeen.Sub(start).Seconds())
	return reply, err
}

func (s *session) record(speaker, text string, at time.Time) {
	s.turns = append(s.turns, Turn{Speaker: speaker, Text: text, At: at})
}
