package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/pkg/domain"
)

// Event types published on the session stream.
const (
	EventStep = "step"
	EventRun  = "run"
)

// Event is one SSE payload.
type Event struct {
	Type string            `json:"type"`
	Step *domain.StepEvent `json:"step,omitempty"`
	Run  *domain.RunEvent  `json:"run,omitempty"`
}

// StreamManager handles active SSE connections
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- Event]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

// NewStreamManager creates an empty stream manager.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- Event]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a listener for a session. The returned function unsubscribes
// and closes the channel.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan Event, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Event, 16)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- Event]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[sessionID]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(sm.subscribers, sessionID)
				}
			}
			close(ch)
		})
	}
}

// Broadcast delivers ev to every subscriber of the session without blocking.
func (sm *StreamManager) Broadcast(sessionID string, ev Event) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- ev:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: Client buffer full, dropping event", "session_id", sessionID, "type", ev.Type)
		}
	}
}

// Hooks publishes engine lifecycle events to the session streams.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStep: func(_ context.Context, e *domain.StepEvent) {
			ev := *e
			sm.Broadcast(e.SessionID, Event{Type: EventStep, Step: &ev})
		},
		OnRunComplete: func(_ context.Context, e *domain.RunEvent) {
			ev := *e
			sm.Broadcast(e.SessionID, Event{Type: EventRun, Run: &ev})
		},
	}
}

func (ev Event) encode() ([]byte, error) {
	return json.Marshal(ev)
}
