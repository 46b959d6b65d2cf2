// Package events defines the sink interface the core components emit state
// transition records through, with console and in-memory implementations.
// The Postgres sink lives in internal/state next to the schema it writes.
package events

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/summer-earn/fleet/internal/types"
)

// Sink receives completed state transition records. Emit must not fail the
// emitting operation: by the time an event exists the transition has
// already happened.
type Sink interface {
	Emit(e types.Event)
}

// Nop discards all events.
type Nop struct{}

func (Nop) Emit(types.Event) {}

// Log writes each event as one structured log line.
type Log struct {
	Logger zerolog.Logger
}

func (l Log) Emit(e types.Event) {
	l.Logger.Info().Str("event", e.EventType()).Interface("payload", e).Msg("event emitted")
}

// Memory buffers events for inspection in tests.
type Memory struct {
	mu     sync.Mutex
	events []types.Event
}

func (m *Memory) Emit(e types.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
}

// Events returns a copy of everything emitted so far.
func (m *Memory) Events() []types.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.Event, len(m.events))
	copy(out, m.events)
	return out
}

// OfType returns the emitted events whose EventType matches name.
func (m *Memory) OfType(name string) []types.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.Event
	for _, e := range m.events {
		if e.EventType() == name {
			out = append(out, e)
		}
	}
	return out
}

// Multi fans one event out to several sinks.
type Multi []Sink

func (m Multi) Emit(e types.Event) {
	for _, s := range m {
		s.Emit(e)
	}
}
