package events

import (
	"github.com/rs/zerolog"
)

// Manager handles event emission and logging
type Manager struct {
	bus *Bus
	log zerolog.Logger
}

// NewManager creates a new event manager
func NewManager(bus *Bus, log zerolog.Logger) *Manager {
	return &Manager{
		bus: bus,
		log: log.With().Str("service", "events").Logger(),
	}
}

// Bus returns the underlying bus for subscribers.
func (m *Manager) Bus() *Bus {
	return m.bus
}

// Emit publishes typed data and logs it. A nil manager is a no-op, so
// components can run without an event pipeline in tests.
func (m *Manager) Emit(module string, data EventData) {
	if m == nil || data == nil {
		return
	}

	m.bus.Emit(data.EventType(), module, data)

	m.log.Debug().
		Str("event_type", string(data.EventType())).
		Str("module", module).
		Interface("data", data).
		Msg("Event emitted")
}

// EmitError emits an error event
func (m *Manager) EmitError(module string, err error, context map[string]interface{}) {
	if err == nil {
		return
	}
	m.Emit(module, &ErrorEventData{Error: err.Error(), Context: context})
}
