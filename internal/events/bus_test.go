package events

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEventManager() (*Manager, *Bus) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	bus := NewBus(log)
	return NewManager(bus, log), bus
}

func TestBus_DeliversInSubscriptionOrder(t *testing.T) {
	manager, bus := setupEventManager()

	var order []string
	bus.Subscribe(CountrySelected, func(e *Event) { order = append(order, "first") })
	bus.Subscribe(CountrySelected, func(e *Event) { order = append(order, "second") })
	bus.Subscribe(OverlayOpened, func(e *Event) { order = append(order, "other") })

	manager.Emit("interaction", &CountrySelectedData{SessionID: "s1", CountryID: "JPN", Source: "click"})

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestBus_EventCarriesTypedData(t *testing.T) {
	manager, bus := setupEventManager()

	var got *Event
	bus.Subscribe(GeometryLoaded, func(e *Event) { got = e })

	manager.Emit("geometry", &GeometryLoadedData{Features: 176})

	require.NotNil(t, got)
	assert.Equal(t, GeometryLoaded, got.Type)
	assert.Equal(t, "geometry", got.Module)
	data, ok := got.Data.(*GeometryLoadedData)
	require.True(t, ok)
	assert.Equal(t, 176, data.Features)
	assert.False(t, got.Timestamp.IsZero())
}

func TestBus_Unsubscribe(t *testing.T) {
	manager, bus := setupEventManager()

	calls := 0
	id := bus.Subscribe(SettingsChanged, func(e *Event) { calls++ })
	manager.Emit("settings", &SettingsChangedData{Key: "k", Value: "v"})
	bus.Unsubscribe(id)
	manager.Emit("settings", &SettingsChangedData{Key: "k", Value: "v"})

	assert.Equal(t, 1, calls)
}

func TestBus_PanickingHandlerDoesNotStopOthers(t *testing.T) {
	manager, bus := setupEventManager()

	delivered := false
	bus.Subscribe(ErrorOccurred, func(e *Event) { panic("boom") })
	bus.Subscribe(ErrorOccurred, func(e *Event) { delivered = true })

	manager.EmitError("scheduler", errors.New("failed"), nil)

	assert.True(t, delivered)
}

func TestOverlayData_EventType(t *testing.T) {
	assert.Equal(t, OverlayOpened, (&OverlayData{Open: true}).EventType())
	assert.Equal(t, OverlayClosed, (&OverlayData{Open: false}).EventType())
}

func TestManager_NilIsNoop(t *testing.T) {
	var m *Manager
	assert.NotPanics(t, func() {
		m.Emit("x", &CountriesRefreshedData{Count: 1})
	})
}
