// Package events provides a small in-process pub/sub bus for domain events.
package events

// EventType identifies a kind of domain event.
type EventType string

const (
	// CountriesRefreshed fires after the dataset reloads performance values.
	CountriesRefreshed EventType = "COUNTRIES_REFRESHED"
	// GeometryLoaded fires when country polygons become available.
	GeometryLoaded EventType = "GEOMETRY_LOADED"
	// GeometryFailed fires when the polygon fetch fails and no cache exists.
	GeometryFailed EventType = "GEOMETRY_FAILED"
	// CountrySelected fires when a session selects a country.
	CountrySelected EventType = "COUNTRY_SELECTED"
	// OverlayOpened fires when a session's detail overlay opens.
	OverlayOpened EventType = "OVERLAY_OPENED"
	// OverlayClosed fires when a session's detail overlay closes.
	OverlayClosed EventType = "OVERLAY_CLOSED"
	// SettingsChanged fires when a runtime setting is updated.
	SettingsChanged EventType = "SETTINGS_CHANGED"
	// SnapshotUploaded fires after a globe snapshot reaches object storage.
	SnapshotUploaded EventType = "SNAPSHOT_UPLOADED"
	// ErrorOccurred carries unexpected failures from background work.
	ErrorOccurred EventType = "ERROR_OCCURRED"
)

// AllTypes lists every event type, in declaration order.
var AllTypes = []EventType{
	CountriesRefreshed,
	GeometryLoaded,
	GeometryFailed,
	CountrySelected,
	OverlayOpened,
	OverlayClosed,
	SettingsChanged,
	SnapshotUploaded,
	ErrorOccurred,
}
