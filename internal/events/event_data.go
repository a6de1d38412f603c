package events

// EventData is the interface that all event data types must implement
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// CountriesRefreshedData contains data for CountriesRefreshed events
type CountriesRefreshedData struct {
	Count  int    `json:"count"`
	Source string `json:"source"` // "upstream", "cache", "generated" or "fallback"
}

// EventType returns the event type for CountriesRefreshedData
func (d *CountriesRefreshedData) EventType() EventType {
	return CountriesRefreshed
}

// GeometryLoadedData contains data for GeometryLoaded events
type GeometryLoadedData struct {
	Features int  `json:"features"`
	Stale    bool `json:"stale"`
}

// EventType returns the event type for GeometryLoadedData
func (d *GeometryLoadedData) EventType() EventType {
	return GeometryLoaded
}

// GeometryFailedData contains data for GeometryFailed events
type GeometryFailedData struct {
	Error string `json:"error"`
}

// EventType returns the event type for GeometryFailedData
func (d *GeometryFailedData) EventType() EventType {
	return GeometryFailed
}

// CountrySelectedData contains data for CountrySelected events
type CountrySelectedData struct {
	SessionID string `json:"session_id"`
	CountryID string `json:"country_id"`
	Source    string `json:"source"` // "click" or "search"
}

// EventType returns the event type for CountrySelectedData
func (d *CountrySelectedData) EventType() EventType {
	return CountrySelected
}

// OverlayData contains data for OverlayOpened and OverlayClosed events
type OverlayData struct {
	SessionID string `json:"session_id"`
	CountryID string `json:"country_id,omitempty"`
	Open      bool   `json:"open"`
}

// EventType returns OverlayOpened or OverlayClosed depending on Open
func (d *OverlayData) EventType() EventType {
	if d.Open {
		return OverlayOpened
	}
	return OverlayClosed
}

// SettingsChangedData contains data for SettingsChanged events
type SettingsChangedData struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// EventType returns the event type for SettingsChangedData
func (d *SettingsChangedData) EventType() EventType {
	return SettingsChanged
}

// SnapshotUploadedData contains data for SnapshotUploaded events
type SnapshotUploadedData struct {
	Key   string `json:"key"`
	Bytes int    `json:"bytes"`
}

// EventType returns the event type for SnapshotUploadedData
func (d *SnapshotUploadedData) EventType() EventType {
	return SnapshotUploaded
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}
