package interaction

import (
	"github.com/aristath/marketglobe/internal/domain"
	"github.com/aristath/marketglobe/internal/modules/overlay"
)

// Server message types.
const (
	MsgCamera           = "camera"
	MsgAnimationStarted = "animation_started"
	MsgOverlay          = "overlay"
	MsgSelection        = "selection"
	MsgFrame            = "frame"
	MsgSuggestions      = "suggestions"
	MsgError            = "error"
)

// Message is pushed to the session client.
type Message struct {
	Type string      `json:"type" msgpack:"type"`
	Data interface{} `json:"data,omitempty" msgpack:"data,omitempty"`
}

// Sink receives messages. It must not block and must be safe for
// concurrent use.
type Sink func(Message)

// Camera is the point of view over the globe.
type Camera struct {
	Lat      float64 `json:"lat" msgpack:"lat"`
	Lng      float64 `json:"lng" msgpack:"lng"`
	Altitude float64 `json:"altitude" msgpack:"altitude"`
}

// Rotation returns the matching orthographic rotation [lambda, phi].
func (c Camera) Rotation() (lambda, phi float64) {
	return -c.Lng, -c.Lat
}

// AnimationStarted announces a camera move the client should animate and
// acknowledge with its ID.
type AnimationStarted struct {
	ID         string      `json:"id" msgpack:"id"`
	CountryID  string      `json:"countryId" msgpack:"countryId"`
	From       Camera      `json:"from" msgpack:"from"`
	To         Camera      `json:"to" msgpack:"to"`
	Focus      FocusSource `json:"focus" msgpack:"focus"`
	DurationMs int64       `json:"durationMs" msgpack:"durationMs"`
}

// Selection reports the selected country, nil when cleared.
type Selection struct {
	Country *domain.Country `json:"country" msgpack:"country"`
	Source  string          `json:"source,omitempty" msgpack:"source,omitempty"`
}

// ErrorMessage is a transient banner.
type ErrorMessage struct {
	Message string `json:"message" msgpack:"message"`
}

// Suggestions answers a search-as-you-type query.
type Suggestions struct {
	Query     string           `json:"query" msgpack:"query"`
	Countries []domain.Country `json:"countries" msgpack:"countries"`
}

// OverlayMessage wraps the card view.
type OverlayMessage = overlay.View
