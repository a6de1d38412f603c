// Package palette maps market performance to display colors and strings.
// Every function here is total: nil and non-finite inputs mean "no data".
package palette

import (
	"fmt"
	"math"

	"github.com/aristath/marketglobe/internal/domain"
)

// Color is an opaque RGB color.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

var (
	// NoData is the neutral grey used for missing performance.
	NoData = Color{0x88, 0x88, 0x88}
	// Unchanged is used for exactly zero performance.
	Unchanged = Color{0xFF, 0xFF, 0xFF}
)

const (
	saturationPercent = 5.0
	channelFloor      = 100.0
	channelRange      = 155.0
)

// Hex returns the color as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// CSS returns the color in the form used for globe fills.
func (c Color) CSS() string {
	switch c {
	case NoData:
		return "#888888"
	case Unchanged:
		return "#FFFFFF"
	}
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}

// MarshalText encodes the color as its CSS form.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.CSS()), nil
}

func valid(p *float64) bool {
	return p != nil && !math.IsNaN(*p) && !math.IsInf(*p, 0)
}

// ColorFor maps a performance percentage to a fill color. Positive values
// scale the green channel, negative values the red channel, both saturating
// at 5%.
func ColorFor(p *float64) Color {
	if !valid(p) {
		return NoData
	}

	v := *p
	if v == 0 {
		return Unchanged
	}

	intensity := math.Min(math.Abs(v)/saturationPercent, 1)
	channel := uint8(math.Floor(channelFloor + channelRange*intensity))

	if v > 0 {
		return Color{G: channel}
	}
	return Color{R: channel}
}

// FormatPercent renders a percentage with two decimals and a leading "+"
// for positive values.
func FormatPercent(p *float64) string {
	if !valid(p) {
		return "N/A"
	}
	return formatSigned(*p, 2)
}

func formatSigned(v float64, decimals int) string {
	sign := ""
	if v > 0 {
		sign = "+"
	}
	s := fmt.Sprintf("%s%.*f%%", sign, decimals, v)
	// Values that round to zero from below would print as "-0.00%".
	if s == fmt.Sprintf("-%.*f%%", decimals, 0.0) {
		s = s[1:]
	}
	return s
}

// Trend classifies a change for overlay chips.
type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)

// TrendOf returns the direction of a change.
func TrendOf(change float64) Trend {
	switch {
	case change > 0:
		return TrendUp
	case change < 0:
		return TrendDown
	default:
		return TrendNeutral
	}
}

// shortNameLimit is the longest country name printed in a globe label.
const shortNameLimit = 10

// ShortLabel returns the label drawn on the globe, e.g. "Japan: +3.4%".
// Long names are replaced by the ISO code. Countries without data get "".
func ShortLabel(c domain.Country) string {
	if !valid(c.Performance) {
		return ""
	}

	name := c.Name
	if len(name) > shortNameLimit && c.ISOCode != "" {
		name = c.ISOCode
	}
	return name + ": " + formatSigned(*c.Performance, 1)
}
