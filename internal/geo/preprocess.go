package geo

import (
	"math"
	"strings"
)

// coordinatePrecision is the number of decimals kept after rounding.
const coordinatePrecision = 4

// minRingPositions is the smallest valid closed ring.
const minRingPositions = 4

// PreprocessStats summarizes what Preprocess removed.
type PreprocessStats struct {
	Input           int `json:"input"`
	Kept            int `json:"kept"`
	Antarctica      int `json:"antarctica"`
	DroppedRings    int `json:"dropped_rings"`
	DroppedFeatures int `json:"dropped_features"`
	Malformed       int `json:"malformed"`
}

// Preprocess filters and normalizes a feature collection for rendering:
// Antarctica is removed, coordinates are rounded to 4 decimals, rings that
// are too short or contain non-finite values are dropped, polygons that lose
// their exterior are dropped, and features left without geometry are
// dropped. Features Decode could not read count as Input and as
// DroppedFeatures. The input is not modified.
func Preprocess(fc *FeatureCollection) (*FeatureCollection, PreprocessStats) {
	out := &FeatureCollection{Type: "FeatureCollection"}
	var stats PreprocessStats
	if fc == nil {
		return out, stats
	}

	stats.Input = len(fc.Features) + fc.Malformed
	stats.Malformed = fc.Malformed
	stats.DroppedFeatures = fc.Malformed
	out.Features = make([]Feature, 0, len(fc.Features))

	for _, f := range fc.Features {
		if IsAntarctica(f) {
			stats.Antarctica++
			continue
		}

		geom, dropped := cleanGeometry(f.Geometry)
		stats.DroppedRings += dropped
		if geom.Empty() {
			stats.DroppedFeatures++
			continue
		}

		f.Geometry = geom
		out.Features = append(out.Features, f)
	}

	stats.Kept = len(out.Features)
	return out, stats
}

// IsAntarctica reports whether a feature is the Antarctic continent.
func IsAntarctica(f Feature) bool {
	if strings.EqualFold(f.Prop("ISO_A3"), "ATA") {
		return true
	}
	return strings.EqualFold(f.Name(), "Antarctica")
}

func cleanGeometry(g Geometry) (Geometry, int) {
	out := Geometry{Type: g.Type}
	dropped := 0

	for _, poly := range g.Polygons {
		var cleaned Polygon
		for i, ring := range poly {
			r, ok := cleanRing(ring)
			if !ok {
				dropped++
				if i == 0 {
					// Holes without an exterior are meaningless
					dropped += len(poly) - 1
					break
				}
				continue
			}
			cleaned = append(cleaned, r)
		}
		if len(cleaned) > 0 {
			out.Polygons = append(out.Polygons, cleaned)
		}
	}

	if len(out.Polygons) == 1 {
		out.Type = "Polygon"
	} else if len(out.Polygons) > 1 {
		out.Type = "MultiPolygon"
	}
	return out, dropped
}

func cleanRing(ring Ring) (Ring, bool) {
	if len(ring) < minRingPositions {
		return nil, false
	}
	out := make(Ring, len(ring))
	for i, p := range ring {
		if !p.finite() {
			return nil, false
		}
		out[i] = Position{round(p[0]), round(p[1])}
	}
	return out, true
}

func round(v float64) float64 {
	scale := math.Pow(10, coordinatePrecision)
	return math.Round(v*scale) / scale
}
