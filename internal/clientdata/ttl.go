package clientdata

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// Country borders practically never change
	TTLGeometry = 7 * 24 * time.Hour

	// Market data is refreshed by the scheduler
	TTLCountryList   = 5 * time.Minute
	TTLCountryDetail = 15 * time.Minute
)

// StaleGrace is how long an expired entry is kept as the fallback for a
// failing upstream before cleanup removes it.
var StaleGrace = map[string]time.Duration{
	TableGeometry:       30 * 24 * time.Hour,
	TableCountryList:    24 * time.Hour,
	TableCountryDetails: 6 * time.Hour,
}
