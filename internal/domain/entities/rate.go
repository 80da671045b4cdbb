package entities

import "time"

// RateCacheEntry is a cached exchange rate for one currency pair.
//
// An entry is valid only while now - FetchedAt < TTL. Stale entries are kept
// so the cache can degrade to stale-serve when the external source fails.
type RateCacheEntry struct {
	From      string
	To        string
	Rate      float64
	FetchedAt time.Time
}

// Fresh reports whether the entry is still within its TTL.
func (e RateCacheEntry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.FetchedAt) < ttl
}

// Conversion is the outcome of a currency conversion request. Stale marks
// results computed from an expired cache entry served for availability.
type Conversion struct {
	Amount    float64
	Converted float64
	Rate      float64
	From      string
	To        string
	Stale     bool
}
