package interfaces

import "context"

// IRateSource abstracts the external exchange-rate provider.
//
// The currency cache is the only caller; it fetches on cache miss/expiry and
// stores the result with a fresh timestamp.
type IRateSource interface {
	FetchRate(ctx context.Context, from, to string) (float64, error)
}
