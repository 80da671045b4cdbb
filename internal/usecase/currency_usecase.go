package usecase

import (
	"context"
	"errors"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"urbanstyle_assistant/internal/domain/entities"
	"urbanstyle_assistant/internal/usecase/interfaces"
)

var (
	ErrRateUnavailable   = errors.New("exchange rate unavailable")
	ErrInvalidCurrency   = errors.New("invalid currency code")
	ErrInvalidAmount     = errors.New("invalid amount")
	errRateSourceMissing = errors.New("rate source not configured")
)

const defaultRateCacheTTL = 30 * time.Minute

// ICurrencyUseCase exposes cached currency conversion.
type ICurrencyUseCase interface {
	Rate(ctx context.Context, from, to string) (entities.RateCacheEntry, bool, error)
	Convert(ctx context.Context, amount float64, from, to string) (entities.Conversion, error)
}

// CurrencyUseCase is a time-bounded exchange-rate cache in front of the
// external rate source.
//
// Locking is scoped to a single currency pair so unrelated conversions never
// serialize on each other; the outer map lock only guards entry lookup.
type CurrencyUseCase struct {
	source interfaces.IRateSource
	ttl    time.Duration
	now    func() time.Time

	mu    sync.Mutex
	pairs map[string]*ratePairEntry
}

type ratePairEntry struct {
	mu     sync.Mutex
	cached *entities.RateCacheEntry
}

var _ ICurrencyUseCase = (*CurrencyUseCase)(nil)

func NewCurrencyUseCase(source interfaces.IRateSource, ttl time.Duration) *CurrencyUseCase {
	if ttl <= 0 {
		ttl = defaultRateCacheTTL
	}
	return &CurrencyUseCase{
		source: source,
		ttl:    ttl,
		now:    time.Now,
		pairs:  map[string]*ratePairEntry{},
	}
}

// Rate returns the pair's rate and whether it was served stale. A fresh cache
// hit never touches the external source; an expired entry is lazily replaced.
// When the source fails, an expired entry is served stale rather than failing;
// with no entry at all the call fails with ErrRateUnavailable.
func (u *CurrencyUseCase) Rate(ctx context.Context, from, to string) (entities.RateCacheEntry, bool, error) {
	from, err := normalizeCurrency(from)
	if err != nil {
		return entities.RateCacheEntry{}, false, err
	}
	to, err = normalizeCurrency(to)
	if err != nil {
		return entities.RateCacheEntry{}, false, err
	}

	now := u.now()
	if from == to {
		// Identity conversion short-circuits without a cache lookup.
		return entities.RateCacheEntry{From: from, To: to, Rate: 1, FetchedAt: now}, false, nil
	}

	entry := u.pair(from + "/" + to)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.cached != nil && entry.cached.Fresh(now, u.ttl) {
		return *entry.cached, false, nil
	}

	if u.source == nil {
		return u.serveStaleOrFail(entry, from, to, errRateSourceMissing)
	}

	rate, err := u.source.FetchRate(ctx, from, to)
	if err != nil || rate <= 0 {
		if err == nil {
			err = ErrRateUnavailable
		}
		log.Printf("[currency][usecase] rate fetch failed pair=%s/%s err=%v", from, to, err)
		return u.serveStaleOrFail(entry, from, to, err)
	}

	fresh := entities.RateCacheEntry{From: from, To: to, Rate: rate, FetchedAt: now}
	entry.cached = &fresh
	return fresh, false, nil
}

// Convert applies the pair's rate to amount, rounded to cents.
func (u *CurrencyUseCase) Convert(ctx context.Context, amount float64, from, to string) (entities.Conversion, error) {
	if amount < 0 {
		return entities.Conversion{}, ErrInvalidAmount
	}
	rate, stale, err := u.Rate(ctx, from, to)
	if err != nil {
		return entities.Conversion{}, err
	}
	return entities.Conversion{
		Amount:    amount,
		Converted: math.Round(amount*rate.Rate*100) / 100,
		Rate:      rate.Rate,
		From:      rate.From,
		To:        rate.To,
		Stale:     stale,
	}, nil
}

func (u *CurrencyUseCase) serveStaleOrFail(entry *ratePairEntry, from, to string, cause error) (entities.RateCacheEntry, bool, error) {
	if entry.cached != nil {
		log.Printf("[currency][usecase] serving stale rate pair=%s/%s fetched_at=%s", from, to, entry.cached.FetchedAt.Format(time.RFC3339))
		return *entry.cached, true, nil
	}
	return entities.RateCacheEntry{}, false, errors.Join(ErrRateUnavailable, cause)
}

func (u *CurrencyUseCase) pair(key string) *ratePairEntry {
	u.mu.Lock()
	defer u.mu.Unlock()
	e, ok := u.pairs[key]
	if !ok {
		e = &ratePairEntry{}
		u.pairs[key] = e
	}
	return e
}

func normalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", ErrInvalidCurrency
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", ErrInvalidCurrency
		}
	}
	return code, nil
}
