package exchange

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

type entry struct {
	rate      float64
	fetchedAt time.Time
}

// Snapshot is the cache metadata exposed on the exchange-rate endpoint.
type Snapshot struct {
	Rate      float64   `json:"rate"`
	Cached    bool      `json:"cached"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Service fetches and caches currency rates from an ordered list of
// sources. All sources failing is not an error: the static fallback
// rate is returned so checkout never blocks on a third-party outage.
type Service struct {
	client        *resty.Client
	sources       []Source
	fallbackRate  float64 // USD -> PEN
	ttl           time.Duration
	sourceTimeout time.Duration
	now           func() time.Time
	log           *slog.Logger

	mu    sync.RWMutex
	cache map[string]entry
}

type Option func(*Service)

// WithClock overrides the clock used for TTL expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithSources(sources []Source) Option {
	return func(s *Service) { s.sources = sources }
}

func NewService(fallbackRate float64, ttl, sourceTimeout time.Duration, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		client:        resty.New(),
		sources:       DefaultSources(),
		fallbackRate:  fallbackRate,
		ttl:           ttl,
		sourceTimeout: sourceTimeout,
		now:           time.Now,
		log:           log,
		cache:         make(map[string]entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetRate returns the cached rate for base->quote when fresh, otherwise
// refetches. It never returns an error: if every source fails the
// static fallback rate is used (and not cached, so sources are retried
// on the next miss).
func (s *Service) GetRate(ctx context.Context, base, quote string) float64 {
	if base == quote {
		return 1
	}

	key := pairKey(base, quote)

	s.mu.RLock()
	e, ok := s.cache[key]
	s.mu.RUnlock()
	if ok && s.now().Sub(e.fetchedAt) < s.ttl {
		return e.rate
	}

	return s.fetch(ctx, base, quote)
}

// Convert converts amount from base to quote, rounded for the target
// currency.
func (s *Service) Convert(ctx context.Context, amount float64, base, quote string) float64 {
	return RoundAmount(amount*s.GetRate(ctx, base, quote), quote)
}

// ForceRefresh drops the cached entry and refetches, bypassing the TTL.
func (s *Service) ForceRefresh(ctx context.Context, base, quote string) float64 {
	key := pairKey(base, quote)

	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()

	return s.GetRate(ctx, base, quote)
}

// CacheSnapshot reports the current cache state without fetching.
func (s *Service) CacheSnapshot(base, quote string) Snapshot {
	if base == quote {
		return Snapshot{Rate: 1, Cached: true, FetchedAt: s.now()}
	}

	s.mu.RLock()
	e, ok := s.cache[pairKey(base, quote)]
	s.mu.RUnlock()

	if !ok || s.now().Sub(e.fetchedAt) >= s.ttl {
		return Snapshot{Rate: s.fallbackRate, Cached: false}
	}
	return Snapshot{Rate: e.rate, Cached: true, FetchedAt: e.fetchedAt}
}

func (s *Service) fetch(ctx context.Context, base, quote string) float64 {
	for _, src := range s.sources {
		rate, err := s.trySource(ctx, src, base, quote)
		if err != nil {
			s.log.Warn("rate source failed",
				slog.String("source", src.Name),
				slog.Any("error", err))
			continue
		}

		s.mu.Lock()
		s.cache[pairKey(base, quote)] = entry{rate: rate, fetchedAt: s.now()}
		s.mu.Unlock()
		return rate
	}

	s.log.Error("all rate sources failed, using fallback rate",
		slog.String("pair", pairKey(base, quote)),
		slog.Float64("fallback", s.fallbackRate))
	return s.fallbackRate
}

func (s *Service) trySource(ctx context.Context, src Source, base, quote string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.sourceTimeout)
	defer cancel()

	resp, err := s.client.R().SetContext(ctx).Get(src.URL(base))
	if err != nil {
		return 0, err
	}
	if resp.StatusCode() != 200 {
		return 0, fmt.Errorf("status %d", resp.StatusCode())
	}

	rate, err := src.Parse(resp.Body(), quote)
	if err != nil {
		return 0, err
	}
	if rate <= 0 {
		return 0, fmt.Errorf("non-positive rate %v", rate)
	}
	return rate, nil
}

func pairKey(base, quote string) string {
	return base + "/" + quote
}

// RoundAmount rounds to the number of decimals used for the currency:
// PEN prices are kept at one decimal, everything else at two.
func RoundAmount(amount float64, currency string) float64 {
	factor := 100.0
	if currency == "PEN" {
		factor = 10.0
	}
	return math.Round(amount*factor) / factor
}
