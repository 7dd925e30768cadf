package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/edumint-ai/platform/pkg/common/logger"
	"github.com/redis/go-redis/v9"
)

// ModelRate is the USD cost per million tokens for one model.
type ModelRate struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// DefaultModelRates covers the models the platform generates with. Unknown
// models fall back to the zero-value rate (free), which keeps the ledger write
// path available when a new model is rolled out before its rate is configured.
func DefaultModelRates() map[string]ModelRate {
	return map[string]ModelRate{
		"gpt-4o":      {InputPerMillion: 2.50, OutputPerMillion: 10.00},
		"gpt-4o-mini": {InputPerMillion: 0.15, OutputPerMillion: 0.60},
		"gpt-4.1":     {InputPerMillion: 2.00, OutputPerMillion: 8.00},
	}
}

// RateCache holds the most recently fetched exchange rate. Injected so tests
// run against an in-memory cache and production shares one through Redis.
type RateCache interface {
	Get(ctx context.Context, key string) (float64, bool)
	Set(ctx context.Context, key string, value float64, ttl time.Duration)
}

type RedisRateCache struct {
	client *redis.Client
}

func NewRedisRateCache(client *redis.Client) *RedisRateCache {
	return &RedisRateCache{client: client}
}

func (c *RedisRateCache) Get(ctx context.Context, key string) (float64, bool) {
	raw, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return 0, false
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func (c *RedisRateCache) Set(ctx context.Context, key string, value float64, ttl time.Duration) {
	if err := c.client.Set(ctx, key, strconv.FormatFloat(value, 'f', -1, 64), ttl).Err(); err != nil {
		logger.Log.WithError(err).Warn("failed to cache exchange rate")
	}
}

// MemoryRateCache is the test double for RateCache.
type MemoryRateCache struct {
	values map[string]float64
}

func NewMemoryRateCache() *MemoryRateCache {
	return &MemoryRateCache{values: make(map[string]float64)}
}

func (c *MemoryRateCache) Get(_ context.Context, key string) (float64, bool) {
	value, ok := c.values[key]
	return value, ok
}

func (c *MemoryRateCache) Set(_ context.Context, key string, value float64, _ time.Duration) {
	c.values[key] = value
}

type Service struct {
	currency     string
	fetchURL     string
	cacheTTL     time.Duration
	fallbackRate float64
	cache        RateCache
	httpClient   *http.Client
	modelRates   map[string]ModelRate
}

type Options struct {
	Currency     string
	FetchURL     string
	CacheTTL     time.Duration
	FallbackRate float64
	Cache        RateCache
	ModelRates   map[string]ModelRate
}

func NewService(opts Options) *Service {
	rates := opts.ModelRates
	if rates == nil {
		rates = DefaultModelRates()
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 3 * time.Hour
	}
	return &Service{
		currency:     opts.Currency,
		fetchURL:     opts.FetchURL,
		cacheTTL:     ttl,
		fallbackRate: opts.FallbackRate,
		cache:        opts.Cache,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		modelRates:   rates,
	}
}

// Price computes the cost of one generation attempt in the target currency.
// It never fails: a broken exchange feed degrades to the fallback rate.
func (s *Service) Price(ctx context.Context, inputTokens, outputTokens int, model string) (float64, string) {
	rate := s.modelRates[model]
	usd := float64(inputTokens)/1e6*rate.InputPerMillion + float64(outputTokens)/1e6*rate.OutputPerMillion
	return usd * s.exchangeRate(ctx), s.currency
}

func (s *Service) exchangeRate(ctx context.Context) float64 {
	if s.currency == "" || s.currency == "USD" {
		return 1
	}

	key := "exchange_rate:USD:" + s.currency
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key); ok {
			return cached
		}
	}

	rate, err := s.fetchRate(ctx)
	if err != nil {
		logger.Log.WithError(err).WithField("currency", s.currency).Warn("exchange rate fetch failed, using fallback")
		return s.fallbackRate
	}

	if s.cache != nil {
		s.cache.Set(ctx, key, rate, s.cacheTTL)
	}
	return rate
}

func (s *Service) fetchRate(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.fetchURL, nil)
	if err != nil {
		return 0, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var payload struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, err
	}

	rate, ok := payload.Rates[s.currency]
	if !ok || rate <= 0 {
		return 0, errRateUnavailable
	}
	return rate, nil
}

var errRateUnavailable = errors.New("exchange rate unavailable for currency")
