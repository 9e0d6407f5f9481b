package providers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	commonerrors "ezrelo/internal/common/errors"
	commonhttp "ezrelo/internal/common/http"
	"ezrelo/internal/common/logger"
	"ezrelo/internal/common/metrics"
	"ezrelo/internal/movecontext"
	"ezrelo/internal/store"
)

// Result is a completed search.
type Result struct {
	Category  Category   `json:"category"`
	CacheKey  string     `json:"cacheKey"`
	Sequence  int64      `json:"sequence"`
	Providers []Provider `json:"providers"`
}

// ServiceConfig tunes Service.
type ServiceConfig struct {
	CacheTTL      time.Duration
	FallbackCity  string
	FallbackState string
}

// Service runs searches and keeps the per-user result cache. Results are
// cached only on success, and a response that arrives after a newer search
// for the same cache key started is dropped.
type Service struct {
	searcher Searcher
	kv       store.Store
	config   ServiceConfig
	logger   logger.Logger
}

func NewService(searcher Searcher, kv store.Store, cfg ServiceConfig, log logger.Logger) *Service {
	return &Service{searcher: searcher, kv: kv, config: cfg, logger: log}
}

// CacheKey is the persistence key for a category's results on mc.
func CacheKey(category Category, mc movecontext.MoveContext) string {
	switch category {
	case CategoryMoving:
		return store.MovingCompaniesKey(mc.From, mc.To)
	case CategoryUtilities:
		return store.UtilitiesKey(mc.To)
	case CategoryHousing:
		return store.HousingKey(mc.To)
	default:
		return store.LocalServicesKey(mc.To)
	}
}

// BuildQuery parses mc into a Query, filling blank city/state from the
// configured fallback.
func (s *Service) BuildQuery(category Category, mc movecontext.MoveContext) (Query, error) {
	q := Query{
		From: mc.Origin().WithFallback(s.config.FallbackCity, s.config.FallbackState),
		To:   mc.Destination().WithFallback(s.config.FallbackCity, s.config.FallbackState),
	}
	if !q.To.Searchable() || (category == CategoryMoving && !q.From.Searchable()) {
		return q, ErrLocationMissing
	}
	return q, nil
}

// Search runs one search for userID and caches the results on success.
func (s *Service) Search(ctx context.Context, userID string, category Category, mc movecontext.MoveContext) (*Result, error) {
	q, err := s.BuildQuery(category, mc)
	if err != nil {
		return nil, commonerrors.NewInvalidInputError(fmt.Sprintf("%s search needs a city and state: %v", category, err))
	}

	cacheKey := CacheKey(category, mc)
	seqKey := store.SequenceKey(cacheKey)

	seq, err := s.kv.Incr(ctx, userID, seqKey)
	if err != nil {
		return nil, commonerrors.NewPersistenceFailedError(seqKey, err)
	}

	start := time.Now()
	list, err := s.searcher.Search(ctx, category, q)
	metrics.ProviderSearchDuration.WithLabelValues(string(category)).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, s.searchError(category, err)
	}

	latest, err := s.latestSequence(ctx, userID, seqKey)
	if err != nil {
		return nil, commonerrors.NewPersistenceFailedError(seqKey, err)
	}
	if latest != seq {
		metrics.ProviderSearches.WithLabelValues(string(category), "stale").Inc()
		s.logger.Info("dropping stale search response", map[string]interface{}{
			"category": string(category),
			"cacheKey": cacheKey,
			"sequence": seq,
			"latest":   latest,
		})
		return nil, commonerrors.NewStaleResponseError(cacheKey, seq, latest, ErrStaleResponse)
	}

	if list == nil {
		list = []Provider{}
	}
	for i := range list {
		list[i].Category = category
	}

	s.writeCache(ctx, userID, category, cacheKey, list)
	metrics.ProviderSearches.WithLabelValues(string(category), "success").Inc()

	return &Result{Category: category, CacheKey: cacheKey, Sequence: seq, Providers: list}, nil
}

// Cached returns the last successful results for category on mc.
func (s *Service) Cached(ctx context.Context, userID string, category Category, mc movecontext.MoveContext) ([]Provider, bool, error) {
	var list []Provider
	ok, err := s.kv.GetJSON(ctx, userID, CacheKey(category, mc), &list)
	if err != nil {
		return nil, false, err
	}
	return list, ok, nil
}

// writeCache is best effort; the caller still gets its results when the
// store is unavailable.
func (s *Service) writeCache(ctx context.Context, userID string, category Category, cacheKey string, list []Provider) {
	keys := []string{cacheKey}
	if category == CategoryMoving {
		keys = append(keys, store.KeyMovingResults)
	}
	for _, k := range keys {
		if err := s.kv.SetJSON(ctx, userID, k, list, s.config.CacheTTL); err != nil {
			s.logger.Warn("failed to cache search results", map[string]interface{}{
				"cacheKey": k,
				"error":    err,
			})
			return
		}
	}
	metrics.ProviderCacheWrites.WithLabelValues(string(category)).Inc()
}

func (s *Service) latestSequence(ctx context.Context, userID, seqKey string) (int64, error) {
	raw, err := s.kv.GetString(ctx, userID, seqKey)
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

func (s *Service) searchError(category Category, err error) error {
	switch {
	case errors.Is(err, ErrUnknownCategory):
		metrics.ProviderSearches.WithLabelValues(string(category), "error").Inc()
		return commonerrors.NewUnknownCategoryError(string(category))
	case errors.Is(err, ErrDirectoryQuery):
		metrics.ProviderSearches.WithLabelValues(string(category), "error").Inc()
		return commonerrors.NewDirectoryFailedError(err)
	case errors.Is(err, commonhttp.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		metrics.ProviderSearches.WithLabelValues(string(category), "timeout").Inc()
		return commonerrors.NewSearchTimeoutError(string(category), err)
	default:
		metrics.ProviderSearches.WithLabelValues(string(category), "error").Inc()
		return commonerrors.NewSearchFailedError(string(category), err)
	}
}
