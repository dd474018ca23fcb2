package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/malkassem/documentcloud/internal/access"
	appErrors "github.com/malkassem/documentcloud/pkg/errors"
	"github.com/malkassem/documentcloud/pkg/jobs"
)

type aggregationRepository interface {
	CountsByDocument(ctx context.Context, f access.Filter, documentIDs []string) (map[string]int, error)
	PublicNoteCountsByOrganization(ctx context.Context) (map[string]int, error)
}

type counterStore interface {
	RefreshPublicNoteCount(ctx context.Context, documentID string) (int, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type countCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// RefreshJobType labels queued note-count refreshes.
const RefreshJobType = "refresh-note-counts"

// AggregationServiceConfig tunes count caching.
type AggregationServiceConfig struct {
	CacheTTL time.Duration
}

// AggregationService answers count queries under the same visibility rules
// as listing, and schedules refreshes of the denormalized public note count.
type AggregationService struct {
	repo    aggregationRepository
	queue   jobDispatcher
	cache   countCache
	metrics *MetricsService
	logger  *zap.Logger
	cfg     AggregationServiceConfig
}

// AggregationServiceParams groups constructor dependencies.
type AggregationServiceParams struct {
	Repo    aggregationRepository
	Queue   jobDispatcher
	Cache   countCache
	Metrics *MetricsService
	Logger  *zap.Logger
	Config  AggregationServiceConfig
}

// NewAggregationService constructs an AggregationService with sane defaults.
func NewAggregationService(params AggregationServiceParams) *AggregationService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AggregationService{
		repo:    params.Repo,
		queue:   params.Queue,
		cache:   params.Cache,
		metrics: params.Metrics,
		logger:  logger,
		cfg:     cfg,
	}
}

// CountsByDocument counts the annotations the viewer may see on each of the
// given documents. Documents without visible annotations report zero. The
// result is cached per viewer; grant changes take effect within the TTL.
func (s *AggregationService) CountsByDocument(ctx context.Context, v access.Viewer, documentIDs []string) (map[string]int, bool, error) {
	if len(documentIDs) == 0 {
		return map[string]int{}, false, nil
	}
	sorted := append([]string(nil), documentIDs...)
	sort.Strings(sorted)
	cacheKey := fmt.Sprintf("counts:doc:%s:%s", viewerCacheKey(v), strings.Join(sorted, ","))
	if counts, hit, err := s.tryCache(ctx, cacheKey); err != nil {
		return nil, false, err
	} else if hit {
		return counts, true, nil
	}

	start := time.Now()
	counts, err := s.repo.CountsByDocument(ctx, access.BuildFilter(v), documentIDs)
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("annotation_counts", time.Since(start))
	}
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count annotations")
	}
	for _, id := range documentIDs {
		if _, ok := counts[id]; !ok {
			counts[id] = 0
		}
	}
	s.persistCache(ctx, cacheKey, counts)
	return counts, false, nil
}

// PublicNoteCountsByOrganization counts fully public annotations per
// organization. An annotation counts only when both it and its document are
// public.
func (s *AggregationService) PublicNoteCountsByOrganization(ctx context.Context) (map[string]int, bool, error) {
	cacheKey := "counts:org:public"
	if counts, hit, err := s.tryCache(ctx, cacheKey); err != nil {
		return nil, false, err
	} else if hit {
		return counts, true, nil
	}

	start := time.Now()
	counts, err := s.repo.PublicNoteCountsByOrganization(ctx)
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("organization_public_counts", time.Since(start))
	}
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count public annotations")
	}
	s.persistCache(ctx, cacheKey, counts)
	return counts, false, nil
}

// ScheduleCounterRefresh queues a recount of a document's public note count.
// Delivery is best effort; the queue retries failed refreshes and collapses
// duplicates for the same document.
func (s *AggregationService) ScheduleCounterRefresh(documentID string) {
	if s.queue == nil || documentID == "" {
		return
	}
	if err := s.queue.Enqueue(jobs.Job{ID: documentID, Type: RefreshJobType}); err != nil {
		s.logger.Sugar().Warnw("failed to enqueue count refresh", "document_id", documentID, "error", err)
	}
}

func (s *AggregationService) tryCache(ctx context.Context, key string) (map[string]int, bool, error) {
	if s.cache == nil {
		return nil, false, nil
	}
	var cached map[string]int
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		return nil, false, err
	}
	if hit {
		return cached, true, nil
	}
	return nil, false, nil
}

func (s *AggregationService) persistCache(ctx context.Context, key string, counts map[string]int) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, counts, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("count cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func viewerCacheKey(v access.Viewer) string {
	if v.Anonymous() {
		return "anon"
	}
	return v.Account.ID
}

// CounterWorker bridges queued refresh jobs to the counter store.
type CounterWorker struct {
	store  counterStore
	cache  countCache
	logger *zap.Logger
}

// NewCounterWorker constructs a worker.
func NewCounterWorker(store counterStore, cache countCache, logger *zap.Logger) *CounterWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CounterWorker{store: store, cache: cache, logger: logger}
}

// Handle recomputes one document's public note count from current state and
// drops stale cached counts. Running it twice for the same document is
// harmless, so retries never overcount.
func (w *CounterWorker) Handle(ctx context.Context, job jobs.Job) error {
	count, err := w.store.RefreshPublicNoteCount(ctx, job.ID)
	if err != nil {
		return err
	}
	if w.cache != nil {
		if err := w.cache.Invalidate(ctx, "counts:*"); err != nil {
			w.logger.Sugar().Warnw("count cache invalidation failed", "document_id", job.ID, "error", err)
		}
	}
	w.logger.Debug("public note count refreshed",
		zap.String("document_id", job.ID),
		zap.Int("count", count))
	return nil
}
