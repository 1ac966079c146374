package logout

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"portalgate/internal/platform/metrics"
	"portalgate/internal/session/models"
)

type MetadataLister interface {
	List(ctx context.Context) ([]*models.Metadata, error)
}

// Evaluator classifies a metadata record without touching storage.
type Evaluator interface {
	Evaluate(meta *models.Metadata, now time.Time) models.Validity
}

type Forcer interface {
	ForceLogout(ctx context.Context, target Target, reason Reason) (string, error)
}

// Sweeper ends idle and over-age sessions nobody is looking at. Open tabs
// are handled by their own gate; the sweeper covers abandoned ones.
type Sweeper struct {
	lister      MetadataLister
	evaluator   Evaluator
	forcer      Forcer
	interval    time.Duration
	concurrency int
	now         func() time.Time
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

type SweeperOption func(*Sweeper)

func WithInterval(d time.Duration) SweeperOption {
	return func(s *Sweeper) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithConcurrency bounds how many forced logouts run at once.
func WithConcurrency(n int) SweeperOption {
	return func(s *Sweeper) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func WithClock(now func() time.Time) SweeperOption {
	return func(s *Sweeper) { s.now = now }
}

func WithSweeperLogger(logger *slog.Logger) SweeperOption {
	return func(s *Sweeper) { s.logger = logger }
}

func WithSweeperMetrics(m *metrics.Metrics) SweeperOption {
	return func(s *Sweeper) { s.metrics = m }
}

func NewSweeper(lister MetadataLister, evaluator Evaluator, forcer Forcer, opts ...SweeperOption) (*Sweeper, error) {
	if lister == nil || evaluator == nil || forcer == nil {
		return nil, errors.New("sweeper requires a metadata lister, an evaluator and a forcer")
	}
	s := &Sweeper{
		lister:      lister,
		evaluator:   evaluator,
		forcer:      forcer,
		interval:    time.Minute,
		concurrency: 4,
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run sweeps every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				s.logger.WarnContext(ctx, "session sweep failed", "error", err)
			}
		}
	}
}

// SweepOnce forces out every invalid session and returns how many were
// ended. A failed logout is logged and does not stop the sweep.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	start := time.Now()
	records, err := s.lister.List(ctx)
	if err != nil {
		return 0, err
	}

	now := s.now()
	var ended atomic.Int64
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, meta := range records {
		validity := s.evaluator.Evaluate(meta, now)
		if validity.Valid {
			continue
		}
		g.Go(func() error {
			target := Target{SubjectID: meta.SubjectID, Namespace: meta.Namespace, Handle: meta.Handle}
			if _, err := s.forcer.ForceLogout(ctx, target, ReasonFor(validity.Reason)); err != nil {
				s.logger.WarnContext(ctx, "sweeper logout incomplete",
					"subject_id", meta.SubjectID.String(),
					"namespace", meta.Namespace,
					"error", err,
				)
				return nil
			}
			ended.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	n := int(ended.Load())
	if s.metrics != nil {
		s.metrics.ObserveSweep(time.Since(start).Seconds(), n)
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "session sweep finished", "ended", n, "scanned", len(records))
	}
	return n, nil
}
