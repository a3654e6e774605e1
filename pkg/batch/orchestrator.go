package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/thema-client/pkg/dataset"
	"github.com/Sternrassler/thema-client/pkg/query"
	"github.com/Sternrassler/thema-client/pkg/result"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var (
	batchInstancesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thema_batch_instances_total",
		Help: "Query instances processed by family and outcome (rows, empty, error)",
	}, []string{"kind", "outcome"})

	batchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "thema_batch_duration_seconds",
		Help:    "Duration of batch runs in seconds by family",
		Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300},
	}, []string{"kind"})
)

var (
	// ErrNoData is returned when a single, non-combinatorial request
	// returns no rows.
	ErrNoData = errors.New("no data returned")

	// ErrNoValidCombinations is returned when no instance of a combinatorial
	// run produced any rows.
	ErrNoValidCombinations = errors.New("no valid combinations")
)

// InstanceError ties a failure to the instance that caused it.
type InstanceError struct {
	Index    int
	Instance query.Instance
	Err      error
}

func (e *InstanceError) Error() string {
	return fmt.Sprintf("instance %d (%s): %v", e.Index, e.Instance, e.Err)
}

// Unwrap allows errors.Is/As on the underlying error.
func (e *InstanceError) Unwrap() error { return e.Err }

// InstanceFetcher issues the data request for one instance. An empty,
// non-nil-error answer means the service had no data for it.
type InstanceFetcher interface {
	FetchInstance(ctx context.Context, fam dataset.Family, inst query.Instance) ([]result.Row, error)
}

// Config holds orchestrator configuration.
type Config struct {
	// MaxConcurrency is the number of requests in flight
	MaxConcurrency int

	// Timeout per instance request (0: none)
	Timeout time.Duration

	// Abort reports errors that must cancel a combinatorial run immediately
	Abort func(error) bool

	// ProgressEvery logs progress after this many finished instances
	ProgressEvery int
}

// DefaultConfig returns a conservative configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 4,
		Timeout:        60 * time.Second,
		ProgressEvery:  50,
	}
}

// Orchestrator runs expansions against an InstanceFetcher.
type Orchestrator struct {
	fetcher InstanceFetcher
	config  Config
	logger  zerolog.Logger
}

// New creates an orchestrator.
func New(fetcher InstanceFetcher, cfg Config, logger zerolog.Logger) *Orchestrator {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 1
	}
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = 50
	}
	if cfg.Abort == nil {
		cfg.Abort = func(error) bool { return false }
	}
	return &Orchestrator{
		fetcher: fetcher,
		config:  cfg,
		logger:  logger,
	}
}

// Run fetches every instance of exp and merges the results.
func (o *Orchestrator) Run(ctx context.Context, fam dataset.Family, exp *query.Expansion) (*result.Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	kind := string(fam.Kind)
	logger := o.logger.With().
		Str("run_id", runID).
		Str("kind", kind).
		Logger()

	n := len(exp.Instances)
	if n == 0 {
		if exp.Combinatorial {
			return nil, fmt.Errorf("%w: all %d combinations were pruned", ErrNoValidCombinations, exp.Unpruned)
		}
		return nil, ErrNoData
	}

	logger.Info().
		Int("instances", n).
		Int("pruned", exp.Pruned).
		Bool("combinatorial", exp.Combinatorial).
		Msg("Starting batch fetch")

	agg := result.NewAggregator(fam.Kind, n)
	errs := make([]error, n)
	done := make(chan struct{}, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.config.MaxConcurrency)

	go o.progress(logger, n, done)

	for i, inst := range exp.Instances {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			defer func() { done <- struct{}{} }()

			rows, err := o.fetchOne(gctx, fam, inst)
			switch {
			case err != nil:
				batchInstancesTotal.WithLabelValues(kind, "error").Inc()
				ierr := &InstanceError{Index: i, Instance: inst, Err: err}
				if !exp.Combinatorial || o.config.Abort(err) {
					return ierr
				}
				errs[i] = ierr
				logger.Warn().Err(err).Str("instance", inst.String()).Msg("Instance request failed")
				return nil

			case len(rows) == 0:
				batchInstancesTotal.WithLabelValues(kind, "empty").Inc()
				if !exp.Combinatorial {
					return &InstanceError{Index: i, Instance: inst, Err: ErrNoData}
				}
				agg.Reject(i, inst)
				logger.Warn().Str("instance", inst.String()).Msg("No data for combination")
				return nil

			default:
				batchInstancesTotal.WithLabelValues(kind, "rows").Inc()
				agg.Accept(i, inst, rows)
				logger.Debug().
					Str("instance", inst.String()).
					Int("rows", len(rows)).
					Msg("Instance fetched")
				return nil
			}
		})
	}

	err := g.Wait()
	close(done)
	batchDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())

	if err != nil {
		logger.Error().Err(err).Msg("Batch fetch aborted")
		return nil, err
	}
	if cerr := ctx.Err(); cerr != nil {
		return nil, cerr
	}

	table := agg.Table()
	ledger := agg.Ledger()
	for _, e := range errs {
		if e == nil {
			continue
		}
		logger.Error().Err(e).Msg("Batch fetch failed")
		if table.Len() == 0 {
			return nil, fmt.Errorf("%w: no combination returned data: %w", ErrNoValidCombinations, e)
		}
		return nil, e
	}
	if exp.Combinatorial && table.Len() == 0 {
		return nil, fmt.Errorf("%w: all %d requested combinations returned no data", ErrNoValidCombinations, n)
	}

	res := &result.Result{
		RunID:         runID,
		Kind:          fam.Kind,
		Table:         table,
		Rejected:      ledger,
		Instances:     n,
		Pruned:        exp.Pruned,
		Combinatorial: exp.Combinatorial,
		Duration:      time.Since(start),
	}

	logger.Info().
		Int("rows", table.Len()).
		Int("rejected", ledger.Len()).
		Dur("duration", res.Duration).
		Msg("Batch fetch complete")
	return res, nil
}

func (o *Orchestrator) fetchOne(ctx context.Context, fam dataset.Family, inst query.Instance) ([]result.Row, error) {
	if o.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.Timeout)
		defer cancel()
	}
	return o.fetcher.FetchInstance(ctx, fam, inst)
}

func (o *Orchestrator) progress(logger zerolog.Logger, total int, done <-chan struct{}) {
	finished := 0
	for range done {
		finished++
		if finished%o.config.ProgressEvery == 0 && finished < total {
			logger.Info().
				Int("finished", finished).
				Int("total", total).
				Float64("progress_pct", float64(finished)/float64(total)*100).
				Msg("Batch fetch progress")
		}
	}
}
