// Package pipeline moves assessment requests from the source topic through
// the scorer to the sink topic.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/climate-risk-service/internal/domain"
	"github.com/couchcryptid/climate-risk-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// BatchExtractor reads up to batchSize assessment requests from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer validates and scores a raw request.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.Assessment, error)
}

// BatchLoader publishes scored assessments to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, assessments []domain.Assessment) error
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock replaces the clock used for retry delays and batch timing.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// Pipeline runs the extract-score-publish loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	clock       clockwork.Clock
	batchSize   int
	ready       atomic.Bool

	pending *batch // owned by the Run goroutine
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		clock:       clockwork.NewRealClock(),
		batchSize:   batchSize,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// CheckReadiness returns nil once a batch has been published.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not published any assessments yet")
	}
	return nil
}

// Run executes the batch loop until the context is cancelled. Extract and
// load failures are retried with exponential backoff; they never end the loop.
// A batch whose load failed is retried before anything new is fetched.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	r := newRetry(p.clock)
	for ctx.Err() == nil {
		if err := p.step(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			if !r.wait(ctx) {
				break
			}
			continue
		}
		r.reset()
	}

	if p.pending != nil {
		p.logger.Warn("pipeline stopped with an unpublished batch; offsets left uncommitted",
			"batch_size", len(p.pending.scored))
	}
	p.logger.Info("pipeline stopping", "reason", context.Cause(ctx))
	return nil
}

// batch is one extracted set of messages. raw keeps fetch order so offsets
// are committed in order, rejected messages included.
type batch struct {
	raw    []domain.RawEvent
	scored []domain.Assessment
	start  time.Time
}

// step runs one extract-score-publish cycle, or retries the pending batch.
// A non-nil error asks Run to back off.
func (p *Pipeline) step(ctx context.Context) error {
	if p.pending == nil {
		b, err := p.extract(ctx)
		if err != nil || b == nil {
			return err
		}
		p.pending = b
	}

	if err := p.publish(ctx, p.pending); err != nil {
		return err
	}
	p.pending = nil
	return nil
}

// extract fetches and scores a batch. It returns nil when there is nothing
// to publish; a batch of only rejected messages is committed on the spot so
// a poison message is never redelivered.
func (p *Pipeline) extract(ctx context.Context) (*batch, error) {
	start := p.clock.Now()

	raw, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Error("extract batch failed", "error", err)
		}
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	p.metrics.MessagesConsumed.Add(float64(len(raw)))
	p.metrics.BatchSize.Observe(float64(len(raw)))

	b := &batch{raw: raw, scored: p.score(ctx, raw), start: start}
	if len(b.scored) == 0 {
		p.commitAll(ctx, raw)
		return nil, nil
	}
	return b, nil
}

// publish loads the scored assessments, then commits every message of the
// batch. Nothing is committed when the load fails.
func (p *Pipeline) publish(ctx context.Context, b *batch) error {
	if err := p.loader.LoadBatch(ctx, b.scored); err != nil {
		if ctx.Err() == nil {
			p.logger.Error("load batch failed", "error", err, "batch_size", len(b.scored))
		}
		return err
	}

	p.metrics.MessagesProduced.Add(float64(len(b.scored)))
	for i := range b.scored {
		p.record(b.scored[i])
	}
	p.commitAll(ctx, b.raw)

	p.metrics.BatchProcessingDuration.Observe(p.clock.Since(b.start).Seconds())
	p.ready.Store(true)
	return nil
}

// score transforms the batch, logging and counting rejected requests.
func (p *Pipeline) score(ctx context.Context, raw []domain.RawEvent) []domain.Assessment {
	scored := make([]domain.Assessment, 0, len(raw))
	for _, r := range raw {
		a, err := p.transformer.Transform(ctx, r)
		if err != nil {
			p.logger.Warn("request rejected, skipping message",
				"error", err,
				"topic", r.Topic,
				"partition", r.Partition,
				"offset", r.Offset,
			)
			p.metrics.TransformErrors.Inc()
			continue
		}
		scored = append(scored, a)
	}
	return scored
}

func (p *Pipeline) record(a domain.Assessment) {
	p.metrics.Assessments.WithLabelValues(a.Band().String(), strconv.FormatBool(a.Adjusted != nil)).Inc()
	p.metrics.IndexValue.Observe(a.Result.Index)
	if a.FloodPrediction != "" {
		p.metrics.FloodPrediction.WithLabelValues(a.FloodPrediction).Inc()
	}
}

func (p *Pipeline) commitAll(ctx context.Context, raw []domain.RawEvent) {
	for _, r := range raw {
		if r.Commit == nil {
			continue
		}
		if err := r.Commit(ctx); err != nil {
			p.logger.Warn("commit offset failed", "error", err,
				"topic", r.Topic, "partition", r.Partition, "offset", r.Offset)
		}
	}
}
