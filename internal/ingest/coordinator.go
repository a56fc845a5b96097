package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/ajitpratap0/conceptgraph/internal/metrics"
	"github.com/ajitpratap0/conceptgraph/internal/models"
	"github.com/ajitpratap0/conceptgraph/internal/store"
)

// RetryPolicy bounds the retries of steps 2 to 5.
type RetryPolicy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
}

// DefaultRetryPolicy retries three times starting at 200ms.
var DefaultRetryPolicy = RetryPolicy{MaxRetries: 3, InitialInterval: 200 * time.Millisecond}

// Coordinator runs the flush plan of a strategy against a store. Step 1 is a
// create and is never retried; later steps are retried with exponential
// backoff unless the error is permanent.
type Coordinator struct {
	store    store.Store
	strategy Strategy
	retry    RetryPolicy
	logger   *zap.Logger
}

// NewCoordinator creates a coordinator. A nil strategy means FullBatch.
func NewCoordinator(st store.Store, strategy Strategy, retry RetryPolicy, logger *zap.Logger) *Coordinator {
	if strategy == nil {
		strategy = FullBatch{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if retry.InitialInterval <= 0 {
		retry.InitialInterval = DefaultRetryPolicy.InitialInterval
	}
	return &Coordinator{store: st, strategy: strategy, retry: retry, logger: logger}
}

// Strategy returns the strategy in use.
func (c *Coordinator) Strategy() Strategy { return c.strategy }

// Flush writes a batch from step 1.
func (c *Coordinator) Flush(ctx context.Context, b *Batch) error {
	return c.ResumeAt(ctx, b, Checkpoint{Step: StepDocument, Sentence: -1})
}

// Resume re-runs steps fromStep..5 of a batch whose earlier steps committed.
func (c *Coordinator) Resume(ctx context.Context, b *Batch, fromStep Step) error {
	return c.ResumeAt(ctx, b, Checkpoint{Step: fromStep, Sentence: -1})
}

// ResumeAt re-runs the plan from a checkpoint, typically the one carried by a
// PartialIngestionError.
func (c *Coordinator) ResumeAt(ctx context.Context, b *Batch, from Checkpoint) error {
	if !from.Step.Valid() {
		return models.NewValidationError("step", fmt.Sprintf("must be between %d and %d", StepDocument, LastStep))
	}
	ops := c.strategy.plan(b)
	start := -1
	for i, op := range ops {
		if op.at.Step == from.Step && (from.Sentence < 0 || op.at.Sentence < 0 || op.at.Sentence == from.Sentence) {
			start = i
			break
		}
	}
	if start < 0 {
		return models.NewValidationError("checkpoint", fmt.Sprintf("step %d of sentence %d is not part of the plan", from.Step, from.Sentence))
	}

	logger := c.logger.With(zap.String("document_id", b.Document.ID), zap.String("strategy", c.strategy.Name()))
	begin := time.Now()
	for _, op := range ops[start:] {
		stepStart := time.Now()
		n, err := c.run(ctx, logger, op)
		if err != nil {
			metrics.Inc(metrics.FlushFailures)
			logger.Error("flush step failed",
				zap.Int("step", int(op.at.Step)),
				zap.Stringer("step_name", op.at.Step),
				zap.Int("sentence", op.at.Sentence),
				zap.Error(err))
			if op.at.Step == StepDocument {
				return fmt.Errorf("ingest: step %d: %w", StepDocument, err)
			}
			return &PartialIngestionError{
				DocumentID:    b.Document.ID,
				Step:          op.at.Step,
				LastCompleted: op.at.Step - 1,
				Sentence:      op.at.Sentence,
				Err:           err,
			}
		}
		record(op.at.Step, n)
		logger.Debug("flush step completed",
			zap.Int("step", int(op.at.Step)),
			zap.Stringer("step_name", op.at.Step),
			zap.Int("sentence", op.at.Sentence),
			zap.Int("records", n),
			zap.Duration("duration", time.Since(stepStart)))
	}

	metrics.Inc(metrics.DocumentsIngested)
	logger.Info("document flushed",
		zap.Int("sentences", len(b.Units)),
		zap.Int("round_trips", len(ops)-start),
		zap.Duration("duration", time.Since(begin)))
	return nil
}

func (c *Coordinator) run(ctx context.Context, logger *zap.Logger, op operation) (int, error) {
	if op.at.Step == StepDocument {
		return op.run(ctx, c.store)
	}

	var n int
	attempt := func() error {
		var err error
		n, err = op.run(ctx, c.store)
		if err != nil && isPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retry.InitialInterval
	b.Reset()
	policy := backoff.WithContext(backoff.WithMaxRetries(b, c.retry.MaxRetries), ctx)

	err := backoff.RetryNotify(attempt, policy, func(err error, wait time.Duration) {
		metrics.Inc(metrics.FlushRetries)
		logger.Warn("retrying flush step",
			zap.Int("step", int(op.at.Step)),
			zap.Duration("wait", wait),
			zap.Error(err))
	})
	return n, err
}

func record(step Step, n int) {
	switch step {
	case StepTokens:
		metrics.Add(metrics.TokensUpserted, n)
	case StepSentences:
		metrics.Add(metrics.SentencesCreated, n)
	case StepRelated:
		metrics.Add(metrics.RelationshipsUpserted, n)
	}
}
