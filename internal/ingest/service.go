package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/conceptgraph/internal/extract"
	"github.com/ajitpratap0/conceptgraph/internal/models"
)

// Request is a document submitted for ingestion. ID is optional; a uuid is
// assigned when empty.
type Request struct {
	ID                string `json:"id,omitempty"`
	Text              string `json:"text"`
	TextualIdentifier string `json:"textual_identifier,omitempty"`
	SourceID          string `json:"source_id,omitempty"`
}

// Result summarises a flushed document.
type Result struct {
	DocumentID    string `json:"document_id"`
	Sentences     int    `json:"sentences"`
	Tokens        int    `json:"tokens"`
	ChainLinks    int    `json:"chain_links"`
	Relationships int    `json:"relationships"`
	FailedBatch   string `json:"failed_batch,omitempty"`
}

// Options configures a Service.
type Options struct {
	// Concurrency bounds IngestMany. Values below 1 mean 1.
	Concurrency int
	// FailedBatchDir receives batches that stopped after a partial flush.
	// Empty disables persistence.
	FailedBatchDir string
	// OnWrite is called with the document id whenever a flush wrote anything
	// past document creation, successful or not.
	OnWrite func(documentID string)
	// NewID and Now are overridable for tests.
	NewID func() string
	Now   func() time.Time
}

// Service extracts documents and flushes them through a Coordinator.
type Service struct {
	pipeline *extract.Pipeline
	coord    *Coordinator
	opts     Options
	logger   *zap.Logger
}

// NewService creates an ingestion service.
func NewService(pipeline *extract.Pipeline, coord *Coordinator, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.New().String() }
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{pipeline: pipeline, coord: coord, opts: opts, logger: logger}
}

// Prepare extracts a request into a batch without touching the store.
func (s *Service) Prepare(ctx context.Context, req Request) (*Batch, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, models.NewValidationError("text", "must not be empty")
	}
	ex, err := s.pipeline.Extract(ctx, req.Text)
	if err != nil {
		return nil, err
	}
	id := req.ID
	if id == "" {
		id = s.opts.NewID()
	}
	now := s.opts.Now()
	doc := models.Document{
		ID:                id,
		Text:              req.Text,
		TextualIdentifier: req.TextualIdentifier,
		SourceID:          req.SourceID,
		Status:            models.StatusInitial,
		CreatedAt:         now,
	}
	return NewBatch(doc, ex, s.opts.NewID, now), nil
}

// Ingest extracts and flushes one document. The returned error is a
// *PartialIngestionError when some steps committed.
func (s *Service) Ingest(ctx context.Context, req Request) (*Result, error) {
	b, err := s.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.flush(ctx, b, Checkpoint{Step: StepDocument, Sentence: -1})
}

// Resume finishes a batch from a checkpoint.
func (s *Service) Resume(ctx context.Context, b *Batch, from Checkpoint) (*Result, error) {
	if b == nil || b.Document.ID == "" {
		return nil, models.NewValidationError("batch", "missing document")
	}
	return s.flush(ctx, b, from)
}

// IngestMany ingests documents concurrently, bounded by Options.Concurrency.
// Results keep the order of reqs; the first error cancels the remaining work.
func (s *Service) IngestMany(ctx context.Context, reqs []Request) ([]*Result, error) {
	results := make([]*Result, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i := range reqs {
		g.Go(func() error {
			res, err := s.Ingest(gctx, reqs[i])
			if err != nil {
				return fmt.Errorf("document %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func (s *Service) flush(ctx context.Context, b *Batch, from Checkpoint) (*Result, error) {
	res := &Result{
		DocumentID:    b.Document.ID,
		Sentences:     len(b.Units),
		Tokens:        len(b.TokenCounts()),
		ChainLinks:    len(b.ChainLinks()),
		Relationships: len(b.RelatedPairs()),
	}

	err := s.coord.ResumeAt(ctx, b, from)
	if err == nil {
		s.notify(b.Document.ID)
		return res, nil
	}

	var perr *PartialIngestionError
	if !errors.As(err, &perr) {
		return nil, err
	}
	s.notify(b.Document.ID)
	if s.opts.FailedBatchDir != "" {
		path, saveErr := SaveFailedBatch(s.opts.FailedBatchDir, b, s.coord.Strategy().Name(), perr)
		if saveErr != nil {
			s.logger.Error("saving failed batch", zap.String("document_id", b.Document.ID), zap.Error(saveErr))
		} else {
			res.FailedBatch = path
			s.logger.Warn("failed batch saved", zap.String("document_id", b.Document.ID), zap.String("path", path))
		}
	}
	return res, err
}

func (s *Service) notify(documentID string) {
	if s.opts.OnWrite != nil {
		s.opts.OnWrite(documentID)
	}
}
