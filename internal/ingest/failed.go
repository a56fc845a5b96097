package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FailedBatch is a batch persisted after a partial flush, with the checkpoint
// to resume from.
type FailedBatch struct {
	Batch      *Batch     `json:"batch"`
	Strategy   string     `json:"strategy"`
	Checkpoint Checkpoint `json:"checkpoint"`
	Error      string     `json:"error"`
	FailedAt   time.Time  `json:"failed_at"`
}

// SaveFailedBatch writes the batch to dir as <document id>.json and returns
// the file path.
func SaveFailedBatch(dir string, b *Batch, strategy string, perr *PartialIngestionError) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating failed batch dir: %w", err)
	}
	fb := FailedBatch{
		Batch:      b,
		Strategy:   strategy,
		Checkpoint: perr.Checkpoint(),
		Error:      perr.Error(),
		FailedAt:   time.Now().UTC(),
	}
	data, err := json.MarshalIndent(fb, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshalling failed batch: %w", err)
	}
	path := filepath.Join(dir, b.Document.ID+".json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("writing failed batch: %w", err)
	}
	return path, nil
}

// LoadFailedBatch reads a file written by SaveFailedBatch.
func LoadFailedBatch(path string) (*FailedBatch, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("reading failed batch: %w", err)
	}
	var fb FailedBatch
	if err := json.Unmarshal(data, &fb); err != nil {
		return nil, fmt.Errorf("parsing failed batch %s: %w", path, err)
	}
	if fb.Batch == nil || fb.Batch.Document.ID == "" {
		return nil, errors.New("failed batch has no document")
	}
	if !fb.Checkpoint.Step.Valid() {
		return nil, fmt.Errorf("failed batch has invalid step %d", fb.Checkpoint.Step)
	}
	return &fb, nil
}
