package ingest

import (
	"errors"
	"fmt"

	"github.com/ajitpratap0/conceptgraph/internal/models"
)

// Step is one of the five flush round trips.
type Step int

const (
	StepNone Step = iota
	StepDocument
	StepTokens
	StepSentences
	StepChain
	StepRelated
)

// LastStep is the final step of a flush.
const LastStep = StepRelated

var stepNames = map[Step]string{
	StepNone:      "none",
	StepDocument:  "create_document",
	StepTokens:    "upsert_tokens",
	StepSentences: "create_sentences",
	StepChain:     "link_chain",
	StepRelated:   "upsert_relationships",
}

func (s Step) String() string {
	if n, ok := stepNames[s]; ok {
		return n
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Valid reports whether s names a flush step.
func (s Step) Valid() bool { return s >= StepDocument && s <= LastStep }

// Checkpoint is a position in a flush plan. Sentence is -1 for steps that
// cover the whole document.
type Checkpoint struct {
	Step     Step `json:"step"`
	Sentence int  `json:"sentence"`
}

// PartialIngestionError reports that a flush stopped after some steps had
// already been committed. Resume from Checkpoint() to finish the document.
//
// LastCompleted is always Step-1. Under PerSentence it describes the failed
// sentence only: sentences before Sentence have already finished every step,
// so Step and Sentence together locate the failure.
type PartialIngestionError struct {
	DocumentID    string
	Step          Step
	LastCompleted Step
	Sentence      int
	Err           error
}

func (e *PartialIngestionError) Error() string {
	if e.Sentence >= 0 {
		return fmt.Sprintf("ingest: document %s: step %d (%s) of sentence %d failed, last completed step %d: %v",
			e.DocumentID, e.Step, e.Step, e.Sentence, e.LastCompleted, e.Err)
	}
	return fmt.Sprintf("ingest: document %s: step %d (%s) failed, last completed step %d: %v",
		e.DocumentID, e.Step, e.Step, e.LastCompleted, e.Err)
}

func (e *PartialIngestionError) Unwrap() error { return e.Err }

// Checkpoint returns the position to resume from.
func (e *PartialIngestionError) Checkpoint() Checkpoint {
	return Checkpoint{Step: e.Step, Sentence: e.Sentence}
}

// isPermanent reports errors that retrying cannot fix.
func isPermanent(err error) bool {
	return errors.Is(err, models.ErrValidation) ||
		errors.Is(err, models.ErrNotFound) ||
		errors.Is(err, models.ErrConflict)
}
