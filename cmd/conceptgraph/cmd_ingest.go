package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/conceptgraph/internal/ingest"
)

func ingestCmd() *cobra.Command {
	var (
		text       string
		id         string
		identifier string
		strategy   string
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "ingest [files...]",
		Short: "Ingest documents into the concept graph",
		Long: `Ingest reads each file as one document ("-" reads stdin), or the --text flag.
A document that fails after some steps committed is saved to ingest.failed_batch_dir
and can be finished with "conceptgraph ingest resume <file>".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reqs, err := ingestRequests(cmd.InOrStdin(), args, text, id, identifier)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			logger := newLogger()
			a, err := newApp(cmd.Context(), logger, strategy)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer a.Close()

			results, err := a.ingest.IngestMany(cmd.Context(), reqs)
			for _, res := range results {
				if res == nil {
					continue
				}
				if outputJSON {
					if jsonErr := printJSON(res); jsonErr != nil {
						return jsonErr
					}
					continue
				}
				fmt.Printf("%s  sentences=%d tokens=%d chain=%d related=%d\n",
					res.DocumentID, res.Sentences, res.Tokens, res.ChainLinks, res.Relationships)
				if res.FailedBatch != "" {
					fmt.Printf("  failed batch saved to %s\n", res.FailedBatch)
				}
			}
			if err != nil {
				var perr *ingest.PartialIngestionError
				if errors.As(err, &perr) {
					logger.Error("partial ingestion",
						zap.String("document_id", perr.DocumentID),
						zap.Stringer("step", perr.Step),
						zap.Stringer("last_completed", perr.LastCompleted))
				}
				return fmt.Errorf("ingest: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "document text (instead of files)")
	cmd.Flags().StringVar(&id, "id", "", "document id for --text (default: new uuid)")
	cmd.Flags().StringVar(&identifier, "identifier", "", "textual identifier for --text")
	cmd.Flags().StringVar(&strategy, "strategy", "", "flush strategy: batch or per_sentence (default: ingest.strategy)")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")

	cmd.AddCommand(ingestResumeCmd())
	return cmd
}

// ingestRequests builds one request per file, or a single request from text.
func ingestRequests(stdin io.Reader, files []string, text, id, identifier string) ([]ingest.Request, error) {
	if text != "" {
		if len(files) > 0 {
			return nil, errors.New("use either --text or files, not both")
		}
		return []ingest.Request{{ID: id, Text: text, TextualIdentifier: identifier, SourceID: "cli"}}, nil
	}
	if len(files) == 0 {
		return nil, errors.New("no input: pass files, \"-\" for stdin, or --text")
	}
	reqs := make([]ingest.Request, 0, len(files))
	for _, f := range files {
		var (
			data []byte
			err  error
		)
		if f == "-" {
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(f) //nolint:gosec // paths come from the operator
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			return nil, fmt.Errorf("%s is empty", f)
		}
		name := filepath.Base(f)
		if f == "-" {
			name = "stdin"
		}
		reqs = append(reqs, ingest.Request{Text: string(data), TextualIdentifier: name, SourceID: f})
	}
	return reqs, nil
}

func ingestResumeCmd() *cobra.Command {
	var keep bool

	cmd := &cobra.Command{
		Use:   "resume <batch.json>",
		Short: "Finish a partially ingested document from its saved batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fb, err := ingest.LoadFailedBatch(args[0])
			if err != nil {
				return fmt.Errorf("ingest resume: %w", err)
			}

			a, err := newApp(cmd.Context(), newLogger(), fb.Strategy)
			if err != nil {
				return fmt.Errorf("ingest resume: %w", err)
			}
			defer a.Close()

			res, err := a.ingest.Resume(cmd.Context(), fb.Batch, fb.Checkpoint)
			if err != nil {
				return fmt.Errorf("ingest resume: %w", err)
			}
			fmt.Printf("%s resumed from step %d (%s): sentences=%d related=%d\n",
				res.DocumentID, fb.Checkpoint.Step, fb.Checkpoint.Step, res.Sentences, res.Relationships)

			if !keep {
				if rmErr := os.Remove(args[0]); rmErr != nil {
					return fmt.Errorf("ingest resume: removing %s: %w", args[0], rmErr)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&keep, "keep", false, "keep the batch file after a successful resume")
	return cmd
}
