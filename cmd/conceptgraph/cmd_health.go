package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check connectivity to required services",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()
			allOK := true

			// Check Neo4j
			st, err := newStore(logger)
			if err != nil {
				fmt.Printf("Neo4j: FAIL (%v)\n", err)
				allOK = false
			} else {
				defer func() { _ = st.Close() }()
				if err := st.EnsureSchema(ctx); err != nil {
					fmt.Printf("Neo4j: FAIL (%v)\n", err)
					allOK = false
				} else {
					fmt.Println("Neo4j: OK")
				}
			}

			// Check segmenter and stop words
			pipeline, err := newPipeline()
			if err != nil {
				fmt.Printf("Segmenter: FAIL (%v)\n", err)
				allOK = false
			} else if _, err := pipeline.Extract(ctx, "Health check sentence."); err != nil {
				fmt.Printf("Segmenter: FAIL (%v)\n", err)
				allOK = false
			} else {
				fmt.Printf("Segmenter: OK (%s, %d stop words)\n", cfg.Ingest.Segmenter, pipeline.StopWords().Len())
			}

			// Claude is optional: suggestions fall back to textual matches.
			if cfg.Claude.APIKey == "" {
				fmt.Println("Claude API: SKIP (no API key configured, LLM suggestions disabled)")
			} else {
				fmt.Println("Claude API: OK")
			}

			if !allOK {
				return fmt.Errorf("one or more health checks failed")
			}
			return nil
		},
	}
}
