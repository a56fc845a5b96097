package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func importantCmd() *cobra.Command {
	var (
		documentID string
		k          int
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "important",
		Short: "Rank tokens by the strength of their co-occurrences",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, "important", func(a *app) error {
				tokens, err := a.analytics.ImportantTokens(cmd.Context(), documentID, k)
				if err != nil {
					return err
				}
				if outputJSON {
					return printJSON(tokens)
				}
				for i, t := range tokens {
					fmt.Printf("%3d. %-30s strength=%d count=%d\n", i+1, t.ID, t.Strength, t.Count)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&documentID, "document", "", "restrict to one document")
	cmd.Flags().IntVarP(&k, "top", "k", 0, "number of tokens (default: analytics.top_k)")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
	return cmd
}

func ngramsCmd() *cobra.Command {
	var (
		documentID string
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "ngrams",
		Short: "List phrases repeated across sentences of a document",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, "ngrams", func(a *app) error {
				grams, err := a.analytics.NGrams(cmd.Context(), documentID)
				if err != nil {
					return err
				}
				if outputJSON {
					return printJSON(grams)
				}
				if len(grams) == 0 {
					fmt.Println("No repeated phrases found.")
					return nil
				}
				for _, g := range grams {
					fmt.Printf("%-36s  %-40s %d\n", g.DocumentID, g.Phrase, g.Frequency)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&documentID, "document", "", "restrict to one document")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
	return cmd
}

func compareCmd() *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "compare <document-a> <document-b>",
		Short: "List phrases two documents share",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, "compare", func(a *app) error {
				phrases, err := a.analytics.CompareDocuments(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				if outputJSON {
					return printJSON(phrases)
				}
				fmt.Printf("%-40s %6s %6s %6s\n", "PHRASE", "A", "B", "TOTAL")
				for _, p := range phrases {
					fmt.Printf("%-40s %6d %6d %6d\n", p.Phrase, p.FirstFreq, p.SecondFreq, p.TotalFrequency)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
	return cmd
}
