package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/conceptgraph/internal/models"
)

func documentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "documents",
		Short: "List, inspect and curate documents",
	}

	cmd.AddCommand(
		documentsListCmd(),
		documentsGetCmd(),
		documentsStatusCmd(),
	)

	return cmd
}

func documentsListCmd() *cobra.Command {
	var (
		limit      int
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recently ingested documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, "documents list", func(a *app) error {
				docs, err := a.store.ListDocuments(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if outputJSON {
					return printJSON(docs)
				}
				if len(docs) == 0 {
					fmt.Println("No documents found.")
					return nil
				}
				for i := range docs {
					d := &docs[i]
					fmt.Printf("%-36s  %-10s  %-20s  %s\n", d.ID, d.Status, truncate(d.TextualIdentifier, 20), truncate(d.Text, 60))
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of documents")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
	return cmd
}

func documentsGetCmd() *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "get <document-id>",
		Short: "Show a document with its sentences and entities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, "documents get", func(a *app) error {
				detail, err := a.store.GetDocument(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if outputJSON {
					return printJSON(detail)
				}
				d := detail.Document
				fmt.Printf("ID:         %s\n", d.ID)
				fmt.Printf("Identifier: %s\n", d.TextualIdentifier)
				fmt.Printf("Status:     %s\n", d.Status)
				fmt.Printf("Created:    %s\n\n", d.CreatedAt.Format("2006-01-02 15:04:05"))
				for _, s := range detail.Sentences {
					fmt.Printf("  [%d] %s  %s\n", s.Order, s.ID, truncate(s.Text, 80))
				}
				if len(detail.Entities) > 0 {
					fmt.Println("\nEntities:")
					for _, e := range detail.Entities {
						fmt.Printf("  %s  %s\n", e.ID, e.Text)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
	return cmd
}

func documentsStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <document-id> <status>",
		Short: "Set the curation status (initial, automatic, manual, pending, processed)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, "documents status", func(a *app) error {
				if err := a.curation.SetDocumentStatus(cmd.Context(), args[0], models.DocumentStatus(args[1])); err != nil {
					return err
				}
				fmt.Printf("%s -> %s\n", args[0], args[1])
				return nil
			})
		},
	}
}

func sentenceCmd() *cobra.Command {
	var (
		suggest    bool
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "sentence <sentence-id>",
		Short: "Show a sentence with its token chain and entities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, "sentence", func(a *app) error {
				detail, err := a.store.GetSentence(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				var suggestions []models.Suggestion
				if suggest {
					if suggestions, err = a.curation.Suggest(cmd.Context(), args[0]); err != nil {
						return err
					}
				}
				if outputJSON {
					return printJSON(map[string]any{"sentence": detail, "suggestions": suggestions})
				}
				fmt.Printf("%s (document %s)\n%s\n\nChain:", detail.Sentence.ID, detail.DocumentID, detail.Sentence.Text)
				for _, t := range detail.Chain {
					fmt.Printf(" %s", t.ID)
				}
				fmt.Println()
				for _, e := range detail.Entities {
					fmt.Printf("Entity: %s  %s\n", e.ID, e.Text)
				}
				for _, sg := range suggestions {
					fmt.Printf("Suggested (%s): %s %s\n", sg.RecommendedBy, sg.Text, sg.ID)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&suggest, "suggest", false, "include entity suggestions")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		neighbors  int
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "token <token>",
		Short: "Show a token with its strongest co-occurring neighbours",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, "token", func(a *app) error {
				detail, err := a.store.GetToken(cmd.Context(), args[0], neighbors)
				if err != nil {
					return err
				}
				if outputJSON {
					return printJSON(detail)
				}
				fmt.Printf("%s  count=%d  sentences=%d  documents=%d\n", detail.ID, detail.Count, len(detail.SentenceIDs), len(detail.DocumentIDs))
				for _, n := range detail.Neighbors {
					fmt.Printf("  %-30s %d\n", n.ID, n.Strength)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&neighbors, "neighbors", 20, "number of neighbours to show")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
	return cmd
}
