package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func searchCmd() *cobra.Command {
	var (
		label      string
		limit      int
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Case-insensitive search over node text and identifiers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return withApp(cmd, "search", func(a *app) error {
				hits, err := a.curation.Search(cmd.Context(), label, query, limit)
				if err != nil {
					return err
				}
				if outputJSON {
					return printJSON(hits)
				}
				if len(hits) == 0 {
					fmt.Println("No matches.")
					return nil
				}
				for _, h := range hits {
					fmt.Printf("%-36s  %-16s  %s\n", h.ID, h.Label, truncate(h.Text, 60))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&label, "label", "document", "node label: document, sentence, token or entity")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum results (default 25)")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
	return cmd
}

func recentCmd() *cobra.Command {
	var (
		limit      int
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List the latest documents and entities",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, "recent", func(a *app) error {
				nodes, err := a.store.Recent(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if outputJSON {
					return printJSON(nodes)
				}
				for _, n := range nodes {
					fmt.Printf("%s  %-8s  %-36s  %s\n", n.CreatedAt.Format("2006-01-02 15:04"), n.Label, n.ID, truncate(n.Text, 50))
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of nodes")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
	return cmd
}
