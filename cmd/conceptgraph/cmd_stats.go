package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func statsCmd() *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show node and edge counts of the concept graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, "stats", func(a *app) error {
				stats, err := a.store.Stats(cmd.Context())
				if err != nil {
					return fmt.Errorf("fetching statistics: %w", err)
				}
				if outputJSON {
					return printJSON(stats)
				}

				fmt.Println("Nodes:")
				for _, k := range sortedKeys(stats.Nodes) {
					fmt.Printf("  %-16s %d\n", k, stats.Nodes[k])
				}
				fmt.Println("\nEdges:")
				for _, k := range sortedKeys(stats.Edges) {
					fmt.Printf("  %-16s %d\n", k, stats.Edges[k])
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
	return cmd
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
