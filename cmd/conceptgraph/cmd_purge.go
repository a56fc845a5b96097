package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func purgeCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete every node and relationship in the graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("purge: refusing to delete the graph without --yes")
			}
			return withApp(cmd, "purge", func(a *app) error {
				if err := a.store.Purge(cmd.Context()); err != nil {
					return err
				}
				a.analytics.Invalidate()
				fmt.Println("Graph purged.")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the purge")
	return cmd
}
