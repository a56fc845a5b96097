package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/conceptgraph/internal/models"
)

func relationshipsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relationships",
		Short: "Create curated relationships between nodes",
	}
	cmd.AddCommand(relationshipsCreateCmd(), relationshipsTypesCmd())
	return cmd
}

func relationshipsCreateCmd() *cobra.Command {
	var rel models.Relationship
	var sourceType, targetType string

	cmd := &cobra.Command{
		Use:   "create <source-id> <type> [target-id]",
		Short: "Create a relationship; without a target, --text is stored as a property",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			rel.SourceID = args[0]
			rel.RelationshipType = args[1]
			rel.SourceType = models.Label(sourceType)
			if len(args) == 3 {
				rel.TargetID = args[2]
				rel.TargetType = models.Label(targetType)
			}
			return withApp(cmd, "relationships create", func(a *app) error {
				if err := a.curation.CreateRelationship(cmd.Context(), rel); err != nil {
					return err
				}
				fmt.Printf("%s -[%s]-> %s\n", rel.SourceID, rel.RelationshipType, firstNonEmpty(rel.TargetID, rel.TargetText))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&sourceType, "source-type", "entity", "source label: document, sentence, token or entity")
	cmd.Flags().StringVar(&targetType, "target-type", "entity", "target label: document, sentence, token or entity")
	cmd.Flags().StringVar(&rel.TargetText, "text", "", "property value when no target id is given")
	return cmd
}

func relationshipsTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List relationship types in the graph and the curated allow-list",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, "relationships types", func(a *app) error {
				present, err := a.curation.RelationshipTypes(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Printf("In graph: %s\n", strings.Join(present, ", "))
				fmt.Printf("Allowed:  %s\n", strings.Join(a.curation.AllowedRelationshipTypes(), ", "))
				return nil
			})
		},
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
