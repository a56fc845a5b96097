package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/conceptgraph/internal/curation"
	"github.com/ajitpratap0/conceptgraph/internal/models"
)

func entitiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entities",
		Short: "Create, link and recommend curated entities",
	}

	cmd.AddCommand(
		entitiesCreateCmd(),
		entitiesGetCmd(),
		entitiesLinkCmd(),
		entitiesRecommendCmd(),
		entitiesSuggestCmd(),
	)

	return cmd
}

func entitiesCreateCmd() *cobra.Command {
	var req curation.EntityRequest

	cmd := &cobra.Command{
		Use:   "create <text>",
		Short: "Create an entity, optionally linked to a sentence and its tokens",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Text = args[0]
			return withApp(cmd, "entities create", func(a *app) error {
				entity, err := a.curation.CreateEntity(cmd.Context(), req)
				if err != nil {
					return err
				}
				fmt.Println(entity.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&req.ID, "id", "", "entity id (default: new uuid)")
	cmd.Flags().StringVar(&req.TextualIdentifier, "identifier", "", "textual identifier")
	cmd.Flags().StringVar(&req.SentenceID, "sentence", "", "sentence to link (its document is linked too)")
	cmd.Flags().StringSliceVar(&req.TokenIDs, "tokens", nil, "tokens composing the entity (requires --sentence)")
	return cmd
}

func entitiesGetCmd() *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "get <entity-id>",
		Short: "Retrieve a single entity with the nodes it links to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, "entities get", func(a *app) error {
				detail, err := a.curation.GetEntity(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if outputJSON {
					return printJSON(detail)
				}
				e := detail.Entity
				fmt.Printf("ID:         %s\n", e.ID)
				fmt.Printf("Text:       %s\n", e.Text)
				fmt.Printf("Identifier: %s\n", e.TextualIdentifier)
				fmt.Printf("Created:    %s\n", e.CreatedAt.Format("2006-01-02 15:04:05"))
				for _, l := range detail.Links {
					fmt.Printf("  %-16s %-36s %s\n", l.Label, l.ID, truncate(l.Text, 50))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
	return cmd
}

func entitiesLinkCmd() *cobra.Command {
	var (
		link  models.EntityLink
		order int
	)

	cmd := &cobra.Command{
		Use:   "link <entity-id>",
		Short: "Link an entity to a sentence, a document and/or tokens",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			link.EntityID = args[0]
			if cmd.Flags().Changed("order") {
				link.Order = &order
			}
			return withApp(cmd, "entities link", func(a *app) error {
				return a.curation.LinkEntity(cmd.Context(), link)
			})
		},
	}

	cmd.Flags().StringVar(&link.SentenceID, "sentence", "", "sentence id")
	cmd.Flags().StringVar(&link.DocumentID, "document", "", "document id")
	cmd.Flags().StringSliceVar(&link.TokenIDs, "tokens", nil, "token ids")
	cmd.Flags().IntVar(&order, "order", 0, "position of the entity within the sentence")
	return cmd
}

func entitiesRecommendCmd() *cobra.Command {
	var (
		sentenceID string
		all        bool
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "recommend <token>...",
		Short: "Recommend entities for a set of tokens",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, "entities recommend", func(a *app) error {
				recommend := a.analytics.RecommendEntities
				if all {
					recommend = a.analytics.EntitiesForTokens
				}
				recs, err := recommend(cmd.Context(), args, sentenceID)
				if err != nil {
					return err
				}
				if outputJSON {
					return printJSON(recs)
				}
				if len(recs) == 0 {
					fmt.Println("No entities recommended.")
					return nil
				}
				for _, r := range recs {
					fmt.Printf("%-36s  %-30s  freq=%d  via=%v\n", r.Entity.ID, truncate(r.Entity.Text, 30), r.Frequency, r.Origins)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&sentenceID, "sentence", "", "resolve sentence and document links through this sentence")
	cmd.Flags().BoolVar(&all, "all", false, "every reachable entity, without threshold or limit")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
	return cmd
}

func entitiesSuggestCmd() *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "suggest <sentence-id>",
		Short: "Suggest entities for a sentence from existing entities and Claude",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, "entities suggest", func(a *app) error {
				suggestions, err := a.curation.Suggest(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if outputJSON {
					return printJSON(suggestions)
				}
				for _, s := range suggestions {
					fmt.Printf("%-8s  %-30s  %-12s  %s\n", s.RecommendedBy, s.Text, s.Kind, s.ID)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")
	return cmd
}
