package main

import (
	"context"
	"fmt"

	"github.com/phrazzld/lazycard/internal/domain"
	"github.com/phrazzld/lazycard/internal/service"
	"github.com/spf13/cobra"
)

func newCardCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "card",
		Short: "Manage cards",
	}
	cmd.AddCommand(newCardAddCmd(opts), newCardListCmd(opts), newCardMvCmd(opts), newCardRmCmd(opts))
	return cmd
}

func newCardAddCmd(opts *rootOptions) *cobra.Command {
	var (
		topicRef    string
		createTopic bool
	)
	cmd := &cobra.Command{
		Use:   "add <front> [back]",
		Short: "Add a card to a topic",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *application) error {
				var (
					topic *domain.Topic
					err   error
				)
				if createTopic {
					topic, err = app.topics.EnsurePath(ctx, topicRef)
				} else {
					topic, err = resolveTopic(ctx, app.topics, topicRef)
				}
				if err != nil {
					return err
				}

				back := ""
				if len(args) == 2 {
					back = args[1]
				}
				card, err := app.cards.Create(ctx, topic.ID, args[0], back)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), card.ID)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&topicRef, "topic", "t", "", "topic path or ID")
	cmd.Flags().BoolVar(&createTopic, "create-topic", false, "create the topic path if it does not exist")
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}

func newCardListCmd(opts *rootOptions) *cobra.Command {
	var (
		topicRef  string
		subtopics bool
		query     string
		sort      string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cards, optionally filtered by topic and search text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			order, err := service.ParseSortOrder(sort)
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, app *application) error {
				topicID, err := optionalTopic(ctx, app.topics, topicRef)
				if err != nil {
					return err
				}
				cards, err := app.cards.List(ctx, service.ListOptions{
					TopicID:          topicID,
					IncludeSubtopics: subtopics,
					Query:            query,
					Sort:             order,
				})
				if err != nil {
					return err
				}
				return app.printCards(ctx, cmd, cards)
			})
		},
	}
	cmd.Flags().StringVarP(&topicRef, "topic", "t", "", "topic path or ID")
	cmd.Flags().BoolVarP(&subtopics, "subtopics", "r", false, "include cards of subtopics")
	cmd.Flags().StringVarP(&query, "query", "q", "", "only cards whose front or back contain every word")
	cmd.Flags().StringVar(&sort, "sort", string(service.SortNewest), "newest, oldest, retention_asc or retention_desc")
	return cmd
}

// printCards writes one row per card with its topic path and due date.
func (app *application) printCards(ctx context.Context, cmd *cobra.Command, cards []*domain.Card) error {
	if len(cards) == 0 {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "no cards")
		return err
	}
	topics, err := app.topics.List(ctx)
	if err != nil {
		return err
	}
	paths := topicPaths(topics)
	now := app.now()

	tw := newTable(cmd.OutOrStdout())
	fmt.Fprintln(tw, "ID\tTOPIC\tFRONT\tDUE\tINTERVAL")
	for _, c := range cards {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1fd\n",
			c.ID, paths[c.TopicID], truncate(c.Front, 40), formatDue(c.Schedule.DueAt, now), c.Schedule.IntervalDays)
	}
	return tw.Flush()
}

func newCardMvCmd(opts *rootOptions) *cobra.Command {
	var topicRef string
	cmd := &cobra.Command{
		Use:   "mv <card-id>... --to <topic>",
		Short: "Move cards to another topic without touching their schedules",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseCardIDs(args)
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, app *application) error {
				topic, err := resolveTopic(ctx, app.topics, topicRef)
				if err != nil {
					return err
				}

				if len(ids) == 1 {
					if _, err := app.cards.Move(ctx, ids[0], topic.ID); err != nil {
						return err
					}
					_, err = fmt.Fprintf(cmd.OutOrStdout(), "moved 1 card to %s\n", topic.Name)
					return err
				}

				result, err := app.cards.BulkMove(ctx, ids, topic.ID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "moved %d cards to %s\n", len(result.Moved), topic.Name)
				for _, id := range result.Skipped {
					fmt.Fprintf(out, "skipped missing card %s\n", id)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&topicRef, "to", "", "target topic path or ID")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newCardRmCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <card-id>...",
		Short: "Delete cards and their review history",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseCardIDs(args)
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, app *application) error {
				for _, id := range ids {
					if err := app.cards.Delete(ctx, id); err != nil {
						return err
					}
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "deleted %d card(s)\n", len(ids))
				return err
			})
		},
	}
}
