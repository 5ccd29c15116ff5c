package main

import (
	"context"
	"fmt"

	"github.com/phrazzld/lazycard/internal/domain"
	"github.com/phrazzld/lazycard/internal/service"
	"github.com/spf13/cobra"
)

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var cardRef string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show due counts and retention per topic, or the history of one card",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *application) error {
				if cardRef != "" {
					return app.printCardStats(ctx, cmd, cardRef)
				}
				return app.printTopicStats(ctx, cmd)
			})
		},
	}
	cmd.Flags().StringVar(&cardRef, "card", "", "show the review history of one card")
	return cmd
}

func (app *application) printTopicStats(ctx context.Context, cmd *cobra.Command) error {
	topics, err := app.topics.List(ctx)
	if err != nil {
		return err
	}
	paths := topicPaths(topics)
	now := app.now()

	tw := newTable(cmd.OutOrStdout())
	fmt.Fprintln(tw, "TOPIC\tCARDS\tDUE\tRETENTION")
	var totalCards, totalDue int
	for _, t := range topics {
		id := t.ID
		cards, err := app.cards.List(ctx, service.ListOptions{TopicID: &id})
		if err != nil {
			return err
		}
		due, err := app.due.CountDue(ctx, service.DueQuery{TopicID: &id, AsOf: now})
		if err != nil {
			return err
		}
		rate, err := app.retention.TopicRetentionRate(ctx, id)
		if err != nil {
			return err
		}
		totalCards += len(cards)
		totalDue += due
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.0f%%\n", paths[id], len(cards), due, rate*100)
	}
	fmt.Fprintf(tw, "TOTAL\t%d\t%d\t\n", totalCards, totalDue)
	return tw.Flush()
}

func (app *application) printCardStats(ctx context.Context, cmd *cobra.Command, ref string) error {
	ids, err := parseCardIDs([]string{ref})
	if err != nil {
		return err
	}
	card, err := app.cards.Get(ctx, ids[0])
	if err != nil {
		return err
	}
	summary, err := app.retention.Summary(ctx, card.ID)
	if err != nil {
		return err
	}
	history, err := app.reviewStore.ListByCard(ctx, card.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", card.Front)
	fmt.Fprintf(out, "due %s, interval %.1f days, easiness %.2f\n",
		formatDue(card.Schedule.DueAt, app.now()), card.Schedule.IntervalDays, card.Schedule.Easiness)
	fmt.Fprintf(out, "reviews %d, remembered %d, forgot %d, retention %.0f%%\n",
		summary.Total, summary.Successes, summary.Failures, summary.Rate*100)

	tw := newTable(out)
	for _, r := range history {
		fmt.Fprintf(tw, "  %s\t%s\t%.1fd -> %.1fd\n", r.Timestamp.Local().Format(timeLayout), outcomeLabel(r), r.IntervalBefore, r.IntervalAfter)
	}
	return tw.Flush()
}

func outcomeLabel(r *domain.ReviewRecord) string {
	if r.Success {
		return "remembered"
	}
	return "forgot"
}
