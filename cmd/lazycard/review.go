package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/phrazzld/lazycard/internal/service"
	"github.com/phrazzld/lazycard/internal/service/review"
	"github.com/spf13/cobra"
)

func newDueCmd(opts *rootOptions) *cobra.Command {
	var (
		topicRef  string
		subtopics bool
		query     string
	)
	cmd := &cobra.Command{
		Use:   "due",
		Short: "List cards that are due for review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *application) error {
				topicID, err := optionalTopic(ctx, app.topics, topicRef)
				if err != nil {
					return err
				}
				q := service.DueQuery{TopicID: topicID, IncludeSubtopics: subtopics, AsOf: app.now()}
				cards, err := app.due.DueMatching(ctx, query, q)
				if err != nil {
					return err
				}
				if len(cards) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "%d card(s) due\n", len(cards))
				}
				return app.printCards(ctx, cmd, cards)
			})
		},
	}
	cmd.Flags().StringVarP(&topicRef, "topic", "t", "", "topic path or ID")
	cmd.Flags().BoolVarP(&subtopics, "subtopics", "r", false, "include cards of subtopics")
	cmd.Flags().StringVarP(&query, "query", "q", "", "only cards whose front or back contain every word")
	return cmd
}

func newReviewCmd(opts *rootOptions) *cobra.Command {
	var (
		topicRef  string
		subtopics bool
	)
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review due cards interactively",
		Long: "review walks through the due cards one at a time. Press Enter to reveal the back, " +
			"then answer y (remembered), n (forgot), s (skip for now) or q (quit).",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *application) error {
				topicID, err := optionalTopic(ctx, app.topics, topicRef)
				if err != nil {
					return err
				}
				session, err := app.sessions.Start(ctx, topicID, subtopics)
				if err != nil {
					return err
				}
				defer func() { _ = app.sessions.End(session.ID()) }()

				return runReviewLoop(ctx, session, cmd.InOrStdin(), cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().StringVarP(&topicRef, "topic", "t", "", "topic path or ID")
	cmd.Flags().BoolVarP(&subtopics, "subtopics", "r", false, "include cards of subtopics")
	return cmd
}

// runReviewLoop drives a session from line-based terminal input. It stops
// when the session is done, on q, or at end of input.
func runReviewLoop(ctx context.Context, session *review.Session, in io.Reader, out io.Writer) error {
	if session.Done() {
		_, err := fmt.Fprintln(out, "nothing due, well done")
		return err
	}

	lines := bufio.NewScanner(in)
	readAnswer := func(prompt string) (string, bool) {
		fmt.Fprint(out, prompt)
		if !lines.Scan() {
			return "", false
		}
		return strings.ToLower(strings.TrimSpace(lines.Text())), true
	}

loop:
	for !session.Done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		card, _ := session.Next()
		progress := session.Progress()

		fmt.Fprintf(out, "\n[%d/%d] %s\n", progress.Reviewed+1, progress.Total, card.Front)
		if answer, ok := readAnswer("(Enter to reveal, q to quit) "); !ok || answer == "q" {
			break
		}
		fmt.Fprintf(out, "  %s\n", card.Back)

		for {
			answer, ok := readAnswer("remembered? [y/n/s/q] ")
			if !ok {
				break loop
			}
			switch answer {
			case "y", "yes", "n", "no":
				success := answer[0] == 'y'
				outcome, err := session.Submit(ctx, card.ID, success)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "  next review in %.1f days\n", outcome.Card.Schedule.IntervalDays)
				continue loop
			case "s", "skip":
				if err := session.Skip(card.ID); err != nil {
					return err
				}
				continue loop
			case "q", "quit":
				break loop
			default:
				fmt.Fprintln(out, "  please answer y, n, s or q")
			}
		}
	}

	progress := session.Progress()
	_, err := fmt.Fprintf(out, "\nreviewed %d card(s), remembered %d, %d left\n",
		progress.Reviewed, progress.Successes, progress.Remaining)
	return err
}
