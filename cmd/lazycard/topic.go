package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/phrazzld/lazycard/internal/service"
	"github.com/spf13/cobra"
)

func newTopicCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topic",
		Short: "Manage topics",
	}
	cmd.AddCommand(newTopicAddCmd(opts), newTopicListCmd(opts), newTopicRmCmd(opts))
	return cmd
}

func newTopicAddCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <path>",
		Short: "Create a topic, including missing parents, e.g. Languages/Spanish",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *application) error {
				topic, err := app.topics.EnsurePath(ctx, args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", topic.ID, strings.Join(service.SplitTopicPath(args[0]), "/"))
				return err
			})
		},
	}
}

func newTopicListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the topic tree with due and total card counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *application) error {
				tree, err := app.topics.Tree(ctx)
				if err != nil {
					return err
				}
				if len(tree) == 0 {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), "no topics")
					return err
				}

				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "TOPIC\tDUE\tCARDS\tID")
				if err := printTopicNodes(ctx, tw, app, tree, 0); err != nil {
					return err
				}
				return tw.Flush()
			})
		},
	}
}

func printTopicNodes(ctx context.Context, w io.Writer, app *application, nodes []*service.TopicNode, depth int) error {
	now := app.now()
	for _, n := range nodes {
		id := n.Topic.ID
		due, err := app.due.CountDue(ctx, service.DueQuery{TopicID: &id, AsOf: now})
		if err != nil {
			return err
		}
		cards, err := app.cards.List(ctx, service.ListOptions{TopicID: &id})
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s%s\t%d\t%d\t%s\n", strings.Repeat("  ", depth), n.Topic.Name, due, len(cards), id)
		if err := printTopicNodes(ctx, w, app, n.Children, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func newTopicRmCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <path|id>",
		Short: "Delete an empty topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *application) error {
				topic, err := resolveTopic(ctx, app.topics, args[0])
				if err != nil {
					return err
				}
				if err := app.topics.Delete(ctx, topic.ID); err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted topic %s\n", topic.Name)
				return err
			})
		},
	}
}
