package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/phrazzld/lazycard/internal/backup"
	"github.com/phrazzld/lazycard/internal/importer"
	"github.com/spf13/cobra"
)

// errRestoreNotConfirmed is returned when restore runs without --yes.
var errRestoreNotConfirmed = errors.New("restore replaces every topic, card and review; rerun with --yes to confirm")

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		output string
		format string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a snapshot of all topics, cards and review history",
		Long:  "export writes a JSON or YAML snapshot. Use --output - to write to stdout.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *application) error {
				f, err := exportFormat(format, output)
				if err != nil {
					return err
				}

				if output == "-" {
					snap, err := app.backups.Export(ctx)
					if err != nil {
						return err
					}
					return backup.Encode(cmd.OutOrStdout(), snap, f)
				}

				path := output
				if path == "" {
					path = backup.FileName(app.now(), f)
				}
				snap, err := app.backups.ExportFile(ctx, path, f)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "exported %d topics, %d cards, %d reviews to %s\n",
					len(snap.Topics), len(snap.Cards), len(snap.Reviews), path)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: a timestamped file in the working directory)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "json or yaml (default: from the output extension, else json)")
	return cmd
}

// exportFormat picks the explicit format, then the output extension.
func exportFormat(name, output string) (backup.Format, error) {
	if name != "" {
		return backup.ParseFormat(name)
	}
	if output != "" && output != "-" {
		return backup.FormatForPath(output), nil
	}
	return backup.FormatJSON, nil
}

func newRestoreCmd(opts *rootOptions) *cobra.Command {
	var confirmed bool
	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Replace the whole collection with a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return errRestoreNotConfirmed
			}
			return opts.withApp(cmd, func(ctx context.Context, app *application) error {
				result, err := app.backups.RestoreFile(ctx, args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "restored %d topics, %d cards, %d reviews\n",
					result.Topics, result.Cards, result.Reviews)
				return err
			})
		},
	}
	cmd.Flags().BoolVarP(&confirmed, "yes", "y", false, "confirm replacing the current collection")
	return cmd
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	var importOpts importer.Options
	cmd := &cobra.Command{
		Use:   "import <file.xlsx|file.csv>",
		Short: "Import cards from a spreadsheet or CSV file",
		Long: "import reads rows of topic path, front and back. Topic paths such as Languages/Spanish " +
			"are created on demand. Rows that fail are reported and skipped.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *application) error {
				result, err := app.importer.ImportFile(ctx, args[0], importOpts)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "imported %d card(s) from %d row(s), created %d topic(s), skipped %d\n",
					result.Created, result.Rows, result.TopicsCreated, result.Skipped)
				for _, rowErr := range result.Errors {
					fmt.Fprintf(out, "  %v\n", rowErr)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&importOpts.Sheet, "sheet", "", "worksheet to read (default: the first sheet)")
	cmd.Flags().BoolVar(&importOpts.SkipHeader, "skip-header", false, "ignore the first row")
	return cmd
}
