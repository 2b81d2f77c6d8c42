package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"podbrief/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lineCount int
		follow    bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent daemon log output",
		RunE: func(cmd *cobra.Command, args []string) error {
			if follow && ctx.JSONMode() {
				return errors.New("--json cannot be combined with --follow")
			}

			cfg := ctx.configValue()
			path := logs.PathFor(cfg)
			if path == "" {
				return errors.New("log directory is not configured")
			}

			result, err := logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: -1, Limit: lineCount})
			if err != nil {
				return err
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, result)
			}

			out := cmd.OutOrStdout()
			if len(result.Lines) == 0 && !follow {
				fmt.Fprintf(out, "No log entries yet (%s)\n", path)
				return nil
			}
			for _, line := range result.Lines {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}

			offset := result.Offset
			for {
				res, err := logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: offset, Follow: true, Wait: 2 * time.Second})
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}
				for _, line := range res.Lines {
					fmt.Fprintln(out, line)
				}
				offset = res.Offset
			}
		},
	}

	cmd.Flags().IntVarP(&lineCount, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep streaming new log lines")
	return cmd
}
