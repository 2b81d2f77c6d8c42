package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"podbrief/internal/feed"
	"podbrief/internal/ipc"
	"podbrief/internal/logging"
	"podbrief/internal/notifications"
	"podbrief/internal/publish"
	"podbrief/internal/queue"
	"podbrief/internal/resolver"
	"podbrief/internal/summarize"
	"podbrief/internal/transcript"
	"podbrief/internal/workflow"
)

func newRunOnceCommand(ctx *commandContext) *cobra.Command {
	var skipPoll bool

	cmd := &cobra.Command{
		Use:   "run-once",
		Short: "Poll feeds and process the queue in a single pass, without the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			if client, err := ipc.Dial(ctx.socketPath()); err == nil {
				client.Close()
				return errors.New("daemon is running; use `podbrief check-now` instead")
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			store, err := queue.Open(cfg)
			if err != nil {
				return fmt.Errorf("open queue database: %w", err)
			}
			defer store.Close()

			notifier := notifications.NewService(cfg)
			manager := workflow.NewManagerWithNotifier(cfg, store, logger, notifier)
			manager.ConfigureStages(workflow.StageSet{
				Resolver:    resolver.NewResolver(cfg, store, logger),
				Transcriber: transcript.NewTranscriber(cfg, store, logger),
				Summarizer:  summarize.NewSummarizer(cfg, store, logger),
				Publisher:   publish.NewPublisher(cfg, store, logger),
			})

			out := cmd.OutOrStdout()

			if !skipPoll {
				monitor := feed.NewMonitor(cfg, store, logger)
				poll, err := monitor.PollOnce(cmd.Context())
				if err != nil {
					return fmt.Errorf("poll feeds: %w", err)
				}
				fmt.Fprintf(out, "Polled %d feed(s): %d new episode(s)", poll.Feeds, poll.NewEpisodes)
				if poll.Failed > 0 {
					fmt.Fprintf(out, ", %d feed(s) failed", poll.Failed)
				}
				fmt.Fprintln(out)
			}

			summary, err := manager.RunOnce(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Processed %d episode(s): %d completed, %d failed, %d for review\n",
				summary.Processed, summary.Completed, summary.Failed, summary.Review)
			if summary.Errored() {
				return fmt.Errorf("%d episode(s) failed", summary.Failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipPoll, "skip-poll", false, "Process existing queue items without polling feeds first")
	return cmd
}
