package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"podbrief/internal/ipc"
)

func newCheckNowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check-now",
		Short: "Ask the running daemon to poll all feeds immediately",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.CheckNow()
				if err != nil {
					return err
				}
				if !resp.Triggered {
					if resp.Message != "" {
						return errors.New(resp.Message)
					}
					return errors.New("feed poll was not triggered")
				}
				if resp.Message != "" {
					fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "Feed poll triggered")
				}
				return nil
			})
		},
	}
}
