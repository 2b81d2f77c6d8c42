package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"podbrief/internal/ipc"
	"podbrief/internal/queue"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check queue database health (schema, integrity, columns)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var health ipc.DatabaseHealthResponse

				if client != nil {
					resp, err := client.DatabaseHealth()
					if err != nil {
						return err
					}
					health = *resp
				} else {
					report, err := store.CheckHealth(cmd.Context())
					if err != nil && report.Error == "" {
						report.Error = err.Error()
					}
					health = ipc.DatabaseHealthResponse{
						DBPath:           report.DBPath,
						DatabaseExists:   report.DatabaseExists,
						DatabaseReadable: report.DatabaseReadable,
						SchemaVersion:    report.SchemaVersion,
						TableExists:      report.TableExists,
						ColumnsPresent:   report.ColumnsPresent,
						MissingColumns:   report.MissingColumns,
						IntegrityCheck:   report.IntegrityCheck,
						TotalItems:       report.TotalItems,
						Error:            report.Error,
					}
				}

				if ctx.JSONMode() {
					return writeJSON(cmd, health)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Database path: %s\n", health.DBPath)
				fmt.Fprintf(out, "Database exists: %s\n", yesNo(health.DatabaseExists))
				fmt.Fprintf(out, "Readable: %s\n", yesNo(health.DatabaseReadable))
				fmt.Fprintf(out, "Schema version: %s\n", health.SchemaVersion)
				fmt.Fprintf(out, "episodes table present: %s\n", yesNo(health.TableExists))
				if len(health.ColumnsPresent) > 0 {
					cols := append([]string(nil), health.ColumnsPresent...)
					sort.Strings(cols)
					fmt.Fprintf(out, "Columns: %s\n", strings.Join(cols, ", "))
				}
				if len(health.MissingColumns) > 0 {
					missing := append([]string(nil), health.MissingColumns...)
					sort.Strings(missing)
					fmt.Fprintf(out, "Missing columns: %s\n", strings.Join(missing, ", "))
				} else {
					fmt.Fprintln(out, "Missing columns: none")
				}
				fmt.Fprintf(out, "Integrity check: %s\n", yesNo(health.IntegrityCheck))
				fmt.Fprintf(out, "Total items: %d\n", health.TotalItems)
				if health.Error != "" {
					fmt.Fprintf(out, "Error: %s\n", health.Error)
				}
				return nil
			})
		},
	}
}
