package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lacquer/internal/config"
	"lacquer/internal/jobs"
)

func newJobCommand(ctx *commandContext) *cobra.Command {
	jobCmd := &cobra.Command{
		Use:   "job",
		Short: "Inspect and manage badge jobs",
	}

	jobCmd.AddCommand(newJobListCommand(ctx))
	jobCmd.AddCommand(newJobShowCommand(ctx))
	jobCmd.AddCommand(newJobCancelCommand(ctx))
	jobCmd.AddCommand(newJobRetryCommand(ctx))

	return jobCmd
}

func newJobListCommand(ctx *commandContext) *cobra.Command {
	var statusFlag string
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *jobs.Store) error {
				opts := jobs.ListOptions{Limit: limitFlag}
				if trimmed := strings.TrimSpace(statusFlag); trimmed != "" {
					status, ok := jobs.ParseStatus(trimmed)
					if !ok {
						return fmt.Errorf("unknown status %q (valid: %v)", trimmed, jobs.AllStatuses())
					}
					opts.Status = status
				}

				list, err := store.List(cmd.Context(), opts)
				if err != nil {
					return err
				}
				if len(list) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs found")
					return nil
				}

				colorize := shouldColorize(cmd.OutOrStdout())
				rows := make([][]string, 0, len(list))
				for _, job := range list {
					rows = append(rows, []string{
						job.ID,
						string(job.Type),
						statusCell(job.Status, colorize),
						strings.Join(job.BadgeTypes, ","),
						fmt.Sprintf("%d/%d", job.Completed+job.Failed, job.Total),
						strconv.Itoa(job.Failed),
						job.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "TYPE", "STATUS", "BADGES", "PROGRESS", "FAILED", "CREATED"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&statusFlag, "status", "s", "", "Filter by status (queued, running, completed, failed, cancelled)")
	cmd.Flags().IntVarP(&limitFlag, "limit", "n", 20, "Maximum number of jobs to list")
	return cmd
}

func newJobShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job with its per-item outcomes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *jobs.Store) error {
				job, err := store.GetByID(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Job:     %s\n", job.ID)
				fmt.Fprintf(out, "Type:    %s\n", job.Type)
				fmt.Fprintf(out, "Status:  %s\n", job.Status)
				fmt.Fprintf(out, "Badges:  %s\n", strings.Join(job.BadgeTypes, ", "))
				fmt.Fprintf(out, "Items:   %d completed, %d failed, %d total\n", job.Completed, job.Failed, job.Total)
				if job.CancelRequested {
					fmt.Fprintln(out, "Cancel:  requested")
				}
				if job.ErrorMessage != "" {
					fmt.Fprintf(out, "Error:   %s\n", job.ErrorMessage)
				}
				fmt.Fprintf(out, "Created: %s\n", job.CreatedAt.Local().Format(time.RFC1123))
				if job.CompletedAt != nil {
					fmt.Fprintf(out, "Ended:   %s\n", job.CompletedAt.Local().Format(time.RFC1123))
				}

				records, err := store.ItemRecords(cmd.Context(), job.ID)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					return nil
				}

				rows := make([][]string, 0, len(records))
				for _, record := range records {
					rows = append(rows, []string{
						record.ItemID,
						string(record.Status),
						strconv.Itoa(record.Attempts),
						strings.Join(record.AppliedBadges, ","),
						strings.Join(record.FailedBadges, ","),
						record.Elapsed.Round(time.Millisecond).String(),
						record.ErrorMessage,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ITEM", "STATUS", "ATTEMPTS", "APPLIED", "FAILED", "ELAPSED", "ERROR"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}

func newJobCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Request cancellation of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *jobs.Store) error {
				job, err := store.RequestCancel(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if job.Status == jobs.StatusCancelled {
					fmt.Fprintf(out, "Job %s cancelled\n", job.ID)
				} else {
					fmt.Fprintf(out, "Cancellation requested for job %s; in-flight items will finish\n", job.ID)
				}
				return nil
			})
		},
	}
}

func newJobRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <job-id>",
		Short: "Requeue a failed or cancelled job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *jobs.Store) error {
				job, err := store.RetryJob(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Job %s requeued with %d items\n", job.ID, job.Total)
				return nil
			})
		},
	}
}

func statusCell(status jobs.Status, colorize bool) string {
	if !colorize {
		return string(status)
	}
	switch status {
	case jobs.StatusCompleted:
		return ansiGreen + string(status) + ansiReset
	case jobs.StatusFailed:
		return ansiRed + string(status) + ansiReset
	case jobs.StatusRunning:
		return ansiYellow + string(status) + ansiReset
	default:
		return string(status)
	}
}
