package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lacquer/internal/badge"
	"lacquer/internal/config"
	"lacquer/internal/jobs"
	"lacquer/internal/mediaserver"
)

const libraryPageSize = 200

func newEnqueueCommand(ctx *commandContext) *cobra.Command {
	var badgesFlag []string
	var allFlag bool

	cmd := &cobra.Command{
		Use:   "enqueue [item-id ...]",
		Short: "Queue a badge job for items or the whole movie library",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !allFlag {
				return errors.New("provide item ids or --all to enqueue the movie library")
			}
			if len(args) > 0 && allFlag {
				return errors.New("--all cannot be combined with explicit item ids")
			}

			badgeTypes, err := normalizeBadgeFlags(badgesFlag)
			if err != nil {
				return err
			}

			itemIDs := args
			if allFlag {
				_, server, err := ctx.newServer()
				if err != nil {
					return err
				}
				itemIDs, err = collectMovieLibrary(cmd.Context(), server)
				if err != nil {
					return err
				}
				if len(itemIDs) == 0 {
					return errors.New("media server returned no movies to enqueue")
				}
			}

			return ctx.withStore(func(cfg *config.Config, store *jobs.Store) error {
				if len(badgeTypes) == 0 {
					badgeTypes = cfg.Badges.Types
				}
				jobType := jobs.TypeBatch
				if len(itemIDs) == 1 {
					jobType = jobs.TypeSingle
				}
				job, err := store.Create(cmd.Context(), jobType, badgeTypes, itemIDs, nil)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued job %s: %d items, badges %s\n",
					job.ID, job.Total, strings.Join(job.BadgeTypes, ", "))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&badgesFlag, "badges", "b", nil, "Badge types to apply (default: configured badges.types)")
	cmd.Flags().BoolVar(&allFlag, "all", false, "Enqueue every movie in the media server library")
	return cmd
}

func normalizeBadgeFlags(values []string) ([]string, error) {
	normalized := make([]string, 0, len(values))
	for _, value := range values {
		parsed, ok := badge.ParseType(value)
		if !ok {
			return nil, fmt.Errorf("unknown badge type %q (valid: %v)", value, badge.AllTypes())
		}
		normalized = append(normalized, string(parsed))
	}
	return normalized, nil
}

// collectMovieLibrary pages through the server's movie library.
func collectMovieLibrary(ctx context.Context, server *mediaserver.Client) ([]string, error) {
	var itemIDs []string
	for start := 0; ; start += libraryPageSize {
		page, err := server.Items(ctx, mediaserver.ListOptions{
			IncludeTypes: []string{"Movie"},
			StartIndex:   start,
			Limit:        libraryPageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("list library page at %d: %w", start, err)
		}
		for _, item := range page.Items {
			itemIDs = append(itemIDs, item.ID)
		}
		if len(page.Items) == 0 || start+len(page.Items) >= page.TotalCount {
			break
		}
	}
	return itemIDs, nil
}
