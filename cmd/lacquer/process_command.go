package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lacquer/internal/badge"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var badgesFlag []string

	cmd := &cobra.Command{
		Use:   "process <item-id>",
		Short: "Badge one poster immediately, without queueing a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			normalized, err := normalizeBadgeFlags(badgesFlag)
			if err != nil {
				return err
			}
			types := make([]badge.Type, 0, len(normalized))
			for _, value := range normalized {
				if parsed, ok := badge.ParseType(value); ok {
					types = append(types, parsed)
				}
			}

			controller, err := ctx.newController()
			if err != nil {
				return err
			}

			result, err := controller.ProcessItem(cmd.Context(), args[0], types)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Item %s badged in %s\n", result.ItemID, result.Elapsed.Round(time.Millisecond))
			fmt.Fprintf(out, "Applied: %s\n", joinTypes(result.Applied))
			if len(result.Failed) > 0 {
				fmt.Fprintf(out, "Failed:  %s\n", joinTypes(result.Failed))
			}
			fmt.Fprintf(out, "Output:  %s\n", result.OutputPath)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&badgesFlag, "badges", "b", nil, "Badge types to apply (default: configured badges.types)")
	return cmd
}

func joinTypes(types []badge.Type) string {
	if len(types) == 0 {
		return "none"
	}
	values := make([]string, len(types))
	for i, t := range types {
		values[i] = string(t)
	}
	return strings.Join(values, ", ")
}
