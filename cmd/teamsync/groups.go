package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/randomtoy/teamsync/internal/domain"
)

func newGroupsCmd(opts *rootOptions) *cobra.Command {
	var (
		size string
		csv  bool
		demo bool
	)

	cmd := &cobra.Command{
		Use:   "groups [file]",
		Short: "Shuffle names into fixed-size groups",
		Long: "Reads names separated by newlines, commas or semicolons from file " +
			"(or standard input) and splits a random permutation into groups.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc := opts.newService(0, 0)
			sess, err := svc.NewSession(ctx)
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := loadNames(ctx, cmd, svc, sess, args, demo); err != nil {
				return err
			}

			groupSize := opts.cfg.DefaultGroupSize
			if cmd.Flags().Changed("size") {
				groupSize = domain.CoerceGroupSize(size)
			}
			out := cmd.OutOrStdout()
			groups, err := sess.GenerateGroups(groupSize)
			if errors.Is(err, domain.ErrEmptyList) {
				fmt.Fprintln(out, "The name list is empty. Add some names first.")
				return nil
			}
			if err != nil {
				return err
			}

			if csv {
				return sess.ExportGroupsCSV(out)
			}
			for i, g := range groups {
				fmt.Fprintf(out, "Group %d (%d): %s\n", i+1, len(g), strings.Join(g, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&size, "size", "s", "", "members per group (default from DEFAULT_GROUP_SIZE)")
	cmd.Flags().BoolVar(&csv, "csv", false, "write Group,Member CSV instead of a summary")
	cmd.Flags().BoolVar(&demo, "demo", false, "use the built-in demo roster")
	return cmd
}
