package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randomtoy/teamsync/internal/domain"
)

func newDupesCmd(opts *rootOptions) *cobra.Command {
	var fix bool

	cmd := &cobra.Command{
		Use:   "dupes [file]",
		Short: "Report repeated names, or print the list without them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc := opts.newService(0, 0)
			sess, err := svc.NewSession(ctx)
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := loadNames(ctx, cmd, svc, sess, args, false); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if fix {
				fmt.Fprintln(out, sess.Deduplicate().Text())
				return nil
			}
			names := sess.Names()
			dups := domain.FindDuplicates(names)
			fmt.Fprintf(out, "%d names, %d repeated\n", len(names), len(dups))
			for _, d := range dups {
				fmt.Fprintln(out, d)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&fix, "fix", false, "print the list with repeats removed, first occurrence kept")
	return cmd
}
