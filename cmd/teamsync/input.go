package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/randomtoy/teamsync/internal/app"
)

// loadNames fills sess from the file named in args, the demo roster when
// demo is set, or standard input otherwise.
func loadNames(ctx context.Context, cmd *cobra.Command, svc *app.TeamService, sess *app.Session, args []string, demo bool) error {
	if demo {
		if len(args) > 0 {
			return errors.New("--demo cannot be combined with an input file")
		}
		_, err := svc.LoadDemo(ctx, sess)
		return err
	}

	var r io.Reader = cmd.InOrStdin()
	if len(args) > 0 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	_, err := sess.Import(r)
	return err
}
