package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/randomtoy/teamsync/internal/adapters/terminal"
	"github.com/randomtoy/teamsync/internal/app"
	"github.com/randomtoy/teamsync/internal/config"
	"github.com/randomtoy/teamsync/internal/domain"
)

type drawOptions struct {
	rounds      int
	allowRepeat bool
	spins       int
	interval    time.Duration
	showSpins   bool
	interactive bool
	demo        bool
}

func newDrawCmd(opts *rootOptions) *cobra.Command {
	var do drawOptions

	cmd := &cobra.Command{
		Use:   "draw [file]",
		Short: "Pick random winners from a name list",
		Long: "Reads names from file (or standard input) and draws winners one round at a time.\n" +
			"Previous winners are skipped unless --allow-repeat is set.\n\n" +
			"With --interactive, names must come from a file or --demo; the terminal then\n" +
			"takes commands: Enter draws, r resets winners, l lists winners, q quits.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("spins") {
				do.spins = opts.cfg.DrawSpins
			}
			if !cmd.Flags().Changed("interval") {
				do.interval = opts.cfg.DrawInterval
			}
			if do.spins < 0 || do.spins > config.MaxDrawSpins {
				return fmt.Errorf("--spins must be between 0 and %d", config.MaxDrawSpins)
			}
			if do.interactive && !do.demo && (len(args) == 0 || args[0] == "-") {
				return errors.New("--interactive needs an input file or --demo")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			svc := opts.newService(do.spins, do.interval)
			sess, err := svc.NewSession(ctx)
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := loadNames(ctx, cmd, svc, sess, args, do.demo); err != nil {
				return err
			}
			sess.SetAllowRepeat(do.allowRepeat)

			out := cmd.OutOrStdout()
			if do.interactive {
				return drawInteractive(ctx, sess, terminal.NewConsole(cmd.InOrStdin(), out), out, do.showSpins)
			}
			for i := 0; i < do.rounds; i++ {
				done, err := drawRound(ctx, sess, out, do.showSpins)
				if err != nil || done {
					return err
				}
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVarP(&do.rounds, "rounds", "n", 1, "number of winners to draw")
	f.BoolVar(&do.allowRepeat, "allow-repeat", false, "keep previous winners in the pool")
	f.IntVar(&do.spins, "spins", 0, "names shown before each winner (default from DRAW_SPINS)")
	f.DurationVar(&do.interval, "interval", 0, "delay between spins (default from DRAW_INTERVAL)")
	f.BoolVar(&do.showSpins, "show-spins", false, "print every spin, not just the winner")
	f.BoolVarP(&do.interactive, "interactive", "i", false, "read commands from the terminal")
	f.BoolVar(&do.demo, "demo", false, "use the built-in demo roster")
	return cmd
}

// drawRound runs one round to completion. done is set when no further
// round can succeed or the round was cancelled.
func drawRound(ctx context.Context, sess *app.Session, out io.Writer, showSpins bool) (done bool, err error) {
	events, err := sess.StartDraw(ctx)
	switch {
	case errors.Is(err, domain.ErrEmptyList):
		fmt.Fprintln(out, "The name list is empty. Add some names first.")
		return true, nil
	case errors.Is(err, domain.ErrPoolExhausted):
		fmt.Fprintln(out, "Everyone has already won. Reset the winners or allow repeats.")
		return true, nil
	case err != nil:
		return true, err
	}

	for ev := range events {
		switch ev.Kind {
		case app.EventSpin:
			if showSpins {
				fmt.Fprintf(out, "  %s\n", ev.Name)
			}
		case app.EventWinner:
			fmt.Fprintf(out, "Winner: %s\n", ev.Name)
		case app.EventCancelled:
			fmt.Fprintln(out, "Draw cancelled.")
			return true, nil
		}
	}
	return false, nil
}

func drawInteractive(ctx context.Context, sess *app.Session, con *terminal.Console, out io.Writer, showSpins bool) error {
	fmt.Fprintf(out, "%d names loaded. Enter draws, r resets, l lists winners, q quits.\n", len(sess.Names()))
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := con.ReadLine(sess.Display() + " > ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			if _, err := drawRound(ctx, sess, out, showSpins); err != nil {
				return err
			}
		case "r":
			ok, err := sess.ResetWinners(ctx, con)
			if err != nil {
				return err
			}
			if ok {
				fmt.Fprintln(out, "Winners cleared.")
			}
		case "l":
			printWinners(out, sess.Winners())
		case "q":
			return nil
		default:
			fmt.Fprintf(out, "Unknown command %q.\n", line)
		}
	}
}

func printWinners(out io.Writer, winners []domain.WinnerRecord) {
	if len(winners) == 0 {
		fmt.Fprintln(out, "No winners yet.")
		return
	}
	for i, w := range winners {
		fmt.Fprintf(out, "%2d. %s  %s\n", len(winners)-i, w.Name, w.Timestamp.Format(time.TimeOnly))
	}
}
