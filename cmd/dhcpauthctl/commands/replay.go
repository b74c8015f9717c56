package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dantte-lp/dhcpauthd/internal/replay"
)

// errResetNotConfirmed guards against an accidental replay-counter reset.
var errResetNotConfirmed = errors.New("reset not confirmed")

func replayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Inspect or reset the durable replay counter",
	}

	cmd.AddCommand(replayShowCmd())
	cmd.AddCommand(replayResetCmd())

	return cmd
}

func replayShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current replay counter value without advancing it",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			v, err := replay.Peek(cfg.Replay.Path)
			if err != nil {
				return fmt.Errorf("peek replay counter %s: %w", cfg.Replay.Path, err)
			}
			fmt.Printf("%d\n", v)
			return nil
		},
	}
}

func replayResetCmd() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset the durable replay counter to zero",
		Long: "Reset the durable replay counter to zero. This must only be done in " +
			"lockstep with every peer's pinned AuthState being discarded, or the " +
			"daemon will reject every subsequent message as a replay.",
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if !confirm {
				return fmt.Errorf("refusing to reset %s without --yes: %w", cfg.Replay.Path, errResetNotConfirmed)
			}
			if err := replay.Reset(cfg.Replay.Path); err != nil {
				return fmt.Errorf("reset replay counter %s: %w", cfg.Replay.Path, err)
			}
			fmt.Printf("replay counter %s reset to 0\n", cfg.Replay.Path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirm, "yes", false, "confirm the reset (required)")

	return cmd
}
