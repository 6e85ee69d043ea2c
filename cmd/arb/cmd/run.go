package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-arb/internal/bot"
)

var (
	watchInterval time.Duration
	watchMaxSends int
)

// withRunner loads config, builds a runner and hands it to fn with a
// context cancelled on SIGINT or SIGTERM.
func withRunner(cmd *cobra.Command, fn func(ctx context.Context, r *bot.Runner) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	r, err := bot.NewRunner(cfg, log)
	if err != nil {
		_ = log.Sync()
		return err
	}
	defer func() {
		if err := r.Close(); err != nil {
			fmt.Fprintln(os.Stderr, "shutdown:", err)
		}
	}()
	log.Info("Runner ready", zap.String("runner", r.Describe()))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	r.StartMetrics(ctx)

	return fn(ctx, r)
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate the configured route and print the profit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRunner(cmd, func(ctx context.Context, r *bot.Runner) error {
			sim, err := r.Simulate(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "profit:         %d\n", sim.Profit)
			fmt.Fprintf(out, "units consumed: %d\n", sim.UnitsConsumed)
			return nil
		})
	},
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Submit the configured route",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRunner(cmd, func(ctx context.Context, r *bot.Runner) error {
			sig, err := r.Send(ctx)
			if sig != (solana.Signature{}) {
				fmt.Fprintf(cmd.OutOrStdout(), "signature: %s\n", sig)
			}
			return err
		})
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Simulate on an interval and send when profitable",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRunner(cmd, func(ctx context.Context, r *bot.Runner) error {
			return r.Watch(ctx, watchInterval, watchMaxSends)
		})
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 2*time.Second, "simulation interval")
	watchCmd.Flags().IntVar(&watchMaxSends, "max-sends", 0, "stop after this many sent transactions (0 = unlimited)")

	rootCmd.AddCommand(simulateCmd, sendCmd, watchCmd)
}
