package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/eulerlevel/internal/config"
	"github.com/gyaneshwarpardhi/eulerlevel/internal/engine"
	"github.com/gyaneshwarpardhi/eulerlevel/internal/tree"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootFlags struct {
	cfgPath   string
	ranks     int
	printTour bool
}

func newRootCmd() *cobra.Command {
	var f rootFlags
	cmd := &cobra.Command{
		Use:   "eulerlevel TREE",
		Short: "Compute the depth of every node of a level-order encoded binary tree",
		Long: `eulerlevel reads a tree as a string of single-character labels in level order
(the node at position i has children at 2i+1 and 2i+2) and prints label:depth pairs.

One rank is launched per directed edge; ranks agree on an Euler tour of the tree
through scatter, gather and broadcast rounds and derive depths from suffix sums over it.`,
		Example:       "  eulerlevel ABCDEFG\n  eulerlevel --tour ABCD",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, f, args[0])
		},
	}
	cmd.PersistentFlags().StringVar(&f.cfgPath, "config", "", "Path to YAML config (defaults apply when empty)")
	cmd.Flags().IntVar(&f.ranks, "ranks", 0, "Number of ranks to launch; must equal 2*(N-1) (0 = derive from the tree)")
	cmd.Flags().BoolVar(&f.printTour, "tour", false, "Also print the assembled Euler tour to stderr")

	cmd.AddCommand(newServeCmd(&f))
	return cmd
}

// loadConfig loads and validates the config, then installs the default logger.
func loadConfig(cmd *cobra.Command, path string) (*config.Loader, error) {
	loader, err := config.NewLoader(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg := loader.Config()
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	slog.SetDefault(cfg.Log.NewLogger(cmd.ErrOrStderr()))
	return loader, nil
}

func runOnce(cmd *cobra.Command, f rootFlags, input string) error {
	loader, err := loadConfig(cmd, f.cfgPath)
	if err != nil {
		return err
	}
	conf := loader.Config().Engine

	enc, err := tree.Parse(input)
	if err != nil {
		return fmt.Errorf("decode tree: %w", err)
	}
	if enc.Size() > conf.MaxNodes {
		return fmt.Errorf("%d nodes: %w (%d)", enc.Size(), engine.ErrTooManyNodes, conf.MaxNodes)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, time.Duration(conf.RunTimeoutMs)*time.Millisecond)
	defer cancel()

	res, err := engine.NewCoordinator(slog.Default()).Run(ctx, uuid.New().String(), enc, engine.RunOptions{
		Ranks:              f.ranks,
		ReplicateAdjacency: conf.ReplicateAdjacency,
		SkipTourValidation: conf.SkipTourValidation,
	})
	if err != nil {
		return err
	}

	if f.printTour {
		fmt.Fprintf(cmd.ErrOrStderr(), "tour: %s\n", res.Tour)
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Levels.String())
	return nil
}
