// Package cli maps polyclob subcommands onto exchange calls and prints the
// results as JSON or tables.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/charleschow/polyclob/internal/config"
	"github.com/charleschow/polyclob/internal/telemetry"
)

// Execute runs the CLI against os.Args and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, os.Stdout, os.Stderr, os.Args[1:], DefaultFactory())
}

func run(ctx context.Context, out, errOut io.Writer, args []string, f Factory) int {
	a := &app{out: out, errOut: errOut, factory: f}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	telemetry.LogSummary()
	if err == nil {
		return 0
	}

	fmt.Fprintf(errOut, "Error: %v\n", err)
	var ue *UsageError
	if errors.As(err, &ue) {
		fmt.Fprintf(errOut, "Run '%s --help' for usage.\n", root.Name())
		return 2
	}
	return 1
}

// app is the state shared by every subcommand of one invocation.
type app struct {
	out     io.Writer
	errOut  io.Writer
	factory Factory

	output   string
	logLevel string
	cfg      *config.Config
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "polyclob",
		Short:         "Polymarket CLOB command-line client",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageErrorf("unknown command %q", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: a.preRun,
	}
	root.PersistentFlags().StringVarP(&a.output, "output", "o", "json", "output format: json or table")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (default LOG_LEVEL or warn)")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usage(err)
	})

	root.AddCommand(newMarketsCmd(a))
	root.AddCommand(newOrderbookCmd(a))
	root.AddCommand(newQuoteCmd(a))
	root.AddCommand(newBuyCmd(a))
	root.AddCommand(newSellCmd(a))
	root.AddCommand(newBuyMaxCmd(a))
	root.AddCommand(newCancelCmd(a))
	root.AddCommand(newWhoamiCmd(a))
	root.AddCommand(newBalanceCmd(a))
	root.AddCommand(newRefreshBalanceCmd(a))
	root.AddCommand(newDiagnoseCmd(a))
	root.AddCommand(newWatchCmd(a))
	root.AddCommand(newPingCmd(a))
	return root
}

// preRun loads configuration and logging. It makes no network calls.
func (a *app) preRun(_ *cobra.Command, _ []string) error {
	switch a.output {
	case "json", "table":
	default:
		return usageErrorf("--output must be json or table, got %q", a.output)
	}

	cfg, err := a.factory.Config()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	a.cfg = cfg

	level := cfg.LogLevel
	if a.logLevel != "" {
		level = a.logLevel
	}
	telemetry.InitWriter(a.errOut, telemetry.ParseLogLevel(level))
	telemetry.Debugf("config: env file %s, host %s, chain %d", cfg.EnvFile, cfg.Host, cfg.ChainID)
	return nil
}

// withTimeout bounds one command's network calls.
func (a *app) withTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), a.cfg.Timeout)
}

func (a *app) exchange(ctx context.Context, requireAuth bool) (Exchange, error) {
	ex, err := a.factory.Exchange(ctx, a.cfg, requireAuth)
	if err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}
	return ex, nil
}

func noArgs(_ *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usageErrorf("unexpected argument %q", args[0])
	}
	return nil
}

func exactArgs(names ...string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) != len(names) {
			return usageErrorf("expected %d argument(s) %v, got %d", len(names), names, len(args))
		}
		return nil
	}
}

func minArgs(n int, name string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) < n {
			return usageErrorf("expected at least %d %s", n, name)
		}
		return nil
	}
}
