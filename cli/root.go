// Package cli implements the fora command surface: flag parsing, host
// selection, inventory-argument resolution, and result rendering,
// grounded on the teacher's cli/main.go cobra wiring but generalized
// from a single-binary language runtime to a library a deploy binary
// imports alongside its own registered scripts (see cmd/fora).
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/fora/core/types"
	"github.com/aledsdavies/fora/internal/logging"
	"github.com/aledsdavies/fora/pkgs/ferrors"
	"github.com/aledsdavies/fora/runtime/script"
)

// Version is overridden at build time via -ldflags "-X ...cli.Version=...".
var Version = "dev"

// flags collects every persistent flag's bound value, grounded on the
// teacher's cli/main.go struct-of-locals pattern.
type flags struct {
	hosts     string
	dryRun    bool
	verbosity int
	noChanges bool
	diff      bool
	debug     bool
	noColor   bool
	version   bool
}

// NewRootCommand builds the fora root command, dispatching entry (the
// final positional argument) against registry.
func NewRootCommand(registry *script.Registry) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:           "fora [flags] <inventory...> <script>",
		Short:         "Agentless, push-based configuration management",
		Args:          cobra.MinimumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.version {
				fmt.Fprintln(cmd.OutOrStdout(), Version)
				return nil
			}
			if len(args) < 2 {
				return ferrors.Usage("expected at least one inventory argument and a script name")
			}
			inventoryArgs, entry := args[:len(args)-1], args[len(args)-1]
			return run(cmd.Context(), runConfig{
				inventoryArgs: inventoryArgs,
				entry:         entry,
				registry:      registry,
				flags:         f,
			})
		},
	}

	cmd.PersistentFlags().StringVarP(&f.hosts, "hosts", "H", "", "comma-separated subset of hosts to target")
	cmd.PersistentFlags().BoolVar(&f.dryRun, "dry-run", false, "probe but never mutate")
	cmd.PersistentFlags().BoolVar(&f.dryRun, "dry", false, "alias for --dry-run")
	cmd.PersistentFlags().BoolVar(&f.dryRun, "pretend", false, "alias for --dry-run")
	cmd.PersistentFlags().CountVarP(&f.verbosity, "verbose", "v", "increase verbosity (stackable)")
	cmd.PersistentFlags().BoolVar(&f.noChanges, "no-changes", false, "suppress per-operation change summaries")
	cmd.PersistentFlags().BoolVar(&f.diff, "diff", false, "include content diffs for changed files")
	cmd.PersistentFlags().BoolVar(&f.debug, "debug", false, "force verbose output, disable traceback rewriting")
	cmd.PersistentFlags().BoolVar(&f.noColor, "no-color", false, "disable ANSI color output")
	cmd.PersistentFlags().BoolVar(&f.version, "version", false, "print version and exit")

	cmd.AddCommand(newInitCommand())

	return cmd
}

// Execute runs the fora CLI against os.Args, returning the process
// exit code per spec.md §6.
func Execute(registry *script.Registry) int {
	ctx, cancel := newCancellableContext()
	defer cancel()

	cmd := NewRootCommand(registry)
	cmd.SetContext(ctx)

	if err := cmd.Execute(); err != nil {
		noColor := false
		if nc, _ := cmd.Flags().GetBool("no-color"); nc {
			noColor = true
		}
		FormatError(os.Stderr, err, ShouldUseColor(noColor))
		return 1
	}
	return 0
}

// newCancellableContext cancels on SIGINT/SIGTERM so Ctrl-C propagates
// through the whole host/script execution chain, grounded on the
// teacher's cli/main.go newCancellableContext.
func newCancellableContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx, cancel
}

type runConfig struct {
	inventoryArgs []string
	entry         string
	registry      *script.Registry
	flags         flags
}

func run(ctx context.Context, cfg runConfig) error {
	f := cfg.flags
	useColor := ShouldUseColor(f.noColor)
	log := logging.New(f.verbosity, f.debug, !useColor)

	hostPtrs, err := loadInventoryArgs(cfg.inventoryArgs)
	if err != nil {
		return err
	}

	selected, err := selectHosts(hostPtrs, parseHostsFlag(f.hosts))
	if err != nil {
		return err
	}

	hosts := make([]types.Host, len(selected))
	for i, h := range selected {
		hosts[i] = *h
	}

	reporter := NewReporter(os.Stdout, useColor, f.diff, !f.noChanges)

	results := script.RunAll(ctx, hosts, connectHost, cfg.registry, cfg.entry, nil, script.RunAllOpts{
		DryRun:  f.dryRun,
		Diffing: f.diff,
		Report:  reporter.Report,
	})

	failed := 0
	for _, r := range results {
		hostLog := logging.ForHost(log, r.Host.Name)
		if r.Err != nil {
			failed++
			hostLog.Error().Err(r.Err).Msg("host failed")
			FormatError(os.Stderr, r.Err, useColor)
		} else {
			hostLog.Info().Msg("host completed")
		}
	}

	if failed > 0 {
		return ferrors.Usage("%d of %d host(s) failed", failed, len(results))
	}
	return nil
}
