// Command thema downloads master data and data from the Thema customer API
// into spreadsheets.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sternrassler/thema-client/internal/config"
	"github.com/Sternrassler/thema-client/pkg/client"
	"github.com/Sternrassler/thema-client/pkg/logging"
	"github.com/Sternrassler/thema-client/pkg/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// options are the persistent flags shared by every command.
type options struct {
	cfgPath  string
	logLevel string
	pretty   bool
	outDir   string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "thema",
		Short:         "Thema customer API client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.cfgPath, "config", "", "config file path (default ~/.thema/config.yaml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&opts.pretty, "pretty", false, "human-readable log output")
	root.PersistentFlags().StringVar(&opts.outDir, "out", "", "output directory for spreadsheets")

	root.AddCommand(newInitCmd(opts))
	root.AddCommand(newMasterDataCmd(opts))
	root.AddCommand(newFetchCmd(opts))

	return root
}

// setup loads the configuration, applies flag overrides and configures
// logging.
func setup(cmd *cobra.Command, opts *options) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(opts.cfgPath)
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if flags.Changed("pretty") {
		cfg.Log.Pretty = opts.pretty
	}
	if flags.Changed("out") {
		cfg.Output.Dir = opts.outDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), err
	}

	lc := cfg.Logging()
	lc.Output = cmd.ErrOrStderr()
	logging.Setup(lc)
	return cfg, logging.Component("cli"), nil
}

// newClient builds an API client from cfg. The returned func releases it
// together with its Redis connection.
func newClient(cfg *config.Config) (*client.Client, func(), error) {
	if err := cfg.ValidateCredentials(); err != nil {
		return nil, nil, err
	}

	cc := cfg.ClientConfig()
	logger := log.Logger
	cc.Logger = &logger

	c, err := client.New(cc)
	if err != nil {
		if cc.Redis != nil {
			cc.Redis.Close()
		}
		return nil, nil, err
	}

	release := func() {
		c.Close()
		if cc.Redis != nil {
			cc.Redis.Close()
		}
	}
	return c, release, nil
}

// logMetrics writes a one-line summary of the run's counters at debug level.
func logMetrics(logger zerolog.Logger) {
	summary, err := metrics.Summarize(metrics.Gatherer, metrics.Prefix)
	if err != nil {
		logger.Debug().Err(err).Msg("Metrics unavailable")
		return
	}
	ev := logger.Debug()
	for _, name := range metrics.SortedNames(summary) {
		ev = ev.Float64(name, summary[name])
	}
	ev.Msg("Run metrics")
}
