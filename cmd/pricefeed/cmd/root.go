package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cosmossdk.io/log"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/paw-chain/pricefeed/telemetry"
)

const (
	flagConfig          = "config"
	flagLogLevel        = "log-level"
	flagLogFormat       = "log-format"
	flagOTLPEndpoint    = "otlp-endpoint"
	flagTraceSampleRate = "trace-sample-rate"
	flagMetricsAddr     = "metrics-addr"

	logFormatJSON  = "json"
	logFormatPlain = "plain"
)

// appContext carries state shared by every subcommand. It is built once in
// the root PersistentPreRunE.
type appContext struct {
	v         *viper.Viper
	logger    log.Logger
	telemetry *telemetry.Provider
}

// NewRootCmd creates the pricefeed root command. It is called once in main
// and once per test.
func NewRootCmd() *cobra.Command {
	app := &appContext{v: NewViper(), logger: log.NewNopLogger()}

	rootCmd := &cobra.Command{
		Use:   "pricefeed",
		Short: "Verify signed oracle price update accounts",
		Long: `pricefeed decodes posted oracle price update accounts and checks them against
an acceptance policy: feed identity, freshness, verification level, non-zero price
and confidence interval width.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}

			logger, err := newLogger(cmd.ErrOrStderr(), app.v.GetString(flagLogLevel), app.v.GetString(flagLogFormat))
			if err != nil {
				return err
			}
			app.logger = logger

			provider, err := telemetry.NewProvider(telemetry.Config{
				OTLPEndpoint: app.v.GetString(flagOTLPEndpoint),
				SampleRate:   app.v.GetFloat64(flagTraceSampleRate),
				Environment:  "cli",
				MetricsAddr:  app.v.GetString(flagMetricsAddr),
			})
			if err != nil {
				return err
			}
			if err := provider.HealthCheck(); err != nil {
				_ = provider.Shutdown(context.Background())
				return err
			}
			if addr := provider.MetricsAddr(); addr != "" {
				app.logger.Info("serving metrics", "addr", addr, "path", telemetry.MetricsPath)
			}
			app.telemetry = provider
			return nil
		},
	}

	rootCmd.PersistentFlags().String(flagConfig, "", "policy configuration file (yaml, toml or json)")
	rootCmd.PersistentFlags().String(flagLogLevel, zerolog.InfoLevel.String(), "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String(flagLogFormat, logFormatPlain, "log format (plain or json)")
	rootCmd.PersistentFlags().String(flagOTLPEndpoint, "", "OTLP/HTTP trace collector endpoint; tracing is off when empty")
	rootCmd.PersistentFlags().Float64(flagTraceSampleRate, 1.0, "trace sampling ratio between 0 and 1")
	rootCmd.PersistentFlags().String(flagMetricsAddr, "", "host:port serving Prometheus metrics at /metrics while the command runs; off when empty")

	rootCmd.AddCommand(
		FeedIDCmd(),
		EncodeCmd(),
		VerifyCmd(app),
	)
	for _, sub := range rootCmd.Commands() {
		app.instrument(sub)
	}

	return rootCmd
}

// instrument wraps a subcommand so its outcome is counted and telemetry is
// flushed whether or not it fails. PersistentPostRunE only runs on success.
func (app *appContext) instrument(cmd *cobra.Command) {
	run := cmd.RunE
	if run == nil {
		return
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if app.telemetry == nil {
				return
			}
			app.telemetry.RecordCommand(cmd.Context(), cmd.Name(), err)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if shutdownErr := app.telemetry.Shutdown(ctx); shutdownErr != nil {
				app.logger.Error("telemetry shutdown failed", "err", shutdownErr)
			}
			app.telemetry = nil
		}()
		return run(cmd, args)
	}
}

// Execute runs root and prints any error that was not already reported as a
// rejection, so each failure reaches stderr exactly once.
func Execute(root *cobra.Command) error {
	err := root.Execute()
	var reported reportedError
	if err != nil && !errors.As(err, &reported) {
		fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
	}
	return err
}

func newLogger(w io.Writer, level, format string) (log.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s %q: %w", flagLogLevel, level, err)
	}

	opts := []log.Option{log.LevelOption(lvl)}
	switch format {
	case logFormatJSON:
		opts = append(opts, log.OutputJSONOption())
	case logFormatPlain, "":
		opts = append(opts, log.ColorOption(false))
	default:
		return nil, fmt.Errorf("invalid --%s %q: want %s or %s", flagLogFormat, format, logFormatPlain, logFormatJSON)
	}

	return log.NewLogger(w, opts...), nil
}
