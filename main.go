package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/samuelfneumann/forwardsarsa/experiment"
)

type trainFlags struct {
	config      string
	seed        uint64
	metricsAddr string
	logLevel    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "forwardsarsa",
		Short:         "Train resource scheduling policies with Forward Sarsa(λ)",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newTrainCmd())
	return root
}

func newTrainCmd() *cobra.Command {
	var flags trainFlags

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a network on the projects of a run configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return train(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.config, "config", "c", "",
		"run configuration file (YAML)")
	cmd.Flags().Uint64Var(&flags.seed, "seed", 0,
		"random seed, overrides the configuration file")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "",
		"address to serve Prometheus metrics on, e.g. :9090")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "info",
		"log level: debug, info, warn or error")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func train(cmd *cobra.Command, flags trainFlags) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(flags.logLevel)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", flags.logLevel, err)
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(),
		&slog.HandlerOptions{Level: level}))

	config, err := experiment.LoadConfig(flags.config)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("seed") {
		config.Agent.Seed = flags.seed
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	trainer, _, err := experiment.Build(config, logger, reg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt,
		syscall.SIGTERM)
	defer stop()

	if flags.metricsAddr != "" {
		server := serveMetrics(flags.metricsAddr, reg, logger)
		defer func() {
			shutdown, cancel := context.WithTimeout(context.Background(),
				5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdown)
		}()
	}

	if err := trainer.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("training interrupted", "error", err)
		}
		return err
	}
	logger.Info("training finished", "run", trainer.RunID())
	return nil
}

// serveMetrics serves the metrics of reg over HTTP until shut down
func serveMetrics(addr string, reg *prometheus.Registry,
	logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("serving metrics", "addr", addr)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	return server
}
