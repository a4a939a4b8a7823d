package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/tendermint/lightclient/config"
	"github.com/tendermint/lightclient/libs/log"
	"github.com/tendermint/lightclient/light"
)

// MakeFollowCommand returns the command verifying the latest light block of
// the primary at a fixed interval until interrupted.
func MakeFollowCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "follow",
		Short: "Keep verifying the latest light block of the primary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return errors.New("interval must be positive")
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			metrics := light.NopMetrics()
			if conf.Instrumentation.Prometheus {
				metrics = light.PrometheusMetrics(conf.Instrumentation.Namespace, "chain_id", conf.ChainID)
				srv := startPrometheusServer(conf.Instrumentation.PrometheusListenAddr, logger)
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := srv.Shutdown(shutdownCtx); err != nil {
						logger.Error("Prometheus HTTP server Shutdown", "err", err)
					}
				}()
			}

			s, db, err := openStore(conf)
			if err != nil {
				return err
			}
			defer db.Close()

			c, err := newClient(conf, logger, metrics)
			if err != nil {
				return err
			}
			if err := ensureTrusted(ctx, conf, c, s, logger); err != nil {
				return err
			}

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				lb, err := c.VerifyToHighest(ctx, light.NewState(s))
				switch {
				case ctx.Err() != nil:
					return nil
				case err != nil:
					logger.Error("Failed to verify latest light block", "err", err)
				default:
					logger.Info("Latest light block", "height", lb.Height, "hash", lb.Hash())
				}

				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
				}
			}
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "time between two verifications")
	return cmd
}

// startPrometheusServer starts a Prometheus HTTP server, listening for metrics
// collectors on addr.
func startPrometheusServer(addr string, logger log.Logger) *http.Server {
	srv := &http.Server{
		Addr: addr,
		Handler: promhttp.InstrumentMetricHandler(
			prometheus.DefaultRegisterer, promhttp.HandlerFor(
				prometheus.DefaultGatherer,
				promhttp.HandlerOpts{},
			),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			// Error starting or closing listener:
			logger.Error("Prometheus HTTP server ListenAndServe", "err", err)
		}
	}()
	return srv
}
