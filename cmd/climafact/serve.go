package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/benoitv-dev/climafact/config"
	"github.com/benoitv-dev/climafact/internal/server"
	"github.com/benoitv-dev/climafact/internal/store"
)

func serveCMD() *cobra.Command {
	var cfgPath string
	var serveAddr string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run the fact-check HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}

			ctx := context.Background()
			dsn, err := cfg.Storage.Postgres.DSN()
			if err != nil {
				return err
			}
			st, err := store.NewWithDSN(ctx, dsn)
			if err != nil {
				return err
			}
			defer st.Close()

			prov, err := buildProvider(cfg)
			if err != nil {
				return err
			}

			logger := log.New(log.Writer(), "[SERVE] ", log.LstdFlags)
			idx := openLexical(cfg, logger)
			if idx != nil {
				defer idx.Close()
			}
			checker := buildChecker(cfg, prov, st, idx)

			// A dedicated metrics port keeps /metrics off the public
			// listener; port 0 serves it on the API listener instead.
			if cfg.Telemetry.Enabled && cfg.Telemetry.MetricsPort > 0 {
				metricsAddr := fmt.Sprintf(":%d", cfg.Telemetry.MetricsPort)
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.Handler())
				go func() {
					logger.Printf("metrics listening on %s", metricsAddr)
					if err := http.ListenAndServe(metricsAddr, mux); err != nil {
						logger.Printf("metrics listener: %v", err)
					}
				}()
			}

			addr := cfg.Server.Address
			if serveAddr != "" {
				addr = serveAddr
			}
			return server.New(cfg, checker, st).Run(addr)
		},
	}
	serve.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.address)")
	serve.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return serve
}
