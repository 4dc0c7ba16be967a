package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/benoitv-dev/climafact/config"
	"github.com/benoitv-dev/climafact/internal/store"
)

func checkCMD() *cobra.Command {
	var cfgPath string
	var asJSON bool

	var cmd = &cobra.Command{
		Use:   "check [claim]",
		Short: "Fact-check a single claim against the ingested corpus",
		Args:  cobra.MinimumNArgs(1),
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

			logger := log.New(log.Writer(), "[CHECK] ", log.LstdFlags)
			idx := openLexical(cfg, logger)
			if idx != nil {
				defer idx.Close()
			}
			checker := buildChecker(cfg, prov, st, idx)

			res, err := checker.Check(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			fmt.Printf("Status:  %s\n", res.Status)
			fmt.Printf("Verdict: %s\n", res.Outcome)
			if res.Confidence > 0 {
				fmt.Printf("Confidence: %.2f\n", res.Confidence)
			}
			if res.Explanation != "" {
				fmt.Printf("Explanation: %s\n", res.Explanation)
			}
			for _, src := range res.Sources {
				fmt.Printf("  - %s (%s, distance %.4f)\n", src.ChunkID, src.Source, src.Distance)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return cmd
}
