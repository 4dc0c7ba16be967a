package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/benoitv-dev/climafact/config"
	"github.com/benoitv-dev/climafact/internal/chunk"
	"github.com/benoitv-dev/climafact/internal/embed"
	"github.com/benoitv-dev/climafact/internal/ingest"
	"github.com/benoitv-dev/climafact/internal/normalize"
	"github.com/benoitv-dev/climafact/internal/store"
)

func ingestCMD() *cobra.Command {
	var cfgPath string
	var chunksOut string
	var chunksIn string
	var noLock bool

	var cmd = &cobra.Command{
		Use:   "ingest [refs...]",
		Short: "Ingest documents (paths, PDFs, or URLs) into the evidence collection",
		Args: func(cmd *cobra.Command, args []string) error {
			if chunksIn == "" {
				return cobra.MinimumNArgs(1)(cmd, args)
			}
			return cobra.NoArgs(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}

			ctx := context.Background()
			logger := log.New(log.Writer(), "[INGEST] ", log.LstdFlags)

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

			var locker ingest.CollectionLocker = ingest.NopLocker{}
			if !noLock && cfg.Storage.Redis.Addr != "" {
				rl, err := ingest.NewRedisLocker(ctx, cfg.Storage.Redis.Addr, cfg.Storage.Redis.Password, cfg.Storage.Redis.DB, cfg.Storage.Redis.LockTTL)
				if err != nil {
					return fmt.Errorf("redis locker: %w", err)
				}
				defer rl.Close()
				locker = rl
			}

			p := &ingest.Pipeline{
				Collection: cfg.Storage.Collection,
				Normalizer: normalize.New(cfg.Ingest.MinLineLength),
				Splitter:   chunk.NewSplitter(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap, cfg.Ingest.Separators),
				Batcher:    embed.NewBatcher(prov, cfg.Embedding.Model, cfg.Embedding.BatchSize, cfg.Embedding.Dimensions),
				Store:      st,
				Locker:     locker,
				Logger:     logger,
			}

			if idx := openLexical(cfg, logger); idx != nil {
				defer idx.Close()
				p.Lexical = idx
			}

			if chunksIn != "" {
				// Re-embed a saved chunk artifact, skipping extraction.
				f, err := os.Open(chunksIn)
				if err != nil {
					return fmt.Errorf("open %s: %w", chunksIn, err)
				}
				defer f.Close()
				records, err := chunk.ReadRecords(f)
				if err != nil {
					return err
				}
				stats, err := p.RunRecords(ctx, records)
				logger.Printf("run %s: %d documents, %d chunks", stats.RunID, stats.Documents, stats.Chunks)
				return err
			}

			web, err := ingest.NewWebExtractor(cfg.Ingest.FetchTimeout, cfg.Ingest.MaxFetchChars, cfg.Ingest.UserAgent)
			if err != nil {
				return fmt.Errorf("web extractor: %w", err)
			}
			defer web.Close()
			p.Extractors = map[ingest.OriginKind]ingest.Extractor{
				ingest.OriginFile: ingest.FileExtractor{},
				ingest.OriginPDF:  ingest.PDFExtractor{},
				ingest.OriginWeb:  web,
			}

			if chunksOut != "" {
				f, err := os.Create(chunksOut)
				if err != nil {
					return fmt.Errorf("create %s: %w", chunksOut, err)
				}
				defer f.Close()
				p.ChunkArtifact = f
			}

			sources := make([]ingest.SourceRef, 0, len(args))
			for _, ref := range args {
				sources = append(sources, ingest.ClassifyRef(ref))
			}

			stats, err := p.Run(ctx, sources)
			logger.Printf("run %s: %d documents, %d skipped, %d chunks", stats.RunID, stats.Documents, stats.Skipped, stats.Chunks)
			return err
		},
	}
	cmd.Flags().StringVar(&chunksOut, "chunks-out", "", "write chunk records as JSON Lines to this file")
	cmd.Flags().StringVar(&chunksIn, "chunks-in", "", "re-embed chunk records from a JSON Lines file instead of extracting sources")
	cmd.Flags().BoolVar(&noLock, "no-lock", false, "skip the Redis single-writer lock")
	cmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return cmd
}
