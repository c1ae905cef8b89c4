package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/trustscan/pkg/config"
	"github.com/trustscan/pkg/db"
	"github.com/trustscan/pkg/narrative"
	"github.com/trustscan/pkg/pipeline"
	"github.com/trustscan/pkg/server"
	"github.com/trustscan/pkg/sources"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()
	log.Info().Msg("🔍 TrustScan starting...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	store, err := db.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("database init failed")
	}
	defer store.Close()

	fetcher := sources.New(cfg)
	engine := narrative.NewEngine(cfg)
	pipe := pipeline.New(fetcher, engine, store, pipeline.Fallbacks{
		Narrative:    narrative.FallbackNarrative,
		Fundamentals: narrative.FallbackFundamentals,
		Summary:      narrative.FallbackSummary,
		Hype:         narrative.FallbackHype,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() { <-sigCh; log.Info().Msg("shutting down..."); cancel() }()

	c := cron.New()
	if cfg.RefreshSpec != "" {
		_, err := c.AddFunc(cfg.RefreshSpec, func() { refreshRecent(ctx, cfg, store, pipe) })
		if err != nil {
			log.Fatal().Err(err).Str("spec", cfg.RefreshSpec).Msg("invalid refresh schedule")
		}
		c.Start()
		defer c.Stop()
	}

	srv := server.New(store, pipe, cfg)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	printSummary(cfg, store, engine)
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server error")
		}
	}
	log.Info().Msg("goodbye 👋")
}

// refreshRecent re-scans the most recently requested addresses so cached
// results stay warm without waiting for the next user request.
func refreshRecent(ctx context.Context, cfg *config.Config, store *db.Store, pipe *pipeline.Pipeline) {
	addrs, err := store.RecentAddresses(cfg.RefreshLimit)
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ refresh query failed")
		return
	}
	if len(addrs) == 0 {
		return
	}

	log.Info().Int("count", len(addrs)).Msg("♻️ refreshing cached scans")
	for _, addr := range addrs {
		if ctx.Err() != nil {
			return
		}
		if _, err := pipe.Scan(ctx, addr, true, nil); err != nil {
			log.Warn().Err(err).Str("addr", addr).Msg("⚠️ refresh scan failed")
		}
		time.Sleep(2 * time.Second)
	}
}

func printSummary(cfg *config.Config, store *db.Store, engine *narrative.Engine) {
	stats, _ := store.GetStats()
	fmt.Println("\n" + strings.Repeat("═", 60))
	fmt.Println("  🔍 TRUSTSCAN - TOKEN CREDIBILITY SCANNER")
	fmt.Println(strings.Repeat("═", 60))
	fmt.Printf("  API:       http://localhost:%d/api/token/{address}\n", cfg.Port)
	fmt.Printf("  Stream:    ws://localhost:%d/ws/scan?address=...\n", cfg.Port)
	fmt.Printf("  Chains:    Solana, BNB Chain\n")
	aiStatus := "❌ Disabled (set ANTHROPIC_API_KEY or OPENAI_API_KEY)"
	if engine.IsEnabled() {
		aiStatus = "✅ Enabled"
	}
	fmt.Printf("  AI Engine: %s\n", aiStatus)
	if cfg.RefreshSpec != "" {
		fmt.Printf("  Refresh:   %s (top %d addresses)\n", cfg.RefreshSpec, cfg.RefreshLimit)
	}
	if stats != nil {
		fmt.Printf("  DB:        %d scans, %d tokens\n", stats.TotalScans, stats.UniqueAddresses)
	}
	fmt.Println(strings.Repeat("═", 60) + "\n")
}
