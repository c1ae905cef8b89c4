package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/trustscan/pkg/config"
	"github.com/trustscan/pkg/db"
	"github.com/trustscan/pkg/narrative"
	"github.com/trustscan/pkg/pipeline"
	"github.com/trustscan/pkg/sources"
)

func main() {
	refresh := flag.Bool("refresh", false, "bypass the cache and re-scan")
	quiet := flag.Bool("quiet", false, "suppress progress output")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: scan [flags] <token-address>\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	address := flag.Arg(0)

	level := zerolog.WarnLevel
	if !*quiet {
		level = zerolog.InfoLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).Level(level).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	store, err := db.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("database init failed")
	}
	defer store.Close()

	pipe := pipeline.New(sources.New(cfg), narrative.NewEngine(cfg), store, pipeline.Fallbacks{
		Narrative:    narrative.FallbackNarrative,
		Fundamentals: narrative.FallbackFundamentals,
		Summary:      narrative.FallbackSummary,
		Hype:         narrative.FallbackHype,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	var emit pipeline.EmitFunc
	if !*quiet {
		emit = printProgress
	}

	result, err := pipe.Scan(ctx, address, *refresh, emit)
	if err != nil {
		color.Red("✗ %v", err)
		os.Exit(1)
	}

	printReport(result)
}

func printProgress(ev pipeline.Event) {
	switch ev.Type {
	case pipeline.EventComplete, pipeline.EventError:
		return
	}
	fmt.Fprintf(os.Stderr, "  %s %s\n", color.CyanString("▸"), strings.ReplaceAll(ev.Type, "_", " "))
}

func printReport(result *db.ScanResult) {
	rec := result.Evidence

	name := rec.Name
	if name == "" {
		name = "(unnamed token)"
	}
	fmt.Println()
	color.New(color.Bold).Printf("%s", name)
	if rec.Symbol != "" {
		fmt.Printf(" ($%s)", rec.Symbol)
	}
	fmt.Printf("  [%s]\n", rec.Chain)
	fmt.Println(rec.Address)
	fmt.Println()

	scoreColor := color.New(color.FgRed, color.Bold)
	if rec.TokenScore >= 70 {
		scoreColor = color.New(color.FgGreen, color.Bold)
	} else if rec.TokenScore >= 40 {
		scoreColor = color.New(color.FgYellow, color.Bold)
	}
	scoreColor.Printf("  TRUST SCORE: %d/100\n", rec.TokenScore)
	if rec.SentimentScore != nil {
		fmt.Printf("  Sentiment:   %.0f/100\n", *rec.SentimentScore)
	}
	fmt.Println()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetBorder(false)
	table.Append([]string{"Price", usd(rec.Market.PriceUSD)})
	table.Append([]string{"Liquidity", usd(rec.Market.LiquidityUSD)})
	table.Append([]string{"Market Cap", usd(rec.EffectiveMarketCap())})
	table.Append([]string{"24h Volume", usd(rec.Market.Volume24hUSD)})
	table.Append([]string{"24h Change", pct(rec.Market.PriceChange24h)})
	table.Append([]string{"Holders", holders(rec.HolderCount)})
	table.Append([]string{"Risk Flags", fmt.Sprintf("%d", rec.RiskFlagCount())})
	table.Render()

	if rec.Security != nil && len(rec.Security.Flags) > 0 {
		fmt.Println()
		color.Red("  ⚠ Risk flags:")
		for _, f := range rec.Security.Flags {
			fmt.Printf("    [%s] %s\n", f.Severity, f.Name)
		}
	}
	if rec.MintOrFreezeAuthority() {
		color.Red("  ⚠ Token authorities are still active")
	}

	section("Story", result.Narrative)
	section("Fundamentals", result.FundamentalsAnalysis)
	section("Hype Check", result.HypeAnalysis)
	section("Summary", result.Summary)

	fmt.Printf("\nScanned at %s\n", result.CreatedAt.Local().Format("2006-01-02 15:04:05"))
}

func section(title, body string) {
	if body == "" {
		return
	}
	fmt.Println()
	color.New(color.Bold).Printf("  %s\n", title)
	fmt.Printf("  %s\n", body)
}

func usd(v *float64) string {
	if v == nil {
		return "-"
	}
	if *v < 1 {
		return fmt.Sprintf("$%.6f", *v)
	}
	return fmt.Sprintf("$%.2f", *v)
}

func pct(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%+.1f%%", *v)
}

func holders(v *int64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}
