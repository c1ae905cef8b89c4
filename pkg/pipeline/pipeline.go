package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/trustscan/pkg/chain"
	"github.com/trustscan/pkg/db"
	"github.com/trustscan/pkg/evidence"
	"github.com/trustscan/pkg/sources"
)

// Fetcher is the external-evidence surface; *sources.Client implements it.
// Every method absorbs its own failures and returns an empty value.
type Fetcher interface {
	Market(ctx context.Context, addr string) *sources.MarketResult
	SecurityReport(ctx context.Context, mint string) *evidence.Security
	SolanaFundamentals(ctx context.Context, mint string) *evidence.Fundamentals
	BNBFundamentals(ctx context.Context, addr string) *evidence.Fundamentals
	HolderCount(ctx context.Context, mint string) *int64
	SearchPosts(ctx context.Context, symbol string) []evidence.Post
	ProfilePosts(ctx context.Context, profileURL string) []evidence.Post
	WebsiteText(ctx context.Context, siteURL string) string
	DiscoverProfiles(ctx context.Context, mint string) evidence.Profiles
}

// Generator produces the report texts; *narrative.Engine implements it.
// Errors are handled here by substituting fixed fallback sentences.
type Generator interface {
	IsEnabled() bool
	Narrative(ctx context.Context, rec *evidence.Record) (string, error)
	FundamentalsAnalysis(ctx context.Context, rec *evidence.Record) (string, error)
	Summary(ctx context.Context, rec *evidence.Record, narrative string) (string, error)
	HypeAnalysis(ctx context.Context, rec *evidence.Record, narrative string) (string, error)
}

// Cache stores finished scans by address; *db.Store implements it.
type Cache interface {
	Latest(address string) (*db.ScanResult, error)
	Insert(result *db.ScanResult) error
}

// Fallback texts substituted when a generation step fails; generated text
// never blocks or fails a scan.
type Fallbacks struct {
	Narrative    string
	Fundamentals string
	Summary      string
	Hype         string
}

type Pipeline struct {
	fetch     Fetcher
	gen       Generator
	cache     Cache
	fallbacks Fallbacks
}

func New(fetch Fetcher, gen Generator, cache Cache, fallbacks Fallbacks) *Pipeline {
	return &Pipeline{fetch: fetch, gen: gen, cache: cache, fallbacks: fallbacks}
}

// Scan runs the full pipeline for one address, streaming progress events to
// emit as each piece lands. A cache hit short-circuits to a complete event
// with the stored result unless refresh is set. The returned error is non-nil
// only for input errors (unrecognized address); source failures degrade the
// result instead of failing the scan.
func (p *Pipeline) Scan(ctx context.Context, address string, refresh bool, emit EmitFunc) (*db.ScanResult, error) {
	emit = serialized(emit)
	start := time.Now()

	ch := chain.Classify(address)
	if !chain.Known(ch) {
		err := fmt.Errorf("unrecognized address format: %s", chain.Abbrev(address))
		emit(Event{Type: EventError, Data: map[string]string{"message": err.Error()}})
		return nil, err
	}
	emit(Event{Type: EventChain, Data: map[string]string{"address": address, "chain": string(ch)}})

	if !refresh {
		cached, err := p.cache.Latest(address)
		if err != nil {
			log.Warn().Err(err).Str("address", chain.Abbrev(address)).Msg("⚠️ cache read failed")
		}
		if cached != nil {
			log.Info().Str("address", chain.Abbrev(address)).Msg("💾 serving cached scan")
			emit(Event{Type: EventComplete, Data: cached})
			return cached, nil
		}
	}

	log.Info().Str("address", chain.Abbrev(address)).Str("chain", string(ch)).Msg("🔍 scanning token")

	rec := &evidence.Record{Address: address, Chain: ch}
	p.fetchTokenData(ctx, rec, emit)
	p.fetchSocialData(ctx, rec, emit)

	sentiment := evidence.Sentiment(rec)
	if sentiment == nil {
		sentiment = evidence.Float(evidence.NeutralSentiment)
	}
	rec.SentimentScore = sentiment
	emit(Event{Type: EventSentiment, Data: map[string]float64{"score": *sentiment}})

	rec.TokenScore = evidence.Score(rec)
	emit(Event{Type: EventScore, Data: map[string]int{"score": rec.TokenScore}})

	result := &db.ScanResult{Evidence: *rec, CreatedAt: time.Now().UTC()}
	p.generateTexts(ctx, rec, result, emit)

	if err := p.cache.Insert(result); err != nil {
		log.Warn().Err(err).Str("address", chain.Abbrev(address)).Msg("⚠️ cache write failed")
	}

	log.Info().
		Str("address", chain.Abbrev(address)).
		Int("score", rec.TokenScore).
		Dur("took", time.Since(start)).
		Msg("✅ scan complete")

	emit(Event{Type: EventComplete, Data: result})
	return result, nil
}

// fetchTokenData fans out to the market, security, and chain connectors.
// Each goroutine owns a disjoint slice of the record, so no lock is needed
// beyond the serialized emit.
func (p *Pipeline) fetchTokenData(ctx context.Context, rec *evidence.Record, emit EmitFunc) {
	var solscanHolders *int64

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if m := p.fetch.Market(gctx, rec.Address); m != nil {
			rec.Name = m.Name
			rec.Symbol = m.Symbol
			rec.Market = m.Market
			rec.Profiles = m.Profiles
		}
		emit(Event{Type: EventMarket, Data: rec.Market})
		return nil
	})

	switch rec.Chain {
	case chain.Solana:
		g.Go(func() error {
			rec.Security = p.fetch.SecurityReport(gctx, rec.Address)
			emit(Event{Type: EventSecurity, Data: rec.Security})
			return nil
		})
		g.Go(func() error {
			rec.Fundamentals = p.fetch.SolanaFundamentals(gctx, rec.Address)
			emit(Event{Type: EventFundamentals, Data: rec.Fundamentals})
			return nil
		})
		g.Go(func() error {
			solscanHolders = p.fetch.HolderCount(gctx, rec.Address)
			return nil
		})
	case chain.BNB:
		g.Go(func() error {
			rec.Fundamentals = p.fetch.BNBFundamentals(gctx, rec.Address)
			emit(Event{Type: EventFundamentals, Data: rec.Fundamentals})
			return nil
		})
	}

	g.Wait()

	// The risk report's holder count wins when both sources answered.
	if rec.Security != nil && rec.Security.HolderCount != nil {
		rec.HolderCount = rec.Security.HolderCount
	} else {
		rec.HolderCount = solscanHolders
	}
	if rec.HolderCount != nil {
		emit(Event{Type: EventHolders, Data: map[string]int64{"count": *rec.HolderCount}})
	}

	// Market data carried no profile links; try the launchpad mirrors.
	if rec.Chain == chain.Solana && rec.Profiles.Empty() {
		rec.Profiles = p.fetch.DiscoverProfiles(ctx, rec.Address)
	}
	emit(Event{Type: EventProfiles, Data: rec.Profiles})

	if rec.Market.MarketCapUSD == nil {
		rec.Market.MarketCapUSD = rec.EffectiveMarketCap()
	}
}

func (p *Pipeline) fetchSocialData(ctx context.Context, rec *evidence.Record, emit EmitFunc) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		query := rec.Symbol
		if query == "" {
			query = rec.Address
		}
		rec.Social.TickerPosts = p.fetch.SearchPosts(gctx, query)
		return nil
	})

	if rec.Profiles.Twitter != "" {
		g.Go(func() error {
			rec.Social.ProfilePosts = p.fetch.ProfilePosts(gctx, rec.Profiles.Twitter)
			return nil
		})
	}

	if rec.Profiles.Website != "" {
		g.Go(func() error {
			rec.Social.WebsiteSummary = p.fetch.WebsiteText(gctx, rec.Profiles.Website)
			return nil
		})
	}

	g.Wait()

	emit(Event{Type: EventPosts, Data: map[string]int{
		"ticker_posts":  len(rec.Social.TickerPosts),
		"profile_posts": len(rec.Social.ProfilePosts),
	}})
	if rec.Social.WebsiteSummary != "" {
		emit(Event{Type: EventWebsite, Data: map[string]int{"chars": len(rec.Social.WebsiteSummary)}})
	}
}

// generateTexts runs the four generation steps in two concurrent waves:
// narrative alongside the fundamentals analysis, then summary alongside the
// hype analysis, both of which build on the narrative.
func (p *Pipeline) generateTexts(ctx context.Context, rec *evidence.Record, result *db.ScanResult, emit EmitFunc) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		result.Narrative = p.generate(EventNarrative, p.fallbacks.Narrative, emit, func() (string, error) {
			return p.gen.Narrative(ctx, rec)
		})
	}()
	go func() {
		defer wg.Done()
		result.FundamentalsAnalysis = p.generate(EventFundamentalsAnalysis, p.fallbacks.Fundamentals, emit, func() (string, error) {
			return p.gen.FundamentalsAnalysis(ctx, rec)
		})
	}()
	wg.Wait()

	wg.Add(2)
	go func() {
		defer wg.Done()
		result.Summary = p.generate(EventSummary, p.fallbacks.Summary, emit, func() (string, error) {
			return p.gen.Summary(ctx, rec, result.Narrative)
		})
	}()
	go func() {
		defer wg.Done()
		result.HypeAnalysis = p.generate(EventHype, p.fallbacks.Hype, emit, func() (string, error) {
			return p.gen.HypeAnalysis(ctx, rec, result.Narrative)
		})
	}()
	wg.Wait()
}

func (p *Pipeline) generate(eventType, fallback string, emit EmitFunc, call func() (string, error)) string {
	text, err := call()
	if err != nil || text == "" {
		if p.gen.IsEnabled() {
			log.Warn().Err(err).Str("step", eventType).Msg("⚠️ text generation failed, using fallback")
		}
		text = fallback
	}
	emit(Event{Type: eventType, Data: map[string]string{"text": text}})
	return text
}

// serialized wraps emit so concurrent fetch goroutines never interleave
// events.
func serialized(emit EmitFunc) EmitFunc {
	if emit == nil {
		return func(Event) {}
	}
	var mu sync.Mutex
	return func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		emit(ev)
	}
}
