package evidence

import "math"

// NeutralSentiment substitutes for a scan that produced no signal at all.
const NeutralSentiment = 50.0

// Sentiment derives the 0-100 sentiment score from price momentum, traded
// volume, and post engagement. Returns nil only when neither a market datum
// nor a single post arrived; callers substitute NeutralSentiment before
// scoring.
func Sentiment(rec *Record) *float64 {
	posts := rec.Social.AllPosts()
	hasMarket := rec.Market.PriceChange24h != nil || rec.Market.Volume24hUSD != nil
	if !hasMarket && len(posts) == 0 {
		return nil
	}

	// Price: 0% change maps to 0.5, +-30% spans the full range, with a
	// bonus once change clears +10%.
	price := 0.5
	if rec.Market.PriceChange24h != nil {
		change := *rec.Market.PriceChange24h
		price = clamp01(0.5 + change/60)
		if change > 10 {
			price = clamp01(price + 0.1)
		}
	}

	// Volume: log scale, floored at 0.2 once any volume is known.
	volume := 0.0
	if rec.Market.Volume24hUSD != nil {
		volume = math.Log10(*rec.Market.Volume24hUSD+1) / 7
		if volume < 0.2 {
			volume = 0.2
		}
		if volume > 1 {
			volume = 1
		}
	}

	social := socialComponent(posts)

	score := (0.25*price + 0.25*volume + 0.5*social) * 100

	// Real post activity must not round down to near-zero sentiment on flat
	// price/volume alone.
	if len(posts) >= 10 && score < 35 {
		score = 35
	} else if len(posts) >= 3 && score < 20 {
		score = 20
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return &score
}

// socialComponent blends three independently capped sub-scores so no single
// sub-signal dominates: raw post count, log-scale average engagement, and
// the count of high-engagement posts.
func socialComponent(posts []Post) float64 {
	if len(posts) == 0 {
		return 0
	}

	countScore := float64(len(posts)) / 20
	if countScore > 1 {
		countScore = 1
	}

	total, high := 0, 0
	for _, p := range posts {
		eng := p.Engagement()
		total += eng
		if eng > 50 {
			high++
		}
	}
	avg := float64(total) / float64(len(posts))
	engScore := clamp01(math.Log10(avg+1) / 4)

	highScore := float64(high) / 5
	if highScore > 1 {
		highScore = 1
	}

	return 0.4*countScore + 0.35*engScore + 0.25*highScore
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
