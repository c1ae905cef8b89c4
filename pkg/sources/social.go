package sources

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/trustscan/pkg/evidence"
)

const maxPosts = 30

// SearchPosts finds recent posts tagging the token's ticker. The
// authenticated X session is tried first when configured; otherwise (or on
// empty results) the public mirrors are raced and the first valid page
// wins. All-failure yields an empty slice, never nil semantics downstream.
func (c *Client) SearchPosts(ctx context.Context, symbol string) []evidence.Post {
	query := "$" + strings.TrimPrefix(symbol, "$")

	if c.scraper != nil {
		if posts := c.scrapeSearch(ctx, query); len(posts) > 0 {
			return posts
		}
	}

	path := "/search?f=tweets&q=" + url.QueryEscape(query)
	posts, ok := race(ctx, c.cfg.NitterInstances, func(ctx context.Context, mirror string) ([]evidence.Post, error) {
		return c.fetchMirrorPosts(ctx, mirror+path)
	}, validPosts)
	if !ok {
		log.Debug().Str("query", query).Msg("all post-search mirrors failed")
		return []evidence.Post{}
	}
	return posts
}

// ProfilePosts fetches the token account's own recent posts given its X
// profile URL.
func (c *Client) ProfilePosts(ctx context.Context, profileURL string) []evidence.Post {
	handle := handleFromURL(profileURL)
	if handle == "" {
		return []evidence.Post{}
	}

	if c.scraper != nil {
		posts := make([]evidence.Post, 0, maxPosts)
		for t := range c.scraper.GetTweets(ctx, handle, maxPosts) {
			if t.Error != nil {
				break
			}
			posts = append(posts, evidence.Post{
				ID:       t.ID,
				Author:   t.Username,
				Text:     t.Text,
				Likes:    t.Likes,
				Retweets: t.Retweets,
				PostedAt: t.TimeParsed,
			})
		}
		if len(posts) > 0 {
			return posts
		}
	}

	posts, ok := race(ctx, c.cfg.NitterInstances, func(ctx context.Context, mirror string) ([]evidence.Post, error) {
		return c.fetchMirrorPosts(ctx, mirror+"/"+handle)
	}, validPosts)
	if !ok {
		log.Debug().Str("handle", handle).Msg("all profile mirrors failed")
		return []evidence.Post{}
	}
	return posts
}

func (c *Client) scrapeSearch(ctx context.Context, query string) []evidence.Post {
	posts := make([]evidence.Post, 0, maxPosts)
	for t := range c.scraper.SearchTweets(ctx, query, maxPosts) {
		if t.Error != nil {
			break
		}
		posts = append(posts, evidence.Post{
			ID:       t.ID,
			Author:   t.Username,
			Text:     t.Text,
			Likes:    t.Likes,
			Retweets: t.Retweets,
			PostedAt: t.TimeParsed,
		})
	}
	return posts
}

// validPosts rejects mirror responses that failed structurally; an empty
// but well-formed result page is still a win for the race.
func validPosts(posts []evidence.Post) bool { return posts != nil }

// --- mirror HTML parsing ---

var (
	timelineItemMarker = `class="timeline-item`
	rateLimitMarker    = "Instance has been rate limited"

	tweetContentRe = regexp.MustCompile(`(?s)<div class="tweet-content[^"]*"[^>]*>(.*?)</div>`)
	tweetLinkRe    = regexp.MustCompile(`<a class="tweet-link" href="/([^/]+)/status/(\d+)`)
	tweetDateRe    = regexp.MustCompile(`<span class="tweet-date"><a[^>]*title="([^"]+)"`)
	retweetStatRe  = regexp.MustCompile(`icon-retweet[^<]*</span>\s*([\d,]+)`)
	heartStatRe    = regexp.MustCompile(`icon-heart[^<]*</span>\s*([\d,]+)`)
	htmlTagRe      = regexp.MustCompile(`<[^>]+>`)
	spaceRe        = regexp.MustCompile(`\s+`)
)

// fetchMirrorPosts GETs one mirror page and parses its timeline. A page
// without the timeline marker, or a rate-limit interstitial, is an error so
// the race moves on to the next mirror.
func (c *Client) fetchMirrorPosts(ctx context.Context, pageURL string) ([]evidence.Post, error) {
	body, err := c.get(ctx, pageURL, c.cfg.SocialTimeout, nil)
	if err != nil {
		return nil, err
	}

	page := string(body)
	if strings.Contains(page, rateLimitMarker) {
		return nil, fmt.Errorf("mirror rate limited")
	}
	if !strings.Contains(page, timelineItemMarker) && !strings.Contains(page, `class="timeline`) {
		return nil, fmt.Errorf("no timeline in response")
	}

	posts := []evidence.Post{}
	for _, chunk := range strings.Split(page, timelineItemMarker)[1:] {
		if len(posts) >= maxPosts {
			break
		}
		post := evidence.Post{}

		if m := tweetContentRe.FindStringSubmatch(chunk); m != nil {
			post.Text = cleanHTML(m[1])
		}
		if post.Text == "" {
			continue
		}
		if m := tweetLinkRe.FindStringSubmatch(chunk); m != nil {
			post.Author = m[1]
			post.ID = m[2]
		}
		if m := tweetDateRe.FindStringSubmatch(chunk); m != nil {
			if ts, err := time.Parse("Jan 2, 2006 · 3:04 PM MST", m[1]); err == nil {
				post.PostedAt = ts
			}
		}
		if m := retweetStatRe.FindStringSubmatch(chunk); m != nil {
			post.Retweets = parseCount(m[1])
		}
		if m := heartStatRe.FindStringSubmatch(chunk); m != nil {
			post.Likes = parseCount(m[1])
		}

		posts = append(posts, post)
	}
	return posts, nil
}

func cleanHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

func parseCount(s string) int {
	n, _ := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	return n
}

func handleFromURL(profileURL string) string {
	u, err := url.Parse(strings.TrimSpace(profileURL))
	if err != nil {
		return ""
	}
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return ""
	}
	handle := strings.SplitN(path, "/", 2)[0]
	return strings.TrimPrefix(handle, "@")
}
