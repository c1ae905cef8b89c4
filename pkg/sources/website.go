package sources

import (
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

const maxWebsiteChars = 4000

var (
	scriptRe = regexp.MustCompile(`(?is)<(script|style|noscript)[^>]*>.*?</(script|style|noscript)>`)
	headRe   = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
)

// WebsiteText fetches the token's claimed website and reduces it to plain
// text for the narrative context. Empty string on any failure.
func (c *Client) WebsiteText(ctx context.Context, siteURL string) string {
	if !strings.HasPrefix(siteURL, "http://") && !strings.HasPrefix(siteURL, "https://") {
		siteURL = "https://" + siteURL
	}

	body, err := c.get(ctx, siteURL, c.cfg.WebsiteTimeout, nil)
	if err != nil {
		log.Debug().Err(err).Str("url", siteURL).Msg("website fetch failed")
		return ""
	}

	text := string(body)
	text = headRe.ReplaceAllString(text, " ")
	text = scriptRe.ReplaceAllString(text, " ")
	text = htmlTagRe.ReplaceAllString(text, " ")
	text = html.UnescapeString(text)
	text = strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))

	if len(text) > maxWebsiteChars {
		text = text[:maxWebsiteChars]
	}
	return text
}
