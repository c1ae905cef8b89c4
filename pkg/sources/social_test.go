package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mirrorTimeline = `<html><body><div class="timeline">
<div class="timeline-item">
  <a class="tweet-link" href="/cryptodev/status/111222333#m"></a>
  <span class="tweet-date"><a href="#" title="Jan 2, 2026 · 3:04 PM UTC">Jan 2</a></span>
  <div class="tweet-content media-body" dir="auto">$SMPL is going to change <b>everything</b> 🚀</div>
  <span class="tweet-stat"><div class="icon-container"><span class="icon-retweet" title=""></span> 25</div></span>
  <span class="tweet-stat"><div class="icon-container"><span class="icon-heart" title=""></span> 1,150</div></span>
</div>
<div class="timeline-item">
  <a class="tweet-link" href="/someone/status/444555666#m"></a>
  <div class="tweet-content media-body" dir="auto">quietly accumulating $SMPL</div>
  <span class="tweet-stat"><div class="icon-container"><span class="icon-retweet" title=""></span> 2</div></span>
  <span class="tweet-stat"><div class="icon-container"><span class="icon-heart" title=""></span> 9</div></span>
</div>
</div></body></html>`

func TestSearchPostsParsesMirrorTimeline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "$SMPL", r.URL.Query().Get("q"))
		w.Write([]byte(mirrorTimeline))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	posts := c.SearchPosts(context.Background(), "SMPL")
	require.Len(t, posts, 2)

	assert.Equal(t, "cryptodev", posts[0].Author)
	assert.Equal(t, "111222333", posts[0].ID)
	assert.Equal(t, "$SMPL is going to change everything 🚀", posts[0].Text)
	assert.Equal(t, 25, posts[0].Retweets)
	assert.Equal(t, 1150, posts[0].Likes)
	assert.Equal(t, 1200, posts[0].Engagement())
	assert.Equal(t, 2026, posts[0].PostedAt.Year())

	assert.Equal(t, "quietly accumulating $SMPL", posts[1].Text)
}

func TestSearchPostsAllMirrorsFailing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	posts := c.SearchPosts(context.Background(), "SMPL")
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
}

func TestSearchPostsRejectsRateLimitPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>Instance has been rate limited</body></html>`))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	assert.Empty(t, c.SearchPosts(context.Background(), "SMPL"))
}

func TestProfilePosts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sampletoken", r.URL.Path)
		w.Write([]byte(mirrorTimeline))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	posts := c.ProfilePosts(context.Background(), "https://x.com/sampletoken")
	assert.Len(t, posts, 2)
}

func TestProfilePostsBadURL(t *testing.T) {
	c := New(testConfig("http://unused"))
	assert.Empty(t, c.ProfilePosts(context.Background(), "https://x.com/"))
}

func TestHandleFromURL(t *testing.T) {
	cases := map[string]string{
		"https://x.com/sample":            "sample",
		"https://twitter.com/sample":      "sample",
		"https://x.com/@sample":           "sample",
		"https://x.com/sample/status/123": "sample",
		"https://x.com/":                  "",
		"":                                "",
	}
	for in, want := range cases {
		assert.Equal(t, want, handleFromURL(in), in)
	}
}
