package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWebsiteText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>ignored</title><style>body{}</style></head>
			<body><script>var tracked = true;</script>
			<h1>Sample Protocol</h1><p>Decentralized&nbsp;clean water funding.</p></body></html>`))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	got := c.WebsiteText(context.Background(), srv.URL)
	assert.Equal(t, "Sample Protocol Decentralized clean water funding.", got)
}

func TestWebsiteTextTruncates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<body>" + strings.Repeat("word ", 2000) + "</body>"))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	got := c.WebsiteText(context.Background(), srv.URL)
	assert.Len(t, got, maxWebsiteChars)
}

func TestWebsiteTextFailure(t *testing.T) {
	c := New(testConfig("http://unused"))
	assert.Empty(t, c.WebsiteText(context.Background(), "http://127.0.0.1:1/nothing-here"))
}
