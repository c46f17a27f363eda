package resolver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncortes/newsenrich/fetch"
)

func testClient() *fetch.Client {
	return fetch.NewClient(5 * time.Second)
}

// TestTokenStrategy_DecodesEmbeddedURL verifies the offline base64 decode
func TestTokenStrategy_DecodesEmbeddedURL(t *testing.T) {
	payload := []byte("\x08\x13\x22https://diario.example/politica/nota-123\xd2\x01\x00")
	token := "CBM" + base64.URLEncoding.EncodeToString(payload)
	link := "https://news.example/articles/" + token + "?oc=5"

	s := &TokenStrategy{}
	direct, err := s.Attempt(context.Background(), link)
	require.NoError(t, err)
	assert.Equal(t, "https://diario.example/politica/nota-123", direct)
}

// TestTokenStrategy_PlainBase64 verifies decoding without a known prefix
func TestTokenStrategy_PlainBase64(t *testing.T) {
	token := base64.StdEncoding.EncodeToString([]byte("junk https://diario.example/nota more"))
	link := "https://news.example/articles/" + token

	s := &TokenStrategy{}
	direct, err := s.Attempt(context.Background(), link)
	require.NoError(t, err)
	assert.Equal(t, "https://diario.example/nota", direct)
}

// TestTokenStrategy_OpaqueToken verifies newer tokens yield no answer
func TestTokenStrategy_OpaqueToken(t *testing.T) {
	s := &TokenStrategy{}
	direct, err := s.Attempt(context.Background(), "https://news.example/articles/AU_yqL!!notbase64!!")
	require.NoError(t, err)
	assert.Empty(t, direct, "undecodable token should fall through, not error")
}

// TestRedirectStrategy_FollowsToFinalURL verifies the landing URL is used
func TestRedirectStrategy_FollowsToFinalURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/articles/abc", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/nota-final", http.StatusFound)
	})
	mux.HandleFunc("/nota-final", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>nota</html>")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	s := &RedirectStrategy{Client: testClient()}
	direct, err := s.Attempt(context.Background(), server.URL+"/articles/abc")
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/nota-final", direct)
}

// TestRedirectStrategy_NoRedirect verifies a page that stays put is no answer
func TestRedirectStrategy_NoRedirect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>ok</html>")
	}))
	defer server.Close()

	s := &RedirectStrategy{Client: testClient()}
	direct, err := s.Attempt(context.Background(), server.URL+"/articles/abc")
	require.NoError(t, err)
	assert.Empty(t, direct)
}

// TestFeedStrategy_TakesFirstExternalItem verifies feed-based resolution
func TestFeedStrategy_TakesFirstExternalItem(t *testing.T) {
	rss := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
  <title>Artículo</title>
  <item><title>Interno</title><link>https://news.google.com/articles/xyz</link></item>
  <item><title>Nota</title><link>https://diario.example/nota</link></item>
</channel></rss>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rss/articles/tok123" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, rss)
	}))
	defer server.Close()

	s := &FeedStrategy{Client: testClient()}
	direct, err := s.Attempt(context.Background(), server.URL+"/articles/tok123?oc=5")
	require.NoError(t, err)
	assert.Equal(t, "https://diario.example/nota", direct)
}

// TestFeedStrategy_MissingFeed verifies a 404 feed is an error, not a panic
func TestFeedStrategy_MissingFeed(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	s := &FeedStrategy{Client: testClient()}
	_, err := s.Attempt(context.Background(), server.URL+"/articles/tok123")
	assert.Error(t, err)
}

// TestDecoderStrategy_FullExchange verifies the two-step decode against a
// fake aggregator: parameter scrape, then batch RPC
func TestDecoderStrategy_FullExchange(t *testing.T) {
	const directURL = "https://diario.example/economia/nota-9"

	mux := http.NewServeMux()
	mux.HandleFunc("/rss/articles/tok9", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><c-wiz><div jscontroller="x" data-n-a-sg="sig-9" data-n-a-ts="1234"></div></c-wiz></body></html>`)
	})
	mux.HandleFunc("/_/DotsSplashUi/data/batchexecute", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Contains(t, r.PostForm.Get("f.req"), "tok9", "request should carry the token")

		embedded, err := json.Marshal([]any{"garturlres", directURL})
		require.NoError(t, err)
		envelope, err := json.Marshal([]any{[]any{"wrb.fr", "Fbv4je", string(embedded)}})
		require.NoError(t, err)
		fmt.Fprintf(w, ")]}'\n\n%s", envelope)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	s := &DecoderStrategy{Client: testClient()}
	direct, err := s.Attempt(context.Background(), server.URL+"/articles/tok9?oc=5")
	require.NoError(t, err)
	assert.Equal(t, directURL, direct)
}

// TestDecoderStrategy_MissingParams verifies a page without decode attributes
// yields no answer
func TestDecoderStrategy_MissingParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>consent wall</body></html>")
	}))
	defer server.Close()

	s := &DecoderStrategy{Client: testClient()}
	direct, err := s.Attempt(context.Background(), server.URL+"/articles/tok9")
	require.NoError(t, err)
	assert.Empty(t, direct)
}
