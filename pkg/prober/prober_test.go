package prober

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"jshunter/pkg/client"
	"jshunter/pkg/store"
	"jshunter/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const notFoundPage = `<html><head><title>Oops</title></head><body>Sorry, nothing here. Try the search box.</body></html>`

func newSoftServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			_, _ = w.Write([]byte(`<html><head><title>  Home
  Page </title></head><body>` + strings.Repeat("product catalogue entry ", 20) + `</body></html>`))
		case "/old":
			http.Redirect(w, r, "/", http.StatusFound)
		case "/head-refused":
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			_, _ = w.Write([]byte(`<title>ok</title>`))
		case "/missing":
			http.NotFound(w, r)
		default:
			_, _ = w.Write([]byte(notFoundPage))
		}
	}))
}

func newTestProber(st *store.Store) *Prober {
	cfg := utils.DefaultConfig()
	cfg.AntiDetection.Enabled = false
	cfg.Scanner.Threads = 4
	cfg.Scanner.Timeout = "2s"

	p := New(client.NewSmartClient(cfg), st, cfg)
	p.Logger = utils.QuietLogger()
	return p
}

func byURL(st *store.Store) map[string]store.Artifact {
	out := make(map[string]store.Artifact)
	snap := st.Snapshot()
	for _, a := range append(snap.JS, snap.Links...) {
		out[a.URL] = a
	}
	return out
}

func TestRunEnrichesArtifacts(t *testing.T) {
	srv := newSoftServer()
	defer srv.Close()

	st := store.New()
	for _, p := range []string{"/", "/old", "/ghost-page", "/head-refused", "/missing"} {
		require.True(t, st.RecordArtifact(store.KindURL, srv.URL+p, srv.URL+"/"))
	}
	require.True(t, st.RecordArtifact(store.KindJS, srv.URL+"/app.js", srv.URL+"/"))

	require.NoError(t, newTestProber(st).Run(context.Background()))
	got := byURL(st)

	home := got[srv.URL+"/"]
	assert.Equal(t, http.StatusOK, home.Status)
	assert.Equal(t, "Home Page", home.Title)
	assert.Positive(t, home.Size)
	assert.Empty(t, home.Redirect)
	assert.False(t, home.SoftNotFound)

	old := got[srv.URL+"/old"]
	assert.Equal(t, http.StatusOK, old.Status)
	assert.Equal(t, srv.URL+"/", old.Redirect)
	assert.Equal(t, "Home Page", old.Title)

	ghost := got[srv.URL+"/ghost-page"]
	assert.Equal(t, http.StatusOK, ghost.Status)
	assert.True(t, ghost.SoftNotFound)

	refused := got[srv.URL+"/head-refused"]
	assert.Equal(t, http.StatusOK, refused.Status)
	assert.Equal(t, "ok", refused.Title)
	assert.False(t, refused.SoftNotFound)

	missing := got[srv.URL+"/missing"]
	assert.Equal(t, http.StatusNotFound, missing.Status)
	assert.Empty(t, missing.Title)

	assert.True(t, got[srv.URL+"/app.js"].SoftNotFound, "unknown script path served the fallback page")
}

func TestRunWithoutSoftNotFoundBaseline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/page" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(notFoundPage))
	}))
	defer srv.Close()

	st := store.New()
	st.RecordArtifact(store.KindURL, srv.URL+"/page", "seed")

	require.NoError(t, newTestProber(st).Run(context.Background()))
	a := byURL(st)[srv.URL+"/page"]
	assert.Equal(t, http.StatusOK, a.Status)
	assert.False(t, a.SoftNotFound)
}

func TestRunCancelled(t *testing.T) {
	st := store.New()
	st.RecordArtifact(store.KindURL, "http://127.0.0.1:1/x", "seed")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newTestProber(st).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, byURL(st)["http://127.0.0.1:1/x"].Status)
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Admin Console", Title("<html><title>\n Admin \t Console </title></html>"))
	assert.Empty(t, Title("var x = 1;"))

	long := Title("<title>" + strings.Repeat("a", 150) + "</title>")
	assert.Len(t, long, 100)
	assert.True(t, strings.HasSuffix(long, "..."))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.Equal(t, 1.0, Similarity("same", "same"))
	assert.InDelta(t, 0.75, Similarity("abcd", "abcx"), 0.0001)
	assert.Less(t, Similarity(notFoundPage, "<title>ok</title>"), 0.5)
}
