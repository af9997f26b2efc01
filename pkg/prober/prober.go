// Package prober enriches recorded artifacts after a crawl: status code,
// size, page title, redirect target and a soft-404 flag.
package prober

import (
	"context"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"jshunter/pkg/client"
	"jshunter/pkg/crawler"
	"jshunter/pkg/store"
	"jshunter/pkg/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/pterm/pterm"
	"golang.org/x/sync/errgroup"
)

const (
	maxTitleLen = 100
	// similarity is computed on a body prefix; full Levenshtein is quadratic
	compareBytes     = 2048
	defaultThreshold = 0.9
)

// Prober issues one HEAD (and for 200s a GET) per recorded URL.
type Prober struct {
	Client    *client.SmartClient
	Store     *store.Store
	Workers   int
	Timeout   time.Duration
	Threshold float64
	Logger    *pterm.Logger

	mu        sync.Mutex
	baselines map[string]*baseline
}

// baseline is what a host answers for a path that cannot exist.
type baseline struct {
	once sync.Once
	body string
}

func New(c *client.SmartClient, st *store.Store, cfg *utils.Config) *Prober {
	return &Prober{
		Client:    c,
		Store:     st,
		Workers:   cfg.Threads(),
		Timeout:   cfg.Timeout(),
		Threshold: defaultThreshold,
		Logger:    utils.Logger,
		baselines: make(map[string]*baseline),
	}
}

// Run probes every distinct recorded URL and writes the results back to
// the store. Individual failures leave the artifact unprobed.
func (p *Prober) Run(ctx context.Context) error {
	urls := p.Store.AllURLs()
	p.Logger.Info("probing artifacts", p.Logger.Args("count", len(urls), "workers", p.Workers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.Workers, 1))

	for _, u := range urls {
		u := u
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			if e, ok := p.probe(gctx, u); ok {
				p.Store.Enrich(u, e)
			}
			return nil
		})
	}
	return g.Wait()
}

func (p *Prober) probe(ctx context.Context, u string) (store.Enrichment, bool) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	resp, err := p.Client.Request(ctx).Head(u)
	if err != nil {
		p.Logger.Debug("probe failed", p.Logger.Args("url", u, "error", err))
		return store.Enrichment{}, false
	}

	e := store.Enrichment{Status: resp.StatusCode()}
	if rr := resp.RawResponse; rr != nil {
		if rr.ContentLength > 0 {
			e.Size = rr.ContentLength
		}
		if rr.Request != nil && rr.Request.URL != nil {
			if final := rr.Request.URL.String(); final != u {
				e.Redirect = final
			}
		}
	}

	// some servers refuse HEAD; the GET below settles those too
	if e.Status != http.StatusOK && e.Status != http.StatusMethodNotAllowed {
		return e, true
	}

	got, err := p.Client.Fetch(ctx, u, p.Client.AntiDetection().Headers(nil), 0)
	if err != nil {
		return e, true
	}
	e.Status = got.StatusCode
	if e.Size == 0 {
		e.Size = int64(len(got.Body))
	}
	if got.StatusCode != http.StatusOK {
		return e, true
	}

	text := crawler.DecodeBody(got.Body, got.Header)
	e.Title = Title(text)
	if b := p.baselineFor(ctx, got.FinalURL); b != "" {
		e.SoftNotFound = Similarity(prefix(text), b) >= p.Threshold
	}
	return e, true
}

// baselineFor fetches a random path on u's origin once per origin. It
// returns "" when the origin answers unknown paths with anything but 200.
func (p *Prober) baselineFor(ctx context.Context, u string) string {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return ""
	}
	origin := parsed.Scheme + "://" + parsed.Host

	p.mu.Lock()
	b, ok := p.baselines[origin]
	if !ok {
		b = &baseline{}
		p.baselines[origin] = b
	}
	p.mu.Unlock()

	b.once.Do(func() {
		probeURL := origin + "/" + uuid.NewString()
		resp, err := p.Client.Fetch(ctx, probeURL, p.Client.AntiDetection().Headers(nil), p.Timeout)
		if err != nil || resp.StatusCode != http.StatusOK {
			return
		}
		b.body = prefix(crawler.DecodeBody(resp.Body, resp.Header))
	})
	return b.body
}

func (p *Prober) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.Timeout)
}

// Title returns the document's <title>, whitespace-collapsed and cut to
// 100 characters.
func Title(text string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return ""
	}
	title := strings.Join(strings.Fields(doc.Find("title").First().Text()), " ")
	return utils.TruncateString(title, maxTitleLen)
}

// Similarity is 1 minus the Levenshtein distance normalized by the longer
// input.
func Similarity(s1, s2 string) float64 {
	dist := fuzzy.LevenshteinDistance(s1, s2)
	maxLen := math.Max(float64(len(s1)), float64(len(s2)))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - (float64(dist) / maxLen)
}

func prefix(s string) string {
	if len(s) <= compareBytes {
		return s
	}
	return s[:compareBytes]
}
