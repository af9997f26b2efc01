// Package crawler drives the fetch, extract and record loop. A descent
// walks an explicit task frontier; batch runs spread seeds over a worker
// pool while each seed's descent stays sequential.
package crawler

import (
	"context"
	"errors"
	"time"

	"jshunter/pkg/client"
	"jshunter/pkg/extractor"
	"jshunter/pkg/resolver"
	"jshunter/pkg/store"
	"jshunter/pkg/utils"

	"github.com/pterm/pterm"
)

// Fetcher is the transport the engine consumes.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, headers map[string]string, timeout time.Duration) (*client.Response, error)
}

// Throttle blocks before each fetch.
type Throttle interface {
	Wait(ctx context.Context) error
}

// HeaderSource produces the headers for one request.
type HeaderSource interface {
	Headers(overrides map[string]string) map[string]string
}

type Engine struct {
	Fetcher   Fetcher
	Headers   HeaderSource
	Throttle  Throttle
	Store     *store.Store
	Extractor *extractor.Extractor
	Stats     *Stats
	Logger    *pterm.Logger

	Mode       utils.ScanMode
	Features   utils.FeatureConfig
	Timeout    time.Duration
	Workers    int
	JSSteps    int
	URLSteps   int
	OnDispatch func(progress int64)
}

// NewEngine wires an engine from configuration and a SmartClient.
func NewEngine(cfg *utils.Config, c *client.SmartClient, st *store.Store, ex *extractor.Extractor) *Engine {
	minDelay, maxDelay := cfg.JitterRange()
	jsSteps, urlSteps := cfg.Steps()

	throttle := client.NewRateLimiter(cfg.AntiDetection.RequestsPerSecond, minDelay, maxDelay)
	throttle.Jitter = c.AntiDetection().JitterDelay

	return &Engine{
		Fetcher:   c,
		Headers:   c.AntiDetection(),
		Throttle:  throttle,
		Store:     st,
		Extractor: ex,
		Stats:     NewStats(),
		Logger:    utils.Logger,
		Mode:      cfg.Scanner.Mode,
		Features:  cfg.Features,
		Timeout:   cfg.Timeout(),
		Workers:   cfg.Threads(),
		JSSteps:   jsSteps,
		URLSteps:  urlSteps,
	}
}

// CrawlSingle crawls one seed according to the scan mode.
func (e *Engine) CrawlSingle(ctx context.Context, seed string) {
	switch e.Mode {
	case utils.ModeQuick:
		e.quickScan(ctx, seed)
	case utils.ModeStandard, utils.ModeDeep:
		e.Descend(ctx, seed)
	}
}

// CrawlBatch truncates seeds to maxSeeds and runs one descent per seed on
// the worker pool, returning once all of them finished.
func (e *Engine) CrawlBatch(ctx context.Context, seeds []string, maxSeeds int) {
	if maxSeeds > 0 && len(seeds) > maxSeeds {
		e.Logger.Warn("seed list truncated", e.Logger.Args("seeds", len(seeds), "max", maxSeeds))
		seeds = seeds[:maxSeeds]
	}

	sched := NewScheduler(ctx, e.Workers)
	sched.Start()
	for _, seed := range seeds {
		seed := seed
		if err := sched.Submit(func(ctx context.Context) { e.Descend(ctx, seed) }); err != nil {
			break
		}
	}
	sched.Wait()
}

// Descend crawls seed and everything reachable from it within the
// recursion ceilings. Tasks are processed one at a time.
func (e *Engine) Descend(ctx context.Context, seed string) {
	var f Frontier
	f.Push(Task{URL: seed, Depth: 1, Origin: store.KindURL})

	for ctx.Err() == nil {
		t, ok := f.Pop()
		if !ok {
			return
		}
		f.PushAll(e.process(ctx, t, false))
	}
}

func (e *Engine) quickScan(ctx context.Context, seed string) {
	start := time.Now()
	e.process(ctx, Task{URL: seed, Depth: 1, Origin: store.KindURL}, true)
	e.Logger.Info("quick scan finished", e.Logger.Args("url", seed, "elapsed", time.Since(start).Round(time.Millisecond)))
}

// process fetches and mines one task and returns the follow-up tasks.
// A panic ends this task only. Artifacts recorded before it keep their
// follow-up tasks.
func (e *Engine) process(ctx context.Context, t Task, quick bool) (next []Task) {
	defer func() {
		if r := recover(); r != nil {
			e.Logger.Error("task aborted", e.Logger.Args("url", t.URL, "panic", r, "queued", len(next)))
			if quick {
				next = nil
			}
		}
	}()

	progress := e.Store.Dispatch()
	if e.OnDispatch != nil {
		e.OnDispatch(progress)
	}

	if !e.Store.MarkVisited(t.URL) {
		return nil
	}

	text, rctx, ok := e.fetch(ctx, t)
	if !ok {
		return nil
	}

	// quick mode never parses a bundle it was pointed at directly
	if !(quick && e.Extractor.IsBundled(t.URL)) {
		for _, a := range e.Extractor.JS(text, rctx) {
			next = e.record(a, t, next)
		}
	}

	if e.Features.APIScan && !quick {
		found, frameworks := e.Extractor.API(text, rctx)
		if len(frameworks) > 0 {
			e.Logger.Info("backend framework detected", e.Logger.Args("source", t.URL, "frameworks", frameworks))
		}
		for _, a := range found {
			next = e.record(a, t, next)
		}
	}

	if e.Features.URLScan {
		for _, a := range e.Extractor.URLs(text, rctx) {
			next = e.record(a, t, next)
		}
	}

	if e.Features.SecretScan {
		if finding, ok := e.Extractor.Secrets(text, t.URL); ok {
			e.Store.AddFinding(finding)
			e.Logger.Debug("sensitive values found", e.Logger.Args("source", t.URL, "categories", finding.Categories()))
		}
	}

	if quick {
		return nil
	}
	return next
}

func (e *Engine) fetch(ctx context.Context, t Task) (string, resolver.Context, bool) {
	if err := e.Throttle.Wait(ctx); err != nil {
		return "", resolver.Context{}, false
	}

	e.Stats.IncrementTotal()
	resp, err := e.Fetcher.Fetch(ctx, t.URL, e.Headers.Headers(nil), e.Timeout)
	if err != nil {
		e.Stats.IncrementFailed()
		var te *client.TransportError
		if errors.As(err, &te) && te.Timeout() {
			e.Logger.Warn("fetch timed out", e.Logger.Args("url", t.URL))
		} else {
			e.Logger.Warn("fetch failed", e.Logger.Args("url", t.URL, "error", err))
		}
		return "", resolver.Context{}, false
	}
	e.Stats.IncrementFetched(len(resp.Body))

	text := DecodeBody(resp.Body, resp.Header)

	rctx, err := resolver.NewContext(resp.FinalURL, t.URL)
	if err != nil {
		e.Logger.Warn("unusable response url", e.Logger.Args("url", t.URL, "error", err))
		return "", resolver.Context{}, false
	}
	if !rctx.JSDocument {
		if href, ok := BaseHref(text); ok {
			rctx = rctx.WithBase(href)
		}
	}

	e.Logger.Debug("fetched", e.Logger.Args("url", t.URL, "status", resp.StatusCode, "bytes", len(resp.Body), "depth", t.Depth))
	return text, rctx, true
}

// record stores a and appends a follow-up task when a is new and its kind
// may still descend at the parent's depth.
func (e *Engine) record(a store.Artifact, parent Task, next []Task) []Task {
	if !e.Store.Record(a) {
		return next
	}
	if a.Kind == store.KindAPI && a.Sensitive {
		e.Logger.Warn("[SENSITIVE API]", e.Logger.Args("url", a.URL, "source", a.Source))
	}

	if e.ceiling(a.Kind) < parent.Depth {
		return next
	}
	if a.Kind == store.KindJS && e.Extractor.IsBundled(a.URL) {
		return next
	}
	return append(next, Task{URL: a.URL, Depth: parent.Depth + 1, Origin: a.Kind})
}

func (e *Engine) ceiling(k store.Kind) int {
	switch k {
	case store.KindJS:
		return e.JSSteps
	case store.KindURL, store.KindAPI:
		return e.URLSteps
	default:
		return 0
	}
}
