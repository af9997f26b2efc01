package cmd

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"jshunter/pkg/client"
	"jshunter/pkg/crawler"
	"jshunter/pkg/extractor"
	"jshunter/pkg/patterns"
	"jshunter/pkg/resolver"
	"jshunter/pkg/store"
	"jshunter/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProgress(lines *[]string) *progress {
	return &progress{
		label:    "Crawling...",
		interval: time.Millisecond,
		render:   func(line string) { *lines = append(*lines, line) },
	}
}

func TestProgressConcurrentSet(t *testing.T) {
	var lines []string
	p := newTestProgress(&lines)
	p.Start()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				p.Set(int64(w*100 + i))
			}
		}(w)
	}
	wg.Wait()
	p.Set(1000)
	p.Stop()

	require.NotEmpty(t, lines)
	assert.Equal(t, "Crawling... 1000 URLs dispatched", lines[len(lines)-1])
}

func TestProgressFollowsBatchCrawl(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	cfg := utils.DefaultConfig()
	cfg.AntiDetection.Enabled = false
	cfg.Scanner.Threads = 8

	catalog, err := patterns.Default()
	require.NoError(t, err)
	st := store.New()
	engine := crawler.NewEngine(cfg, client.NewSmartClient(cfg), st, extractor.New(catalog, resolver.New(st)))
	engine.Logger = utils.QuietLogger()

	var lines []string
	p := newTestProgress(&lines)
	engine.OnDispatch = p.Set
	p.Start()

	seeds := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		seeds = append(seeds, fmt.Sprintf("%s/page/%d", srv.URL, i))
	}
	engine.CrawlBatch(context.Background(), seeds, 0)
	p.Stop()

	require.NotEmpty(t, lines)
	assert.Equal(t, "Crawling... 20 URLs dispatched", lines[len(lines)-1])
}
