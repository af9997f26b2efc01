package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"jshunter/pkg/client"
	"jshunter/pkg/crawler"
	"jshunter/pkg/extractor"
	"jshunter/pkg/patterns"
	"jshunter/pkg/prober"
	"jshunter/pkg/reporter"
	"jshunter/pkg/resolver"
	"jshunter/pkg/store"
	"jshunter/pkg/utils"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type crawlOptions struct {
	url          string
	file         string
	output       string
	cookie       string
	patterns     string
	quickTimeout string
	proxies      []string
	headers      []string
	threads      int
	depth        int
	rps          int

	scanURLs    bool
	scanAPI     bool
	scanSecrets bool
	scanAll     bool
	quick       bool
	deep        bool
	countOnly   bool
	probe       bool
	autoReport  bool
	verifyTLS   bool
}

var crawlOpts crawlOptions

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl targets for JavaScript, links, APIs and secrets",
	Long: `Crawl one target or a file of targets and mine every fetched document.

The crawler will:
  1. Fetch the seed and extract referenced JavaScript files
  2. Optionally extract links, API endpoints and sensitive values
  3. Follow what it found up to the depth of the scan mode
  4. Print the results and optionally export a report

Examples:
  jshunter crawl -u https://target.com --scan-all
  jshunter crawl -f targets.txt --quick --count-only
  jshunter crawl -u target.com --deep --depth 3 -o report.html`,
	Run: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	f := crawlCmd.Flags()
	f.StringVarP(&crawlOpts.url, "url", "u", "", "Target URL")
	f.StringVarP(&crawlOpts.file, "file", "f", "", "File with one target URL per line")
	f.StringVarP(&crawlOpts.output, "output", "o", "", "Report file (.json, .csv or .html)")
	f.StringVarP(&crawlOpts.cookie, "cookie", "c", "", "Cookie header sent with every request")
	f.StringArrayVarP(&crawlOpts.proxies, "proxy", "x", nil, "Proxy URL (repeatable, rotated round-robin)")
	f.StringArrayVarP(&crawlOpts.headers, "header", "H", nil, "Custom header (e.g. -H 'Authorization: Bearer token')")
	f.IntVarP(&crawlOpts.threads, "threads", "t", 0, "Concurrent seeds (default: derived from CPU count)")
	f.IntVar(&crawlOpts.depth, "depth", 0, "Recursion depth for --deep")
	f.IntVar(&crawlOpts.rps, "rps", 0, "Global request rate limit (0 = unlimited)")
	f.StringVar(&crawlOpts.quickTimeout, "quick-timeout", "", "Request timeout in quick mode (e.g. 10s)")
	f.StringVar(&crawlOpts.patterns, "patterns", "", "YAML pattern catalog replacing the built-in one")

	f.BoolVar(&crawlOpts.scanURLs, "scan-urls", false, "Extract generic links")
	f.BoolVar(&crawlOpts.scanAPI, "scan-api", false, "Extract API endpoints")
	f.BoolVar(&crawlOpts.scanSecrets, "scan-secrets", false, "Extract sensitive values")
	f.BoolVar(&crawlOpts.scanAll, "scan-all", false, "Enable every extractor")
	f.BoolVar(&crawlOpts.quick, "quick", false, "Quick mode: one fetch per target, no recursion")
	f.BoolVar(&crawlOpts.deep, "deep", false, "Deep mode: recurse up to --depth")
	f.BoolVar(&crawlOpts.countOnly, "count-only", false, "Print only result counts")
	f.BoolVar(&crawlOpts.probe, "probe", false, "Probe every result for status, size, title and soft 404s")
	f.BoolVar(&crawlOpts.autoReport, "auto-report", false, "Write an HTML report under ./results")
	f.BoolVar(&crawlOpts.verifyTLS, "verify-tls", false, "Verify TLS certificates")
}

// applyTo layers the command-line options over cfg.
func (o *crawlOptions) applyTo(cfg *utils.Config) error {
	if o.quick && o.deep {
		return errors.New("--quick and --deep are mutually exclusive")
	}
	switch {
	case o.quick:
		cfg.Scanner.Mode = utils.ModeQuick
	case o.deep:
		cfg.Scanner.Mode = utils.ModeDeep
	}

	if o.threads > 0 {
		cfg.Scanner.Threads = o.threads
	}
	if o.depth > 0 {
		cfg.Scanner.MaxDepth = o.depth
	}
	if o.quickTimeout != "" {
		if _, err := time.ParseDuration(o.quickTimeout); err != nil {
			return fmt.Errorf("invalid --quick-timeout: %w", err)
		}
		cfg.Scanner.QuickTimeout = o.quickTimeout
	}
	if o.rps > 0 {
		cfg.AntiDetection.RequestsPerSecond = o.rps
	}
	if o.cookie != "" {
		cfg.Scanner.Cookie = o.cookie
	}
	if len(o.proxies) > 0 {
		cfg.Scanner.Proxies = o.proxies
	}
	if o.patterns != "" {
		cfg.Scanner.Patterns = o.patterns
	}
	if o.verifyTLS {
		cfg.Scanner.VerifyTLS = true
	}

	for _, h := range o.headers {
		parts := strings.SplitN(h, ":", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
			return fmt.Errorf("invalid header %q, expected 'Name: value'", h)
		}
		if cfg.AntiDetection.Headers == nil {
			cfg.AntiDetection.Headers = make(map[string]string)
		}
		cfg.AntiDetection.Headers[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}

	cfg.Features.URLScan = cfg.Features.URLScan || o.scanURLs || o.scanAll
	cfg.Features.APIScan = cfg.Features.APIScan || o.scanAPI || o.scanAll
	cfg.Features.SecretScan = cfg.Features.SecretScan || o.scanSecrets || o.scanAll
	cfg.Features.Probe = cfg.Features.Probe || o.probe

	if o.output != "" {
		cfg.Output.Path = o.output
	}
	if o.countOnly {
		cfg.Output.CountOnly = true
	}
	return nil
}

func runCrawl(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	if err := crawlOpts.applyTo(cfg); err != nil {
		utils.Error.Println(err)
		return
	}

	if cfg.Output.Verbose {
		utils.InitLogger(true)
	}

	if (crawlOpts.url == "") == (crawlOpts.file == "") {
		utils.Error.Println("Specify exactly one of --url or --file")
		return
	}

	catalog, err := loadCatalog(cfg.Scanner.Patterns)
	if err != nil {
		utils.Error.Printf("Pattern catalog: %v\n", err)
		return
	}

	var (
		target string
		seeds  []string
	)
	if crawlOpts.url != "" {
		u, ok := utils.NormalizeTarget(crawlOpts.url)
		if !ok {
			utils.Error.Printf("Invalid target URL: %s\n", crawlOpts.url)
			return
		}
		target = u
	} else {
		seeds, err = loadSeeds(crawlOpts.file)
		if err != nil {
			var seedErr *utils.SeedFileError
			if errors.As(err, &seedErr) {
				utils.Error.Printf("Cannot read %s: %v\n", seedErr.Path, seedErr.Err)
				return
			}
			utils.Error.Println(err)
			return
		}
	}

	jsSteps, urlSteps := cfg.Steps()
	utils.Info.Printf("Mode: %s | Threads: %d | Timeout: %s | Steps: js=%d url=%d\n",
		cfg.Scanner.Mode, cfg.Threads(), cfg.Timeout(), jsSteps, urlSteps)

	st := store.New()
	ex := extractor.New(catalog, resolver.New(st))
	c := client.NewSmartClient(cfg)
	if n := c.Proxies().Count(); n > 0 {
		utils.Info.Printf("Using %d proxies\n", n)
	}
	engine := crawler.NewEngine(cfg, c, st, ex)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep := reporter.NewReporter(target)

	live := newProgress("Crawling...")
	engine.OnDispatch = live.Set
	live.Start()

	if target != "" {
		engine.CrawlSingle(ctx, target)
	} else {
		engine.CrawlBatch(ctx, seeds, cfg.MaxURLs())
	}

	live.Stop()
	counts := st.Counts()
	utils.Success.Printf("Found %d JS files, %d URLs, %d APIs\n", counts.JS, counts.URL, counts.API)
	if ctx.Err() != nil {
		utils.Warning.Println("Interrupted, showing partial results")
	}

	if cfg.Features.Probe && ctx.Err() == nil {
		probeSpinner, _ := pterm.DefaultSpinner.Start("Probing results...")
		if err := prober.New(c, st, cfg).Run(ctx); err != nil {
			probeSpinner.Warning(fmt.Sprintf("Probe stopped: %v", err))
		} else {
			probeSpinner.Success("Probe finished")
		}
	}

	snap := st.Snapshot()
	snap.SortFor(hostOf(target))

	if cfg.Output.CountOnly {
		reporter.PrintCount(st.Counts())
		utils.Info.Println(engine.Stats.Summary())
	} else {
		reporter.PrintResults(snap)
		engine.Stats.Print()
	}

	if cfg.Output.Path != "" {
		saveReport(rep, cfg.Output.Path, snap)
	}
	if crawlOpts.autoReport {
		saveReport(rep, reporter.AutoReportPath("results", target, cfg.Features, time.Now()), snap)
	}
}

func loadCatalog(path string) (*patterns.Catalog, error) {
	var (
		catalog *patterns.Catalog
		err     error
	)
	if path != "" {
		catalog, err = patterns.Load(path)
	} else {
		catalog, err = patterns.Default()
	}
	if err != nil {
		return nil, err
	}
	for _, skipped := range catalog.Skipped {
		utils.Warning.Printf("Skipping pattern: %v\n", skipped)
	}
	return catalog, nil
}

// loadSeeds reads the seed file and drops lines that are not usable URLs.
func loadSeeds(path string) ([]string, error) {
	lines, err := utils.LoadSeeds(path)
	if err != nil {
		return nil, err
	}

	seeds := make([]string, 0, len(lines))
	for _, line := range lines {
		u, ok := utils.NormalizeTarget(line)
		if !ok {
			utils.Warning.Printf("Skipping invalid target: %s\n", line)
			continue
		}
		seeds = append(seeds, u)
	}
	seeds = utils.UniqueStrings(seeds)
	utils.Info.Printf("Loaded %d targets from %s\n", len(seeds), path)
	return seeds, nil
}

func saveReport(rep *reporter.Reporter, path string, snap store.Snapshot) {
	if err := rep.GenerateReport(path, snap); err != nil {
		utils.Error.Printf("Failed to save report: %v\n", err)
		return
	}
	utils.Success.Printf("Report saved to %s\n", path)
}

func hostOf(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
