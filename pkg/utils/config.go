package utils

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ScanMode selects how far a crawl descends from its seed.
type ScanMode int

const (
	ModeStandard ScanMode = iota
	ModeQuick
	ModeDeep
)

func (m ScanMode) String() string {
	switch m {
	case ModeQuick:
		return "quick"
	case ModeDeep:
		return "deep"
	case ModeStandard:
		return "standard"
	default:
		return fmt.Sprintf("ScanMode(%d)", int(m))
	}
}

// ParseScanMode maps a mode name to its ScanMode. An empty name is standard.
func ParseScanMode(s string) (ScanMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard":
		return ModeStandard, nil
	case "quick":
		return ModeQuick, nil
	case "deep":
		return ModeDeep, nil
	default:
		return ModeStandard, fmt.Errorf("unknown scan mode %q", s)
	}
}

func (m ScanMode) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

func (m *ScanMode) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseScanMode(value.Value)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Config represents the main configuration structure
type Config struct {
	Scanner       ScannerConfig       `yaml:"scanner"`
	AntiDetection AntiDetectionConfig `yaml:"anti_detection"`
	Features      FeatureConfig       `yaml:"features"`
	Output        OutputConfig        `yaml:"output"`
}

type ScannerConfig struct {
	Mode         ScanMode `yaml:"mode"`
	Threads      int      `yaml:"threads"`
	Timeout      string   `yaml:"timeout"`
	QuickTimeout string   `yaml:"quick_timeout"`
	MaxURLs      int      `yaml:"max_urls"`
	MaxDepth     int      `yaml:"max_depth"`
	MaxBodyBytes int64    `yaml:"max_body_bytes"`
	Cookie       string   `yaml:"cookie"`
	Proxies      []string `yaml:"proxies"`
	VerifyTLS    bool     `yaml:"verify_tls"`
	Patterns     string   `yaml:"patterns"`
}

type AntiDetectionConfig struct {
	Enabled           bool              `yaml:"enabled"`
	MinDelay          string            `yaml:"min_delay"`
	MaxDelay          string            `yaml:"max_delay"`
	RequestsPerSecond int               `yaml:"requests_per_second"`
	Headers           map[string]string `yaml:"headers"`
	UserAgents        []string          `yaml:"user_agents"`
}

type FeatureConfig struct {
	URLScan    bool `yaml:"url_scan"`
	APIScan    bool `yaml:"api_scan"`
	SecretScan bool `yaml:"secret_scan"`
	Probe      bool `yaml:"probe"`
}

type OutputConfig struct {
	Path      string `yaml:"path"`
	CountOnly bool   `yaml:"count_only"`
	Verbose   bool   `yaml:"verbose"`
}

const (
	minThreads = 10
	maxThreads = 100

	quickMaxURLs = 50

	defaultTimeout      = 5 * time.Second
	defaultQuickTimeout = 10 * time.Second
	defaultMaxURLs      = 50000
	defaultMaxBodyBytes = 10 * 1024 * 1024
)

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Scanner: ScannerConfig{
			Mode:         ModeStandard,
			Timeout:      defaultTimeout.String(),
			QuickTimeout: defaultQuickTimeout.String(),
			MaxURLs:      defaultMaxURLs,
			MaxDepth:     1,
			MaxBodyBytes: defaultMaxBodyBytes,
		},
		AntiDetection: AntiDetectionConfig{
			Enabled:  true,
			MinDelay: "500ms",
			MaxDelay: "2s",
		},
	}
}

// LoadConfig loads configuration from a YAML file on top of DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return config, nil
}

// OptimalThreads derives a worker count from the CPU count.
func OptimalThreads() int {
	n := runtime.NumCPU() * 8
	if n < minThreads {
		return minThreads
	}
	if n > maxThreads {
		return maxThreads
	}
	return n
}

// Threads is the scheduler pool size. Quick mode issues a single fetch and
// always gets a one-worker pool.
func (c *Config) Threads() int {
	switch c.Scanner.Mode {
	case ModeQuick:
		return 1
	case ModeStandard, ModeDeep:
		if c.Scanner.Threads > 0 {
			return c.Scanner.Threads
		}
		return OptimalThreads()
	default:
		return OptimalThreads()
	}
}

// Timeout is the per-request timeout for the configured mode.
func (c *Config) Timeout() time.Duration {
	switch c.Scanner.Mode {
	case ModeQuick:
		return parseDuration(c.Scanner.QuickTimeout, defaultQuickTimeout)
	default:
		return parseDuration(c.Scanner.Timeout, defaultTimeout)
	}
}

// MaxURLs caps the number of seeds taken from a batch file.
func (c *Config) MaxURLs() int {
	switch c.Scanner.Mode {
	case ModeQuick:
		if c.Scanner.MaxURLs > 0 && c.Scanner.MaxURLs < quickMaxURLs {
			return c.Scanner.MaxURLs
		}
		return quickMaxURLs
	default:
		if c.Scanner.MaxURLs > 0 {
			return c.Scanner.MaxURLs
		}
		return defaultMaxURLs
	}
}

// Steps returns the recursion ceilings for JS and URL/API artifacts.
func (c *Config) Steps() (jsSteps, urlSteps int) {
	depth := c.Scanner.MaxDepth
	if depth < 1 {
		depth = 1
	}
	switch c.Scanner.Mode {
	case ModeQuick:
		return 0, 0
	case ModeDeep:
		return depth + 1, depth
	case ModeStandard:
		return 2, 1
	default:
		return 2, 1
	}
}

// JitterRange returns the bounds of the randomized pre-fetch delay.
func (c *Config) JitterRange() (time.Duration, time.Duration) {
	if !c.AntiDetection.Enabled {
		return 0, 0
	}
	minDelay := parseDuration(c.AntiDetection.MinDelay, 0)
	maxDelay := parseDuration(c.AntiDetection.MaxDelay, minDelay)
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return minDelay, maxDelay
}

// MaxBodyBytes caps response bodies read by the transport.
func (c *Config) MaxBodyBytes() int64 {
	if c.Scanner.MaxBodyBytes > 0 {
		return c.Scanner.MaxBodyBytes
	}
	return defaultMaxBodyBytes
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}
