package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseScanMode(t *testing.T) {
	tests := []struct {
		in      string
		want    ScanMode
		wantErr bool
	}{
		{"", ModeStandard, false},
		{"standard", ModeStandard, false},
		{" Quick ", ModeQuick, false},
		{"DEEP", ModeDeep, false},
		{"turbo", ModeStandard, true},
	}
	for _, tt := range tests {
		got, err := ParseScanMode(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestSteps(t *testing.T) {
	cfg := DefaultConfig()

	js, url := cfg.Steps()
	assert.Equal(t, [2]int{2, 1}, [2]int{js, url})

	cfg.Scanner.Mode = ModeQuick
	js, url = cfg.Steps()
	assert.Equal(t, [2]int{0, 0}, [2]int{js, url})

	cfg.Scanner.Mode = ModeDeep
	cfg.Scanner.MaxDepth = 4
	js, url = cfg.Steps()
	assert.Equal(t, [2]int{5, 4}, [2]int{js, url})

	cfg.Scanner.MaxDepth = 0
	js, url = cfg.Steps()
	assert.Equal(t, [2]int{2, 1}, [2]int{js, url}, "deep depth is at least 1")
}

func TestThreads(t *testing.T) {
	cfg := DefaultConfig()
	n := cfg.Threads()
	assert.GreaterOrEqual(t, n, minThreads)
	assert.LessOrEqual(t, n, maxThreads)
	assert.Equal(t, OptimalThreads(), n)

	cfg.Scanner.Threads = 3
	assert.Equal(t, 3, cfg.Threads())

	cfg.Scanner.Mode = ModeQuick
	assert.Equal(t, 1, cfg.Threads())
}

func TestTimeoutAndMaxURLs(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 5*time.Second, cfg.Timeout())
	assert.Equal(t, 50000, cfg.MaxURLs())

	cfg.Scanner.Timeout = "garbage"
	assert.Equal(t, defaultTimeout, cfg.Timeout())

	cfg.Scanner.Mode = ModeQuick
	cfg.Scanner.QuickTimeout = "1500ms"
	assert.Equal(t, 1500*time.Millisecond, cfg.Timeout())
	assert.Equal(t, 50, cfg.MaxURLs())

	cfg.Scanner.MaxURLs = 20
	assert.Equal(t, 20, cfg.MaxURLs())
}

func TestJitterRange(t *testing.T) {
	cfg := DefaultConfig()
	lo, hi := cfg.JitterRange()
	assert.Equal(t, 500*time.Millisecond, lo)
	assert.Equal(t, 2*time.Second, hi)

	cfg.AntiDetection.MaxDelay = "100ms"
	lo, hi = cfg.JitterRange()
	assert.Equal(t, lo, hi, "max is raised to min")

	cfg.AntiDetection.Enabled = false
	lo, hi = cfg.JitterRange()
	assert.Zero(t, lo)
	assert.Zero(t, hi)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
scanner:
  mode: deep
  max_depth: 2
  threads: 12
anti_detection:
  enabled: false
  headers:
    X-Team: red
features:
  api_scan: true
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ModeDeep, cfg.Scanner.Mode)
	assert.Equal(t, 12, cfg.Threads())
	assert.Equal(t, "5s", cfg.Scanner.Timeout, "unset keys keep defaults")
	assert.False(t, cfg.AntiDetection.Enabled)
	assert.Equal(t, "red", cfg.AntiDetection.Headers["X-Team"])
	assert.True(t, cfg.Features.APIScan)

	require.NoError(t, os.WriteFile(path, []byte("scanner:\n  mode: turbo\n"), 0o600))
	_, err = LoadConfig(path)
	assert.ErrorContains(t, err, "unknown scan mode")

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestScanModeYAMLRoundTrip(t *testing.T) {
	out, err := yaml.Marshal(ScannerConfig{Mode: ModeQuick})
	require.NoError(t, err)
	assert.Contains(t, string(out), "mode: quick")
}
