package crawler

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pterm/pterm"
)

// Stats tracks fetch statistics for one run
type Stats struct {
	TotalRequests int64
	FetchedCount  int64
	FailedCount   int64
	BytesRead     int64
	StartTime     time.Time
}

// NewStats creates a new stats tracker
func NewStats() *Stats {
	return &Stats{StartTime: time.Now()}
}

// IncrementTotal counts a fetch about to be issued
func (s *Stats) IncrementTotal() {
	atomic.AddInt64(&s.TotalRequests, 1)
}

// IncrementFetched counts a completed fetch and its body size
func (s *Stats) IncrementFetched(bytes int) {
	atomic.AddInt64(&s.FetchedCount, 1)
	atomic.AddInt64(&s.BytesRead, int64(bytes))
}

// IncrementFailed counts an abandoned fetch
func (s *Stats) IncrementFailed() {
	atomic.AddInt64(&s.FailedCount, 1)
}

// GetRPS calculates requests per second
func (s *Stats) GetRPS() float64 {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(atomic.LoadInt64(&s.TotalRequests)) / elapsed
}

// GetElapsed returns elapsed time
func (s *Stats) GetElapsed() time.Duration {
	return time.Since(s.StartTime)
}

func (s *Stats) GetTotal() int64 {
	return atomic.LoadInt64(&s.TotalRequests)
}

func (s *Stats) GetFetched() int64 {
	return atomic.LoadInt64(&s.FetchedCount)
}

func (s *Stats) GetFailed() int64 {
	return atomic.LoadInt64(&s.FailedCount)
}

// Print displays stats in a formatted table
func (s *Stats) Print() {
	pterm.DefaultSection.Println("Crawl Statistics")

	tableData := pterm.TableData{
		{"Metric", "Value"},
		{"Requests", fmt.Sprintf("%d", s.GetTotal())},
		{"Fetched", fmt.Sprintf("%d", s.GetFetched())},
		{"Failed", pterm.LightRed(fmt.Sprintf("%d", s.GetFailed()))},
		{"Downloaded", formatBytes(atomic.LoadInt64(&s.BytesRead))},
		{"RPS", fmt.Sprintf("%.2f", s.GetRPS())},
		{"Elapsed", s.GetElapsed().Round(time.Millisecond).String()},
	}

	pterm.DefaultTable.WithHasHeader().WithData(tableData).Render()
}

// Summary returns a one-line summary
func (s *Stats) Summary() string {
	return fmt.Sprintf("Requests: %d | Failed: %d | RPS: %.1f | Time: %s",
		s.GetTotal(), s.GetFailed(), s.GetRPS(), s.GetElapsed().Round(time.Second))
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
