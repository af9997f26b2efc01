package cmd

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pterm/pterm"
)

// progress shows a live dispatch counter. Workers only store into the
// counter; one goroutine owns the rendering.
type progress struct {
	label    string
	interval time.Duration
	render   func(line string)
	onStop   func()

	count atomic.Int64
	stop  chan struct{}
	wg    sync.WaitGroup
}

func newProgress(label string) *progress {
	area, _ := pterm.DefaultArea.WithRemoveWhenDone().Start()
	p := &progress{label: label, interval: 100 * time.Millisecond}
	p.render = func(line string) { area.Update(line) }
	p.onStop = func() { _ = area.Stop() }
	return p
}

// Set records the latest dispatch count. Safe for concurrent use.
func (p *progress) Set(n int64) {
	p.count.Store(n)
}

func (p *progress) Start() {
	p.stop = make(chan struct{})
	p.wg.Add(1)
	go p.loop()
}

// Stop renders the final count and waits for the render goroutine.
func (p *progress) Stop() {
	close(p.stop)
	p.wg.Wait()
	if p.onStop != nil {
		p.onStop()
	}
}

func (p *progress) loop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	frames := pterm.DefaultSpinner.Sequence
	for i := 0; ; i++ {
		select {
		case <-p.stop:
			p.render(p.line(""))
			return
		case <-ticker.C:
			p.render(p.line(frames[i%len(frames)]))
		}
	}
}

func (p *progress) line(frame string) string {
	text := fmt.Sprintf("%s %d URLs dispatched", p.label, p.count.Load())
	if frame == "" {
		return text
	}
	return frame + " " + text
}
