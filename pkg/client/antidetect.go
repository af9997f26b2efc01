package client

import (
	"math/rand"
	"time"
)

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

var baseHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.9",
	"Accept-Encoding":           "gzip, deflate, br",
	"DNT":                       "1",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
}

// AntiDetection builds browser-like request headers and randomized delays.
type AntiDetection struct {
	Enabled    bool
	Custom     map[string]string
	UserAgents []string
}

// NewAntiDetection falls back to the built-in desktop browser pool when
// userAgents is empty.
func NewAntiDetection(enabled bool, custom map[string]string, userAgents []string) *AntiDetection {
	if len(userAgents) == 0 {
		userAgents = defaultUserAgents
	}
	return &AntiDetection{
		Enabled:    enabled,
		Custom:     custom,
		UserAgents: userAgents,
	}
}

// Headers returns the base header set with a rotated User-Agent, then the
// configured custom headers, then overrides. Later layers win.
func (a *AntiDetection) Headers(overrides map[string]string) map[string]string {
	headers := make(map[string]string, len(baseHeaders)+len(a.Custom)+len(overrides)+1)
	for k, v := range baseHeaders {
		headers[k] = v
	}
	if a.Enabled {
		headers["User-Agent"] = a.UserAgents[rand.Intn(len(a.UserAgents))]
	} else {
		headers["User-Agent"] = a.UserAgents[0]
	}
	for k, v := range a.Custom {
		headers[k] = v
	}
	for k, v := range overrides {
		headers[k] = v
	}
	return headers
}

// JitterDelay returns a uniformly random duration in [lo, hi].
func (a *AntiDetection) JitterDelay(lo, hi time.Duration) time.Duration {
	return jitter(lo, hi)
}

func jitter(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rand.Int63n(int64(hi-lo)+1))
}
