package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"jshunter/pkg/utils"

	"github.com/go-resty/resty/v2"
)

// Response is a fetched document. Body is the raw payload, still encoded as
// the server sent it.
type Response struct {
	FinalURL   string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// TransportError wraps a failed fetch: timeout, refused or reset
// connection, bad URL.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the fetch ran out of time.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

type SmartClient struct {
	client       *resty.Client
	antiDetect   *AntiDetection
	session      *Session
	proxies      *ProxyManager
	maxBodyBytes int64
}

func NewSmartClient(config *utils.Config) *SmartClient {
	proxies := NewProxyManager(config.Scanner.Proxies)

	r := resty.New()
	r.SetTransport(NewCustomTransport(config.Scanner.VerifyTLS, proxies.ProxyFunc()))
	r.SetTimeout(config.Timeout())
	// a failed fetch is abandoned, never retried
	r.SetRetryCount(0)
	r.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	// cookies come from the static session only
	r.SetCookieJar(nil)

	return &SmartClient{
		client: r,
		antiDetect: NewAntiDetection(
			config.AntiDetection.Enabled,
			config.AntiDetection.Headers,
			config.AntiDetection.UserAgents,
		),
		session:      NewSession(config.Scanner.Cookie),
		proxies:      proxies,
		maxBodyBytes: config.MaxBodyBytes(),
	}
}

// AntiDetection exposes the header and jitter helper.
func (c *SmartClient) AntiDetection() *AntiDetection {
	return c.antiDetect
}

// Proxies returns the proxy rotation in use.
func (c *SmartClient) Proxies() *ProxyManager {
	return c.proxies
}

// Request returns a resty request carrying rotated headers and the session
// cookies.
func (c *SmartClient) Request(ctx context.Context) *resty.Request {
	req := c.client.R().SetContext(ctx).SetHeaders(c.antiDetect.Headers(nil))
	if !c.session.Empty() {
		req.SetHeader("Cookie", c.session.Header())
	}
	return req
}

// Fetch issues a GET for rawURL with the given headers. A non-zero timeout
// bounds this one call. Any HTTP status is a successful fetch; only
// transport failures return an error, always a *TransportError.
func (c *SmartClient) Fetch(ctx context.Context, rawURL string, headers map[string]string, timeout time.Duration) (*Response, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req := c.client.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetDoNotParseResponse(true)
	if !c.session.Empty() {
		req.SetHeader("Cookie", c.session.Header())
	}

	resp, err := req.Get(rawURL)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	raw := resp.RawBody()
	defer raw.Close()

	body, err := io.ReadAll(io.LimitReader(raw, c.maxBodyBytes))
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: fmt.Errorf("read body: %w", err)}
	}

	finalURL := rawURL
	if rr := resp.RawResponse; rr != nil && rr.Request != nil && rr.Request.URL != nil {
		finalURL = rr.Request.URL.String()
	}

	return &Response{
		FinalURL:   finalURL,
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       body,
	}, nil
}
