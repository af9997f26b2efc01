// Package resolver turns references found inside a document into absolute
// URLs.
package resolver

import (
	"fmt"
	"net/url"
	"strings"
)

// Context is the resolution state of one fetched document.
type Context struct {
	Scheme string
	Host   string
	Path   string

	// Document is the URL the document was requested under. Scripts are
	// indexed by that URL, so it is also the JS directory lookup key.
	Document   string
	JSDocument bool
}

// NewContext derives a Context from the post-redirect response URL.
func NewContext(finalURL, document string) (Context, error) {
	u, err := url.Parse(finalURL)
	if err != nil {
		return Context{}, fmt.Errorf("parse final url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return Context{}, fmt.Errorf("final url %q is not absolute", finalURL)
	}

	return Context{
		Scheme:     u.Scheme,
		Host:       u.Host,
		Path:       u.Path,
		Document:   document,
		JSDocument: IsJSPath(document),
	}, nil
}

// Origin returns scheme://host.
func (c Context) Origin() string {
	return c.Scheme + "://" + c.Host
}

// WithBase applies a <base href> value. Only an href that names a host
// overrides the context; anything else leaves it untouched.
func (c Context) WithBase(href string) Context {
	b, err := url.Parse(strings.TrimSpace(href))
	if err != nil || b.Host == "" {
		return c
	}
	if b.Scheme != "" {
		c.Scheme = b.Scheme
	}
	c.Host = b.Host
	c.Path = b.Path
	return c
}

// Directory is the document directory: the path with its last segment
// stripped, or the path itself when it already ends in "/".
func (c Context) Directory() string {
	p := c.Path
	if !strings.HasSuffix(p, "/") {
		if i := strings.LastIndex(p, "/"); i >= 0 {
			p = p[:i+1]
		} else {
			p = "/"
		}
	}
	return c.Origin() + p
}

// DirectoryIndex maps a recorded script URL to its containing directory.
type DirectoryIndex interface {
	JSDirectoryOf(jsURL string) (string, bool)
}

type Resolver struct {
	index DirectoryIndex
}

func New(index DirectoryIndex) *Resolver {
	return &Resolver{index: index}
}

// Resolve makes ref absolute. The second result is false when ref cannot be
// classified as an absolute, protocol-relative, root-relative or
// document-relative reference.
func (r *Resolver) Resolve(ref string, ctx Context, isJSSource bool) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}

	lower := strings.ToLower(ref)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return ref, true
	case strings.HasPrefix(ref, "//"):
		return ctx.Scheme + ":" + ref, true
	case strings.HasPrefix(ref, "/"):
		return ctx.Origin() + ref, true
	case hasScheme(ref):
		// javascript:, mailto:, data:, tel: and friends
		return "", false
	}

	base := ctx.Directory()
	if isJSSource && r.index != nil {
		if dir, ok := r.index.JSDirectoryOf(ctx.Document); ok {
			base = dir
		}
	}
	return join(base, ref)
}

func join(base, ref string) (string, bool) {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", false
	}
	rel, err := url.Parse(ref)
	if err != nil {
		// Not a parseable reference; fall back to plain concatenation.
		return base + ref, true
	}
	return b.ResolveReference(rel).String(), true
}

func hasScheme(ref string) bool {
	i := strings.Index(ref, ":")
	if i <= 0 {
		return false
	}
	for j, ch := range ref[:i] {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z':
		case j > 0 && (ch >= '0' && ch <= '9' || ch == '+' || ch == '-' || ch == '.'):
		default:
			return false
		}
	}
	return true
}

// IsJSPath reports whether u names a script: its path, before any query or
// fragment, ends in .js or .mjs.
func IsJSPath(u string) bool {
	if u == "" || strings.HasPrefix(strings.ToLower(u), "data:") {
		return false
	}
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	u = strings.ToLower(u)
	return strings.HasSuffix(u, ".js") || strings.HasSuffix(u, ".mjs")
}
