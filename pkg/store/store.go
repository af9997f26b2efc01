// Package store owns every piece of shared crawl state: the visited set, the
// per-kind dedup sets, the JS directory index, the domain set, the finding
// log and the progress counter. All of it sits behind one mutex, so each
// check-and-insert is a single atomic step.
package store

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
)

// Kind is the category of a discovered artifact.
type Kind int

const (
	KindURL Kind = iota
	KindJS
	KindAPI
)

func (k Kind) String() string {
	switch k {
	case KindJS:
		return "js"
	case KindURL:
		return "url"
	case KindAPI:
		return "api"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Artifact is one resolved URL of a given kind. Status, Size, Title,
// Redirect and SoftNotFound stay empty unless a probe pass fills them.
type Artifact struct {
	URL       string
	Source    string
	Kind      Kind
	Sensitive bool

	Status       int
	Size         int64
	Title        string
	Redirect     string
	SoftNotFound bool
}

// Enrichment is the result of probing one artifact URL.
type Enrichment struct {
	Status       int
	Size         int64
	Title        string
	Redirect     string
	SoftNotFound bool
}

// Finding groups every sensitive value matched in one document, keyed by
// category name.
type Finding struct {
	Source  string
	Matches map[string][]string
}

// Categories returns the finding's category names in sorted order.
func (f Finding) Categories() []string {
	names := make([]string, 0, len(f.Matches))
	for name := range f.Matches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type artifactKey struct {
	kind Kind
	url  string
}

// Store is safe for concurrent use.
type Store struct {
	mu sync.Mutex

	visited   map[string]struct{}
	seen      map[artifactKey]int
	artifacts []Artifact
	jsDirs    map[string]string
	domains   map[string]struct{}
	findings  []Finding
	progress  int64
}

func New() *Store {
	return &Store{
		visited: make(map[string]struct{}),
		seen:    make(map[artifactKey]int),
		jsDirs:  make(map[string]string),
		domains: make(map[string]struct{}),
	}
}

// NormalizeURL is the visited-set key: the percent-decoded URL, or the raw
// URL when it does not decode.
func NormalizeURL(raw string) string {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// MarkVisited reports whether u had not been dispatched before, marking it
// in the same step.
func (s *Store) MarkVisited(u string) bool {
	key := NormalizeURL(u)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.visited[key]; ok {
		return false
	}
	s.visited[key] = struct{}{}
	return true
}

// RecordArtifact records (kind, absURL) and reports whether this was its
// first occurrence. First writer wins.
func (s *Store) RecordArtifact(kind Kind, absURL, source string) bool {
	return s.Record(Artifact{URL: absURL, Source: source, Kind: kind})
}

// Record is RecordArtifact for a fully populated Artifact.
func (s *Store) Record(a Artifact) bool {
	key := artifactKey{kind: a.Kind, url: a.URL}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = len(s.artifacts)
	s.artifacts = append(s.artifacts, a)

	u, err := url.Parse(a.URL)
	if err != nil {
		return true
	}
	if u.Host != "" {
		s.domains[u.Host] = struct{}{}
	}
	if a.Kind == KindJS {
		if dir, ok := directoryOf(u); ok {
			s.jsDirs[a.URL] = dir
		}
	}
	return true
}

func directoryOf(u *url.URL) (string, bool) {
	if u.Scheme == "" || u.Host == "" {
		return "", false
	}
	i := strings.LastIndex(u.Path, "/")
	if i < 0 {
		return u.Scheme + "://" + u.Host + "/", true
	}
	return u.Scheme + "://" + u.Host + u.Path[:i+1], true
}

// JSDirectoryOf returns the directory of a recorded script.
func (s *Store) JSDirectoryOf(jsURL string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir, ok := s.jsDirs[jsURL]
	return dir, ok
}

// AddFinding appends f. Findings are never deduplicated across documents.
func (s *Store) AddFinding(f Finding) {
	s.mu.Lock()
	s.findings = append(s.findings, f)
	s.mu.Unlock()
}

// Dispatch increments the progress counter and returns the new value.
// It exists for progress display only.
func (s *Store) Dispatch() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.progress++
	return s.progress
}

// Progress returns the current dispatch count.
func (s *Store) Progress() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// Enrich applies probe results to every artifact recorded under u.
func (s *Store) Enrich(u string, e Enrichment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, kind := range []Kind{KindJS, KindURL, KindAPI} {
		i, ok := s.seen[artifactKey{kind: kind, url: u}]
		if !ok {
			continue
		}
		a := &s.artifacts[i]
		a.Status = e.Status
		a.Size = e.Size
		a.Title = e.Title
		a.Redirect = e.Redirect
		a.SoftNotFound = e.SoftNotFound
	}
}

// AllURLs returns every distinct recorded URL, JS first.
func (s *Store) AllURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(s.artifacts))
	out := make([]string, 0, len(s.artifacts))
	for _, kind := range []Kind{KindJS, KindURL, KindAPI} {
		for _, a := range s.artifacts {
			if a.Kind != kind {
				continue
			}
			if _, dup := seen[a.URL]; dup {
				continue
			}
			seen[a.URL] = struct{}{}
			out = append(out, a.URL)
		}
	}
	return out
}

// Counts summarizes the store.
type Counts struct {
	JS       int
	URL      int
	API      int
	Findings int
	Domains  int
}

func (s *Store) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := Counts{Findings: len(s.findings), Domains: len(s.domains)}
	for _, a := range s.artifacts {
		switch a.Kind {
		case KindJS:
			c.JS++
		case KindURL:
			c.URL++
		case KindAPI:
			c.API++
		}
	}
	return c
}

// Snapshot is a copy of the store taken under its lock.
type Snapshot struct {
	JS       []Artifact
	Links    []Artifact
	Findings []Finding
	Domains  []string
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snap Snapshot
	for _, a := range s.artifacts {
		switch a.Kind {
		case KindJS:
			snap.JS = append(snap.JS, a)
		case KindURL, KindAPI:
			snap.Links = append(snap.Links, a)
		}
	}

	snap.Findings = make([]Finding, 0, len(s.findings))
	for _, f := range s.findings {
		matches := make(map[string][]string, len(f.Matches))
		for k, v := range f.Matches {
			matches[k] = append([]string(nil), v...)
		}
		snap.Findings = append(snap.Findings, Finding{Source: f.Source, Matches: matches})
	}

	snap.Domains = make([]string, 0, len(s.domains))
	for d := range s.domains {
		snap.Domains = append(snap.Domains, d)
	}
	sort.Strings(snap.Domains)

	return snap
}

// SortFor orders artifacts so that those on targetHost come first, then by
// probe status class (unprobed, 2xx, 3xx, other) and finally by URL.
func (snap *Snapshot) SortFor(targetHost string) {
	less := func(list []Artifact) func(i, j int) bool {
		return func(i, j int) bool {
			a, b := list[i], list[j]
			at := targetHost != "" && strings.Contains(a.URL, targetHost)
			bt := targetHost != "" && strings.Contains(b.URL, targetHost)
			if at != bt {
				return at
			}
			if pa, pb := statusRank(a.Status), statusRank(b.Status); pa != pb {
				return pa < pb
			}
			return a.URL < b.URL
		}
	}
	sort.SliceStable(snap.JS, less(snap.JS))
	sort.SliceStable(snap.Links, less(snap.Links))
}

func statusRank(status int) int {
	switch {
	case status == 0:
		return 0
	case status >= 200 && status < 300:
		return 1
	case status >= 300 && status < 400:
		return 2
	default:
		return 3
	}
}
