// Package extractor mines one decoded document for script references, API
// endpoints, generic links and sensitive values.
package extractor

import (
	"strings"

	"jshunter/pkg/patterns"
	"jshunter/pkg/resolver"
	"jshunter/pkg/store"
)

// Extractor applies a pattern catalog and resolves what it finds. It holds
// no mutable state and is shared by every crawl task.
type Extractor struct {
	catalog  *patterns.Catalog
	resolver *resolver.Resolver
}

func New(catalog *patterns.Catalog, r *resolver.Resolver) *Extractor {
	return &Extractor{catalog: catalog, resolver: r}
}

// JS returns the scripts referenced by text. Noise hosts are dropped before
// resolution, and so are module specifiers unless the tier that matched
// them is fetchable.
func (e *Extractor) JS(text string, ctx resolver.Context) []store.Artifact {
	var candidates orderedSet
	for _, tier := range e.catalog.JS {
		for _, re := range tier.Patterns {
			for _, m := range re.FindAllStringSubmatch(text, -1) {
				v := firstGroup(m)
				if !resolver.IsJSPath(v) {
					continue
				}
				if tier.Fetchable || !IsModuleSpecifier(v) {
					candidates.add(v)
				}
			}
		}
	}

	var resolved orderedSet
	for _, c := range candidates.items {
		if patterns.MatchAny(e.catalog.JSNoise, c) {
			continue
		}
		if abs, ok := e.resolver.Resolve(c, ctx, ctx.JSDocument); ok {
			resolved.add(abs)
		}
	}

	return artifacts(resolved.items, ctx.Document, store.KindJS, nil)
}

// API returns endpoint candidates and the backend frameworks fingerprinted
// in text. Fingerprints are informational only.
func (e *Extractor) API(text string, ctx resolver.Context) ([]store.Artifact, []string) {
	var candidates orderedSet
	for _, tier := range e.catalog.API {
		for _, re := range tier.Patterns {
			for _, m := range re.FindAllStringSubmatch(text, -1) {
				if v := firstGroup(m); e.IsAPIEndpoint(v) {
					candidates.add(v)
				}
			}
		}
	}

	var resolved orderedSet
	for _, c := range candidates.items {
		if abs, ok := e.resolver.Resolve(c, ctx, ctx.JSDocument); ok {
			resolved.add(abs)
		}
	}

	return artifacts(resolved.items, ctx.Document, store.KindAPI, e.IsSensitive), e.DetectFrameworks(text)
}

// URLs returns generic link candidates that survive the noise filter.
func (e *Extractor) URLs(text string, ctx resolver.Context) []store.Artifact {
	var candidates orderedSet
	for _, tier := range e.catalog.URL {
		for _, re := range tier.Patterns {
			for _, m := range re.FindAllStringSubmatch(text, -1) {
				v := firstGroup(m)
				if v == "" || patterns.MatchAny(e.catalog.URLNoise, v) {
					continue
				}
				candidates.add(v)
			}
		}
	}

	var resolved orderedSet
	for _, c := range candidates.items {
		if abs, ok := e.resolver.Resolve(c, ctx, ctx.JSDocument); ok {
			resolved.add(abs)
		}
	}

	return artifacts(resolved.items, ctx.Document, store.KindURL, nil)
}

// Secrets groups every sensitive value in text by category. It returns
// false when no category matched.
func (e *Extractor) Secrets(text, source string) (store.Finding, bool) {
	matches := make(map[string][]string)
	for _, cat := range e.catalog.Secrets {
		var values orderedSet
		for _, re := range cat.Patterns {
			for _, m := range re.FindAllStringSubmatch(text, -1) {
				if v := firstGroup(m); v != "" {
					values.add(v)
				}
			}
		}
		if len(values.items) > 0 {
			matches[cat.Name] = values.items
		}
	}

	if len(matches) == 0 {
		return store.Finding{}, false
	}
	return store.Finding{Source: source, Matches: matches}, true
}

// IsModuleSpecifier reports whether ref is a bundler-internal module graph
// edge rather than a fetchable resource.
func IsModuleSpecifier(ref string) bool {
	for _, prefix := range []string{"./", "../", "@/", "~/"} {
		if strings.HasPrefix(ref, prefix) {
			return true
		}
	}
	return !strings.HasPrefix(ref, "http") && !strings.Contains(ref, "/")
}

// IsBundled reports whether u follows a hashed build-output naming scheme.
func (e *Extractor) IsBundled(u string) bool {
	return patterns.MatchAny(e.catalog.Bundled, u)
}

// IsSensitive reports whether u hits the sensitive path list.
func (e *Extractor) IsSensitive(u string) bool {
	return patterns.MatchAny(e.catalog.SensitivePaths, strings.ToLower(u))
}

func (e *Extractor) isStatic(u string) bool {
	return patterns.MatchAny(e.catalog.StaticResources, strings.ToLower(u))
}

// IsAPIEndpoint accepts a candidate that is not a static resource and
// either carries an API keyword or is a root-relative path that does not
// end in a page extension.
func (e *Extractor) IsAPIEndpoint(u string) bool {
	if u == "" || e.isStatic(u) {
		return false
	}
	lower := strings.ToLower(u)
	if patterns.MatchAny(e.catalog.APIKeywords, lower) {
		return true
	}
	if !strings.HasPrefix(u, "/") || len(u) < 2 {
		return false
	}

	p := lower
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	for _, ext := range e.catalog.PageExtensions {
		if strings.HasSuffix(p, ext) {
			return false
		}
	}
	return true
}

// DetectFrameworks lists the backend frameworks whose signature appears in
// text.
func (e *Extractor) DetectFrameworks(text string) []string {
	var found []string
	for _, fp := range e.catalog.Frameworks {
		if fp.Pattern.MatchString(text) {
			found = append(found, fp.Name)
		}
	}
	return found
}

// firstGroup picks the first non-empty capture group, or the whole match
// when the template has no groups or none of them matched.
func firstGroup(m []string) string {
	for _, g := range m[1:] {
		if g != "" {
			return strings.TrimSpace(g)
		}
	}
	return strings.TrimSpace(m[0])
}

func artifacts(urls []string, source string, kind store.Kind, sensitive func(string) bool) []store.Artifact {
	out := make([]store.Artifact, 0, len(urls))
	for _, u := range urls {
		a := store.Artifact{URL: u, Source: source, Kind: kind}
		if sensitive != nil {
			a.Sensitive = sensitive(u)
		}
		out = append(out, a)
	}
	return out
}

type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func (s *orderedSet) add(v string) {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}
