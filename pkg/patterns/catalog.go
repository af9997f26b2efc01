// Package patterns holds the regular-expression catalog the extractors run.
// A Catalog is compiled once and never mutated afterwards; every extractor
// shares the same instance.
package patterns

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

// RawTier is an ordered list of templates sharing the same regexp flags.
// Fetchable marks a tier whose matches the browser loads as written, so
// bare and ./-relative names are not module specifiers there.
type RawTier struct {
	Name      string   `yaml:"name"`
	Flags     string   `yaml:"flags"`
	Fetchable bool     `yaml:"fetchable"`
	Patterns  []string `yaml:"patterns"`
}

type RawCategory struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
}

type RawFingerprint struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
}

// RawCatalog is the on-disk form of a Catalog.
type RawCatalog struct {
	JS              []RawTier        `yaml:"js"`
	API             []RawTier        `yaml:"api"`
	URL             []RawTier        `yaml:"url"`
	Secrets         []RawCategory    `yaml:"secrets"`
	Bundled         []string         `yaml:"bundled"`
	JSNoise         []string         `yaml:"js_noise"`
	URLNoise        []string         `yaml:"url_noise"`
	StaticResources []string         `yaml:"static_resources"`
	APIKeywords     []string         `yaml:"api_keywords"`
	PageExtensions  []string         `yaml:"page_extensions"`
	SensitivePaths  []string         `yaml:"sensitive_paths"`
	Frameworks      []RawFingerprint `yaml:"frameworks"`
}

type Tier struct {
	Name      string
	Fetchable bool
	Patterns  []*regexp.Regexp
}

type Category struct {
	Name     string
	Patterns []*regexp.Regexp
}

type Fingerprint struct {
	Name    string
	Pattern *regexp.Regexp
}

// Catalog is the compiled, read-only pattern set.
type Catalog struct {
	JS      []Tier
	API     []Tier
	URL     []Tier
	Secrets []Category

	Bundled         []*regexp.Regexp
	JSNoise         []*regexp.Regexp
	URLNoise        []*regexp.Regexp
	StaticResources []*regexp.Regexp
	APIKeywords     []*regexp.Regexp
	SensitivePaths  []*regexp.Regexp
	PageExtensions  []string
	Frameworks      []Fingerprint

	// Skipped lists templates that failed to compile.
	Skipped []*PatternError
}

// PatternError describes one malformed template. The template is skipped;
// the rest of its group still compiles.
type PatternError struct {
	Group    string
	Index    int
	Template string
	Err      error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("pattern %s[%d] %q: %v", e.Group, e.Index, e.Template, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and compiles a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var raw RawCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return Compile(raw), nil
}

// Compile turns a RawCatalog into a Catalog. Malformed templates are
// recorded in Skipped and left out.
func Compile(raw RawCatalog) *Catalog {
	c := &Catalog{}

	c.JS = c.compileTiers("js", raw.JS)
	c.API = c.compileTiers("api", raw.API)
	c.URL = c.compileTiers("url", raw.URL)

	for _, cat := range raw.Secrets {
		c.Secrets = append(c.Secrets, Category{
			Name:     cat.Name,
			Patterns: c.compileList("secrets."+cat.Name, "", cat.Patterns),
		})
	}

	c.Bundled = c.compileList("bundled", "", raw.Bundled)
	c.JSNoise = c.compileList("js_noise", "", raw.JSNoise)
	c.URLNoise = c.compileList("url_noise", "", raw.URLNoise)
	c.StaticResources = c.compileList("static_resources", "", raw.StaticResources)
	c.APIKeywords = c.compileList("api_keywords", "", raw.APIKeywords)
	c.SensitivePaths = c.compileList("sensitive_paths", "", raw.SensitivePaths)

	for _, ext := range raw.PageExtensions {
		if ext = strings.ToLower(strings.TrimSpace(ext)); ext != "" {
			c.PageExtensions = append(c.PageExtensions, ext)
		}
	}

	for i, fp := range raw.Frameworks {
		re, err := compile("i", fp.Pattern)
		if err != nil {
			c.Skipped = append(c.Skipped, &PatternError{Group: "frameworks." + fp.Name, Index: i, Template: fp.Pattern, Err: err})
			continue
		}
		c.Frameworks = append(c.Frameworks, Fingerprint{Name: fp.Name, Pattern: re})
	}

	return c
}

func (c *Catalog) compileTiers(group string, tiers []RawTier) []Tier {
	out := make([]Tier, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, Tier{
			Name:      t.Name,
			Fetchable: t.Fetchable,
			Patterns:  c.compileList(group+"."+t.Name, t.Flags, t.Patterns),
		})
	}
	return out
}

func (c *Catalog) compileList(group, flags string, templates []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(templates))
	for i, tpl := range templates {
		re, err := compile(flags, tpl)
		if err != nil {
			c.Skipped = append(c.Skipped, &PatternError{Group: group, Index: i, Template: tpl, Err: err})
			continue
		}
		out = append(out, re)
	}
	return out
}

func compile(flags, tpl string) (*regexp.Regexp, error) {
	if strings.TrimSpace(tpl) == "" {
		return nil, fmt.Errorf("empty template")
	}
	if flags != "" {
		tpl = "(?" + flags + ")" + tpl
	}
	return regexp.Compile(tpl)
}

// MatchAny reports whether s matches at least one of the expressions.
func MatchAny(list []*regexp.Regexp, s string) bool {
	for _, re := range list {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
