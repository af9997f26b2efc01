package patterns

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogCompiles(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	for _, skipped := range c.Skipped {
		t.Errorf("default template skipped: %v", skipped)
	}

	require.Len(t, c.JS, 4)
	assert.Equal(t, []string{"linkfinder", "script", "loader", "bare"}, tierNames(c.JS))
	for _, tier := range c.JS {
		assert.Equal(t, tier.Name == "script", tier.Fetchable, tier.Name)
	}
	assert.Equal(t, []string{"literal", "callsite", "catchall"}, tierNames(c.API))
	assert.Len(t, c.URL, 4)
	assert.NotEmpty(t, c.Bundled)
	assert.NotEmpty(t, c.SensitivePaths)
	assert.Contains(t, c.PageExtensions, ".php")

	var names []string
	for _, cat := range c.Secrets {
		names = append(names, cat.Name)
		assert.NotEmpty(t, cat.Patterns, cat.Name)
	}
	assert.Contains(t, names, "email")
	assert.Contains(t, names, "jwt")
	assert.Contains(t, names, "aws_key")
}

func TestCompileSkipsMalformedTemplate(t *testing.T) {
	c := Compile(RawCatalog{
		JS: []RawTier{{
			Name:     "broken",
			Patterns: []string{`"(/ok\.js)"`, `(unclosed`, `'(/also\.js)'`},
		}},
	})

	require.Len(t, c.JS, 1)
	assert.Len(t, c.JS[0].Patterns, 2)
	require.Len(t, c.Skipped, 1)

	skipped := c.Skipped[0]
	assert.Equal(t, "js.broken", skipped.Group)
	assert.Equal(t, 1, skipped.Index)

	var pe *PatternError
	assert.True(t, errors.As(error(skipped), &pe))
}

func TestTierFlagsApplied(t *testing.T) {
	c := Compile(RawCatalog{
		API: []RawTier{{Name: "ci", Flags: "i", Patterns: []string{`fetch\("([^"]+)"`}}},
	})
	require.Len(t, c.API[0].Patterns, 1)
	assert.True(t, c.API[0].Patterns[0].MatchString(`FETCH("/x")`))
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	data := []byte("bundled:\n  - '/js/chunk-[a-f0-9]+\\.js'\npage_extensions:\n  - .HTML\n")
	require.NoError(t, os.WriteFile(path, data, 0600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, c.Bundled, 1)
	assert.Equal(t, []string{".html"}, c.PageExtensions)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMatchAny(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	assert.True(t, MatchAny(c.JSNoise, "https://www.w3.org/1999/xhtml.js"))
	assert.False(t, MatchAny(c.JSNoise, "https://cdn.ex.com/app.js"))
}

func tierNames(tiers []Tier) []string {
	out := make([]string, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, t.Name)
	}
	return out
}
