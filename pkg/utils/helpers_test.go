package utils

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTarget(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"https://ex.com/app", "https://ex.com/app", true},
		{"  ex.com  ", "https://ex.com", true},
		{"http://ex.com:8080", "http://ex.com:8080", true},
		{"", "", false},
		{"http://", "http://", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeTarget(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "abcdefg...", TruncateString("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", TruncateString("abcdef", 2))
	assert.Equal(t, "日本語", TruncateString("日本語", 3))
}

func TestUniqueStrings(t *testing.T) {
	assert.Equal(t, []string{"b", "a", "c"}, UniqueStrings([]string{"b", "a", "b", "c", "a"}))
	assert.Nil(t, UniqueStrings(nil))
}

func TestLoadSeeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seeds.txt")
	require.NoError(t, os.WriteFile(path, []byte("# comment\n https://a.test \n\nb.test\n"), 0o600))

	seeds, err := LoadSeeds(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.test", "b.test"}, seeds)

	_, err = LoadSeeds(filepath.Join(t.TempDir(), "nope.txt"))
	var seedErr *SeedFileError
	require.ErrorAs(t, err, &seedErr)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestWriteFilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, WriteFile(path, []byte("x")))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	assert.True(t, FileExists(path))
	assert.False(t, FileExists(path+".missing"))
}
