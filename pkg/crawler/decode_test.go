package crawler

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"net/http"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `<script src="/static/app.js"></script>`

func header(kv ...string) http.Header {
	h := http.Header{}
	for i := 0; i+1 < len(kv); i += 2 {
		h.Set(kv[i], kv[i+1])
	}
	return h
}

func TestDecodeBodyCompression(t *testing.T) {
	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err := gw.Write([]byte(sample))
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	var br bytes.Buffer
	bw := brotli.NewWriter(&br)
	_, err = bw.Write([]byte(sample))
	require.NoError(t, err)
	require.NoError(t, bw.Close())

	var zl bytes.Buffer
	zw := zlib.NewWriter(&zl)
	_, err = zw.Write([]byte(sample))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	var raw bytes.Buffer
	fw, err := flate.NewWriter(&raw, flate.DefaultCompression)
	require.NoError(t, err)
	_, err = fw.Write([]byte(sample))
	require.NoError(t, err)
	require.NoError(t, fw.Close())

	tests := []struct {
		name     string
		body     []byte
		encoding string
	}{
		{"gzip", gz.Bytes(), "gzip"},
		{"gzip header on plain body", []byte(sample), "gzip"},
		{"brotli", br.Bytes(), "br"},
		{"zlib deflate", zl.Bytes(), "deflate"},
		{"raw deflate", raw.Bytes(), "deflate"},
		{"identity", []byte(sample), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeBody(tt.body, header("Content-Encoding", tt.encoding))
			assert.Equal(t, sample, got)
		})
	}
}

func TestDecodeBodyCharset(t *testing.T) {
	tests := []struct {
		name        string
		body        []byte
		contentType string
		want        string
	}{
		{"valid utf-8 untouched", []byte("café"), "", "café"},
		{"undeclared falls back to latin-1", []byte{'c', 'a', 'f', 0xe9}, "", "café"},
		{"declared windows-1252", []byte{0x80, '1'}, "text/html; charset=windows-1252", "€1"},
		{"declared utf-8 drops invalid bytes", []byte("ab\xffcd"), "text/html; charset=utf-8", "abcd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeBody(tt.body, header("Content-Type", tt.contentType)))
		})
	}
}

func TestBaseHref(t *testing.T) {
	href, ok := BaseHref(`<html><head><base href=" https://cdn.test/v2/ "></head></html>`)
	require.True(t, ok)
	assert.Equal(t, "https://cdn.test/v2/", href)

	_, ok = BaseHref(`<html><head><base target="_blank"></head></html>`)
	assert.False(t, ok)

	_, ok = BaseHref(`var x = 1;`)
	assert.False(t, ok)
}
