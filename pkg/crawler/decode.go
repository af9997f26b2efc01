package crawler

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/charmap"
)

var gzipMagic = []byte{0x1f, 0x8b}

// DecodeBody turns a raw response body into text. It never fails: a body
// that does not decompress is used as is, and bytes that are not valid in
// the detected charset are dropped or mapped through ISO-8859-1.
func DecodeBody(body []byte, header http.Header) string {
	body = decompress(body, header.Get("Content-Encoding"))
	return toUTF8(body, header.Get("Content-Type"))
}

func decompress(body []byte, contentEncoding string) []byte {
	enc := strings.ToLower(strings.TrimSpace(contentEncoding))

	var (
		r   io.Reader
		err error
	)
	switch {
	case strings.Contains(enc, "gzip"):
		// the header may outlive a body that was already inflated upstream
		if !bytes.HasPrefix(body, gzipMagic) {
			return body
		}
		var gz *gzip.Reader
		gz, err = gzip.NewReader(bytes.NewReader(body))
		if err == nil {
			defer gz.Close()
			r = gz
		}
	case enc == "br":
		r = brotli.NewReader(bytes.NewReader(body))
	case enc == "deflate":
		// servers disagree on whether deflate means zlib-wrapped or raw
		var zr io.ReadCloser
		zr, err = zlib.NewReader(bytes.NewReader(body))
		if err != nil {
			zr, err = flate.NewReader(bytes.NewReader(body)), nil
		}
		defer zr.Close()
		r = zr
	default:
		return body
	}
	if err != nil {
		return body
	}

	out, err := io.ReadAll(r)
	if err != nil {
		return body
	}
	return out
}

func toUTF8(body []byte, contentType string) string {
	if utf8.Valid(body) {
		return string(body)
	}

	enc, name, certain := charset.DetermineEncoding(body, contentType)
	switch {
	case name == "utf-8":
		return strings.ToValidUTF8(string(body), "")
	case !certain && name == "windows-1252":
		// nothing declared
		enc = charmap.ISO8859_1
	}

	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		out, _ = charmap.ISO8859_1.NewDecoder().Bytes(body)
	}
	return string(out)
}

// BaseHref returns the href of the document's first <base> element.
func BaseHref(text string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return "", false
	}
	href, ok := doc.Find("base[href]").First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return "", false
	}
	return strings.TrimSpace(href), true
}
