package client

import (
	"net/http"
	"strings"
)

// Session is the static cookie set sent with every request.
type Session struct {
	Cookies []*http.Cookie
}

func NewSession(cookieStr string) *Session {
	return &Session{Cookies: parseCookies(cookieStr)}
}

// Empty reports whether the session carries no cookies.
func (s *Session) Empty() bool {
	return s == nil || len(s.Cookies) == 0
}

// Header renders the cookies as a Cookie header value.
func (s *Session) Header() string {
	if s.Empty() {
		return ""
	}
	parts := make([]string, 0, len(s.Cookies))
	for _, c := range s.Cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

func parseCookies(cookieStr string) []*http.Cookie {
	var cookies []*http.Cookie
	parts := strings.Split(cookieStr, ";")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) == 2 {
			cookies = append(cookies, &http.Cookie{
				Name:  strings.TrimSpace(kv[0]),
				Value: strings.TrimSpace(kv[1]),
			})
		}
	}
	return cookies
}
