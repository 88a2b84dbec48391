package document

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// Kind classifies where a locator's bytes come from.
type Kind uint8

const (
	KindPath Kind = iota
	KindData
	KindFile
	KindRemote
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindFile:
		return "file"
	case KindRemote:
		return "remote"
	}
	return "path"
}

// Locator names a document source: a filesystem path, a file:// URL,
// an embedded data: URL, or any other URL resolved through a Fetcher.
type Locator struct {
	Raw    string
	Kind   Kind
	Scheme string
	Path   string // KindPath and KindFile
	Data   []byte // KindData
}

// ParseLocator classifies s. Single-letter schemes are Windows drive letters, not URLs.
func ParseLocator(s string) (Locator, error) {
	loc := Locator{Raw: s}
	if s == "" {
		return loc, fmt.Errorf("empty locator")
	}
	scheme, rest, ok := strings.Cut(s, ":")
	if !ok || len(scheme) < 2 || !validScheme(scheme) {
		loc.Kind, loc.Path = KindPath, s
		return loc, nil
	}
	loc.Scheme = strings.ToLower(scheme)
	switch loc.Scheme {
	case "data":
		data, err := decodeDataURL(rest)
		if err != nil {
			return loc, err
		}
		loc.Kind, loc.Data = KindData, data
	case "file":
		u, err := url.Parse(s)
		if err != nil {
			return loc, fmt.Errorf("parse file url: %w", err)
		}
		loc.Kind, loc.Path = KindFile, u.Path
		if loc.Path == "" {
			loc.Path = u.Opaque
		}
	default:
		loc.Kind = KindRemote
	}
	return loc, nil
}

func validScheme(s string) bool {
	for i, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return true
}

// decodeDataURL handles "[mediatype][;base64],payload".
func decodeDataURL(rest string) ([]byte, error) {
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("data url: missing comma")
	}
	if strings.HasSuffix(strings.ToLower(meta), ";base64") {
		payload = strings.Map(func(r rune) rune {
			if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
				return -1
			}
			return r
		}, payload)
		if unescaped, err := url.PathUnescape(payload); err == nil {
			payload = unescaped
		}
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		if err != nil {
			return nil, fmt.Errorf("data url: %w", err)
		}
		return data, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("data url: %w", err)
	}
	return []byte(s), nil
}

// Fetcher retrieves remote locators. The core ships none; callers plug in their transport.
type Fetcher interface {
	Fetch(ctx context.Context, loc Locator) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, loc Locator) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, loc Locator) ([]byte, error) { return f(ctx, loc) }
