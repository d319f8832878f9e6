package routepath

import (
	"errors"
	"net/url"
	"strings"
)

// Result is a canonicalized path split from its query string.
type Result struct {
	// Path is the canonical path.
	Path string

	// Query is the raw query string without the leading "?".
	Query string

	// Changed reports whether canonicalization rewrote the path.
	Changed bool
}

// Path errors.
var (
	ErrEmptyPath            = errors.New("empty path")
	ErrInvalidPath          = errors.New("invalid path")
	ErrBackslashInPath      = errors.New("path contains backslash")
	ErrNullByteInPath       = errors.New("path contains null byte")
	ErrInvalidPercentEscape = errors.New("invalid percent escape sequence")
	ErrPathEscapesRoot      = errors.New("path escapes root via ..")
)

// Canonicalize normalizes a path. A query string, if present, is split off
// and returned untouched; a fragment is dropped.
//
// Backslashes, NUL bytes (literal or %00), malformed percent escapes, and
// ".." segments that climb above the root are rejected.
func Canonicalize(input string) (Result, error) {
	input, _, _ = strings.Cut(input, "#")
	path, query := SplitPathAndQuery(input)
	if path == "" {
		return Result{Path: "/", Query: query, Changed: true}, nil
	}

	if strings.ContainsRune(path, '\\') {
		return Result{}, ErrBackslashInPath
	}
	if strings.ContainsRune(path, 0) || strings.Contains(strings.ToUpper(path), "%00") {
		return Result{}, ErrNullByteInPath
	}
	if strings.ContainsRune(path, '%') {
		if err := checkEscapes(path); err != nil {
			return Result{}, err
		}
	}

	segments := make([]string, 0, strings.Count(path, "/")+1)
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(segments) == 0 {
				return Result{}, ErrPathEscapesRoot
			}
			segments = segments[:len(segments)-1]
		default:
			segments = append(segments, seg)
		}
	}

	canonical := "/" + strings.Join(segments, "/")
	return Result{
		Path:    canonical,
		Query:   query,
		Changed: canonical != path,
	}, nil
}

// checkEscapes verifies every "%" is followed by two hex digits.
func checkEscapes(path string) error {
	for i := 0; i < len(path); i++ {
		if path[i] != '%' {
			continue
		}
		if i+2 >= len(path) || !isHex(path[i+1]) || !isHex(path[i+2]) {
			return ErrInvalidPercentEscape
		}
		i += 2
	}
	return nil
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// ValidateNavPath checks a navigation target and returns it canonicalized,
// with its query string re-attached.
//
// Targets are relative to the base: they must start with "/" and must not
// be absolute or protocol-relative URLs.
func ValidateNavPath(path string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}
	if strings.HasPrefix(path, "//") || strings.Contains(path, "://") {
		return "", ErrInvalidPath
	}
	if !strings.HasPrefix(path, "/") {
		return "", ErrInvalidPath
	}

	res, err := Canonicalize(path)
	if err != nil {
		return "", err
	}
	if res.Query != "" {
		return res.Path + "?" + res.Query, nil
	}
	return res.Path, nil
}

// SplitPathAndQuery splits input at the first "?".
// The query is returned without the leading "?".
func SplitPathAndQuery(input string) (path, query string) {
	path, query, _ = strings.Cut(input, "?")
	return path, query
}

// DecodeSegment percent-decodes a single path segment.
func DecodeSegment(segment string) (string, error) {
	decoded, err := url.PathUnescape(segment)
	if err != nil {
		return "", ErrInvalidPercentEscape
	}
	return decoded, nil
}

// Segments splits a canonical path into its segments. The root has none.
func Segments(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
