package routepath

import (
	"errors"
	"strings"
)

// ErrInvalidBase is returned by NormalizeBase for bases that cannot prefix a path.
var ErrInvalidBase = errors.New("invalid base path")

// NormalizeBase turns a deployment-supplied base into the form used by
// JoinBase and StripBase: "" for the domain root, otherwise a canonical
// path such as "/app". A missing leading slash is added and trailing
// slashes are removed.
func NormalizeBase(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "/" {
		return "", nil
	}
	if strings.ContainsAny(raw, "?#") || strings.Contains(raw, "://") {
		return "", ErrInvalidBase
	}

	res, err := Canonicalize("/" + strings.TrimLeft(raw, "/"))
	if err != nil {
		return "", errors.Join(ErrInvalidBase, err)
	}
	if res.Path == "/" {
		return "", nil
	}
	return res.Path, nil
}

// StripBase removes base from a browser-visible path.
//
// The match is case-insensitive and must end on a segment boundary, so the
// base "/app" strips "/APP/config" but not "/application". A path outside
// the base is returned unchanged. An empty remainder becomes "/".
func StripBase(base, browserPath string) string {
	if browserPath == "" {
		browserPath = "/"
	}
	if base == "" || len(browserPath) < len(base) {
		return browserPath
	}
	if !strings.EqualFold(browserPath[:len(base)], base) {
		return browserPath
	}

	rest := browserPath[len(base):]
	switch {
	case rest == "":
		return "/"
	case rest[0] == '/':
		return rest
	case rest[0] == '?':
		return "/" + rest
	default:
		return browserPath
	}
}

// HasBase reports whether browserPath lies under base.
func HasBase(base, browserPath string) bool {
	if base == "" {
		return true
	}
	if browserPath == "" {
		return false
	}
	return StripBase(base, browserPath) != browserPath
}

// JoinBase prepends base to an application path.
func JoinBase(base, path string) string {
	if path == "" {
		path = "/"
	}
	if base == "" {
		return path
	}
	if path == "/" {
		return base + "/"
	}
	if path[0] == '?' {
		return base + "/" + path
	}
	return base + path
}
