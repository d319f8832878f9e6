package routepath

import (
	"fmt"
	"strings"
)

// SegmentKind identifies how a pattern segment matches.
type SegmentKind int

const (
	// Literal matches one segment by exact equality.
	Literal SegmentKind = iota
	// Param captures one segment (":name").
	Param
	// CatchAll captures the remaining segments ("*"). It must be last.
	CatchAll
)

// CatchAllParam is the parameter name a "*" segment captures into.
const CatchAllParam = "pathMatch"

// Segment is one parsed pattern segment.
type Segment struct {
	Kind SegmentKind
	// Value is the literal text for Literal and the parameter name otherwise.
	Value string
}

// Pattern is a parsed route pattern.
type Pattern struct {
	Raw      string
	Segments []Segment
}

// IsLiteral reports whether the pattern has no dynamic segments.
func (p Pattern) IsLiteral() bool {
	for _, s := range p.Segments {
		if s.Kind != Literal {
			return false
		}
	}
	return true
}

// PatternError describes why a pattern was rejected.
type PatternError struct {
	Pattern string
	Reason  string
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("pattern %q: %s", e.Pattern, e.Reason)
}

// ParsePattern parses and validates a route pattern.
//
// Valid patterns are "*", "/", or "/"-separated non-empty segments where
// each segment is a literal, a ":name" parameter, or a final "*".
// Patterns must already be canonical: no trailing slash, no "//", no "."
// or ".." segments, no query string or fragment.
func ParsePattern(raw string) (Pattern, error) {
	fail := func(reason string) (Pattern, error) {
		return Pattern{}, &PatternError{Pattern: raw, Reason: reason}
	}

	if raw == "" {
		return fail("empty pattern")
	}
	if raw == "*" {
		return Pattern{Raw: raw, Segments: []Segment{{Kind: CatchAll, Value: CatchAllParam}}}, nil
	}
	if raw[0] != '/' {
		return fail(`must start with "/"`)
	}
	if strings.ContainsAny(raw, "?#\\") {
		return fail("must not contain '?', '#' or '\\'")
	}
	if raw == "/" {
		return Pattern{Raw: raw}, nil
	}
	if strings.HasSuffix(raw, "/") {
		return fail("trailing slash")
	}

	parts := strings.Split(raw[1:], "/")
	segs := make([]Segment, 0, len(parts))
	seen := make(map[string]bool)

	for i, part := range parts {
		switch {
		case part == "":
			return fail("empty segment")
		case part == "." || part == "..":
			return fail("dot segment")
		case part == "*":
			if i != len(parts)-1 {
				return fail(`"*" must be the last segment`)
			}
			segs = append(segs, Segment{Kind: CatchAll, Value: CatchAllParam})
		case part[0] == ':':
			name := part[1:]
			if !isIdent(name) {
				return fail(fmt.Sprintf("invalid parameter name %q", name))
			}
			if seen[name] {
				return fail(fmt.Sprintf("duplicate parameter %q", name))
			}
			seen[name] = true
			segs = append(segs, Segment{Kind: Param, Value: name})
		case strings.ContainsAny(part, ":*"):
			return fail(fmt.Sprintf("segment %q mixes literal and dynamic syntax", part))
		default:
			if _, err := DecodeSegment(part); err != nil {
				return fail("invalid percent escape")
			}
			segs = append(segs, Segment{Kind: Literal, Value: part})
		}
	}

	return Pattern{Raw: raw, Segments: segs}, nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// Match tests a canonical path against the pattern and returns the
// captured parameters, percent-decoded.
func (p Pattern) Match(path string) (map[string]string, bool) {
	segs := Segments(path)
	params := make(map[string]string)

	for i, ps := range p.Segments {
		if ps.Kind == CatchAll {
			rest := strings.Join(segs[min(i, len(segs)):], "/")
			if decoded, err := DecodeSegment(rest); err == nil {
				rest = decoded
			}
			params[ps.Value] = rest
			return params, true
		}
		if i >= len(segs) {
			return nil, false
		}
		switch ps.Kind {
		case Literal:
			if segs[i] != ps.Value {
				return nil, false
			}
		case Param:
			v, err := DecodeSegment(segs[i])
			if err != nil {
				return nil, false
			}
			params[ps.Value] = v
		}
	}

	if len(segs) != len(p.Segments) {
		return nil, false
	}
	return params, true
}
