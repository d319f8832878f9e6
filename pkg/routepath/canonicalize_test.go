package routepath

import (
	"errors"
	"reflect"
	"testing"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantPath    string
		wantQuery   string
		wantChanged bool
		wantErr     error
	}{
		{name: "root", input: "/", wantPath: "/"},
		{name: "empty string", input: "", wantPath: "/", wantChanged: true},
		{name: "literal", input: "/config", wantPath: "/config"},
		{name: "no leading slash", input: "config", wantPath: "/config", wantChanged: true},
		{name: "trailing slash", input: "/config/", wantPath: "/config", wantChanged: true},
		{name: "collapse slashes", input: "//files///a", wantPath: "/files/a", wantChanged: true},
		{name: "dot segments", input: "/files/./a/../b", wantPath: "/files/b", wantChanged: true},
		{name: "dot dot to root", input: "/config/..", wantPath: "/", wantChanged: true},
		{name: "query preserved", input: "/files?dir=%2Fsd", wantPath: "/files", wantQuery: "dir=%2Fsd"},
		{name: "fragment dropped", input: "/config#wifi", wantPath: "/config"},
		{name: "valid escape", input: "/files/a%20b", wantPath: "/files/a%20b"},
		{name: "backslash", input: `/files\a`, wantErr: ErrBackslashInPath},
		{name: "null byte literal", input: "/a\x00b", wantErr: ErrNullByteInPath},
		{name: "null byte encoded", input: "/a%00b", wantErr: ErrNullByteInPath},
		{name: "truncated escape", input: "/a%2", wantErr: ErrInvalidPercentEscape},
		{name: "bad escape", input: "/a%GG", wantErr: ErrInvalidPercentEscape},
		{name: "escape root", input: "/../secret", wantErr: ErrPathEscapesRoot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonicalize(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Canonicalize(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Canonicalize(%q) unexpected error: %v", tt.input, err)
			}
			if got.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", got.Path, tt.wantPath)
			}
			if got.Query != tt.wantQuery {
				t.Errorf("Query = %q, want %q", got.Query, tt.wantQuery)
			}
			if got.Changed != tt.wantChanged {
				t.Errorf("Changed = %v, want %v", got.Changed, tt.wantChanged)
			}
		})
	}
}

func TestValidateNavPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "root", input: "/", want: "/"},
		{name: "literal", input: "/config", want: "/config"},
		{name: "query kept", input: "/?dir=/sd", want: "/?dir=/sd"},
		{name: "canonicalized", input: "/config/", want: "/config"},
		{name: "empty", input: "", wantErr: ErrEmptyPath},
		{name: "relative", input: "config", wantErr: ErrInvalidPath},
		{name: "absolute URL", input: "https://evil.example/config", wantErr: ErrInvalidPath},
		{name: "protocol relative", input: "//evil.example", wantErr: ErrInvalidPath},
		{name: "escapes root", input: "/../x", wantErr: ErrPathEscapesRoot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateNavPath(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ValidateNavPath(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateNavPath(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ValidateNavPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSegments(t *testing.T) {
	if got := Segments("/"); got != nil {
		t.Errorf("Segments(/) = %v, want nil", got)
	}
	if got, want := Segments("/files/a"), []string{"files", "a"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Segments = %v, want %v", got, want)
	}
}

func TestDecodeSegment(t *testing.T) {
	got, err := DecodeSegment("a%20b")
	if err != nil || got != "a b" {
		t.Errorf("DecodeSegment = %q, %v", got, err)
	}
	if _, err := DecodeSegment("%zz"); !errors.Is(err, ErrInvalidPercentEscape) {
		t.Errorf("DecodeSegment(%%zz) error = %v", err)
	}
}
