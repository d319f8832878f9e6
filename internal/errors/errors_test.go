package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		wantMsg  string
		wantKind Kind
	}{
		{
			name:     "empty route table",
			code:     CodeEmptyRouteTable,
			wantMsg:  "Route table is empty",
			wantKind: KindConfiguration,
		},
		{
			name:     "malformed path",
			code:     CodeMalformedPath,
			wantMsg:  "Malformed navigation path",
			wantKind: KindNavigationArgument,
		},
		{
			name:     "unknown code",
			code:     "N999",
			wantMsg:  "Unknown error",
			wantKind: KindRuntime,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", err.Kind, tt.wantKind)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestError_Error(t *testing.T) {
	err := New(CodeEmptyPath)
	if got, want := err.Error(), "N020: Navigation path is empty"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err = New(CodeMalformedPattern).WithDetailf("route %q", "/a//b")
	if got, want := err.Error(), `N002: Malformed route pattern: route "/a//b"`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	plain := Newf(KindRuntime, "boom %d", 1)
	if plain.Error() != "boom 1" {
		t.Errorf("Error() = %q, want %q", plain.Error(), "boom 1")
	}
}

func TestKindSentinels(t *testing.T) {
	cfg := New(CodeHistoryUnavailable)
	if !stderrors.Is(cfg, ErrConfiguration) {
		t.Error("configuration error should match ErrConfiguration")
	}
	if stderrors.Is(cfg, ErrNavigationArgument) {
		t.Error("configuration error should not match ErrNavigationArgument")
	}

	wrapped := fmt.Errorf("starting: %w", New(CodeEmptyPath))
	if !stderrors.Is(wrapped, ErrNavigationArgument) {
		t.Error("wrapped navigation error should match ErrNavigationArgument")
	}
}

func TestWrapAndFromError(t *testing.T) {
	cause := stderrors.New("socket closed")
	err := FromError(cause, CodeHistoryWrite)
	if !stderrors.Is(err, cause) {
		t.Error("FromError should wrap the cause")
	}
	if FromError(nil, CodeHistoryWrite) != nil {
		t.Error("FromError(nil) should return nil")
	}

	orig := New(CodeEmptyPath)
	if FromError(orig, CodeHistoryWrite) != orig {
		t.Error("FromError should return *Error unchanged")
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New(CodeMalformedPattern).
		WithDetail(`route "/a//b" contains an empty segment`).
		Wrap(stderrors.New("empty segment"))
	out := err.Format()

	for _, want := range []string{
		"ERROR N002: Malformed route pattern",
		`route "/a//b" contains an empty segment`,
		"Cause: empty segment",
		"Hint: ",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}

	if got := err.FormatCompact(); !strings.HasPrefix(got, "[configuration] N002:") {
		t.Errorf("FormatCompact() = %q", got)
	}
}

func TestPrint(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	Print(&buf, fmt.Errorf("boot: %w", New(CodeEmptyRouteTable)))
	if !strings.Contains(buf.String(), "ERROR N001") {
		t.Errorf("Print() = %q", buf.String())
	}

	buf.Reset()
	Print(&buf, stderrors.New("plain"))
	if !strings.Contains(buf.String(), "ERROR: plain") {
		t.Errorf("Print() = %q", buf.String())
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText(strings.Repeat("word ", 30), 20)
	for _, l := range lines {
		if len(l) > 20 {
			t.Errorf("line %q exceeds width", l)
		}
	}
	if wrapText("", 10) != nil {
		t.Error("wrapText(\"\") should be nil")
	}
}

func TestCodesRegistered(t *testing.T) {
	for _, code := range Codes() {
		tmpl, ok := Lookup(code)
		if !ok || tmpl.Message == "" {
			t.Errorf("code %s has no message", code)
		}
	}
}
