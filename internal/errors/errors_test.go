package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "discovery error",
			code:    CodeDiscovery,
			wantMsg: "Pages directory not found or unreadable",
			wantCat: CategoryDiscovery,
		},
		{
			name:    "config read error",
			code:    CodeConfigRead,
			wantMsg: "Failed to read app config document",
			wantCat: CategoryIO,
		},
		{
			name:    "config error",
			code:    "E121",
			wantMsg: "Unknown underscore exclusion policy",
			wantCat: CategoryConfig,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "flag %q is required", "cwd")
	if err.Message != `flag "cwd" is required` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Category != CategoryCLI {
		t.Errorf("Category = %q, want %q", err.Category, CategoryCLI)
	}
}

func TestGenError_Error(t *testing.T) {
	err := New(CodeDiscovery).WithStage("scan").WithPath("src/pages")
	want := "E201: Pages directory not found or unreadable [scan]: src/pages"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	plain := &GenError{Message: "test error"}
	if plain.Error() != "test error" {
		t.Errorf("Error() = %q, want %q", plain.Error(), "test error")
	}
}

func TestGenError_Unwrap(t *testing.T) {
	err := New(CodeConfigRead).Wrap(fs.ErrNotExist)
	if !stderrors.Is(err, fs.ErrNotExist) {
		t.Error("errors.Is should see the wrapped fs.ErrNotExist")
	}
}

func TestHasCodeAndStageOf(t *testing.T) {
	base := New(CodeOutputWrite).WithStage("write-module")
	wrapped := fmt.Errorf("regenerate: %w", base)

	if !HasCode(wrapped, CodeOutputWrite) {
		t.Error("HasCode should find the code through fmt.Errorf wrapping")
	}
	if HasCode(wrapped, CodeDiscovery) {
		t.Error("HasCode matched the wrong code")
	}
	if HasCode(stderrors.New("plain"), CodeDiscovery) {
		t.Error("HasCode matched a plain error")
	}
	if got := StageOf(wrapped); got != "write-module" {
		t.Errorf("StageOf() = %q, want %q", got, "write-module")
	}
	if got := StageOf(stderrors.New("plain")); got != "" {
		t.Errorf("StageOf(plain) = %q, want empty", got)
	}
	if got := CodeOf(wrapped); got != CodeOutputWrite {
		t.Errorf("CodeOf() = %q, want %q", got, CodeOutputWrite)
	}
	if got := CodeOf(nil); got != "" {
		t.Errorf("CodeOf(nil) = %q, want empty", got)
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, CodeConfigRead) != nil {
		t.Error("FromError(nil) should be nil")
	}

	ge := New(CodeDiscovery)
	if FromError(fmt.Errorf("ctx: %w", ge), CodeConfigRead) != ge {
		t.Error("FromError should return the existing GenError")
	}

	plain := stderrors.New("disk full")
	got := FromError(plain, CodeConfigWrite)
	if got.Code != CodeConfigWrite || got.Wrapped != plain {
		t.Errorf("FromError(plain) = %+v", got)
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New(CodeDiscovery).
		WithStage("scan").
		WithPath("pages").
		Wrap(fs.ErrNotExist)

	out := err.Format()
	for _, want := range []string{
		"ERROR E201: Pages directory not found or unreadable",
		"stage: scan",
		"path:  pages",
		"cause: file does not exist",
		"Hint: Check the dir option",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("Format() contains ANSI codes with colors disabled")
	}
}

func TestFormatCompact(t *testing.T) {
	err := New(CodeConfigWrite).WithStage("write-config").WithPath("app.config.ts")
	want := "E203: Failed to write app config document (stage write-config): app.config.ts"
	if got := err.FormatCompact(); got != want {
		t.Errorf("FormatCompact() = %q, want %q", got, want)
	}
}

func TestFprint_PlainError(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	Fprint(&buf, stderrors.New("boom"))
	if !strings.Contains(buf.String(), "ERROR: boom") {
		t.Errorf("Fprint() = %q", buf.String())
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six seven", 10)
	for _, line := range lines {
		if len(line) > 10 {
			t.Errorf("line %q exceeds width", line)
		}
	}
	if strings.Join(lines, " ") != "one two three four five six seven" {
		t.Errorf("wrapText lost words: %v", lines)
	}
	if wrapText("", 10) != nil {
		t.Error("wrapText(\"\") should be nil")
	}
}
