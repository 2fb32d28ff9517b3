package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fpang/ui-restyler/internal/backend"
	"github.com/fpang/ui-restyler/internal/restyle"
	"github.com/fpang/ui-restyler/internal/tokens"
)

func TestFormatDurationShort(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0ms"},
		{850 * time.Millisecond, "850ms"},
		{42*time.Second + 300*time.Millisecond, "42.3s"},
		{time.Minute, "1:00"},
		{3*time.Minute + 5*time.Second, "3:05"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
	}
	for _, tt := range tests {
		if got := FormatDurationShort(tt.in); got != tt.want {
			t.Errorf("FormatDurationShort(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPromptForPath(t *testing.T) {
	var out bytes.Buffer
	got := PromptForPath(strings.NewReader("  shot.png \n"), &out, "Screenshot", "")
	if got != "shot.png" {
		t.Errorf("expected shot.png, got %q", got)
	}
	if out.String() != "Screenshot: " {
		t.Errorf("unexpected prompt %q", out.String())
	}

	out.Reset()
	got = PromptForPath(strings.NewReader("\n"), &out, "Tokens", "tokens.json")
	if got != "tokens.json" {
		t.Errorf("expected default, got %q", got)
	}
	if out.String() != "Tokens [tokens.json]: " {
		t.Errorf("unexpected prompt %q", out.String())
	}

	if got := PromptForPath(strings.NewReader(""), &out, "Logo", "none"); got != "none" {
		t.Errorf("expected default on EOF, got %q", got)
	}
	if got := PromptForPath(strings.NewReader("no-newline.png"), &out, "Logo", ""); got != "no-newline.png" {
		t.Errorf("expected input without newline, got %q", got)
	}
}

func TestResolveImagePath(t *testing.T) {
	dir := t.TempDir()
	png := filepath.Join(dir, "shot.png")
	txt := filepath.Join(dir, "notes.txt")
	for _, p := range []string{png, txt} {
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := ResolveImagePath(png)
	if err != nil || got != png {
		t.Errorf("expected %s, got %q (%v)", png, got, err)
	}

	for _, bad := range []string{txt, dir, filepath.Join(dir, "missing.png")} {
		if _, err := ResolveImagePath(bad); err == nil {
			t.Errorf("expected error for %s", bad)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unavailable", &backend.Error{Kind: backend.KindUnavailable, Backend: "fal", Message: "no key"}, "FAL_KEY"},
		{"request failed", fmt.Errorf("step 1/2: %w", &backend.Error{Kind: backend.KindRequestFailed, Backend: "fal"}), "network"},
		{"unparseable", &backend.Error{Kind: backend.KindResponseUnparseable, Backend: "fal"}, "no usable image"},
		{"tokens", fmt.Errorf("invalid tokens: %w", tokens.ErrMalformedTokens), "malformed"},
		{"selection", restyle.ErrInvalidStepSelection, "not both"},
		{"missing image", restyle.ErrMissingImage, "screenshot"},
		{"other", errors.New("disk full"), "Restyle failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorMessage(tt.err); !strings.Contains(got, tt.want) {
				t.Errorf("ErrorMessage() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestUnavailableHintNamesExistingScript(t *testing.T) {
	msg := ErrorMessage(&backend.Error{Kind: backend.KindUnavailable, Backend: "fal"})
	const script = "scripts/setup-gpg-credentials.sh"
	if !strings.Contains(msg, script) {
		t.Fatalf("ErrorMessage() = %q, want it to mention %s", msg, script)
	}
	if _, err := os.Stat(filepath.Join("..", "..", script)); err != nil {
		t.Errorf("credential setup script missing: %v", err)
	}
}
