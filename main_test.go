package main

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

func writeFont(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "font.ttf")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunGlyphWithPositionalFont(t *testing.T) {
	out := t.TempDir()
	font := writeFont(t, goregular.TTF)
	code := run([]string{"-trace", "Error", "-o", out, "-size", "20", "-cells", "32", "-char", "I", font})
	if code != 0 {
		t.Fatalf("run returned %d, want 0", code)
	}
	if _, err := os.Stat(filepath.Join(out, "I.stl")); err != nil {
		t.Errorf("expected I.stl: %v", err)
	}
}

func TestRunReadsPositionalFont(t *testing.T) {
	junk := writeFont(t, []byte("not a font"))
	code := run([]string{"-trace", "Error", "-o", t.TempDir(), "-char", "I", junk})
	if code != 1 {
		t.Errorf("run with a corrupt positional font returned %d, want 1", code)
	}
}

func TestRunRejectsExtraArguments(t *testing.T) {
	if code := run([]string{"-trace", "Error", "a.ttf", "b.ttf"}); code != 2 {
		t.Errorf("run with two fonts returned %d, want 2", code)
	}
	if code := run([]string{"-no-such-flag"}); code != 2 {
		t.Errorf("run with an unknown flag returned %d, want 2", code)
	}
}

func TestRunPairExitCode(t *testing.T) {
	out := t.TempDir()
	code := run([]string{"-trace", "Error", "-o", out, "-size", "20", "-cells", "32", "-pair", "II"})
	if code != 0 {
		t.Fatalf("run returned %d, want 0", code)
	}
	if _, err := os.Stat(filepath.Join(out, "II.stl")); err != nil {
		t.Errorf("expected II.stl: %v", err)
	}
}
