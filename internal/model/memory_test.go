package model

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestValidCategory(t *testing.T) {
	for _, cat := range Categories {
		if !ValidCategory(cat) {
			t.Errorf("expected %q valid", cat)
		}
	}
	for _, cat := range []string{"", "Pattern", "notes", "insight "} {
		if ValidCategory(cat) {
			t.Errorf("expected %q invalid", cat)
		}
	}
}

func TestClampRelevance(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{-0.5, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{7.3, 1},
	}
	for _, c := range cases {
		if got := ClampRelevance(c.in); got != c.want {
			t.Errorf("clamp(%f): expected %f, got %f", c.in, c.want, got)
		}
	}
}

func TestTruncateContent(t *testing.T) {
	short := "fits"
	if got := TruncateContent(short); got != short {
		t.Errorf("short content changed: %q", got)
	}
	long := strings.Repeat("x", MaxContentLen+500)
	got := TruncateContent(long)
	if len(got) != MaxContentLen {
		t.Errorf("expected %d bytes, got %d", MaxContentLen, len(got))
	}
}

func TestTruncateContentRuneBoundary(t *testing.T) {
	// Three-byte runes never divide MaxContentLen evenly, so a byte-index
	// cut would land mid-rune.
	long := strings.Repeat("日", MaxContentLen)
	got := TruncateContent(long)
	if len(got) > MaxContentLen {
		t.Errorf("expected at most %d bytes, got %d", MaxContentLen, len(got))
	}
	if !utf8.ValidString(got) {
		t.Error("truncation produced invalid UTF-8")
	}
	if len(got) < MaxContentLen-utf8.UTFMax {
		t.Errorf("backed off too far: %d bytes", len(got))
	}
}
