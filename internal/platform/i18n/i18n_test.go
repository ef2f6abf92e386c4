package i18n

import (
	"testing"

	"golang.org/x/text/language"
)

func TestMatch(t *testing.T) {
	c := NewCatalog()

	cases := map[string]language.Tag{
		"ar":             language.Arabic,
		"ar-EG,ar;q=0.9": language.Arabic,
		"en-US":          language.English,
		"fr":             language.English, // unsupported falls back
		"":               language.English,
		"garbage;;;":     language.English,
	}
	for header, want := range cases {
		if got := c.Match(header); got != want {
			t.Fatalf("Match(%q) = %v, want %v", header, got, want)
		}
	}
}

func TestT(t *testing.T) {
	c := NewCatalog()

	if msg := c.T(language.Arabic, "error.not_found"); msg == "" || msg == "error.not_found" {
		t.Fatalf("expected arabic translation, got %q", msg)
	}
	if msg := c.T(language.English, "error.not_found"); msg != "Resource not found" {
		t.Fatalf("unexpected english message %q", msg)
	}
	if msg := c.T(language.Arabic, "no.such.key"); msg != "no.such.key" {
		t.Fatalf("missing key should echo the key, got %q", msg)
	}
}
