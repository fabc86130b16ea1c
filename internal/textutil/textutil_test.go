package textutil

import (
	"strings"
	"testing"
)

func TestRenderTemplate(t *testing.T) {
	out, err := RenderTemplate("{title} ({year})", map[string]string{
		"title": "Some Film",
		"year":  "1999",
	})
	if err != nil {
		t.Fatalf("RenderTemplate: %v", err)
	}
	if out != "Some Film (1999)" {
		t.Fatalf("rendered = %q", out)
	}
}

func TestRenderTemplateMissingKeys(t *testing.T) {
	_, err := RenderTemplate("{title} S{season}E{episode}", map[string]string{"title": "x"})
	if err == nil {
		t.Fatal("missing keys did not error")
	}
	if !strings.Contains(err.Error(), "season") || !strings.Contains(err.Error(), "episode") {
		t.Fatalf("error does not name the missing keys: %v", err)
	}
}

func TestPlaceholders(t *testing.T) {
	got := Placeholders("{title}/{title} S{season}E{episode}")
	want := []string{"episode", "season", "title"}
	if len(got) != len(want) {
		t.Fatalf("placeholders = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("placeholders = %v, want %v", got, want)
		}
	}
}

func TestValidateTemplate(t *testing.T) {
	allowed := map[string]struct{}{"title": {}, "year": {}}
	if err := ValidateTemplate("{title} ({year})", allowed); err != nil {
		t.Fatalf("valid template rejected: %v", err)
	}
	if err := ValidateTemplate("{title} {resolution}", allowed); err == nil {
		t.Fatal("unknown placeholder accepted")
	}
}

func TestCleanTitle(t *testing.T) {
	cases := map[string]string{
		"The.Big.Film":    "The Big Film",
		"some_show  name": "some show name",
		"  padded.title ": "padded title",
		"already clean":   "already clean",
	}
	for in, want := range cases {
		if got := CleanTitle(in); got != want {
			t.Fatalf("CleanTitle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGuessTitle(t *testing.T) {
	got := GuessTitle("Some Film [YIFY] 1080p BluRay x264")
	if strings.Contains(got, "1080p") || strings.Contains(got, "YIFY") || strings.Contains(got, "BluRay") {
		t.Fatalf("scene tokens survived: %q", got)
	}
	if !strings.Contains(got, "Some Film") {
		t.Fatalf("title lost: %q", got)
	}
}

func TestSanitizePathSegment(t *testing.T) {
	if got := SanitizePathSegment(`A/B\C`); got != "A-B-C" {
		t.Fatalf("separators: %q", got)
	}
	if got := SanitizePathSegment(`What? <A> "B": C|D*`); strings.ContainsAny(got, `<>:"|?*`) {
		t.Fatalf("reserved characters survived: %q", got)
	}
	if got := SanitizePathSegment("  plain  "); got != "plain" {
		t.Fatalf("trim: %q", got)
	}
}

func TestSanitizePathSegmentIdempotent(t *testing.T) {
	inputs := []string{`A/B: C?`, "normal", `x\y|z`}
	for _, in := range inputs {
		once := SanitizePathSegment(in)
		if twice := SanitizePathSegment(once); twice != once {
			t.Fatalf("not idempotent on %q: %q then %q", in, once, twice)
		}
	}
}
