package text

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestFold(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Inflación", "inflacion"},
		{"ÁRBOL Ñandú", "arbol nandu"},
		{"plain ascii", "plain ascii"},
		{"", ""},
		{"Pingüino", "pinguino"},
	}
	for _, tt := range tests {
		if got := Fold(tt.in); got != tt.want {
			t.Errorf("Fold(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWords(t *testing.T) {
	got := Words("la inflación, del 25%... ¿sube?")
	want := []string{"la", "inflación", "del", "25", "sube"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Words = %v, want %v", got, want)
	}
}

func TestDedupKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hola, Mundo!!", "hola mundo"},
		{"  hola   mundo  ", "hola mundo"},
		{"hola-mundo", "hola mundo"},
		{"$$$", ""},
		{"Sube la #inflación 🚀", "sube la inflación"},
	}
	for _, tt := range tests {
		if got := DedupKey(tt.in); got != tt.want {
			t.Errorf("DedupKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if DedupKey("Hola, mundo") != DedupKey("hola mundo!!!") {
		t.Error("expected near-duplicates to share a key")
	}
}

func TestTruncate(t *testing.T) {
	exact := strings.Repeat("á", 300)
	if got := Truncate(exact, 300); got != exact {
		t.Errorf("expected 300-rune text unchanged, got %d runes", utf8.RuneCountInString(got))
	}

	long := strings.Repeat("é", 301)
	got := Truncate(long, 300)
	if n := utf8.RuneCountInString(got); n != 300 {
		t.Errorf("expected 300 runes, got %d", n)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("expected ellipsis suffix, got %q", got[len(got)-8:])
	}
	if !strings.HasPrefix(got, strings.Repeat("é", 299)) {
		t.Error("expected first 299 runes preserved")
	}

	if got := Truncate("short", 300); got != "short" {
		t.Errorf("expected short text unchanged, got %q", got)
	}
}

func TestStopwords(t *testing.T) {
	for _, w := range []string{"de", "la", "mas", "esta", "tambien"} {
		if !IsStopword(w) {
			t.Errorf("expected %q to be a stop word", w)
		}
	}
	if IsStopword("inflacion") {
		t.Error("inflacion is not a stop word")
	}
	seen := map[string]bool{}
	for _, w := range Stopwords() {
		if seen[w] {
			t.Fatalf("duplicate stop word %q", w)
		}
		seen[w] = true
	}
}
