package tweet

import (
	"testing"
	"time"
)

func TestNew_Valid(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("ART", -3*3600))
	tw, err := New("1764000000000000001", ts, "Sube la Inflación", "es", true, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tw.ID() != "1764000000000000001" {
		t.Errorf("unexpected id %q", tw.ID())
	}
	if tw.CreatedAt().Location() != time.UTC || tw.CreatedAt().Hour() != 15 {
		t.Errorf("expected UTC normalized time, got %v", tw.CreatedAt())
	}
	if tw.FoldedText() != "sube la inflacion" {
		t.Errorf("unexpected folded text %q", tw.FoldedText())
	}
	if !tw.IsRetweet() || tw.HasMedia() {
		t.Error("unexpected flags")
	}
	if tw.Embedding() != nil {
		t.Error("expected no embedding on a new tweet")
	}
}

func TestNew_Invalid(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		id   string
		at   time.Time
		body string
	}{
		{"empty id", "", now, "x"},
		{"non-numeric id", "abc", now, "x"},
		{"negative id", "-1", now, "x"},
		{"overflow id", "18446744073709551616", now, "x"},
		{"zero time", "1", time.Time{}, "x"},
		{"empty text", "1", now, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.id, tt.at, tt.body, "", false, false); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestWithEmbedding(t *testing.T) {
	tw, _ := New("42", time.Now(), "hola", "", false, false)
	with := tw.WithEmbedding([]float32{0.1, 0.2})
	if len(with.Embedding()) != 2 {
		t.Error("expected embedding on the copy")
	}
	if tw.Embedding() != nil {
		t.Error("original must stay unchanged")
	}
}
