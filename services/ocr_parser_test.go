package services

import (
	"math"
	"testing"
)

func TestParseOCROutputStripsMetadata(t *testing.T) {
	raw := "[OCR Extracted Text]\nWelcome to the demo\nSecond line\n[OCR Confidence: 0.87]\n[Image 640x480]"
	got := ParseOCROutput(raw)
	if got.Text != "Welcome to the demo\nSecond line" {
		t.Errorf("text = %q", got.Text)
	}
	if math.Abs(got.Confidence-0.87) > 1e-9 {
		t.Errorf("confidence = %v, want 0.87", got.Confidence)
	}
}

func TestParseOCROutputCommaDecimal(t *testing.T) {
	got := ParseOCROutput("Slide title\n[OCR Confidence: 0,92]")
	if math.Abs(got.Confidence-0.92) > 1e-9 {
		t.Errorf("confidence = %v, want 0.92", got.Confidence)
	}
}

func TestParseOCROutputNoConfidence(t *testing.T) {
	got := ParseOCROutput("Just some text")
	if got.Confidence != 0 {
		t.Errorf("confidence = %v, want 0 when annotation absent", got.Confidence)
	}
	if got.Text != "Just some text" {
		t.Errorf("text = %q", got.Text)
	}
}

func TestParseOCROutputEmpty(t *testing.T) {
	got := ParseOCROutput("   \n  ")
	if got.Text != "" || got.Confidence != 0 {
		t.Errorf("expected zero value, got %+v", got)
	}
}

func TestNormalizeForDedup(t *testing.T) {
	a := NormalizeForDedup("Hello,   World!")
	b := NormalizeForDedup("hello world")
	if a != b {
		t.Errorf("normalized forms differ: %q vs %q", a, b)
	}
}

func TestDedupHashStable(t *testing.T) {
	h1 := DedupHash("Slide 1: Introduction.")
	h2 := DedupHash("slide 1  introduction")
	if h1 != h2 {
		t.Error("equivalent texts must hash identically")
	}
	if h1 == DedupHash("completely different") {
		t.Error("distinct texts must not collide")
	}
}
