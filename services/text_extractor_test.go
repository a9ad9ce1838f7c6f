package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type staticOCR struct {
	out string
	err error
}

func (s *staticOCR) Recognize(ctx context.Context, imagePath string) (string, error) {
	return s.out, s.err
}

func TestExtractPlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("some plain notes"), 0o644); err != nil {
		t.Fatal(err)
	}

	e := NewTextExtractor(&staticOCR{})
	got, err := e.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if got != "some plain notes" {
		t.Errorf("text = %q", got)
	}
}

func TestExtractCSVUsesPlainRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	if err := os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	e := NewTextExtractor(&staticOCR{})
	got, err := e.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if got != "a,b\n1,2\n" {
		t.Errorf("text = %q", got)
	}
}

func TestExtractImageStripsAnnotations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.png")
	if err := os.WriteFile(path, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}

	e := NewTextExtractor(&staticOCR{out: "Invoice total 42\n[OCR Confidence: 0.91]"})
	got, err := e.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if got != "Invoice total 42" {
		t.Errorf("text = %q", got)
	}
}

func TestExtractImageOCRFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.jpg")
	if err := os.WriteFile(path, []byte("jpg"), 0o644); err != nil {
		t.Fatal(err)
	}

	e := NewTextExtractor(&staticOCR{err: errors.New("service down")})
	if _, err := e.Extract(context.Background(), path); err == nil {
		t.Fatal("OCR failure must surface")
	}
}

func TestExtractUnsupportedFormat(t *testing.T) {
	e := NewTextExtractor(&staticOCR{})
	_, err := e.Extract(context.Background(), "archive.tar.gz")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}
