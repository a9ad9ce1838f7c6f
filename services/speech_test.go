package services

import (
	"strings"
	"testing"
)

func TestParseRecognizerResultWordList(t *testing.T) {
	raw := []byte(`{"result":[{"word":"hello","start":0.1,"end":0.4},{"word":"world","start":0.5,"end":0.9}]}`)
	words := parseRecognizerResult(raw, nil)
	if len(words) != 2 {
		t.Fatalf("got %d words, want 2", len(words))
	}
	if words[0].Word != "hello" || words[0].Start != 0.1 || words[0].End != 0.4 {
		t.Errorf("unexpected first word: %+v", words[0])
	}
}

func TestParseRecognizerResultTextFallback(t *testing.T) {
	words := parseRecognizerResult([]byte(`{"text":"hello world"}`), nil)
	if len(words) != 1 {
		t.Fatalf("got %d words, want 1", len(words))
	}
	if words[0].Word != "hello world" || words[0].Start != 0 || words[0].End != 0 {
		t.Errorf("unexpected fallback word: %+v", words[0])
	}
}

func TestParseRecognizerResultMalformed(t *testing.T) {
	existing := []Word{{Word: "keep"}}
	words := parseRecognizerResult([]byte(`{not json`), existing)
	if len(words) != 1 || words[0].Word != "keep" {
		t.Fatalf("malformed result must leave input untouched, got %+v", words)
	}
	if got := parseRecognizerResult(nil, existing); len(got) != 1 {
		t.Fatalf("empty result must leave input untouched, got %+v", got)
	}
}

func mkWords(spans ...[2]float64) []Word {
	words := make([]Word, 0, len(spans))
	for i, s := range spans {
		words = append(words, Word{Word: word(i), Start: s[0], End: s[1]})
	}
	return words
}

func word(i int) string {
	return string(rune('a' + i))
}

func TestBuildTimeWindowsEmpty(t *testing.T) {
	if got := BuildTimeWindows(nil, 15); len(got) != 0 {
		t.Fatalf("expected no windows, got %d", len(got))
	}
}

func TestBuildTimeWindowsSingleWindow(t *testing.T) {
	words := mkWords([2]float64{0, 1}, [2]float64{5, 6}, [2]float64{14, 14.5})
	windows := BuildTimeWindows(words, 15)
	if len(windows) != 1 {
		t.Fatalf("got %d windows, want 1", len(windows))
	}
	if windows[0].Start != 0 || windows[0].End != 15 {
		t.Errorf("window bounds = [%v,%v], want [0,15]", windows[0].Start, windows[0].End)
	}
	if windows[0].Text != "a b c" {
		t.Errorf("window text = %q", windows[0].Text)
	}
}

func TestBuildTimeWindowsSplitsAndExtends(t *testing.T) {
	// Word "b" starts inside the first window but ends past its nominal
	// bound, extending it. Word "c" starts after the extended end and
	// opens the second window.
	words := mkWords(
		[2]float64{0, 2},
		[2]float64{14, 17},
		[2]float64{17.5, 18},
	)
	windows := BuildTimeWindows(words, 15)
	if len(windows) != 2 {
		t.Fatalf("got %d windows, want 2", len(windows))
	}
	if windows[0].End != 17 {
		t.Errorf("first window end = %v, want extended 17", windows[0].End)
	}
	if windows[1].Start != 17.5 || windows[1].End != 32.5 {
		t.Errorf("second window = [%v,%v], want [17.5,32.5]", windows[1].Start, windows[1].End)
	}
	if windows[0].Text != "a b" || windows[1].Text != "c" {
		t.Errorf("window texts = %q / %q", windows[0].Text, windows[1].Text)
	}
}

func TestBuildTimeWindowsExhaustiveAndOrdered(t *testing.T) {
	words := mkWords(
		[2]float64{0, 1}, [2]float64{10, 11}, [2]float64{20, 21},
		[2]float64{40, 41}, [2]float64{41, 42}, [2]float64{70, 71},
	)
	windows := BuildTimeWindows(words, 15)

	total := 0
	prevEnd := -1.0
	for _, w := range windows {
		total += len(strings.Fields(w.Text))
		if w.Start <= prevEnd {
			t.Errorf("windows overlap: start %v <= previous end %v", w.Start, prevEnd)
		}
		prevEnd = w.End
	}
	if total != len(words) {
		t.Fatalf("windows hold %d words, want all %d", total, len(words))
	}
}
