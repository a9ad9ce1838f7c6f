package services

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Recognizer is a streaming speech-recognition engine. PCM data is fed in
// buffer-sized increments; whenever the engine finalizes an utterance it
// returns its result as JSON. FinalResult flushes whatever remains at end of
// stream. Results carry either a word list with timings:
//
//	{"result":[{"word":"hello","start":0.12,"end":0.44}, ...]}
//
// or a plain transcript fallback: {"text":"hello world"}.
type Recognizer interface {
	AcceptWaveform(buf []byte) (result []byte, final bool)
	FinalResult() []byte
	Close() error
}

// RecognizerFactory opens a fresh recognizer for one audio stream. A single
// recognizer instance is stateful and cannot be shared across streams.
type RecognizerFactory func(sampleRate float64) (Recognizer, error)

// Word is one recognized word with its time bounds in seconds.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// TranscriptWindow is a re-chunked span of consecutive words.
type TranscriptWindow struct {
	Start float64
	End   float64
	Text  string
}

type recognizerResult struct {
	Result []Word `json:"result"`
	Text   string `json:"text"`
}

// parseRecognizerResult appends the words of one partial/final result to out.
// A malformed result is skipped; per-unit recognition loss is acceptable.
func parseRecognizerResult(raw []byte, out []Word) []Word {
	if len(raw) == 0 {
		return out
	}
	var res recognizerResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return out
	}
	if len(res.Result) > 0 {
		return append(out, res.Result...)
	}
	if res.Text != "" {
		// Transcript-only fallback: no timings available
		out = append(out, Word{Word: res.Text})
	}
	return out
}

// transcribeBufferSize is the PCM increment fed to the recognizer per call.
const transcribeBufferSize = 4096

// wavHeaderSize is the canonical RIFF header length of the ffmpeg-produced
// PCM WAV; the stream fed to the recognizer starts after it.
const wavHeaderSize = 44

// TranscribeWAV streams the audio file through a recognizer and collects all
// recognized words. Transcription is sequential: one decoder instance, fed in
// order.
func TranscribeWAV(wavPath string, newRecognizer RecognizerFactory) ([]Word, error) {
	f, err := os.Open(wavPath)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	if _, err := f.Seek(wavHeaderSize, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek past wav header: %w", err)
	}

	rec, err := newRecognizer(16000)
	if err != nil {
		return nil, fmt.Errorf("open recognizer: %w", err)
	}
	defer rec.Close()

	var words []Word
	buf := make([]byte, transcribeBufferSize)
	for {
		n, readErr := f.Read(buf)
		if n > 0 {
			if res, final := rec.AcceptWaveform(buf[:n]); final {
				words = parseRecognizerResult(res, words)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("read wav: %w", readErr)
		}
	}

	words = parseRecognizerResult(rec.FinalResult(), words)
	return words, nil
}

// BuildTimeWindows groups a time-ordered word stream into variable-length,
// non-overlapping transcript windows. A window opens at the first unconsumed
// word and nominally spans windowSeconds; any word starting inside the window
// joins it and may push the window's end out to that word's end time. The
// first word starting after the current end closes the window and opens the
// next one. Every input word lands in exactly one window.
func BuildTimeWindows(words []Word, windowSeconds int) []TranscriptWindow {
	var windows []TranscriptWindow
	if len(words) == 0 {
		return windows
	}

	currentStart := words[0].Start
	currentEnd := currentStart + float64(windowSeconds)
	var sb strings.Builder

	flush := func() {
		text := strings.TrimSpace(sb.String())
		if text != "" {
			windows = append(windows, TranscriptWindow{Start: currentStart, End: currentEnd, Text: text})
		}
	}

	for _, w := range words {
		if w.Start <= currentEnd {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(w.Word)
			if w.End > currentEnd {
				currentEnd = w.End
			}
		} else {
			flush()
			currentStart = w.Start
			currentEnd = currentStart + float64(windowSeconds)
			sb.Reset()
			sb.WriteString(w.Word)
		}
	}
	flush()

	return windows
}
