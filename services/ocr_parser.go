package services

import (
	"crypto/sha256"
	"encoding/base64"
	"regexp"
	"strconv"
	"strings"
)

// FrameText is the structured result of parsing one frame's OCR output.
type FrameText struct {
	Text       string
	Confidence float64
}

// The OCR service mixes recognized text with bracketed annotation lines.
// These prefixes mark metadata that must never reach the stored segment.
var ocrMetadataPrefixes = []string{
	"[ocr extracted",
	"[ocr confidence",
	"[image",
}

var (
	ocrConfidenceRe = regexp.MustCompile(`OCR Confidence:\s*([0-9.,]+)`)
	punctuationRe   = regexp.MustCompile(`[\p{P}]+`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
)

// ParseOCROutput separates the recognized text from the annotation lines the
// OCR service interleaves with it, and extracts the numeric confidence. An
// absent confidence annotation parses as 0, which the caller's threshold
// check then rejects.
func ParseOCROutput(raw string) FrameText {
	result := FrameText{}
	if strings.TrimSpace(raw) == "" {
		return result
	}

	if m := ocrConfidenceRe.FindStringSubmatch(raw); m != nil {
		// Some OCR locales emit a comma decimal separator
		s := strings.ReplaceAll(m[1], ",", ".")
		if c, err := strconv.ParseFloat(s, 64); err == nil {
			result.Confidence = c
		}
	}

	var kept []string
	for _, line := range strings.FieldsFunc(raw, func(r rune) bool { return r == '\n' || r == '\r' }) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if isOCRMetadataLine(line) {
			continue
		}
		kept = append(kept, line)
	}
	result.Text = strings.TrimSpace(strings.Join(kept, "\n"))

	return result
}

func isOCRMetadataLine(line string) bool {
	lower := strings.ToLower(line)
	for _, prefix := range ocrMetadataPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// NormalizeForDedup canonicalizes OCR text so that near-identical frames
// (same slide re-sampled a few seconds apart) hash to the same value:
// lower-case, punctuation stripped, whitespace collapsed.
func NormalizeForDedup(text string) string {
	t := strings.ToLower(text)
	t = punctuationRe.ReplaceAllString(t, "")
	t = whitespaceRe.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// DedupHash returns the hash key used for perceptual frame deduplication.
func DedupHash(text string) string {
	sum := sha256.Sum256([]byte(NormalizeForDedup(text)))
	return base64.StdEncoding.EncodeToString(sum[:])
}
