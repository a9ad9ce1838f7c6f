package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SegmentKind identifies how a segment's text was produced
type SegmentKind string

const (
	KindWholeDocument SegmentKind = "whole_document"
	KindAudioWindow   SegmentKind = "audio_window"
	KindVideoFrame    SegmentKind = "video_frame_text"
)

// TimeRange covers the portion of the source media a segment was taken from,
// in seconds from the start of the file. Only audio/frame segments carry one.
type TimeRange struct {
	Start float64 `bson:"start" json:"start"`
	End   float64 `bson:"end" json:"end"`
}

// Segment is the atomic retrievable unit: one piece of extracted text plus its
// embedding vector. A segment is created once during ingestion and never
// mutated afterwards. Vector may be empty when the embedding call failed or
// has not been made; such segments always rank last during retrieval.
type Segment struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	SourceName string             `bson:"source_name" json:"source_name"`
	SegmentID  string             `bson:"segment_id" json:"segment_id"`
	Kind       SegmentKind        `bson:"kind" json:"kind"`
	TimeRange  *TimeRange         `bson:"time_range,omitempty" json:"time_range,omitempty"`
	Text       string             `bson:"text" json:"text"`
	Vector     []float32          `bson:"vector,omitempty" json:"-"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

// AudioSegmentID builds the canonical ID for a transcript window segment.
func AudioSegmentID(sourceName string, index int, start, end float64) string {
	return fmt.Sprintf("SEGMENT::AUDIO::%s::segment:%d::%.2f-%.2f", sourceName, index, start, end)
}

// FrameSegmentID builds the canonical ID for an on-screen-text segment.
func FrameSegmentID(sourceName, timestamp, frameFile string) string {
	return fmt.Sprintf("SEGMENT::FRAME::%s::frame:%s::%s", sourceName, timestamp, frameFile)
}

// DocumentInfo is the listing shape for stored sources: the name plus a short
// snippet of the extracted text.
type DocumentInfo struct {
	SourceName string `json:"source_name"`
	Snippet    string `json:"snippet"`
}

// Snippet truncates text for document listings, marking truncation with an
// ellipsis.
func Snippet(text string, maxLen int) string {
	r := []rune(text)
	if len(r) <= maxLen {
		return text
	}
	return string(r[:maxLen]) + "..."
}
