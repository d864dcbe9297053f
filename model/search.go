package model

import "strings"

// Span is a matched byte range [Start, End) within a cell text
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Highlighted is a cell text with the ranges matched by the search keyword
type Highlighted struct {
	Text  string `json:"text"`
	Spans []Span `json:"spans,omitempty"`
}

// Segment is a piece of a highlighted text
type Segment struct {
	Text  string
	Match bool
}

// Filter keeps the records where keyword is a substring of any field.
// An empty keyword keeps every record in the given order.
func Filter(records []Record, keyword string) []Record {
	filtered := make([]Record, 0, len(records))
	for _, r := range records {
		if Matches(r, keyword) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// Matches reports whether keyword occurs in any field of the record
func Matches(r Record, keyword string) bool {
	if keyword == "" {
		return true
	}
	for _, v := range r.values {
		if strings.Contains(v, keyword) {
			return true
		}
	}
	return false
}

// Highlight finds every non-overlapping occurrence of keyword in text, left to right.
// The keyword is matched literally.
func Highlight(text, keyword string) Highlighted {
	h := Highlighted{Text: text}
	if keyword == "" {
		return h
	}
	offset := 0
	for {
		i := strings.Index(text[offset:], keyword)
		if i < 0 {
			break
		}
		start := offset + i
		end := start + len(keyword)
		h.Spans = append(h.Spans, Span{Start: start, End: end})
		offset = end
	}
	return h
}

// Segments splits the text into alternating plain and matched pieces, empty pieces are dropped
func (h Highlighted) Segments() []Segment {
	var segments []Segment
	pos := 0
	for _, span := range h.Spans {
		if span.Start > pos {
			segments = append(segments, Segment{Text: h.Text[pos:span.Start]})
		}
		segments = append(segments, Segment{Text: h.Text[span.Start:span.End], Match: true})
		pos = span.End
	}
	if pos < len(h.Text) {
		segments = append(segments, Segment{Text: h.Text[pos:]})
	}
	return segments
}
