package extract

import (
	"context"
	"errors"
	"strings"
)

// ErrExtractionFailed wraps any extractor failure so callers can map it to a
// single error class.
var ErrExtractionFailed = errors.New("extraction failed")

// Line is one line of recognized text.
type Line struct {
	Content string
}

// Page holds the lines recognized on one document page, in reading order.
type Page struct {
	Lines []Line
}

// Result is the structured page/line output of an extraction run.
type Result struct {
	Pages []Page
}

// Text assembles the document text by joining line content in document
// order, separated by line breaks. May be empty when the document carries
// no recognizable text.
func (r Result) Text() string {
	var b strings.Builder
	for _, page := range r.Pages {
		for _, line := range page.Lines {
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(line.Content)
		}
	}
	return b.String()
}

// Extractor converts canonical document bytes into structured page/line text.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (Result, error)
}
