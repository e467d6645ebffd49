package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// LocalExtractor reads PDF text in-process. It is the dev/test stand-in for
// the managed extraction service and expects canonical (PDF) bytes.
type LocalExtractor struct{}

func NewLocalExtractor() *LocalExtractor {
	return &LocalExtractor{}
}

func (e *LocalExtractor) Extract(ctx context.Context, data []byte) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("%w: open pdf: %v", ErrExtractionFailed, err)
	}

	var result Result
	for i := 1; i <= pdfReader.NumPage(); i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return Result{}, fmt.Errorf("%w: page %d: %v", ErrExtractionFailed, i, err)
		}
		var p Page
		for _, row := range rows {
			var b strings.Builder
			for _, word := range row.Content {
				b.WriteString(word.S)
			}
			if line := strings.TrimSpace(b.String()); line != "" {
				p.Lines = append(p.Lines, Line{Content: line})
			}
		}
		result.Pages = append(result.Pages, p)
	}
	return result, nil
}

var _ Extractor = (*LocalExtractor)(nil)
