package search

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrIndexingFailed wraps failures writing a document record.
	ErrIndexingFailed = errors.New("indexing failed")
	// ErrSearchFailed wraps failures querying the index.
	ErrSearchFailed = errors.New("search failed")
)

// Document is an indexed text record. Records are immutable once written;
// re-uploading a filename writes a new record under a new id.
type Document struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Text       string    `json:"text"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Index stores keyed text records and answers keyword queries ranked by
// relevance.
type Index interface {
	Upsert(ctx context.Context, doc Document) error
	Search(ctx context.Context, query string, top int) ([]Document, error)
}
