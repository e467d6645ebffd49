package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Mubi-byte/thinktank/internal/convert"
	"github.com/Mubi-byte/thinktank/internal/extract"
	"github.com/Mubi-byte/thinktank/internal/search"
	"github.com/Mubi-byte/thinktank/internal/shared/metrics"
	"github.com/Mubi-byte/thinktank/internal/shared/storage/object"
	"github.com/Mubi-byte/thinktank/internal/shared/telemetry"
	"github.com/Mubi-byte/thinktank/internal/shared/util"
)

var (
	// ErrUnsupportedFileType is returned before any side effect when the
	// file extension is not in the ingestion allow list.
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrStorageWriteFailed wraps blob store failures.
	ErrStorageWriteFailed = errors.New("storage write failed")
)

// allowedExtensions is the ingestion allow list, checked case-insensitively.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
}

// IngestResult reports what the pipeline produced for one upload.
type IngestResult struct {
	// StoredFilename is the blob key, which differs from the upload name
	// when the document was converted to PDF.
	StoredFilename string
	DocumentID     string
	SizeBytes      int64
	TextLength     int
}

// Service runs the ingestion pipeline: validate, canonicalize, store,
// extract, index, and finally publish to the per-session store.
type Service struct {
	Store     object.ObjectStore
	Extractor extract.Extractor
	Index     search.Index
	Sessions  *SessionStore
}

// NewService wires the ingestion pipeline dependencies.
func NewService(store object.ObjectStore, extractor extract.Extractor, index search.Index, sessions *SessionStore) *Service {
	return &Service{Store: store, Extractor: extractor, Index: index, Sessions: sessions}
}

// Ingest processes one uploaded document. Validation and conversion happen
// before the storage write, so rejected or unconvertible files leave no blob
// behind. Later-stage failures may leave the blob stored without an index
// record; a re-upload of the same filename overwrites and re-indexes it.
func (s *Service) Ingest(ctx context.Context, filename string, data []byte, sessionID string) (IngestResult, error) {
	started := time.Now()
	metrics.IncUploadStarted()

	result, err := s.ingest(ctx, filename, data, sessionID)
	metrics.ObserveUploadDurationMs(float64(time.Since(started).Milliseconds()))
	if err != nil {
		metrics.IncUploadFailed()
		return IngestResult{}, err
	}
	metrics.IncUploadCompleted()
	return result, nil
}

func (s *Service) ingest(ctx context.Context, filename string, data []byte, sessionID string) (IngestResult, error) {
	name, err := util.SanitizeFileName(filename)
	if err != nil {
		return IngestResult{}, fmt.Errorf("%w: %v", ErrUnsupportedFileType, err)
	}

	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		return IngestResult{}, fmt.Errorf("%w: %s", ErrUnsupportedFileType, ext)
	}

	if convert.NeedsConversion(ext) {
		converted, err := convert.ToPDF(data)
		if err != nil {
			return IngestResult{}, err
		}
		data = converted
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ".pdf"
	}

	size, err := s.Store.Put(ctx, name, "application/pdf", bytes.NewReader(data))
	if err != nil {
		return IngestResult{}, fmt.Errorf("%w: %v", ErrStorageWriteFailed, err)
	}

	extracted, err := s.Extractor.Extract(ctx, data)
	if err != nil {
		return IngestResult{}, err
	}
	text := extracted.Text()

	doc := search.Document{
		ID:         uuid.NewString(),
		Filename:   name,
		Text:       text,
		UploadedAt: time.Now().UTC(),
	}
	if err := s.Index.Upsert(ctx, doc); err != nil {
		return IngestResult{}, err
	}

	s.Sessions.Set(sessionID, StoredDocument{Filename: name, Text: text})

	telemetry.Info("document.ingested", map[string]any{
		"filename":    name,
		"document_id": doc.ID,
		"size_bytes":  size,
		"text_length": len(text),
	})

	return IngestResult{
		StoredFilename: name,
		DocumentID:     doc.ID,
		SizeBytes:      size,
		TextLength:     len(text),
	}, nil
}
