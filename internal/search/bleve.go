package search

import (
	"context"
	"fmt"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// BleveIndex is an embedded full-text index for single-node deployments and
// local development. It ranks keyword matches the same way the remote
// service does: by relevance score, best first.
type BleveIndex struct {
	index bleve.Index
}

// OpenBleve opens or creates a bleve index at path.
func OpenBleve(path string) (*BleveIndex, error) {
	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	return &BleveIndex{index: idx}, nil
}

// OpenBleveInMemory creates a non-persistent index, used in tests.
func OpenBleveInMemory() (*BleveIndex, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &BleveIndex{index: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Store = true

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("Filename", textFieldMapping)
	docMapping.AddFieldMappingsAt("Text", textFieldMapping)
	docMapping.AddFieldMappingsAt("UploadedAt", bleve.NewTextFieldMapping())

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}

// bleveDoc is the indexed shape; UploadedAt is held as RFC3339 text.
type bleveDoc struct {
	Filename   string
	Text       string
	UploadedAt string
}

func (b *BleveIndex) Upsert(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := b.index.Index(doc.ID, bleveDoc{
		Filename:   doc.Filename,
		Text:       doc.Text,
		UploadedAt: doc.UploadedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexingFailed, err)
	}
	return nil
}

func (b *BleveIndex) Search(ctx context.Context, query string, top int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequestOptions(q, top, 0, false)
	req.Fields = []string{"Filename", "Text", "UploadedAt"}

	results, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}

	docs := make([]Document, 0, len(results.Hits))
	for _, hit := range results.Hits {
		doc := Document{ID: hit.ID}
		if filename, ok := hit.Fields["Filename"].(string); ok {
			doc.Filename = filename
		}
		if text, ok := hit.Fields["Text"].(string); ok {
			doc.Text = text
		}
		if raw, ok := hit.Fields["UploadedAt"].(string); ok {
			doc.UploadedAt, _ = time.Parse(time.RFC3339, raw)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Close releases the underlying index files.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

var _ Index = (*BleveIndex)(nil)
