package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const searchAPIVersion = "2023-11-01"

// AzureIndex talks to an Azure Cognitive Search-style REST API.
type AzureIndex struct {
	endpoint   string
	apiKey     string
	indexName  string
	httpClient *http.Client
}

// NewAzureIndex constructs a client for the given search service.
func NewAzureIndex(endpoint, apiKey, indexName string) (*AzureIndex, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return nil, fmt.Errorf("SEARCH_ENDPOINT is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("SEARCH_ADMIN_KEY is required")
	}
	if strings.TrimSpace(indexName) == "" {
		return nil, fmt.Errorf("SEARCH_INDEX_NAME is required")
	}
	return &AzureIndex{
		endpoint:   endpoint,
		apiKey:     apiKey,
		indexName:  indexName,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// EnsureIndex creates the index schema if it does not exist yet. Called once
// at startup, mirroring the record shape {id, filename, text, uploaded_at}.
func (a *AzureIndex) EnsureIndex(ctx context.Context) error {
	url := fmt.Sprintf("%s/indexes/%s?api-version=%s", a.endpoint, a.indexName, searchAPIVersion)
	status, _, err := a.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if status == http.StatusOK {
		return nil
	}
	if status != http.StatusNotFound {
		return fmt.Errorf("%w: lookup index returned status %d", ErrIndexingFailed, status)
	}

	schema := map[string]any{
		"name": a.indexName,
		"fields": []map[string]any{
			{"name": "id", "type": "Edm.String", "key": true},
			{"name": "filename", "type": "Edm.String", "searchable": true},
			{"name": "text", "type": "Edm.String", "searchable": true},
			{"name": "uploaded_at", "type": "Edm.String", "searchable": false},
		},
	}
	createURL := fmt.Sprintf("%s/indexes?api-version=%s", a.endpoint, searchAPIVersion)
	status, _, err = a.do(ctx, http.MethodPost, createURL, schema)
	if err != nil {
		return err
	}
	if status != http.StatusCreated {
		return fmt.Errorf("%w: create index returned status %d", ErrIndexingFailed, status)
	}
	return nil
}

type indexAction struct {
	Action     string `json:"@search.action"`
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	Text       string `json:"text"`
	UploadedAt string `json:"uploaded_at"`
}

type indexBatchResponse struct {
	Value []struct {
		Key          string `json:"key"`
		Status       bool   `json:"status"`
		ErrorMessage string `json:"errorMessage"`
	} `json:"value"`
}

func (a *AzureIndex) Upsert(ctx context.Context, doc Document) error {
	url := fmt.Sprintf("%s/indexes/%s/docs/index?api-version=%s", a.endpoint, a.indexName, searchAPIVersion)
	body := map[string]any{
		"value": []indexAction{{
			Action:     "mergeOrUpload",
			ID:         doc.ID,
			Filename:   doc.Filename,
			Text:       doc.Text,
			UploadedAt: doc.UploadedAt.UTC().Format(time.RFC3339),
		}},
	}
	status, raw, err := a.do(ctx, http.MethodPost, url, body)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusMultiStatus {
		return fmt.Errorf("%w: index write returned status %d", ErrIndexingFailed, status)
	}

	var resp indexBatchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("%w: decode index response: %v", ErrIndexingFailed, err)
	}
	for _, item := range resp.Value {
		if !item.Status {
			return fmt.Errorf("%w: %s", ErrIndexingFailed, item.ErrorMessage)
		}
	}
	return nil
}

type searchResponse struct {
	Value []struct {
		ID         string `json:"id"`
		Filename   string `json:"filename"`
		Text       string `json:"text"`
		UploadedAt string `json:"uploaded_at"`
	} `json:"value"`
}

func (a *AzureIndex) Search(ctx context.Context, query string, top int) ([]Document, error) {
	url := fmt.Sprintf("%s/indexes/%s/docs/search?api-version=%s", a.endpoint, a.indexName, searchAPIVersion)
	body := map[string]any{
		"search": query,
		"top":    top,
	}
	status, raw, err := a.do(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: search returned status %d", ErrSearchFailed, status)
	}

	var resp searchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode search response: %v", ErrSearchFailed, err)
	}
	docs := make([]Document, 0, len(resp.Value))
	for _, hit := range resp.Value {
		uploadedAt, _ := time.Parse(time.RFC3339, hit.UploadedAt)
		docs = append(docs, Document{
			ID:         hit.ID,
			Filename:   hit.Filename,
			Text:       hit.Text,
			UploadedAt: uploadedAt,
		})
	}
	return docs, nil
}

func (a *AzureIndex) do(ctx context.Context, method, url string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: encode request: %v", ErrIndexingFailed, err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: build request: %v", ErrIndexingFailed, err)
	}
	req.Header.Set("api-key", a.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrIndexingFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: read response: %v", ErrIndexingFailed, err)
	}
	return resp.StatusCode, raw, nil
}

var _ Index = (*AzureIndex)(nil)
