package extract

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

const (
	analyzeAPIVersion  = "2023-07-31"
	defaultPollEvery   = 2 * time.Second
	defaultPollTimeout = 2 * time.Minute
)

// AzureExtractor calls an Azure Document Intelligence-style REST API:
// submit the document for analysis, then poll the returned operation until
// it finishes.
type AzureExtractor struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	pollEvery  time.Duration
}

// NewAzureExtractor constructs a client for the given service endpoint.
func NewAzureExtractor(endpoint, apiKey string) (*AzureExtractor, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return nil, fmt.Errorf("EXTRACTOR_ENDPOINT is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("EXTRACTOR_KEY is required")
	}
	return &AzureExtractor{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultPollTimeout},
		pollEvery:  defaultPollEvery,
	}, nil
}

type analyzeLine struct {
	Content string `json:"content"`
}

type analyzePage struct {
	Lines []analyzeLine `json:"lines"`
}

type analyzeResult struct {
	Status string `json:"status"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
	AnalyzeResult *struct {
		Pages []analyzePage `json:"pages"`
	} `json:"analyzeResult,omitempty"`
}

func (e *AzureExtractor) Extract(ctx context.Context, data []byte) (Result, error) {
	opURL, err := e.submit(ctx, data)
	if err != nil {
		return Result{}, err
	}
	return e.poll(ctx, opURL)
}

func (e *AzureExtractor) submit(ctx context.Context, data []byte) (string, error) {
	url := fmt.Sprintf("%s/formrecognizer/documentModels/prebuilt-document:analyze?api-version=%s",
		e.endpoint, analyzeAPIVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrExtractionFailed, err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Ocp-Apim-Subscription-Key", e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: submit: %v", ErrExtractionFailed, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("%w: submit returned status %d", ErrExtractionFailed, resp.StatusCode)
	}
	opURL := resp.Header.Get("Operation-Location")
	if opURL == "" {
		return "", fmt.Errorf("%w: missing Operation-Location header", ErrExtractionFailed)
	}
	return opURL, nil
}

func (e *AzureExtractor) poll(ctx context.Context, opURL string) (Result, error) {
	deadline := time.Now().Add(defaultPollTimeout)
	for {
		if time.Now().After(deadline) {
			return Result{}, fmt.Errorf("%w: analysis did not finish within %s", ErrExtractionFailed, defaultPollTimeout)
		}

		status, err := e.fetch(ctx, opURL)
		if err != nil {
			return Result{}, err
		}
		switch status.Status {
		case "succeeded":
			return toResult(status), nil
		case "failed":
			msg := "analysis failed"
			if status.Error != nil {
				msg = status.Error.Message
			}
			return Result{}, fmt.Errorf("%w: %s", ErrExtractionFailed, msg)
		}

		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-time.After(e.pollEvery):
		}
	}
}

func (e *AzureExtractor) fetch(ctx context.Context, opURL string) (analyzeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opURL, nil)
	if err != nil {
		return analyzeResult{}, fmt.Errorf("%w: build poll request: %v", ErrExtractionFailed, err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return analyzeResult{}, fmt.Errorf("%w: poll: %v", ErrExtractionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return analyzeResult{}, fmt.Errorf("%w: poll returned status %d", ErrExtractionFailed, resp.StatusCode)
	}
	var out analyzeResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return analyzeResult{}, fmt.Errorf("%w: decode poll response: %v", ErrExtractionFailed, err)
	}
	return out, nil
}

func toResult(raw analyzeResult) Result {
	var result Result
	if raw.AnalyzeResult == nil {
		return result
	}
	for _, page := range raw.AnalyzeResult.Pages {
		var p Page
		for _, line := range page.Lines {
			p.Lines = append(p.Lines, Line{Content: line.Content})
		}
		result.Pages = append(result.Pages, p)
	}
	return result
}

var _ Extractor = (*AzureExtractor)(nil)
