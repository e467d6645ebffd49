package extract

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newAnalyzeServer(t *testing.T, pollResponses []analyzeResult) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	polls := 0
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			if r.Header.Get("Ocp-Apim-Subscription-Key") != "api-key" {
				t.Errorf("missing subscription key header")
			}
			w.Header().Set("Operation-Location", srv.URL+"/operations/op-1")
			w.WriteHeader(http.StatusAccepted)
		case http.MethodGet:
			if polls >= len(pollResponses) {
				t.Errorf("unexpected extra poll %d", polls)
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			json.NewEncoder(w).Encode(pollResponses[polls])
			polls++
		}
	}))
	return srv
}

func succeededResult(lines ...string) analyzeResult {
	page := analyzePage{}
	for _, line := range lines {
		page.Lines = append(page.Lines, analyzeLine{Content: line})
	}
	return analyzeResult{
		Status: "succeeded",
		AnalyzeResult: &struct {
			Pages []analyzePage `json:"pages"`
		}{Pages: []analyzePage{page}},
	}
}

func TestAzureExtractorSubmitAndPoll(t *testing.T) {
	srv := newAnalyzeServer(t, []analyzeResult{
		{Status: "running"},
		succeededResult("first line", "second line"),
	})
	defer srv.Close()

	extractor, err := NewAzureExtractor(srv.URL, "api-key")
	if err != nil {
		t.Fatalf("NewAzureExtractor failed: %v", err)
	}
	extractor.pollEvery = time.Millisecond

	result, err := extractor.Extract(context.Background(), []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if got := result.Text(); got != "first line\nsecond line" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestAzureExtractorAnalysisFailure(t *testing.T) {
	srv := newAnalyzeServer(t, []analyzeResult{
		{Status: "failed", Error: &struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}{Code: "InvalidContent", Message: "document is corrupt"}},
	})
	defer srv.Close()

	extractor, err := NewAzureExtractor(srv.URL, "api-key")
	if err != nil {
		t.Fatalf("NewAzureExtractor failed: %v", err)
	}
	extractor.pollEvery = time.Millisecond

	_, err = extractor.Extract(context.Background(), []byte("junk"))
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}
}

func TestAzureExtractorSubmitRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	extractor, err := NewAzureExtractor(srv.URL, "api-key")
	if err != nil {
		t.Fatalf("NewAzureExtractor failed: %v", err)
	}

	_, err = extractor.Extract(context.Background(), []byte("junk"))
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}
}

func TestNewAzureExtractorValidation(t *testing.T) {
	if _, err := NewAzureExtractor("", "key"); err == nil {
		t.Fatal("expected error for empty endpoint")
	}
	if _, err := NewAzureExtractor("https://example.com", " "); err == nil {
		t.Fatal("expected error for empty key")
	}
}
