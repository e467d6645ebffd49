package convert

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"testing"
)

func buildDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create document.xml: %v", err)
	}
	body := ""
	for _, p := range paragraphs {
		body += fmt.Sprintf("<w:p><w:r><w:t>%s</w:t></w:r></w:p>", p)
	}
	doc := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>%s</w:body>
</w:document>`, body)
	if _, err := w.Write([]byte(doc)); err != nil {
		t.Fatalf("write document.xml: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestNeedsConversion(t *testing.T) {
	cases := map[string]bool{
		".doc":  true,
		".docx": true,
		".pdf":  false,
		".txt":  false,
		"":      false,
	}
	for ext, want := range cases {
		if got := NeedsConversion(ext); got != want {
			t.Fatalf("NeedsConversion(%q) = %v, want %v", ext, got, want)
		}
	}
}

func TestToPDFProducesPDF(t *testing.T) {
	data := buildDocx(t, "First paragraph.", "Second paragraph.")

	out, err := ToPDF(data)
	if err != nil {
		t.Fatalf("ToPDF failed: %v", err)
	}
	if len(out) < 4 || string(out[:4]) != "%PDF" {
		t.Fatalf("output is not a PDF, starts with %q", out[:min(8, len(out))])
	}
}

func TestToPDFRejectsLegacyDoc(t *testing.T) {
	// OLE compound file magic, as legacy .doc files carry.
	legacy := []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	_, err := ToPDF(legacy)
	if !errors.Is(err, ErrConversionFailed) {
		t.Fatalf("expected ErrConversionFailed, got %v", err)
	}
}

func TestToPDFRejectsEmptyInput(t *testing.T) {
	if _, err := ToPDF(nil); !errors.Is(err, ErrConversionFailed) {
		t.Fatal("expected ErrConversionFailed for empty input")
	}
}

func TestToPDFRejectsZipWithoutDocument(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("unrelated.txt")
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if _, err := w.Write([]byte("nope")); err != nil {
		t.Fatalf("write entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	if _, err := ToPDF(buf.Bytes()); !errors.Is(err, ErrConversionFailed) {
		t.Fatal("expected ErrConversionFailed for archive without document.xml")
	}
}

func TestDocxTextStripsMarkup(t *testing.T) {
	data := buildDocx(t, "Hello world.")
	text, err := docxText(data)
	if err != nil {
		t.Fatalf("docxText failed: %v", err)
	}
	if !bytes.Contains([]byte(text), []byte("Hello world.")) {
		t.Fatalf("expected paragraph text, got %q", text)
	}
	if bytes.Contains([]byte(text), []byte("<w:")) {
		t.Fatalf("markup leaked into text: %q", text)
	}
}
