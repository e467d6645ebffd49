package documents

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Mubi-byte/thinktank/internal/convert"
	"github.com/Mubi-byte/thinktank/internal/extract"
	"github.com/Mubi-byte/thinktank/internal/search"
	"github.com/Mubi-byte/thinktank/internal/shared/server/respond"
)

// maxUploadSize caps uploaded documents at 10 MiB.
const maxUploadSize = 10 << 20

// Handler wires the upload endpoint to the ingestion service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/upload", h.upload)
}

func (h *Handler) upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "multipart field 'file' is required", nil)
		return
	}
	if fileHeader.Size > maxUploadSize {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file exceeds the 10 MiB upload limit", nil)
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "could not read uploaded file", nil)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadSize+1))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "could not read uploaded file", nil)
		return
	}
	if len(data) > maxUploadSize {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file exceeds the 10 MiB upload limit", nil)
		return
	}

	sessionID := c.PostForm("session_id")
	if sessionID != "" {
		c.Set("sessionId", sessionID)
	}

	result, err := h.Svc.Ingest(c.Request.Context(), fileHeader.Filename, data, sessionID)
	switch {
	case err == nil:
		c.Set("documentId", result.DocumentID)
		respond.OK(c, gin.H{
			"message":     fmt.Sprintf("%s processed and indexed successfully", result.StoredFilename),
			"document_id": result.DocumentID,
		})
	case errors.Is(err, ErrUnsupportedFileType):
		respond.Error(c, http.StatusBadRequest, "unsupported_file_type", "only .pdf, .doc and .docx files are accepted", nil)
	case errors.Is(err, convert.ErrConversionFailed):
		respond.Error(c, http.StatusUnprocessableEntity, "conversion_failed", "could not convert document to PDF", nil)
	case errors.Is(err, ErrStorageWriteFailed):
		respond.Error(c, http.StatusInternalServerError, "storage_write_failed", "could not store document", nil)
	case errors.Is(err, extract.ErrExtractionFailed):
		respond.Error(c, http.StatusBadGateway, "extraction_failed", "could not extract text from document", nil)
	case errors.Is(err, search.ErrIndexingFailed):
		respond.Error(c, http.StatusBadGateway, "indexing_failed", "could not index document text", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to process document", nil)
	}
}
