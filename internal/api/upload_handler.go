package api

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"resumeforge/internal/api/middleware"
	"resumeforge/internal/extract"
	"resumeforge/internal/storage"
)

var pdfMagic = []byte("%PDF-")

// virusScanner is the slice of go-clamd the upload path uses.
// *clamd.Clamd satisfies it; tests inject fakes.
type virusScanner interface {
	ScanStream(r io.Reader, abort chan bool) (chan *clamd.ScanResult, error)
}

// UploadHandler receives existing resumes as PDF files. The stored
// object and its extracted text seed the bulk import flow.
type UploadHandler struct {
	storage  objectStore
	scanner  virusScanner
	maxBytes int64
}

// NewUploadHandler builds the handler. maxUploadMB caps the accepted
// file size.
func NewUploadHandler(storageClient objectStore, scanner virusScanner, maxUploadMB int64) *UploadHandler {
	return &UploadHandler{
		storage:  storageClient,
		scanner:  scanner,
		maxBytes: maxUploadMB << 20,
	}
}

type uploadResponse struct {
	ObjectKey string `json:"object_key"`
	Text      string `json:"text"`
	Warning   string `json:"warning,omitempty"`
}

// UploadResume scans, stores and text-extracts a PDF upload. A file
// that fails extraction is still stored; the response then carries an
// empty text and a warning. Every upload is scanned before any byte
// reaches the object store; an unreachable scanner rejects the upload.
func (h *UploadHandler) UploadResume(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	logger := middleware.LoggerFromContext(c)

	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}
	if file.Size > h.maxBytes {
		Error(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d MB limit", h.maxBytes>>20))
		return
	}

	fileReader, err := file.Open()
	if err != nil {
		Internal(c, "failed to open file")
		return
	}
	data, err := io.ReadAll(io.LimitReader(fileReader, h.maxBytes+1))
	fileReader.Close()
	if err != nil {
		Internal(c, "failed to read file")
		return
	}
	if int64(len(data)) > h.maxBytes {
		Error(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d MB limit", h.maxBytes>>20))
		return
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		BadRequest(c, "only pdf files are accepted")
		return
	}

	abortChan := make(chan bool)
	scanChan, err := h.scanner.ScanStream(bytes.NewReader(data), abortChan)
	if err != nil {
		logger.Error("scan file", slog.String("error", err.Error()))
		Internal(c, "failed to scan file")
		return
	}
	defer close(abortChan)

	for result := range scanChan {
		if result.Status != clamd.RES_OK {
			logger.Warn("upload rejected by scanner",
				slog.String("status", result.Status),
				slog.String("description", result.Description),
			)
			UnprocessableEntity(c, "malicious file detected")
			return
		}
	}

	objectKey := storage.UploadKey(userID, uuid.New())
	if _, err := h.storage.UploadFile(c.Request.Context(), objectKey, bytes.NewReader(data), int64(len(data)), "application/pdf"); err != nil {
		logger.Error("upload file", slog.String("error", err.Error()))
		Internal(c, "failed to upload file")
		return
	}

	resp := uploadResponse{ObjectKey: objectKey}
	text, err := extract.Text(data)
	if err != nil {
		logger.Warn("text extraction failed",
			slog.String("object_key", objectKey),
			slog.Any("error", err),
		)
		resp.Warning = "text extraction failed; the file was stored unchanged"
	} else {
		resp.Text = text
	}

	c.JSON(http.StatusCreated, resp)
}
