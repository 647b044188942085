package handler

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tabular-review/gateway/middleware"
	"github.com/tabular-review/gateway/pkg/logger"
	"github.com/tabular-review/gateway/service"
)

// Request bodies are capped slightly above the per-file limit to leave
// room for multipart framing and form fields.
const uploadBodyLimit = service.MaxUploadBytes + 2*1024*1024

type UploadHandler struct {
	backend *service.Backend
}

func NewUploadHandler(backend *service.Backend) *UploadHandler {
	return &UploadHandler{backend: backend}
}

// Upload validates the multipart payload and forwards the original bytes
// to the upstream upload endpoint. The inbound Content-Type header is
// passed through unchanged so the multipart boundary survives; failures
// always come back as a JSON {error} body.
func (h *UploadHandler) Upload(c *gin.Context) {
	contentType := c.GetHeader("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Expected multipart form data"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, uploadBodyLimit+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read upload"})
		return
	}
	if int64(len(body)) > uploadBodyLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Upload exceeds the 50MB size limit"})
		return
	}

	// Validate against a copy; the original bytes are what get forwarded
	if err := validateMultipart(contentType, body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token := middleware.GetAccessToken(c)
	resp, err := h.backend.ForwardUpload(c.Request.Context(), token, contentType, bytes.NewReader(body))
	if err != nil {
		logFailure(c, "upload", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": failureMessage("upload", err)})
		return
	}

	if resp.Status < 200 || resp.Status >= 300 {
		logger.Warn(c.Request.Context(), "upstream rejected upload", "status", resp.Status)
		c.JSON(resp.Status, gin.H{"error": service.UploadErrorMessage(resp.Body, resp.Status)})
		return
	}

	c.Data(resp.Status, "application/json", resp.Body)
}

// validateMultipart runs the per-file checks over every file part without
// altering the payload that will be forwarded.
func validateMultipart(contentType string, body []byte) error {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil || params["boundary"] == "" {
		return errInvalidMultipart
	}

	reader := multipart.NewReader(bytes.NewReader(body), params["boundary"])
	sawFile := false

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errInvalidMultipart
		}

		if part.FileName() == "" {
			// Plain form field such as folder_id
			io.Copy(io.Discard, part)
			continue
		}
		sawFile = true

		size, err := io.Copy(io.Discard, part)
		if err != nil {
			return errInvalidMultipart
		}

		if err := service.ValidateUpload(part.FileName(), size, part.Header.Get("Content-Type")); err != nil {
			return err
		}
	}

	if !sawFile {
		return errNoFile
	}
	return nil
}

var (
	errInvalidMultipart = &uploadError{"Invalid multipart form data"}
	errNoFile           = &uploadError{"No file provided"}
)

type uploadError struct{ msg string }

func (e *uploadError) Error() string { return e.msg }
