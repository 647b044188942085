package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tabular-review/gateway/middleware"
	"github.com/tabular-review/gateway/pkg/logger"
	"github.com/tabular-review/gateway/service"
)

// Exporter builds the CSV document for one review.
type Exporter interface {
	ExportCSV(ctx context.Context, reviewID, userID string) ([]byte, error)
}

// Archiver keeps a copy of generated exports in object storage.
type Archiver interface {
	StoreExport(ctx context.Context, userID, reviewID string, data []byte) (string, error)
	PresignedURL(ctx context.Context, objectName string) (string, error)
}

type ExportHandler struct {
	exporter Exporter
	archiver Archiver // nil when archival is disabled
}

func NewExportHandler(exporter Exporter, archiver Archiver) *ExportHandler {
	return &ExportHandler{exporter: exporter, archiver: archiver}
}

// Download streams one review's results as a CSV attachment. Archival is
// fire-and-forget; the download never waits on it.
func (h *ExportHandler) Download(c *gin.Context) {
	reviewID := c.Param("id")
	userID := middleware.GetUserID(c)

	csv, err := h.exporter.ExportCSV(c.Request.Context(), reviewID, userID)
	if err != nil {
		if errors.Is(err, service.ErrReviewNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
			return
		}
		logger.Error(c.Request.Context(), "export failed", "review_id", reviewID, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export review"})
		return
	}

	if h.archiver != nil {
		go h.archive(userID, reviewID, csv)
	}

	filename := fmt.Sprintf("review-%s.csv", reviewID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", csv)
}

func (h *ExportHandler) archive(userID, reviewID string, csv []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	objectName, err := h.archiver.StoreExport(ctx, userID, reviewID, csv)
	if err != nil {
		logger.Warn(ctx, "export archival failed", "review_id", reviewID, "error", err.Error())
		return
	}

	// The link lets support hand out the archived copy without DB access
	link, err := h.archiver.PresignedURL(ctx, objectName)
	if err != nil {
		logger.Warn(ctx, "presigned link generation failed", "object", objectName, "error", err.Error())
		link = ""
	}
	logger.Info(ctx, "export archived", "review_id", reviewID, "object", objectName, "link", link)
}
