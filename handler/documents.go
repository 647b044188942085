package handler

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/tabular-review/gateway/middleware"
	"github.com/tabular-review/gateway/model"
	"github.com/tabular-review/gateway/service"
)

type DocumentsHandler struct {
	backend *service.Backend
}

func NewDocumentsHandler(backend *service.Backend) *DocumentsHandler {
	return &DocumentsHandler{backend: backend}
}

// Get serves the documents page. Without a folder_id the only upstream
// call is the folder listing, so its failure propagates the upstream
// status code; with a folder_id the folder and file fetches run
// concurrently with partial-failure tolerance.
func (h *DocumentsHandler) Get(c *gin.Context) {
	defer recoverZeroed(c, gin.H{
		"folders": []model.Folder{},
		"files":   []model.File{},
		"stats":   gin.H{"files": model.FileStats{}, "folders": model.FolderStats{}},
	})

	token := middleware.GetAccessToken(c)
	ctx := c.Request.Context()
	folderID := c.Query("folder_id")

	if folderID == "" {
		h.foldersOnly(c, token)
		return
	}

	var (
		folders []model.Folder
		files   []model.File

		mu   sync.Mutex
		errs []string
		wg   sync.WaitGroup
	)

	fail := func(label string, err error) {
		logFailure(c, label, err)
		mu.Lock()
		errs = append(errs, failureMessage(label, err))
		mu.Unlock()
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		v, err := h.backend.Folders(ctx, token)
		if err != nil {
			fail("folders", err)
			return
		}
		folders = v
	}()
	go func() {
		defer wg.Done()
		v, err := h.backend.Files(ctx, token, folderID, 0, 0)
		if err != nil {
			fail("files", err)
			return
		}
		files = v
	}()
	wg.Wait()

	if folders == nil {
		folders = []model.Folder{}
	}
	if files == nil {
		files = []model.File{}
	}

	resp := gin.H{
		"folders": folders,
		"files":   files,
		"stats": gin.H{
			"files":   model.CalculateFileStats(files),
			"folders": model.CalculateFolderStats(folders),
		},
		"timestamp": timestamp(),
	}
	if len(errs) > 0 {
		resp["errors"] = errs
	}

	c.JSON(http.StatusOK, resp)
}

// foldersOnly propagates the upstream status when the single fetch fails.
func (h *DocumentsHandler) foldersOnly(c *gin.Context, token string) {
	folders, err := h.backend.Folders(c.Request.Context(), token)
	if err != nil {
		logFailure(c, "folders", err)

		status := http.StatusInternalServerError
		var upErr *service.UpstreamError
		if errors.As(err, &upErr) && upErr.Status > 0 {
			status = upErr.Status
		}
		c.JSON(status, gin.H{
			"error":   failureMessage("folders", err),
			"folders": []model.Folder{},
			"files":   []model.File{},
			"stats": gin.H{
				"folders": model.FolderStats{},
				"files":   model.FileStats{},
			},
		})
		return
	}

	// files stays an empty array so both documents paths share one
	// response shape
	c.JSON(http.StatusOK, gin.H{
		"folders": folders,
		"files":   []model.File{},
		"stats": gin.H{
			"folders": model.CalculateFolderStats(folders),
			"files":   model.FileStats{},
		},
		"timestamp": timestamp(),
	})
}
