package handler

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/tabular-review/gateway/middleware"
	"github.com/tabular-review/gateway/model"
	"github.com/tabular-review/gateway/service"
)

type FilesHandler struct {
	backend *service.Backend
}

func NewFilesHandler(backend *service.Backend) *FilesHandler {
	return &FilesHandler{backend: backend}
}

// List aggregates the caller's files and folders. Pagination parameters
// pass through to the upstream file listing untouched.
func (h *FilesHandler) List(c *gin.Context) {
	defer recoverZeroed(c, gin.H{
		"files":   []model.File{},
		"folders": []model.Folder{},
		"stats":   gin.H{"files": model.FileStats{}},
	})

	token := middleware.GetAccessToken(c)
	ctx := c.Request.Context()

	folderID := c.Query("folder_id")
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	var (
		files   []model.File
		folders []model.Folder

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
		v, err := h.backend.Files(ctx, token, folderID, page, limit)
		if err != nil {
			fail("files", err)
			return
		}
		files = v
	}()
	go func() {
		defer wg.Done()
		v, err := h.backend.Folders(ctx, token)
		if err != nil {
			fail("folders", err)
			return
		}
		folders = v
	}()
	wg.Wait()

	if files == nil {
		files = []model.File{}
	}
	if folders == nil {
		folders = []model.Folder{}
	}

	resp := gin.H{
		"files":   files,
		"folders": folders,
		"stats": gin.H{
			"files": model.CalculateFileStats(files),
		},
		"timestamp": timestamp(),
	}
	if len(errs) > 0 {
		resp["errors"] = errs
	}

	c.JSON(http.StatusOK, resp)
}
