package handler

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/tabular-review/gateway/middleware"
	"github.com/tabular-review/gateway/model"
	"github.com/tabular-review/gateway/service"
)

const recentFileCount = 5

type DashboardHandler struct {
	backend *service.Backend
}

func NewDashboardHandler(backend *service.Backend) *DashboardHandler {
	return &DashboardHandler{backend: backend}
}

// Get aggregates folders, files and reviews into one dashboard payload.
// The three upstream fetches run concurrently with the retried slow-class
// policy; a failed fetch defaults its field to an empty list and adds a
// message to the errors array instead of failing the whole request.
func (h *DashboardHandler) Get(c *gin.Context) {
	defer recoverZeroed(c, gin.H{
		"folders":      []model.Folder{},
		"files":        []model.File{},
		"reviews":      []model.Review{},
		"recent_files": []model.File{},
		"stats":        zeroDashboardStats(),
	})

	token := middleware.GetAccessToken(c)
	ctx := c.Request.Context()

	var (
		folders []model.Folder
		files   []model.File
		reviews []model.Review

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

	wg.Add(3)
	go func() {
		defer wg.Done()
		v, err := h.backend.FoldersRetried(ctx, token)
		if err != nil {
			fail("folders", err)
			return
		}
		folders = v
	}()
	go func() {
		defer wg.Done()
		v, err := h.backend.FilesRetried(ctx, token)
		if err != nil {
			fail("files", err)
			return
		}
		files = v
	}()
	go func() {
		defer wg.Done()
		v, err := h.backend.ReviewsRetried(ctx, token)
		if err != nil {
			fail("reviews", err)
			return
		}
		reviews = v
	}()
	wg.Wait()

	if folders == nil {
		folders = []model.Folder{}
	}
	if files == nil {
		files = []model.File{}
	}
	if reviews == nil {
		reviews = []model.Review{}
	}

	resp := gin.H{
		"folders":      folders,
		"files":        files,
		"reviews":      reviews,
		"recent_files": model.RecentFiles(files, recentFileCount),
		"stats": gin.H{
			"files":   model.CalculateFileStats(files),
			"folders": model.CalculateFolderStats(folders),
			"reviews": model.CalculateReviewStats(reviews),
		},
		"timestamp": timestamp(),
	}
	if len(errs) > 0 {
		resp["errors"] = errs
	}

	c.JSON(http.StatusOK, resp)
}

func zeroDashboardStats() gin.H {
	return gin.H{
		"files":   model.FileStats{},
		"folders": model.FolderStats{},
		"reviews": model.ReviewStats{},
	}
}
