package handler

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/tabular-review/gateway/middleware"
	"github.com/tabular-review/gateway/model"
	"github.com/tabular-review/gateway/service"
)

type ReviewsHandler struct {
	backend *service.Backend
}

func NewReviewsHandler(backend *service.Backend) *ReviewsHandler {
	return &ReviewsHandler{backend: backend}
}

// List aggregates the caller's reviews alongside a health probe. A failed
// probe means the upstream is unreachable and surfaces as 503; a failed
// review or folder fetch behind a healthy upstream degrades to partial
// data with an errors array.
func (h *ReviewsHandler) List(c *gin.Context) {
	defer recoverZeroed(c, gin.H{
		"reviews": []model.Review{},
		"folders": []model.Folder{},
		"stats":   gin.H{"reviews": model.ReviewStats{}},
	})

	token := middleware.GetAccessToken(c)
	ctx := c.Request.Context()

	var (
		reviews   []model.Review
		folders   []model.Folder
		healthErr error

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
		healthErr = h.backend.Health(ctx)
	}()
	go func() {
		defer wg.Done()
		v, err := h.backend.Reviews(ctx, token)
		if err != nil {
			fail("reviews", err)
			return
		}
		reviews = v
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

	if healthErr != nil {
		logFailure(c, "health", healthErr)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":     "The review service is currently unavailable. Please try again later.",
			"reviews":   []model.Review{},
			"folders":   []model.Folder{},
			"stats":     gin.H{"reviews": model.ReviewStats{}},
			"timestamp": timestamp(),
		})
		return
	}

	if reviews == nil {
		reviews = []model.Review{}
	}
	if folders == nil {
		folders = []model.Folder{}
	}

	resp := gin.H{
		"reviews": reviews,
		"folders": folders,
		"stats": gin.H{
			"reviews": model.CalculateReviewStats(reviews),
		},
		"timestamp": timestamp(),
	}
	if len(errs) > 0 {
		resp["errors"] = errs
	}

	c.JSON(http.StatusOK, resp)
}

// ColumnRequest is the payload for adding an extraction column to a
// review.
type ColumnRequest struct {
	ColumnName  string `json:"column_name" binding:"required,max=255"`
	Prompt      string `json:"prompt" binding:"required,max=2000"`
	DataType    string `json:"data_type"`
	ColumnOrder *int   `json:"column_order,omitempty"`
}

// CreateColumn validates and forwards a column-creation request, passing
// the upstream status straight back to the browser.
func (h *ReviewsHandler) CreateColumn(c *gin.Context) {
	reviewID := c.Param("id")

	var req ColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Column name and prompt are required"})
		return
	}

	if req.DataType == "" {
		req.DataType = "text"
	}
	if !model.ColumnDataTypes[req.DataType] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported data type: " + service.SanitizeString(req.DataType)})
		return
	}

	token := middleware.GetAccessToken(c)
	resp, err := h.backend.CreateColumn(c.Request.Context(), token, reviewID, req)
	if err != nil {
		logFailure(c, "create column", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": failureMessage("create column", err)})
		return
	}

	c.Data(resp.Status, "application/json", resp.Body)
}
