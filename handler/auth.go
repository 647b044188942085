package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tabular-review/gateway/middleware"
	"github.com/tabular-review/gateway/service"
)

type AuthHandler struct {
	backend *service.Backend
}

func NewAuthHandler(backend *service.Backend) *AuthHandler {
	return &AuthHandler{backend: backend}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register validates the registration form and forwards it to the
// upstream auth endpoint, passing the upstream response through.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A valid email and a password of at least 8 characters are required"})
		return
	}

	resp, err := h.backend.Register(c.Request.Context(), req)
	if err != nil {
		logFailure(c, "register", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": failureMessage("register", err)})
		return
	}

	c.Data(resp.Status, "application/json", resp.Body)
}

// Login forwards a login request to the upstream auth endpoint.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	resp, err := h.backend.Login(c.Request.Context(), req)
	if err != nil {
		logFailure(c, "login", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": failureMessage("login", err)})
		return
	}

	c.Data(resp.Status, "application/json", resp.Body)
}

// Me returns the identity extracted from the verified access token.
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"id":    middleware.GetUserID(c),
		"email": middleware.GetEmail(c),
	})
}
