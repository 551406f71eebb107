package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"battleship_server/internal/service"
)

type AuthRequest struct {
	UserID    int64  `json:"user_id"`
	AppSecret string `json:"app_secret"`
}

// Auth exchanges the shared application secret for a connection token.
// Identity itself lives in an external system; this endpoint only verifies
// the caller is a trusted frontend and that the user row exists.
func (h *Handler) Auth(c *gin.Context) {
	var req AuthRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.AppSecret), []byte(h.AppSecret)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid secret"})
		return
	}

	user, err := h.Users.GetByID(c.Request.Context(), req.UserID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	token, err := service.GenerateJWT(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}
