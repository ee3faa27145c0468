package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vchirila/billchat/constants"
	"github.com/vchirila/billchat/internal/common"
)

type validateRequest struct {
	Phone string `json:"phone" binding:"required"`
}

// handleValidate resolves a phone number against the customer directory.
// "0712345678" and "712345678" resolve to the same customer.
func (s *Server) handleValidate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phone is required"})
		return
	}
	customer, userID, err := s.directory.Validate(req.Phone)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"userId":   userID,
		"customer": customer,
	})
}

// handleQuickActions serves the fixed canned questions.
func (s *Server) handleQuickActions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"quickActions": constants.QuickActions})
}

// renderError maps application errors to HTTP responses. AppError codes are
// surfaced so clients can branch without parsing messages.
func (s *Server) renderError(c *gin.Context, err error) {
	status := common.HTTPStatus(err)
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		c.JSON(status, gin.H{"error": appErr.Message, "code": appErr.Code})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
