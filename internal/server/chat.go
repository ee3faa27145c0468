package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type chatRequest struct {
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
	Question  string `json:"question" binding:"required"`
}

// handleChat answers one question. Omitting sessionId starts a new session,
// which requires userId; follow-up turns only need sessionId.
func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}
	if req.SessionID == "" && req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required to start a session"})
		return
	}

	ans, err := s.driver.Ask(c.Request.Context(), req.SessionID, req.UserID, req.Question)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sessionId": ans.SessionID,
		"reply":     ans.Reply,
		"intent": gin.H{
			"category":   ans.Intent.Category,
			"confidence": ans.Intent.Confidence,
		},
		"usage":     ans.Usage,
		"questions": ans.Questions,
		"remaining": ans.Remaining,
	})
}

type chatResetRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

// handleChatReset drops a session; the next question starts over with the
// bill context injected again.
func (s *Server) handleChatReset(c *gin.Context) {
	var req chatResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId is required"})
		return
	}
	s.driver.Reset(req.SessionID)
	c.Status(http.StatusNoContent)
}
