package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"portfolio/internal/content"
	"portfolio/internal/models"
	"portfolio/internal/service"
)

type messageStatusRequest struct {
	ID     string               `json:"id" binding:"required"`
	Status models.MessageStatus `json:"status" binding:"required"`
}

func (h HandlerSet) SetMessageStatus(c *gin.Context) {
	var req messageStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.log, bindError(err))
		return
	}
	msg, err := service.SetMessageStatus(c.Request.Context(), h.svc.Messages, req.ID, req.Status)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

type contactRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject"`
	Message string `json:"message" binding:"required"`
}

// Contact stores a visitor's message as unread.
func (h HandlerSet) Contact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.log, bindError(err))
		return
	}
	msg, err := h.svc.Messages.Create(c.Request.Context(), &models.Message{
		Name:    content.Ptr(req.Name),
		Email:   content.Ptr(req.Email),
		Subject: content.Ptr(req.Subject),
		Message: content.Ptr(req.Message),
		Status:  models.MessageStatusUnread,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "id": msg.ID})
}
