package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"portfolio/internal/apperr"
	"portfolio/internal/middleware"
	"portfolio/internal/models"
	"portfolio/internal/service"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	DeviceID string `json:"deviceId"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
	DeviceID     string `json:"deviceId"`
}

type operatorResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
	Status      string `json:"status"`
}

type authResponse struct {
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
	DeviceID     string           `json:"deviceId"`
	ExpiresAt    time.Time        `json:"expiresAt"`
	Operator     operatorResponse `json:"operator"`
}

func toOperatorResponse(op models.Operator) operatorResponse {
	return operatorResponse{
		ID:          op.ID,
		Email:       op.Email,
		DisplayName: op.DisplayName,
		Role:        string(op.Role),
		Status:      string(op.Status),
	}
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.log, bindError(err))
		return
	}
	result, err := h.svc.Auth.Login(c.Request.Context(), service.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		DeviceID:  req.DeviceID,
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	sendAuthResponse(c, result)
}

func (h HandlerSet) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.log, bindError(err))
		return
	}
	result, err := h.svc.Auth.Refresh(c.Request.Context(), service.RefreshInput{
		RefreshToken: req.RefreshToken,
		DeviceID:     req.DeviceID,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	sendAuthResponse(c, result)
}

func (h HandlerSet) Logout(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		writeError(c, h.log, apperr.Unauthorized("Sign in required"))
		return
	}
	if err := h.svc.Auth.Logout(c.Request.Context(), claims.SessionID); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) Me(c *gin.Context) {
	op, ok := middleware.CurrentOperator(c)
	if !ok {
		writeError(c, h.log, apperr.Unauthorized("Sign in required"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"operator": toOperatorResponse(op)})
}

func sendAuthResponse(c *gin.Context, result service.AuthResult) {
	c.JSON(http.StatusOK, authResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		DeviceID:     result.DeviceID,
		ExpiresAt:    result.ExpiresAt,
		Operator:     toOperatorResponse(result.Operator),
	})
}
