package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"portfolio/internal/apperr"
	"portfolio/internal/service"
)

// multipartOverhead is the room left for multipart framing around a file of
// the maximum accepted size.
const multipartOverhead = 1 << 20

type uploadResponse struct {
	Path      string `json:"path"`
	URL       string `json:"url"`
	PublicURL string `json:"publicUrl"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
}

func (h HandlerSet) UploadAsset(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, service.MaxUploadBytes+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(c, h.log, apperr.TooLarge("File exceeds 5 MB limit"))
			return
		}
		writeError(c, h.log, apperr.Validation("File is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		writeError(c, h.log, apperr.Validation("Could not read upload"))
		return
	}
	defer file.Close()

	result, err := h.svc.Media.Upload(c.Request.Context(), service.UploadInput{
		Body:        file,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, uploadResponse{
		Path:      result.Key,
		URL:       result.SignedURL,
		PublicURL: result.PublicURL,
		Width:     result.Width,
		Height:    result.Height,
	})
}

func (h HandlerSet) ListAssets(c *gin.Context) {
	assets, err := h.svc.Media.List(c.Request.Context(), c.Query("prefix"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, assets)
}

func (h HandlerSet) DeleteAsset(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		writeError(c, h.log, apperr.Validation("Missing file path"))
		return
	}
	if err := h.svc.Media.Delete(c.Request.Context(), path); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
