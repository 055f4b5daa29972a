package client

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"

	"portfolio/internal/models"
	"portfolio/internal/workflow"
)

// Assets is the media gateway as seen from the operator side.
type Assets struct {
	c *Client
}

func (c *Client) Assets() *Assets {
	return &Assets{c: c}
}

type UploadResult struct {
	Path      string `json:"path"`
	URL       string `json:"url"`
	PublicURL string `json:"publicUrl"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

func (a *Assets) UploadFile(ctx context.Context, blob workflow.Blob) (UploadResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	name := blob.Name
	if name == "" {
		name = "upload"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(name)))
	h.Set("Content-Type", blob.ContentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return UploadResult{}, fmt.Errorf("build upload: %w", err)
	}
	if _, err := part.Write(blob.Data); err != nil {
		return UploadResult{}, fmt.Errorf("build upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("build upload: %w", err)
	}

	req, err := a.c.newRequest(ctx, http.MethodPost, "/upload", nil, &buf)
	if err != nil {
		return UploadResult{}, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out UploadResult
	if err := a.c.send(req, &out); err != nil {
		return UploadResult{}, err
	}
	return out, nil
}

// Upload stores blob and returns its storage key.
func (a *Assets) Upload(ctx context.Context, blob workflow.Blob) (string, error) {
	res, err := a.UploadFile(ctx, blob)
	if err != nil {
		return "", err
	}
	return res.Path, nil
}

func (a *Assets) Delete(ctx context.Context, key string) error {
	return a.c.doJSON(ctx, http.MethodDelete, "/upload", url.Values{"path": {key}}, nil, nil)
}

func (a *Assets) List(ctx context.Context, prefix string) ([]models.Asset, error) {
	var query url.Values
	if prefix != "" {
		query = url.Values{"prefix": {prefix}}
	}
	var out []models.Asset
	if err := a.c.doJSON(ctx, http.MethodGet, "/upload", query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
