package client

import (
	"context"
	"net/http"
	"net/url"

	"portfolio/internal/apperr"
	"portfolio/internal/content"
)

// Collection is the CRUD surface of one record variant, such as /projects.
type Collection[T any, P content.Entity[T]] struct {
	c    *Client
	path string
}

func NewCollection[T any, P content.Entity[T]](c *Client, path string) *Collection[T, P] {
	return &Collection[T, P]{c: c, path: path}
}

func (col *Collection[T, P]) Create(ctx context.Context, rec P) (P, error) {
	out := P(new(T))
	if err := col.c.doJSON(ctx, http.MethodPost, col.path, nil, rec, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (col *Collection[T, P]) Update(ctx context.Context, id string, rec P) (P, error) {
	out := P(new(T))
	if err := col.c.doJSON(ctx, http.MethodPut, col.path, url.Values{"id": {id}}, rec, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (col *Collection[T, P]) Delete(ctx context.Context, id string) error {
	return col.c.doJSON(ctx, http.MethodDelete, col.path, url.Values{"id": {id}}, nil, nil)
}

func (col *Collection[T, P]) List(ctx context.Context) ([]P, error) {
	var out []P
	if err := col.c.doJSON(ctx, http.MethodGet, col.path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Find looks a record up by id through the list endpoint.
func (col *Collection[T, P]) Find(ctx context.Context, id string) (P, error) {
	recs, err := col.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		if rec.Metadata().ID == id {
			return rec, nil
		}
	}
	return nil, apperr.NotFound("Record not found")
}
