package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type countingAllower struct {
	limit int
	seen  map[string]int
	err   error
}

func (a *countingAllower) Allow(ctx context.Context, key string) (bool, error) {
	if a.err != nil {
		return false, a.err
	}
	a.seen[key]++
	return a.seen[key] <= a.limit, nil
}

func router(a Allower) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/contact", Middleware(a, zerolog.Nop()), func(c *gin.Context) { c.Status(http.StatusCreated) })
	return r
}

func post(r http.Handler) int {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/contact", nil))
	return w.Code
}

func TestMiddlewareBlocksOverLimit(t *testing.T) {
	r := router(&countingAllower{limit: 2, seen: map[string]int{}})
	for i := 0; i < 2; i++ {
		if code := post(r); code != http.StatusCreated {
			t.Fatalf("request %d: got %d", i, code)
		}
	}
	if code := post(r); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
}

func TestMiddlewareFailsOpen(t *testing.T) {
	r := router(&countingAllower{err: errors.New("redis down")})
	if code := post(r); code != http.StatusCreated {
		t.Fatalf("expected request through, got %d", code)
	}
}

func TestMiddlewareDisabled(t *testing.T) {
	if code := post(router(nil)); code != http.StatusCreated {
		t.Fatalf("expected request through, got %d", code)
	}
}
