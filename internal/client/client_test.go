package client

import (
	"context"
	"errors"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"portfolio/internal/apperr"
	"portfolio/internal/config"
	"portfolio/internal/content"
	"portfolio/internal/handlers"
	"portfolio/internal/imageref"
	"portfolio/internal/mocks"
	"portfolio/internal/models"
	"portfolio/internal/server"
	"portfolio/internal/service"
	"portfolio/internal/workflow"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "correct horse"
)

var keyPattern = regexp.MustCompile(`^uploads/[0-9a-f-]{36}\.png$`)

func init() {
	gin.SetMode(gin.TestMode)
}

type harness struct {
	api      *Client
	bucket   *mocks.MemoryBucket
	projects *mocks.MemoryStore[models.Project, *models.Project]
	resolver imageref.Resolver
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := zerolog.Nop()
	h := &harness{
		bucket:   mocks.NewMemoryBucket(),
		projects: mocks.NewMemoryStore[models.Project, *models.Project](),
		resolver: imageref.New("media", mocks.MemoryBucketBase),
	}
	operators := mocks.NewMemoryOperators()
	sessions := mocks.NewMemorySessions()

	media := service.NewMediaService(h.bucket, h.resolver, log)
	auth := service.NewAuthService(operators, sessions, config.SecurityConfig{
		JWTAccessSecret:   "client-secret",
		JWTAccessTTL:      time.Minute,
		JWTRefreshTTL:     time.Hour,
		BootstrapEmail:    adminEmail,
		BootstrapPassword: adminPassword,
	}, log)
	if err := auth.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	set := handlers.NewHandlerSet(handlers.Deps{
		Log:       log,
		JWTSecret: "client-secret",
		Services: handlers.Services{
			Projects: service.NewRecordService[models.Project]("project", h.projects, media, log),
			Media:    media,
			Auth:     auth,
		},
		Sessions:  sessions,
		Operators: operators,
	})
	srv := httptest.NewServer(server.NewEngine(nil, log, set))
	t.Cleanup(srv.Close)

	h.api = New(srv.URL + "/api")
	return h
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	s, err := h.api.Login(context.Background(), adminEmail, adminPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if s.AccessToken == "" || h.api.Token() != s.AccessToken || s.Operator.Role != "admin" {
		t.Fatalf("unexpected session %+v", s)
	}
}

func pngBlob(size int) workflow.Blob {
	data := make([]byte, size)
	copy(data, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'})
	return workflow.Blob{Name: "cover.png", ContentType: "image/png", Data: data}
}

func TestEditWorkflowEndToEnd(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	ctx := context.Background()

	projects := NewCollection[models.Project](h.api, "/projects")
	editor := workflow.NewEditor[models.Project](h.api.Assets(), projects, h.resolver, zerolog.Nop())

	if err := editor.Open(nil); err != nil {
		t.Fatalf("open: %v", err)
	}
	editor.Draft().Title = "Atlas"
	created, err := editor.Submit(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Slug != "atlas" || created.ImageKey != nil {
		t.Fatalf("unexpected created project %+v", created)
	}

	if err := editor.StageImage(pngBlob(2 << 20)); err != nil {
		t.Fatalf("stage: %v", err)
	}
	withImage, err := editor.Submit(ctx)
	if err != nil {
		t.Fatalf("save with image: %v", err)
	}
	key := content.Deref(withImage.ImageKey)
	if !keyPattern.MatchString(key) {
		t.Fatalf("unexpected key %q", key)
	}
	if !h.bucket.Has(key) || len(h.bucket.Removed) != 0 {
		t.Fatalf("expected the upload stored and nothing removed, removed %v", h.bucket.Removed)
	}
	stored, _ := h.projects.GetBySlug(ctx, "atlas")
	if content.Deref(stored.ImageKey) != key {
		t.Fatalf("store holds %v, want %q", stored.ImageKey, key)
	}

	if err := editor.RemoveImage(); err != nil {
		t.Fatalf("remove: %v", err)
	}
	cleared, err := editor.Submit(ctx)
	if err != nil {
		t.Fatalf("save without image: %v", err)
	}
	if cleared.ImageKey != nil || cleared.Image != nil {
		t.Fatalf("expected image cleared, got %+v", cleared.Media)
	}
	if h.bucket.Has(key) {
		t.Fatalf("expected previous asset %q deleted", key)
	}
	if editor.State() != workflow.Saved {
		t.Fatalf("unexpected state %s", editor.State())
	}
}

func TestClientErrorsKeepTheirKind(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	projects := NewCollection[models.Project](h.api, "/projects")

	if _, err := projects.Create(ctx, &models.Project{Title: "Atlas"}); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected unauthorized before login, got %v", err)
	}

	h.login(t)
	first, err := projects.Create(ctx, &models.Project{Title: "Atlas"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := projects.Create(ctx, &models.Project{Title: "Atlas"}); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict on duplicate slug, got %v", err)
	}

	stale := *first
	if _, err := projects.Update(ctx, first.ID, &models.Project{Title: "Atlas 2", Meta: content.Meta{Version: first.Version}}); err != nil {
		t.Fatalf("update: %v", err)
	}
	stale.Title = "Atlas 3"
	if _, err := projects.Update(ctx, first.ID, &stale); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected stale update conflict, got %v", err)
	}

	found, err := projects.Find(ctx, first.ID)
	if err != nil || found.Title != "Atlas 2" {
		t.Fatalf("find: %v %+v", err, found)
	}
	if err := projects.Delete(ctx, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := projects.Find(ctx, first.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}

	bad := workflow.Blob{Name: "anim.gif", ContentType: "image/gif", Data: []byte("GIF89a....")}
	if _, err := h.api.Assets().Upload(ctx, bad); !errors.Is(err, apperr.ErrUnsupportedType) {
		t.Fatalf("expected unsupported type, got %v", err)
	}
}

func TestAssetsRoundTrip(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	ctx := context.Background()
	assets := h.api.Assets()

	res, err := assets.UploadFile(ctx, pngBlob(1024))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if res.PublicURL != h.bucket.PublicURL(res.Path) {
		t.Fatalf("unexpected public url %q", res.PublicURL)
	}

	list, err := assets.List(ctx, "")
	if err != nil || len(list) != 1 || list[0].Path != res.Path {
		t.Fatalf("list: %v %+v", err, list)
	}
	if err := assets.Delete(ctx, res.Path); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if h.bucket.Len() != 0 {
		t.Fatalf("expected bucket empty")
	}
}
