package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"portfolio/internal/config"
	"portfolio/internal/imageref"
	"portfolio/internal/mocks"
	"portfolio/internal/models"
	"portfolio/internal/security"
	"portfolio/internal/service"
)

const (
	testSecret   = "handler-secret"
	testEmail    = "admin@example.com"
	testPassword = "correct horse"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeQueue struct {
	tasks []string
	err   error
}

func (q *fakeQueue) Enqueue(ctx context.Context, task string, payload map[string]any) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	q.tasks = append(q.tasks, task)
	return "1-0", nil
}

type denyAll struct{}

func (denyAll) Allow(ctx context.Context, key string) (bool, error) { return false, nil }

type testAPI struct {
	router    *gin.Engine
	projects  *mocks.MemoryStore[models.Project, *models.Project]
	messages  *mocks.MemoryStore[models.Message, *models.Message]
	bucket    *mocks.MemoryBucket
	operators *mocks.MemoryOperators
	sessions  *mocks.MemorySessions
	queue     *fakeQueue
	checks    map[string]Check
}

func newTestAPI(t *testing.T, tweak func(*Deps)) *testAPI {
	t.Helper()
	log := zerolog.Nop()
	api := &testAPI{
		projects:  mocks.NewMemoryStore[models.Project, *models.Project](),
		messages:  mocks.NewMemoryStore[models.Message, *models.Message](),
		bucket:    mocks.NewMemoryBucket(),
		operators: mocks.NewMemoryOperators(),
		sessions:  mocks.NewMemorySessions(),
		queue:     &fakeQueue{},
		checks:    map[string]Check{},
	}

	media := service.NewMediaService(api.bucket, imageref.New("media", mocks.MemoryBucketBase), log)
	auth := service.NewAuthService(api.operators, api.sessions, config.SecurityConfig{
		JWTAccessSecret:   testSecret,
		JWTAccessTTL:      time.Minute,
		JWTRefreshTTL:     time.Hour,
		MaxSessions:       5,
		BootstrapEmail:    testEmail,
		BootstrapPassword: testPassword,
	}, log)
	if err := auth.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	deps := Deps{
		Log:         log,
		Environment: "test",
		JWTSecret:   testSecret,
		Services: Services{
			Projects:       service.NewRecordService[models.Project]("project", api.projects, media, log),
			Blog:           service.NewRecordService[models.BlogPost]("blog post", mocks.NewMemoryStore[models.BlogPost, *models.BlogPost](), media, log),
			Certifications: service.NewRecordService[models.Certification]("certification", mocks.NewMemoryStore[models.Certification, *models.Certification](), media, log),
			Messages:       service.NewRecordService[models.Message]("message", api.messages, media, log),
			Skills:         service.NewRecordService[models.Skill]("skill", mocks.NewMemoryStore[models.Skill, *models.Skill](), media, log),
			Media:          media,
			Auth:           auth,
		},
		Sessions:  api.sessions,
		Operators: api.operators,
		Tasks:     api.queue,
		Checks:    api.checks,
	}
	if tweak != nil {
		tweak(&deps)
	}

	api.router = gin.New()
	NewHandlerSet(deps).Register(api.router.Group("/api"))
	return api
}

func (api *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	return rec
}

func (api *testAPI) login(t *testing.T) string {
	t.Helper()
	rec := api.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": testEmail, "password": testPassword})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}
	var resp authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return resp.AccessToken
}

// editorToken signs in an operator that may read the console but not edit.
func (api *testAPI) editorToken(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	op := models.Operator{ID: "op-editor", Email: "editor@example.com", Role: models.OperatorRoleEditor, Status: models.OperatorStatusActive}
	if err := api.operators.Create(ctx, op); err != nil {
		t.Fatalf("create editor: %v", err)
	}
	if err := api.sessions.Save(ctx, models.Session{ID: "sess-editor", OperatorID: op.ID, DeviceID: "dev", ExpiresAt: time.Now().Add(time.Hour)}); err != nil {
		t.Fatalf("save session: %v", err)
	}
	token, err := security.GenerateAccessToken(testSecret, security.TokenInput{OperatorID: op.ID, SessionID: "sess-editor", DeviceID: "dev", Role: string(op.Role)}, time.Minute)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return token
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body.Error, body.Code
}

func TestWritesRequireAdmin(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodPost, "/api/projects", "", gin.H{"title": "Atlas"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous write: expected 401, got %d", rec.Code)
	}
	if _, code := decodeError(t, rec); code != "unauthorized" {
		t.Fatalf("unexpected code %q", code)
	}

	rec = api.do(t, http.MethodPost, "/api/projects", api.editorToken(t), gin.H{"title": "Atlas"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("editor write: expected 403, got %d", rec.Code)
	}
	if n, _ := api.projects.Count(context.Background()); n != 0 {
		t.Fatalf("expected no project stored, got %d", n)
	}
}

func TestProjectLifecycle(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.login(t)

	rec := api.do(t, http.MethodPost, "/api/projects", token, gin.H{"title": "Atlas", "technologies": []string{"go", " ", "sql"}})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	var created models.Project
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Slug != "atlas" || created.ID == "" || len(created.Technologies) != 2 {
		t.Fatalf("unexpected project %+v", created)
	}

	rec = api.do(t, http.MethodGet, "/api/projects", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"atlas"`) {
		t.Fatalf("public list: %d %s", rec.Code, rec.Body.String())
	}

	rec = api.do(t, http.MethodGet, "/api/projects/Atlas", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("by slug: %d %s", rec.Code, rec.Body.String())
	}

	rec = api.do(t, http.MethodPost, "/api/projects/atlas/views", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"views":1`) {
		t.Fatalf("count view: %d %s", rec.Code, rec.Body.String())
	}

	rec = api.do(t, http.MethodPut, "/api/projects?id="+created.ID, token, gin.H{"title": "Atlas v2", "slug": "atlas", "version": created.Version})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: %d %s", rec.Code, rec.Body.String())
	}
	var updated models.Project
	_ = json.Unmarshal(rec.Body.Bytes(), &updated)
	if updated.Title != "Atlas v2" || updated.Views != 1 {
		t.Fatalf("unexpected update %+v", updated)
	}

	rec = api.do(t, http.MethodPut, "/api/projects", token, gin.H{"id": created.ID, "title": "Atlas v3", "version": created.Version})
	if rec.Code != http.StatusConflict {
		t.Fatalf("stale update: expected 409, got %d", rec.Code)
	}

	rec = api.do(t, http.MethodDelete, "/api/projects?id="+created.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: %d %s", rec.Code, rec.Body.String())
	}
	rec = api.do(t, http.MethodDelete, "/api/projects?id="+created.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete of a missing record should succeed, got %d", rec.Code)
	}
	rec = api.do(t, http.MethodGet, "/api/projects/atlas", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestCreateRejections(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.login(t)

	rec := api.do(t, http.MethodPost, "/api/projects", token, gin.H{"title": "   "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("blank title: expected 400, got %d", rec.Code)
	}
	if msg, code := decodeError(t, rec); code != "validation" || !strings.Contains(msg, "Title") {
		t.Fatalf("unexpected error %q %q", msg, code)
	}

	if rec := api.do(t, http.MethodPost, "/api/projects", token, gin.H{"title": "Atlas"}); rec.Code != http.StatusCreated {
		t.Fatalf("create: %d", rec.Code)
	}
	rec = api.do(t, http.MethodPost, "/api/projects", token, gin.H{"title": "ATLAS"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate slug: expected 409, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/projects", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	bad := httptest.NewRecorder()
	api.router.ServeHTTP(bad, req)
	if bad.Code != http.StatusBadRequest {
		t.Fatalf("malformed body: expected 400, got %d", bad.Code)
	}

	rec = api.do(t, http.MethodDelete, "/api/projects", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("delete without id: expected 400, got %d", rec.Code)
	}
}

func TestStoreOutageIsUnavailable(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.login(t)
	api.projects.Err = errors.New("connection refused")

	rec := api.do(t, http.MethodGet, "/api/projects", "", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	msg, code := decodeError(t, rec)
	if code != "unavailable" || strings.Contains(msg, "connection refused") {
		t.Fatalf("leaked or wrong error %q %q", msg, code)
	}

	rec = api.do(t, http.MethodPost, "/api/projects", token, gin.H{"title": "Atlas"})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("write during outage: expected 500, got %d", rec.Code)
	}
}

func multipartUpload(t *testing.T, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="cover.png"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func pngBytes(n int) []byte {
	data := make([]byte, n)
	copy(data, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'})
	return data
}

func (api *testAPI) upload(t *testing.T, token, contentType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, formType := multipartUpload(t, contentType, data)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", formType)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	return rec
}

func TestUploadAndAttach(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.login(t)

	rec := api.upload(t, token, "image/png", pngBytes(256))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload: %d %s", rec.Code, rec.Body.String())
	}
	var up uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &up); err != nil {
		t.Fatalf("decode upload: %v", err)
	}
	if !strings.HasPrefix(up.Path, "uploads/") || !strings.HasSuffix(up.Path, ".png") {
		t.Fatalf("unexpected key %q", up.Path)
	}
	if !strings.Contains(up.URL, "X-Amz-Expires=") || up.PublicURL != mocks.MemoryBucketBase+"/"+up.Path {
		t.Fatalf("unexpected urls %+v", up)
	}

	// The signed URL is accepted as input and stored as the bare key.
	rec = api.do(t, http.MethodPost, "/api/projects", token, gin.H{"title": "Atlas", "image": up.URL})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	stored, err := api.projects.GetBySlug(context.Background(), "atlas")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if stored.ImageKey == nil || *stored.ImageKey != up.Path {
		t.Fatalf("expected stored key %q, got %v", up.Path, stored.ImageKey)
	}

	rec = api.do(t, http.MethodGet, "/api/upload", token, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), up.Path) {
		t.Fatalf("list assets: %d %s", rec.Code, rec.Body.String())
	}

	rec = api.do(t, http.MethodDelete, "/api/upload?path="+up.Path, token, nil)
	if rec.Code != http.StatusOK || api.bucket.Has(up.Path) {
		t.Fatalf("delete asset: %d, still stored %v", rec.Code, api.bucket.Has(up.Path))
	}
}

func TestUploadRejections(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.login(t)

	rec := api.upload(t, token, "image/gif", append([]byte("GIF89a"), make([]byte, 32)...))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("gif: expected 400, got %d", rec.Code)
	}
	if _, code := decodeError(t, rec); code != "unsupported_type" {
		t.Fatalf("unexpected code %q", code)
	}

	rec = api.upload(t, token, "image/png", pngBytes(service.MaxUploadBytes+1))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("oversized: expected 400, got %d", rec.Code)
	}
	if _, code := decodeError(t, rec); code != "too_large" {
		t.Fatalf("unexpected code %q", code)
	}

	rec = api.upload(t, token, "image/png", pngBytes(service.MaxUploadBytes))
	if rec.Code != http.StatusOK {
		t.Fatalf("exactly 5 MiB should be accepted, got %d", rec.Code)
	}
	if api.bucket.Len() != 1 {
		t.Fatalf("expected only the accepted upload stored, got %d", api.bucket.Len())
	}

	rec = api.do(t, http.MethodDelete, "/api/upload", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("delete without path: expected 400, got %d", rec.Code)
	}
}

func TestContactAndInbox(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.login(t)

	rec := api.do(t, http.MethodPost, "/api/contact", "", gin.H{"name": "Ada", "email": "ada@example.com", "message": "Hello"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("contact: %d %s", rec.Code, rec.Body.String())
	}
	rec = api.do(t, http.MethodPost, "/api/contact", "", gin.H{"name": "Ada", "email": "not-an-email", "message": "Hello"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad email: expected 400, got %d", rec.Code)
	}

	if rec := api.do(t, http.MethodGet, "/api/messages", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("inbox must not be public, got %d", rec.Code)
	}

	rec = api.do(t, http.MethodGet, "/api/admin/summary", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: %d %s", rec.Code, rec.Body.String())
	}
	var summary summaryResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &summary)
	if summary.UnreadMessages != 1 || summary.Counts["messages"] != 1 || len(summary.RecentMessages) != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	id := summary.RecentMessages[0].ID
	rec = api.do(t, http.MethodPatch, "/api/messages", token, gin.H{"id": id, "status": "read"})
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"read"`) {
		t.Fatalf("mark read: %d %s", rec.Code, rec.Body.String())
	}
	rec = api.do(t, http.MethodPatch, "/api/messages", token, gin.H{"id": id, "status": "spam"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid status: expected 400, got %d", rec.Code)
	}
}

func TestContactRateLimited(t *testing.T) {
	api := newTestAPI(t, func(d *Deps) { d.ContactLimiter = denyAll{} })
	rec := api.do(t, http.MethodPost, "/api/contact", "", gin.H{"name": "Ada", "email": "ada@example.com", "message": "Hello"})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if n, _ := api.messages.Count(context.Background()); n != 0 {
		t.Fatalf("rate limited contact must not be stored")
	}
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": testEmail, "password": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: expected 401, got %d", rec.Code)
	}

	rec = api.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": testEmail, "password": testPassword, "deviceId": "laptop"})
	var session authResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &session)
	if rec.Code != http.StatusOK || session.RefreshToken == "" || session.DeviceID != "laptop" || session.Operator.Role != "admin" {
		t.Fatalf("login: %d %+v", rec.Code, session)
	}

	rec = api.do(t, http.MethodGet, "/api/auth/me", session.AccessToken, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), testEmail) {
		t.Fatalf("me: %d %s", rec.Code, rec.Body.String())
	}

	rec = api.do(t, http.MethodPost, "/api/auth/refresh", "", gin.H{"refreshToken": session.RefreshToken, "deviceId": "laptop"})
	var rotated authResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &rotated)
	if rec.Code != http.StatusOK || rotated.RefreshToken == session.RefreshToken {
		t.Fatalf("refresh: %d %+v", rec.Code, rotated)
	}

	rec = api.do(t, http.MethodPost, "/api/auth/logout", rotated.AccessToken, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", rec.Code)
	}
	rec = api.do(t, http.MethodGet, "/api/auth/me", rotated.AccessToken, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("token of an ended session: expected 401, got %d", rec.Code)
	}
}

func TestReconcileQueued(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.login(t)

	rec := api.do(t, http.MethodPost, "/api/admin/maintenance/reconcile", token, gin.H{"dryRun": true})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("reconcile: %d %s", rec.Code, rec.Body.String())
	}
	if len(api.queue.tasks) != 1 || api.queue.tasks[0] != service.TaskReconcile {
		t.Fatalf("unexpected queued tasks %v", api.queue.tasks)
	}

	api.queue.err = errors.New("redis down")
	rec = api.do(t, http.MethodPost, "/api/admin/maintenance/reconcile", token, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("queue failure: expected 500, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t, nil)
	api.checks["postgres"] = func(ctx context.Context) error { return nil }

	rec := api.do(t, http.MethodGet, "/api/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthy: expected 200, got %d", rec.Code)
	}

	api.checks["redis"] = func(ctx context.Context) error { return errors.New("dial tcp: refused") }
	rec = api.do(t, http.MethodGet, "/api/healthz", "", nil)
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), `"degraded"`) {
		t.Fatalf("degraded: %d %s", rec.Code, rec.Body.String())
	}
}
