package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/drive-service/internal/api/http"
	"github.com/spec-kit/drive-service/internal/api/http/handlers"
	"github.com/spec-kit/drive-service/internal/auth"
	"github.com/spec-kit/drive-service/internal/domain"
	"github.com/spec-kit/drive-service/internal/events"
	"github.com/spec-kit/drive-service/internal/observability"
	"github.com/spec-kit/drive-service/internal/service"
	"github.com/spec-kit/drive-service/internal/storage"
)

type memFileRepo struct {
	mu    sync.Mutex
	files map[string]domain.File
}

func (r *memFileRepo) Create(_ context.Context, file *domain.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	file.ID = uuid.NewString()
	r.files[file.ID] = *file
	return nil
}

func (r *memFileRepo) GetByID(_ context.Context, id string) (*domain.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	file, ok := r.files[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &file, nil
}

func (r *memFileRepo) ListByOwner(_ context.Context, ownerID string) ([]domain.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.File
	for _, file := range r.files {
		if file.OwnerID == ownerID {
			result = append(result, file)
		}
	}
	return result, nil
}

func (r *memFileRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.files[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.files, id)
	return nil
}

// countingStore tracks object store calls so tests can assert that
// authorization short-circuits before any storage I/O.
type countingStore struct {
	storage.ObjectStore
	mu    sync.Mutex
	calls int
}

func (s *countingStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *countingStore) count() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func (s *countingStore) EnsureBucket(ctx context.Context, bucket string) error {
	s.count()
	return s.ObjectStore.EnsureBucket(ctx, bucket)
}

func (s *countingStore) Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error {
	s.count()
	return s.ObjectStore.Put(ctx, bucket, key, r, size, contentType)
}

func (s *countingStore) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	s.count()
	return s.ObjectStore.Get(ctx, bucket, key)
}

func (s *countingStore) Stat(ctx context.Context, bucket, key string) (storage.ObjectInfo, error) {
	s.count()
	return s.ObjectStore.Stat(ctx, bucket, key)
}

func (s *countingStore) Remove(ctx context.Context, bucket, key string) error {
	s.count()
	return s.ObjectStore.Remove(ctx, bucket, key)
}

// ctxBoundStore returns readers that fail once the context given to
// Get is done, the way remote backends stream lazily against it.
type ctxBoundStore struct {
	storage.ObjectStore
}

func (s *ctxBoundStore) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	rc, err := s.ObjectStore.Get(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	return &ctxBoundReader{ctx: ctx, rc: rc}, nil
}

type ctxBoundReader struct {
	ctx context.Context
	rc  io.ReadCloser
}

func (r *ctxBoundReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.rc.Read(p)
}

func (r *ctxBoundReader) Close() error { return r.rc.Close() }

type driveApp struct {
	app    *fiber.App
	tokens *auth.TokenManager
	store  *countingStore
}

func newDriveApp(t *testing.T) *driveApp {
	return newDriveAppWith(t, nil)
}

func newDriveAppWith(t *testing.T, wrap func(storage.ObjectStore) storage.ObjectStore) *driveApp {
	t.Helper()

	fsStore, err := storage.NewFilesystemStore(t.TempDir())
	require.NoError(t, err)
	var backing storage.ObjectStore = fsStore
	if wrap != nil {
		backing = wrap(fsStore)
	}
	store := &countingStore{ObjectStore: backing}

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	tokens := auth.NewTokenManager("test-secret", 60)

	fileService := service.NewFileService(service.FileDependencies{
		FileRepo:   &memFileRepo{files: make(map[string]domain.File)},
		Store:      store,
		Bucket:     "user-files",
		Dispatcher: events.NewInMemoryDispatcher(),
		Logger:     logger,
		Metrics:    metrics,
	})

	session := auth.NewSessionMiddleware(tokens)
	filesHandler := handlers.NewFilesHandler(fileService, service.NewUsageService(nil, logger))

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, 5*time.Second)

	files := app.Group("/files", session.Handle)
	files.Get("/", filesHandler.List)
	files.Get("/raw/*", filesHandler.Raw)
	files.Post("/upload", filesHandler.Upload)
	files.Get("/:id/download", filesHandler.Download)
	files.Delete("/:id", filesHandler.Delete)

	return &driveApp{app: app, tokens: tokens, store: store}
}

func (d *driveApp) cookieFor(t *testing.T, identity domain.Identity, ttl time.Duration) *http.Cookie {
	t.Helper()
	token, _, err := d.tokens.IssueWithTTL(identity, ttl)
	require.NoError(t, err)
	return &http.Cookie{Name: auth.CookieName, Value: token}
}

func (d *driveApp) upload(t *testing.T, cookie *http.Cookie, name, contentType string, content []byte) *http.Response {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/files/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.AddCookie(cookie)

	resp, err := d.app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeFileID(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	var payload struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.NotEmpty(t, payload.ID)
	return payload.ID
}

var (
	identityU1 = domain.Identity{SubjectID: "u1", Role: domain.RoleUser}
	identityU2 = domain.Identity{SubjectID: "u2", Role: domain.RoleUser}
)

func TestFiles_UploadDownloadDeleteScenario(t *testing.T) {
	t.Parallel()

	drive := newDriveApp(t)
	u1 := drive.cookieFor(t, identityU1, time.Hour)
	u2 := drive.cookieFor(t, identityU2, time.Hour)
	content := []byte("0123456789")

	// Upload as u1.
	resp := drive.upload(t, u1, "report.pdf", "application/pdf", content)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	fileID := decodeFileID(t, resp)

	// Download by the owner returns the bytes with type preserved.
	req := httptest.NewRequest("GET", "/files/"+fileID+"/download", nil)
	req.AddCookie(u1)
	resp, err := drive.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, content, data)

	// Download by another user yields 404, never 403.
	req = httptest.NewRequest("GET", "/files/"+fileID+"/download", nil)
	req.AddCookie(u2)
	resp, err = drive.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Delete by the owner.
	req = httptest.NewRequest("DELETE", "/files/"+fileID, nil)
	req.AddCookie(u1)
	resp, err = drive.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Subsequent download by the owner is 404.
	req = httptest.NewRequest("GET", "/files/"+fileID+"/download", nil)
	req.AddCookie(u1)
	resp, err = drive.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFiles_ExpiredTokenShortCircuitsBeforeStorage(t *testing.T) {
	t.Parallel()

	drive := newDriveApp(t)
	expired := drive.cookieFor(t, identityU1, -time.Second)

	resp := drive.upload(t, expired, "late.txt", "text/plain", []byte("x"))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest("GET", "/files/some-id/download", nil)
	req.AddCookie(expired)
	resp, err := drive.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Authorization failed before any object store call was made.
	assert.Equal(t, 0, drive.store.callCount())
}

func TestFiles_DownloadOutlivesRequestContext(t *testing.T) {
	t.Parallel()

	// The response body is drained only after the handler chain (and
	// the timeout middleware's deferred cancel) has unwound, so a
	// stream bound to the request context would die mid-body.
	drive := newDriveAppWith(t, func(s storage.ObjectStore) storage.ObjectStore {
		return &ctxBoundStore{ObjectStore: s}
	})
	u1 := drive.cookieFor(t, identityU1, time.Hour)
	content := bytes.Repeat([]byte("d"), 64)

	resp := drive.upload(t, u1, "clip.bin", "application/octet-stream", content)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	fileID := decodeFileID(t, resp)

	req := httptest.NewRequest("GET", "/files/"+fileID+"/download", nil)
	req.AddCookie(u1)
	resp, err := drive.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, content, data)
}

func TestFiles_RawServesOwnPrefixOnly(t *testing.T) {
	t.Parallel()

	drive := newDriveApp(t)
	u1 := drive.cookieFor(t, identityU1, time.Hour)
	content := []byte("<svg/>")

	require.NoError(t, drive.store.EnsureBucket(context.Background(), "user-files"))
	require.NoError(t, drive.store.Put(context.Background(), "user-files",
		"u1/abc-pic.svg", bytes.NewReader(content), int64(len(content)), "image/svg+xml"))

	// Own prefix is served inline.
	req := httptest.NewRequest("GET", "/files/raw/u1/abc-pic.svg", nil)
	req.AddCookie(u1)
	resp, err := drive.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, content, data)

	// A foreign prefix is rejected outright; the caller supplied the
	// key, so there is nothing to hide.
	req = httptest.NewRequest("GET", "/files/raw/u2/abc-pic.svg", nil)
	req.AddCookie(u1)
	resp, err = drive.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// A missing object under the own prefix is not-found.
	req = httptest.NewRequest("GET", "/files/raw/u1/missing.svg", nil)
	req.AddCookie(u1)
	resp, err = drive.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFiles_RequiresSession(t *testing.T) {
	t.Parallel()

	drive := newDriveApp(t)

	req := httptest.NewRequest("GET", "/files/", nil)
	resp, err := drive.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestFiles_ListReturnsOwnFilesOnly(t *testing.T) {
	t.Parallel()

	drive := newDriveApp(t)
	u1 := drive.cookieFor(t, identityU1, time.Hour)
	u2 := drive.cookieFor(t, identityU2, time.Hour)

	resp := drive.upload(t, u1, "mine.txt", "text/plain", []byte("a"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	req := httptest.NewRequest("GET", "/files/", nil)
	req.AddCookie(u2)
	resp, err := drive.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var files []json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&files))
	resp.Body.Close()
	assert.Empty(t, files)
}
