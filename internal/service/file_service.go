package service

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/drive-service/internal/auth"
	"github.com/spec-kit/drive-service/internal/domain"
	"github.com/spec-kit/drive-service/internal/events"
	"github.com/spec-kit/drive-service/internal/observability"
	"github.com/spec-kit/drive-service/internal/repository"
	"github.com/spec-kit/drive-service/internal/storage"
	apperrors "github.com/spec-kit/drive-service/pkg/util"
)

// FileService orchestrates file transfer operations: session identity
// in, policy check, object store call, metadata record, stream out.
type FileService struct {
	files      repository.FileRepository
	store      storage.ObjectStore
	bucket     string
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// FileDependencies encapsulates collaborator requirements.
type FileDependencies struct {
	FileRepo   repository.FileRepository
	Store      storage.ObjectStore
	Bucket     string
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// NewFileService builds the service.
func NewFileService(deps FileDependencies) *FileService {
	return &FileService{
		files:      deps.FileRepo,
		store:      deps.Store,
		bucket:     deps.Bucket,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
	}
}

// Upload writes the stream to the object store under a key derived
// from the caller's identity, then creates the metadata record. The
// record is the commit point: if record creation fails the object is
// orphaned, which is surfaced as an error and logged, not retried.
func (s *FileService) Upload(ctx context.Context, identity domain.Identity, name, contentType string, r io.Reader, size int64) (*domain.File, error) {
	name = sanitizeFileName(name)
	if name == "" {
		return nil, apperrors.NewValidationError("file name required", nil)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := s.store.EnsureBucket(ctx, s.bucket); err != nil {
		return nil, s.storageFailure("ensure_bucket", err)
	}

	key := storage.MakeObjectKey(identity.SubjectID, name)
	if err := s.store.Put(ctx, s.bucket, key, r, size, contentType); err != nil {
		return nil, s.storageFailure("put", err)
	}
	s.metrics.RecordStorageOp("put", true)

	file := &domain.File{
		OwnerID:   identity.SubjectID,
		Bucket:    s.bucket,
		ObjectKey: key,
		Name:      name,
		MimeType:  contentType,
		SizeBytes: size,
	}
	if err := s.files.Create(ctx, file); err != nil {
		s.logger.Warn("file record creation failed after object write; object orphaned",
			zap.String("bucket", s.bucket),
			zap.String("key", key),
			zap.Error(err))
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventFileUploaded, file)
	return file, nil
}

// Download resolves the record, checks ownership and returns the
// object stream with its metadata. Denied ownership is reported as
// not-found so foreign file ids are never confirmed to exist.
func (s *FileService) Download(ctx context.Context, identity domain.Identity, fileID string) (*domain.File, io.ReadCloser, error) {
	file, err := s.authorizeOwned(ctx, identity, fileID)
	if err != nil {
		return nil, nil, err
	}

	// The returned stream is drained after the handler chain unwinds,
	// past the point where the request context gets cancelled. Remote
	// backends read lazily against the Get context, so the read phase
	// must be detached from it.
	ref := file.Ref()
	stream, err := s.store.Get(context.WithoutCancel(ctx), ref.Bucket, ref.Key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, apperrors.NewNotFound("file", nil)
		}
		return nil, nil, s.storageFailure("get", err)
	}
	s.metrics.RecordStorageOp("get", true)
	return file, stream, nil
}

// Delete removes the object before the record; a failed object
// removal leaves the record intact and surfaces the error.
func (s *FileService) Delete(ctx context.Context, identity domain.Identity, fileID string) error {
	file, err := s.authorizeOwned(ctx, identity, fileID)
	if err != nil {
		return err
	}

	ref := file.Ref()
	if err := s.store.Remove(ctx, ref.Bucket, ref.Key); err != nil {
		return s.storageFailure("remove", err)
	}
	s.metrics.RecordStorageOp("remove", true)

	if err := s.files.Delete(ctx, file.ID); err != nil && err != pgx.ErrNoRows {
		return apperrors.MapError(err)
	}

	s.publish(ctx, events.EventFileDeleted, file)
	return nil
}

// Open serves an object by its raw key for inline rendering, without
// a record lookup. The caller already holds the key, so a foreign
// prefix reveals nothing and is rejected as forbidden rather than
// hidden as not-found.
func (s *FileService) Open(ctx context.Context, identity domain.Identity, key string) (storage.ObjectInfo, io.ReadCloser, error) {
	if err := storage.ValidateKey(key); err != nil {
		return storage.ObjectInfo{}, nil, apperrors.NewValidationError("invalid object key", nil)
	}
	if storage.OwnerOf(key) != identity.SubjectID {
		return storage.ObjectInfo{}, nil, apperrors.NewForbidden("unauthorized access")
	}

	info, err := s.store.Stat(ctx, s.bucket, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.ObjectInfo{}, nil, apperrors.NewNotFound("file", nil)
		}
		return storage.ObjectInfo{}, nil, s.storageFailure("stat", err)
	}

	stream, err := s.store.Get(context.WithoutCancel(ctx), s.bucket, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.ObjectInfo{}, nil, apperrors.NewNotFound("file", nil)
		}
		return storage.ObjectInfo{}, nil, s.storageFailure("get", err)
	}
	s.metrics.RecordStorageOp("get", true)
	return info, stream, nil
}

// List returns the caller's file records.
func (s *FileService) List(ctx context.Context, identity domain.Identity) ([]domain.File, error) {
	files, err := s.files.ListByOwner(ctx, identity.SubjectID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return files, nil
}

// authorizeOwned fetches the record and enforces the ownership
// policy, mapping both absence and denial to not-found.
func (s *FileService) authorizeOwned(ctx context.Context, identity domain.Identity, fileID string) (*domain.File, error) {
	file, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("file", nil)
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.AuthorizeOwner(identity, file.OwnerID); err != nil {
		return nil, apperrors.NewNotFound("file", nil)
	}
	return file, nil
}

func (s *FileService) storageFailure(op string, err error) error {
	s.metrics.RecordStorageOp(op, false)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, storage.ErrInvalidKey) {
		return apperrors.NewValidationError("invalid object key", nil)
	}
	s.logger.Error("object store operation failed", zap.String("op", op), zap.Error(err))
	return apperrors.NewStorageError(err)
}

func (s *FileService) publish(ctx context.Context, eventType events.EventType, file *domain.File) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		FileID:    file.ID,
		OwnerID:   file.OwnerID,
		SizeBytes: file.SizeBytes,
		Timestamp: time.Now(),
	})
}

// sanitizeFileName strips any path components from a client-supplied
// name so it cannot influence the derived key's structure.
func sanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	return name
}
