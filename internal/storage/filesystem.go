package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FilesystemStore keeps objects as plain files under a root
// directory, one subdirectory per bucket. It is the developer/local
// backend; writes go to a temp file and are renamed into place so a
// reader never observes a partial object.
type FilesystemStore struct {
	root string
}

// NewFilesystemStore creates the store rooted at dir, creating the
// directory if needed.
func NewFilesystemStore(dir string) (*FilesystemStore, error) {
	if dir == "" {
		return nil, errors.New("storage root required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, transportErr("init", err)
	}
	return &FilesystemStore{root: dir}, nil
}

func (s *FilesystemStore) objectPath(bucket, key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	if bucket == "" || bucket != filepath.Base(bucket) {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.root, bucket, filepath.FromSlash(key)), nil
}

// EnsureBucket creates the bucket directory if absent. MkdirAll is
// race-safe: a concurrent winner is not an error.
func (s *FilesystemStore) EnsureBucket(ctx context.Context, bucket string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if bucket == "" || bucket != filepath.Base(bucket) {
		return ErrInvalidKey
	}
	if err := os.MkdirAll(filepath.Join(s.root, bucket), 0o755); err != nil {
		return transportErr("ensure bucket", err)
	}
	return nil
}

// Put streams r into a temp file, fsyncs, then renames over the final
// path. On error or cancellation the temp artifact is removed.
func (s *FilesystemStore) Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error {
	path, err := s.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return transportErr("put", err)
	}

	tmp := filepath.Join(filepath.Dir(path), fmt.Sprintf(".t%s", uuid.NewString()))
	f, err := os.Create(tmp)
	if err != nil {
		return transportErr("put", err)
	}

	committed := false
	defer func() {
		_ = f.Close()
		if !committed {
			_ = os.Remove(tmp)
		}
	}()

	if _, err := io.Copy(f, &ctxReader{ctx: ctx, r: r}); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return transportErr("put", err)
	}
	if err := f.Sync(); err != nil {
		return transportErr("put", err)
	}
	if err := f.Close(); err != nil {
		return transportErr("put", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return transportErr("put", err)
	}
	committed = true
	return nil
}

// Get opens the object for sequential reading.
func (s *FilesystemStore) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	path, err := s.objectPath(bucket, key)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, transportErr("get", err)
	}
	return f, nil
}

// Stat reports object size. The filesystem keeps no content-type
// metadata, so the type is inferred from the key's extension.
func (s *FilesystemStore) Stat(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	path, err := s.objectPath(bucket, key)
	if err != nil {
		return ObjectInfo{}, err
	}
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ObjectInfo{}, ErrNotFound
		}
		return ObjectInfo{}, transportErr("stat", err)
	}
	return ObjectInfo{Size: info.Size(), ContentType: detectContentType(key)}, nil
}

// Remove deletes the object; an already absent object is a no-op.
func (s *FilesystemStore) Remove(ctx context.Context, bucket, key string) error {
	path, err := s.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return transportErr("remove", err)
	}
	return nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

func detectContentType(key string) string {
	if ct := mime.TypeByExtension(filepath.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
