// Package storage provides the object store abstraction backing file
// uploads: one contract with interchangeable filesystem and
// S3-compatible implementations, selected at startup.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// Error taxonomy shared by all backends. Backend-specific failures
// are normalized so callers never branch on backend identity.
var (
	ErrNotFound   = errors.New("object not found")
	ErrInvalidKey = errors.New("invalid object key")
)

// TransportError wraps a backend failure (network, disk) that is not
// a caller mistake.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func transportErr(op string, err error) error {
	return &TransportError{Op: op, Err: err}
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Size        int64
	ContentType string
}

// ObjectStore is the contract both backends satisfy. Implementations
// must be safe for concurrent use; every call is an independent
// filesystem or network operation.
type ObjectStore interface {
	// EnsureBucket idempotently creates the logical container.
	// Concurrent callers racing on creation must not error.
	EnsureBucket(ctx context.Context, bucket string) error

	// Put writes the full stream under key. An existing object at the
	// same key is replaced with no partially written state visible to
	// readers.
	Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error

	// Get returns a finite, single-pass byte stream. The stream is
	// not restartable; retry requires a fresh Get. The caller must
	// close it on every exit path.
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)

	// Stat reports size and content type, or ErrNotFound.
	Stat(ctx context.Context, bucket, key string) (ObjectInfo, error)

	// Remove deletes the object. Removing an absent object is a
	// successful no-op so deletes stay idempotent under retry.
	Remove(ctx context.Context, bucket, key string) error
}

// MakeObjectKey derives the storage key for a new upload. The owner
// id prefix is the structural ownership boundary; the random suffix
// keeps concurrent uploads of identical filenames from colliding.
func MakeObjectKey(ownerID, fileName string) string {
	return fmt.Sprintf("%s/%s-%s", ownerID, uuid.NewString(), fileName)
}

// OwnerOf extracts the ownership prefix of a derived key.
func OwnerOf(key string) string {
	owner, _, _ := strings.Cut(key, "/")
	return owner
}

// ValidateKey rejects keys that could escape the bucket or confuse
// the backend: empty keys, absolute paths, empty segments and parent
// references.
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.HasSuffix(key, "/") {
		return ErrInvalidKey
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}
