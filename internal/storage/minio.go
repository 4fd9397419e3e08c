package storage

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/spec-kit/drive-service/internal/config"
)

// MinioStore is the deployed backend: an S3-compatible object store
// reached over the network through the MinIO client.
type MinioStore struct {
	client *minio.Client
	region string
}

// NewMinioStore connects a client from configuration. The client is
// process-wide and safe for concurrent use.
func NewMinioStore(cfg config.StorageConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.MinioAddr(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, transportErr("connect", err)
	}
	return &MinioStore{client: client, region: cfg.MinioRegion}, nil
}

// EnsureBucket creates the bucket if absent. A concurrent creator
// winning the race is not an error.
func (s *MinioStore) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return transportErr("ensure bucket", err)
	}
	if exists {
		return nil
	}
	err = s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.region})
	if err != nil {
		switch minio.ToErrorResponse(err).Code {
		case "BucketAlreadyOwnedByYou", "BucketAlreadyExists":
			return nil
		}
		return transportErr("ensure bucket", err)
	}
	return nil
}

// Put streams the object to the store. S3 PUT is atomic per key; the
// object becomes visible only once fully written.
func (s *MinioStore) Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	_, err := s.client.PutObject(ctx, bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return transportErr("put", err)
	}
	return nil
}

// Get returns the object stream. The MinIO client defers the request,
// so absence is surfaced with an explicit stat first and the stream
// is only handed out for an existing object.
func (s *MinioStore) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, transportErr("get", err)
	}
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if isNoSuchKey(err) {
			return nil, ErrNotFound
		}
		return nil, transportErr("get", err)
	}
	return obj, nil
}

// Stat reports object size and content type.
func (s *MinioStore) Stat(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	if err := ValidateKey(key); err != nil {
		return ObjectInfo{}, err
	}
	stat, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return ObjectInfo{}, ErrNotFound
		}
		return ObjectInfo{}, transportErr("stat", err)
	}
	return ObjectInfo{Size: stat.Size, ContentType: stat.ContentType}, nil
}

// Remove deletes the object. S3 deletes succeed for absent keys, so
// the call is naturally idempotent.
func (s *MinioStore) Remove(ctx context.Context, bucket, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	err := s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil
		}
		return transportErr("remove", err)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return true
	}
	return false
}
