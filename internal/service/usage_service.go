package service

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/drive-service/internal/events"
)

// UsageService maintains per-user storage counters in Redis, fed by
// file lifecycle events. Counters are advisory: failures only log and
// never affect the storage or metadata outcome.
type UsageService struct {
	client *redis.Client
	logger *zap.Logger
}

// NewUsageService creates the service.
func NewUsageService(client *redis.Client, logger *zap.Logger) *UsageService {
	return &UsageService{client: client, logger: logger}
}

// RegisterHandlers subscribes to file lifecycle events.
func (u *UsageService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventFileUploaded, u.handleFileUploaded)
	dispatcher.Subscribe(events.EventFileDeleted, u.handleFileDeleted)
	dispatcher.Subscribe(events.EventUserDeleted, u.handleUserDeleted)
}

// Usage reports accumulated counters for a user.
type Usage struct {
	Files int64 `json:"files"`
	Bytes int64 `json:"bytes"`
}

// GetUsage returns the counters for one user. Missing keys read as
// zero.
func (u *UsageService) GetUsage(ctx context.Context, userID string) (Usage, error) {
	if u.client == nil {
		return Usage{}, nil
	}
	files, err := u.client.Get(ctx, fileCountKey(userID)).Int64()
	if err != nil && err != redis.Nil {
		return Usage{}, err
	}
	bytes, err := u.client.Get(ctx, usageBytesKey(userID)).Int64()
	if err != nil && err != redis.Nil {
		return Usage{}, err
	}
	return Usage{Files: files, Bytes: bytes}, nil
}

func (u *UsageService) handleFileUploaded(ctx context.Context, event events.Event) error {
	return u.adjust(ctx, event.OwnerID, 1, event.SizeBytes)
}

func (u *UsageService) handleFileDeleted(ctx context.Context, event events.Event) error {
	return u.adjust(ctx, event.OwnerID, -1, -event.SizeBytes)
}

// handleUserDeleted drops both counter keys so a deleted account does
// not leave stale usage behind.
func (u *UsageService) handleUserDeleted(ctx context.Context, event events.Event) error {
	if u.client == nil {
		return nil
	}
	if err := u.client.Del(ctx, fileCountKey(event.OwnerID), usageBytesKey(event.OwnerID)).Err(); err != nil {
		u.logger.Warn("usage counter cleanup failed", zap.String("user_id", event.OwnerID), zap.Error(err))
		return err
	}
	return nil
}

func (u *UsageService) adjust(ctx context.Context, userID string, files, bytes int64) error {
	if u.client == nil {
		return nil
	}
	pipe := u.client.Pipeline()
	pipe.IncrBy(ctx, fileCountKey(userID), files)
	pipe.IncrBy(ctx, usageBytesKey(userID), bytes)
	if _, err := pipe.Exec(ctx); err != nil {
		u.logger.Warn("usage counter update failed", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	return nil
}

func fileCountKey(userID string) string {
	return fmt.Sprintf("drive:files:%s", userID)
}

func usageBytesKey(userID string) string {
	return fmt.Sprintf("drive:usage:%s", userID)
}
