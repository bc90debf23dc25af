package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SAP-F-2025/grading-workflow-service/internal/cache"
	"github.com/SAP-F-2025/grading-workflow-service/internal/workflow"
)

var ErrSnapshotNotFound = errors.New("workflow snapshot not found")

const snapshotKeyPrefix = "workflow:"

type cacheSnapshotStore struct {
	cache cache.CacheService
	ttl   time.Duration
}

// NewSnapshotStore keeps snapshots in the cache service. Every save refreshes the TTL.
func NewSnapshotStore(c cache.CacheService, ttl time.Duration) SnapshotStore {
	return &cacheSnapshotStore{cache: c, ttl: ttl}
}

func SnapshotKey(workflowID string) string {
	return snapshotKeyPrefix + workflowID
}

func (s *cacheSnapshotStore) Save(ctx context.Context, snapshot workflow.Snapshot) error {
	if snapshot.ID == "" {
		return fmt.Errorf("%w: missing id", workflow.ErrInvalidSnapshot)
	}
	return s.cache.Set(ctx, SnapshotKey(snapshot.ID), snapshot, s.ttl)
}

func (s *cacheSnapshotStore) Load(ctx context.Context, workflowID string) (*workflow.Snapshot, error) {
	var snapshot workflow.Snapshot
	if err := s.cache.Get(ctx, SnapshotKey(workflowID), &snapshot); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}
	return &snapshot, nil
}

func (s *cacheSnapshotStore) Delete(ctx context.Context, workflowID string) error {
	return s.cache.Delete(ctx, SnapshotKey(workflowID))
}
