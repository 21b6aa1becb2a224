package entities

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	domain "github.com/appointly/scheduler/internal/domain/appointment"
	"github.com/appointly/scheduler/internal/domain/entities"
)

const (
	snapshotKey = "entities:snapshot"
	snapshotTTL = 60 * time.Second
)

// ======================================================
// INPUT / OUTPUT
// ======================================================

type GetEntitiesInput struct {
	Selection       entities.Selection
	IncludePackages bool
}

// ======================================================
// USE CASE
// ======================================================

// GetEntities serves the browse catalog: the full entity snapshot resolved
// and filtered against the caller's selection. The snapshot is cached in
// Redis; filtering is per-request and always runs in memory. A nil cache
// client disables caching, nothing else.
type GetEntities struct {
	repo  domain.Repository
	cache *redis.Client
	log   zerolog.Logger
}

func NewGetEntities(repo domain.Repository, cache *redis.Client, log zerolog.Logger) *GetEntities {
	return &GetEntities{repo: repo, cache: cache, log: log}
}

func (uc *GetEntities) Execute(ctx context.Context, in GetEntitiesInput) (*entities.Filtered, error) {
	snap, err := uc.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	filtered := entities.Filter(snap, in.Selection, entities.FilterOptions{
		IncludePackages: in.IncludePackages,
	})
	return &filtered, nil
}

// Invalidate drops the cached snapshot. Called after any write that changes
// slot occupancy or entity state.
func (uc *GetEntities) Invalidate(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Del(ctx, snapshotKey).Err(); err != nil {
		uc.log.Warn().Err(err).Msg("entities cache invalidation failed")
	}
}

func (uc *GetEntities) snapshot(ctx context.Context) (*entities.Snapshot, error) {
	if uc.cache != nil {
		raw, err := uc.cache.Get(ctx, snapshotKey).Bytes()
		if err == nil {
			var snap entities.Snapshot
			if err := json.Unmarshal(raw, &snap); err == nil {
				return &snap, nil
			}
			// Unreadable entry, fall through to the database.
		} else if err != redis.Nil {
			uc.log.Warn().Err(err).Msg("entities cache read failed")
		}
	}

	snap, err := uc.repo.GetSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if raw, err := json.Marshal(snap); err == nil {
			if err := uc.cache.Set(ctx, snapshotKey, raw, snapshotTTL).Err(); err != nil {
				uc.log.Warn().Err(err).Msg("entities cache write failed")
			}
		}
	}

	return snap, nil
}
