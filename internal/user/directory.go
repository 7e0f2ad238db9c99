package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Directory resolves user ids to display handles.
type Directory interface {
	Handles(ctx context.Context) (map[uuid.UUID]string, error)
}

const (
	// handlesKey is the Redis hash holding id -> email.
	handlesKey = "users:emails"
	// generationKey is bumped by Invalidate. A fill started before the bump
	// is discarded.
	generationKey = "users:emails:gen"
)

// CachedDirectory keeps the handle map in a Redis hash in front of another
// Directory. Any Redis failure falls through to the wrapped directory.
type CachedDirectory struct {
	next Directory
	rdb  redis.UniversalClient
	ttl  time.Duration
}

// NewCachedDirectory wraps next with a Redis cache whose entries live for ttl.
func NewCachedDirectory(next Directory, rdb redis.UniversalClient, ttl time.Duration) *CachedDirectory {
	return &CachedDirectory{next: next, rdb: rdb, ttl: ttl}
}

// Handles returns the cached map, loading it from the wrapped directory on a miss.
func (c *CachedDirectory) Handles(ctx context.Context) (map[uuid.UUID]string, error) {
	cached, err := c.rdb.HGetAll(ctx, handlesKey).Result()
	if err != nil {
		log.Warn().Err(err).Msg("identity cache read failed")
	} else if len(cached) > 0 {
		return decodeHandles(cached), nil
	}

	var (
		handles map[uuid.UUID]string
		loadErr error
		loaded  bool
	)
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		handles, loadErr = c.next.Handles(ctx)
		loaded = true
		if loadErr != nil || len(handles) == 0 {
			return nil
		}
		return c.store(ctx, tx, handles)
	}, generationKey)
	switch {
	case errors.Is(err, redis.TxFailedErr):
		log.Debug().Msg("identity cache invalidated during load, not cached")
	case err != nil:
		log.Warn().Err(err).Msg("identity cache write failed")
	}

	if !loaded {
		handles, loadErr = c.next.Handles(ctx)
	}
	if loadErr != nil {
		return nil, loadErr
	}
	return handles, nil
}

// Invalidate drops the cached map and aborts any fill in flight.
func (c *CachedDirectory) Invalidate(ctx context.Context) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey)
		pipe.Del(ctx, handlesKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate identity cache: %w", err)
	}
	return nil
}

// store writes handles inside tx; it fails with redis.TxFailedErr when the
// generation moved since tx started watching.
func (c *CachedDirectory) store(ctx context.Context, tx *redis.Tx, handles map[uuid.UUID]string) error {
	fields := make(map[string]interface{}, len(handles))
	for id, email := range handles {
		fields[id.String()] = email
	}

	_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, handlesKey)
		pipe.HSet(ctx, handlesKey, fields)
		pipe.Expire(ctx, handlesKey, c.ttl)
		return nil
	})
	return err
}

func decodeHandles(raw map[string]string) map[uuid.UUID]string {
	handles := make(map[uuid.UUID]string, len(raw))
	for k, v := range raw {
		id, err := uuid.Parse(k)
		if err != nil {
			continue
		}
		handles[id] = v
	}
	return handles
}
