package user

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// redisForTest connects to REDIS_URL and clears the directory keys around the test.
func redisForTest(t *testing.T) *redis.Client {
	t.Helper()
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("ParseURL: %v", err)
	}
	rdb := redis.NewClient(opts)
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("redis unreachable: %v", err)
	}
	rdb.Del(ctx, handlesKey, generationKey)
	t.Cleanup(func() {
		rdb.Del(context.Background(), handlesKey, generationKey)
		rdb.Close()
	})
	return rdb
}

// registeringStore snapshots its users, then runs onLoad before returning the
// snapshot, the way a registration can commit while a load is in flight.
type registeringStore struct {
	*memStore
	onLoad func()
}

func (r *registeringStore) Handles(ctx context.Context) (map[uuid.UUID]string, error) {
	snapshot, err := r.memStore.Handles(ctx)
	if hook := r.onLoad; hook != nil {
		r.onLoad = nil
		hook()
	}
	return snapshot, err
}

func TestCachedDirectoryRegistrationDuringLoad(t *testing.T) {
	rdb := redisForTest(t)
	ctx := context.Background()

	mem := &memStore{users: map[uuid.UUID]*User{}}
	jane, _ := mem.Create(ctx, "jane@example.com", "hash")
	src := &registeringStore{memStore: mem}
	dir := NewCachedDirectory(src, rdb, time.Minute)
	svc := NewService(mem, dir)

	var john *User
	src.onLoad = func() {
		var err error
		if john, err = svc.Create(ctx, "john@example.com", "hash"); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	first, err := dir.Handles(ctx)
	if err != nil {
		t.Fatalf("Handles() error = %v", err)
	}
	if first[jane.ID] != "jane@example.com" {
		t.Errorf("first load = %v", first)
	}

	if n, _ := rdb.Exists(ctx, handlesKey).Result(); n != 0 {
		t.Error("stale handles cached after invalidation")
	}

	second, err := dir.Handles(ctx)
	if err != nil {
		t.Fatalf("Handles() error = %v", err)
	}
	if second[john.ID] != "john@example.com" {
		t.Errorf("author registered during load not resolved: %v", second)
	}
}

func TestCachedDirectoryServesAndInvalidates(t *testing.T) {
	rdb := redisForTest(t)
	ctx := context.Background()

	mem := &memStore{users: map[uuid.UUID]*User{}}
	jane, _ := mem.Create(ctx, "jane@example.com", "hash")
	dir := NewCachedDirectory(mem, rdb, time.Minute)

	if _, err := dir.Handles(ctx); err != nil {
		t.Fatalf("Handles() error = %v", err)
	}
	if ttl := rdb.TTL(ctx, handlesKey).Val(); ttl <= 0 || ttl > time.Minute {
		t.Errorf("ttl = %v", ttl)
	}

	// Written behind the cache's back: the hit must not see it.
	john, _ := mem.Create(ctx, "john@example.com", "hash")
	cached, err := dir.Handles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if cached[jane.ID] != "jane@example.com" {
		t.Errorf("cached = %v", cached)
	}
	if _, ok := cached[john.ID]; ok {
		t.Error("cache hit went to the wrapped directory")
	}

	if err := dir.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	fresh, err := dir.Handles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if fresh[john.ID] != "john@example.com" {
		t.Errorf("after Invalidate = %v", fresh)
	}
}

type failingDirectory struct{ err error }

func (f failingDirectory) Handles(context.Context) (map[uuid.UUID]string, error) {
	return nil, f.err
}

func TestCachedDirectoryPropagatesLoadError(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	boom := errors.New("db down")
	dir := NewCachedDirectory(failingDirectory{err: boom}, rdb, time.Minute)
	if _, err := dir.Handles(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Handles() err = %v, want %v", err, boom)
	}
}
