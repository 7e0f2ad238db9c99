package post

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/imagefeed/service/internal/db"
)

// fakeRow assigns fixed values to Scan destinations in column order.
type fakeRow struct {
	values []interface{}
	err    error
}

func (r fakeRow) Scan(dest ...interface{}) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch d := d.(type) {
		case *uuid.UUID:
			*d = r.values[i].(uuid.UUID)
		case *string:
			*d = r.values[i].(string)
		case *time.Time:
			*d = r.values[i].(time.Time)
		}
	}
	return nil
}

func TestScanPost(t *testing.T) {
	id, owner := uuid.New(), uuid.New()
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	p, err := scanPost(fakeRow{values: []interface{}{
		id, "beach", "https://cdn.example.com/imagefeed-uploads/beach_1a2b3c4d.mp4", "video", "beach_1a2b3c4d.mp4", created, owner,
	}})
	if err != nil {
		t.Fatalf("scanPost() error = %v", err)
	}
	want := Post{
		ID:        id,
		Caption:   "beach",
		URL:       "https://cdn.example.com/imagefeed-uploads/beach_1a2b3c4d.mp4",
		FileType:  FileTypeVideo,
		FileName:  "beach_1a2b3c4d.mp4",
		CreatedAt: created,
		UserID:    owner,
	}
	if *p != want {
		t.Errorf("scanPost() = %+v, want %+v", *p, want)
	}

	boom := errors.New("conn reset")
	if _, err := scanPost(fakeRow{err: boom}); !errors.Is(err, boom) {
		t.Errorf("scanPost() err = %v, want %v", err, boom)
	}
}

// poolForTest connects to DATABASE_URL, applies migrations and creates an
// owner account removed with its posts at cleanup.
func poolForTest(t *testing.T) (*pgxpool.Pool, uuid.UUID) {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.Connect(ctx, url)
	if err != nil {
		t.Skipf("database unreachable: %v", err)
	}
	if err := db.Migrate(url); err != nil {
		pool.Close()
		t.Fatalf("Migrate() error = %v", err)
	}

	var owner uuid.UUID
	err = pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash) VALUES ($1, 'x') RETURNING id`,
		uuid.NewString()+"@example.com",
	).Scan(&owner)
	if err != nil {
		pool.Close()
		t.Fatalf("insert owner: %v", err)
	}
	t.Cleanup(func() {
		ctx := context.Background()
		pool.Exec(ctx, `DELETE FROM posts WHERE user_id = $1`, owner) //nolint:errcheck
		pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, owner)      //nolint:errcheck
		pool.Close()
	})
	return pool, owner
}

func TestPostgresRepositoryListOrder(t *testing.T) {
	pool, owner := poolForTest(t)
	repo := NewPostgresRepository(pool)
	ctx := context.Background()

	var ids []uuid.UUID
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		p, err := repo.Create(ctx, NewPost{UserID: owner, Caption: name, URL: "https://cdn.example.com/" + name, FileType: FileTypeImage, FileName: name})
		if err != nil {
			t.Fatalf("Create(%s) error = %v", name, err)
		}
		ids = append(ids, p.ID)
	}

	// a is oldest; b and c share a timestamp, so insertion order decides.
	tie := time.Now().Add(time.Hour).UTC().Truncate(time.Microsecond)
	if _, err := pool.Exec(ctx, `UPDATE posts SET created_at = $1 WHERE id IN ($2, $3)`, tie, ids[1], ids[2]); err != nil {
		t.Fatalf("set tie: %v", err)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var got []uuid.UUID
	for _, p := range all {
		if p.UserID == owner {
			got = append(got, p.ID)
		}
	}
	want := []uuid.UUID{ids[2], ids[1], ids[0]}
	if len(got) != len(want) {
		t.Fatalf("List() owner posts = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPostgresRepositoryGetAndDelete(t *testing.T) {
	pool, owner := poolForTest(t)
	repo := NewPostgresRepository(pool)
	ctx := context.Background()

	p, err := repo.Create(ctx, NewPost{UserID: owner, Caption: "clip", URL: "https://cdn.example.com/clip.mp4", FileType: FileTypeVideo, FileName: "clip.mp4"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.FileType != FileTypeVideo || got.UserID != owner || got.Caption != "clip" {
		t.Errorf("GetByID() = %+v", got)
	}

	if _, err := repo.GetByID(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID(unknown) err = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(unknown) err = %v, want ErrNotFound", err)
	}

	if err := repo.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID(deleted) err = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() err = %v, want ErrNotFound", err)
	}
}
