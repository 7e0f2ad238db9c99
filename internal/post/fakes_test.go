package post

import (
	"context"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/imagefeed/service/internal/storage"
)

// memRepo is an in-memory Repository. created_at advances one second per insert.
type memRepo struct {
	mu        sync.Mutex
	posts     []Post
	base      time.Time
	createErr error
	deleteErr error
}

func newMemRepo() *memRepo {
	return &memRepo{base: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (r *memRepo) Create(_ context.Context, p NewPost) (*Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	created := Post{
		ID:        uuid.New(),
		Caption:   p.Caption,
		URL:       p.URL,
		FileType:  p.FileType,
		FileName:  p.FileName,
		CreatedAt: r.base.Add(time.Duration(len(r.posts)) * time.Second),
		UserID:    p.UserID,
	}
	r.posts = append(r.posts, created)
	return &created, nil
}

func (r *memRepo) List(context.Context) ([]Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Post, 0, len(r.posts))
	for i := len(r.posts) - 1; i >= 0; i-- {
		out = append(out, r.posts[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (*Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.posts {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	for i, p := range r.posts {
		if p.ID == id {
			r.posts = append(r.posts[:i], r.posts[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (r *memRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.posts)
}

// insert adds a post with an explicit timestamp.
func (r *memRepo) insert(p Post) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts = append(r.posts, p)
}

type fakeDirectory struct {
	handles map[uuid.UUID]string
	err     error
}

func (d fakeDirectory) Handles(context.Context) (map[uuid.UUID]string, error) {
	if d.err != nil {
		return nil, d.err
	}
	out := make(map[uuid.UUID]string, len(d.handles))
	for k, v := range d.handles {
		out[k] = v
	}
	return out, nil
}

// fakeStore records uploads. When url is empty it reports success without a URL.
type fakeStore struct {
	mu        sync.Mutex
	url       string
	name      string
	err       error
	uploads   []storage.Object
	bodies    [][]byte
	stagedAt  []string
	deleted   []string
	deleteErr error
}

func (s *fakeStore) Upload(_ context.Context, obj storage.Object) (*storage.Stored, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := obj.Body.(*os.File); ok {
		s.stagedAt = append(s.stagedAt, f.Name())
	}
	body, err := io.ReadAll(obj.Body)
	if err != nil {
		return nil, err
	}
	s.uploads = append(s.uploads, obj)
	s.bodies = append(s.bodies, body)
	if s.err != nil {
		return nil, s.err
	}
	return &storage.Stored{URL: s.url, Name: s.name, Key: storage.Key(obj.Folder, s.name)}, nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, key)
	return s.deleteErr
}

func (s *fakeStore) PublicURL(key string) string {
	return "https://cdn/" + key
}

type recordingPublisher struct {
	mu      sync.Mutex
	created []Post
	deleted []Post
	err     error
}

func (p *recordingPublisher) PostCreated(_ context.Context, post Post) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, post)
	return p.err
}

func (p *recordingPublisher) PostDeleted(_ context.Context, post Post) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, post)
	return p.err
}
