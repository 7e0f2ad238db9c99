package post

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/imagefeed/service/internal/metrics"
	"github.com/imagefeed/service/internal/storage"
)

// Repository is the persistence boundary for posts.
type Repository interface {
	Create(ctx context.Context, p NewPost) (*Post, error)
	// List returns all posts ordered by created_at, newest first.
	List(ctx context.Context) ([]Post, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Post, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Directory resolves author ids to display handles.
type Directory interface {
	Handles(ctx context.Context) (map[uuid.UUID]string, error)
}

// Publisher announces committed changes to other services.
type Publisher interface {
	PostCreated(ctx context.Context, p Post) error
	PostDeleted(ctx context.Context, p Post) error
}

// Options carries the fixed upload settings.
type Options struct {
	Folder     string // destination namespace in the asset store
	Tag        string // classification tag attached to every asset
	StagingDir string // where uploads are spooled; os.TempDir when empty
}

// Upload is an incoming media upload.
type Upload struct {
	Filename    string
	ContentType string
	Caption     string
	Body        io.Reader
}

var (
	errNoURL  = errors.New("asset store returned no url")
	errNoName = errors.New("asset store returned no name")
)

// Service orchestrates uploads, assembles feeds and guards deletion.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	repo      Repository
	directory Directory
	store     storage.Storage
	events    Publisher
	opts      Options
}

// NewService wires the post service to its collaborators.
func NewService(repo Repository, directory Directory, store storage.Storage, events Publisher, opts Options) *Service {
	return &Service{repo: repo, directory: directory, store: store, events: events, opts: opts}
}

// Upload stages in, pushes it to the asset store and records the post.
// The post is only written once the store has returned a URL; any failure
// is reported as ErrUploadFailed wrapping the cause.
func (s *Service) Upload(ctx context.Context, userID uuid.UUID, in Upload) (*Post, error) {
	start := time.Now()
	ft := FileTypeFromContentType(in.ContentType)

	p, err := s.upload(ctx, userID, in, ft)
	metrics.PostUploadDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PostUploads.WithLabelValues("failed", string(ft)).Inc()
		log.Error().Err(err).
			Str("user_id", userID.String()).
			Str("file_name", in.Filename).
			Msg("upload failed")
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	metrics.PostUploads.WithLabelValues("created", string(ft)).Inc()

	if err := s.events.PostCreated(ctx, *p); err != nil {
		log.Warn().Err(err).Str("post_id", p.ID.String()).Msg("post.created not published")
	}
	return p, nil
}

func (s *Service) upload(ctx context.Context, userID uuid.UUID, in Upload, ft FileType) (*Post, error) {
	staged, err := stage(in.Body, in.Filename, s.opts.StagingDir)
	if err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}
	defer staged.release()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stored, err := s.store.Upload(ctx, storage.Object{
		Name:        in.Filename,
		Folder:      s.opts.Folder,
		Tags:        []string{s.opts.Tag},
		ContentType: in.ContentType,
		Size:        staged.size,
		Body:        staged.file,
	})
	if err != nil {
		return nil, fmt.Errorf("store asset: %w", err)
	}
	if stored == nil {
		return nil, errNoURL
	}
	if stored.URL == "" {
		s.discard(ctx, stored.Key)
		return nil, errNoURL
	}
	if stored.Name == "" {
		s.discard(ctx, stored.Key)
		return nil, errNoName
	}

	p, err := s.repo.Create(ctx, NewPost{
		UserID:   userID,
		Caption:  in.Caption,
		URL:      stored.URL,
		FileType: ft,
		FileName: stored.Name,
	})
	if err != nil {
		s.discard(ctx, stored.Key)
		return nil, fmt.Errorf("persist post: %w", err)
	}
	return p, nil
}

// discard removes an asset that no post references. Failures are logged only.
func (s *Service) discard(ctx context.Context, key string) {
	if key == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.store.Delete(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("orphaned asset not removed")
	}
}

// Feed returns every post newest first, labelled with its author's email and
// whether viewer owns it. Authors that no longer resolve get UnknownAuthor.
func (s *Service) Feed(ctx context.Context, viewer uuid.UUID) ([]View, error) {
	posts, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	handles, err := s.directory.Handles(ctx)
	if err != nil {
		return nil, fmt.Errorf("load author handles: %w", err)
	}

	views := make([]View, 0, len(posts))
	for _, p := range posts {
		email, ok := handles[p.UserID]
		if !ok {
			email = UnknownAuthor
		}
		views = append(views, View{
			ID:        p.ID.String(),
			Caption:   p.Caption,
			URL:       p.URL,
			FileType:  p.FileType,
			FileName:  p.FileName,
			CreatedAt: p.CreatedAt.Format(time.RFC3339Nano),
			UserID:    p.UserID.String(),
			IsOwner:   p.UserID == viewer,
			Email:     email,
		})
	}
	return views, nil
}

// Delete removes the post identified by rawID if caller owns it.
// Errors: ErrInvalidID, ErrNotFound, ErrForbidden, or a storage failure.
func (s *Service) Delete(ctx context.Context, caller uuid.UUID, rawID string) error {
	p, err := s.delete(ctx, caller, rawID)
	metrics.PostDeletes.WithLabelValues(deleteResult(err)).Inc()
	if err != nil {
		return err
	}

	s.discard(ctx, storage.Key(s.opts.Folder, p.FileName))
	if err := s.events.PostDeleted(ctx, *p); err != nil {
		log.Warn().Err(err).Str("post_id", p.ID.String()).Msg("post.deleted not published")
	}
	return nil
}

func (s *Service) delete(ctx context.Context, caller uuid.UUID, rawID string) (*Post, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, rawID)
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != caller {
		return nil, ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}
	return p, nil
}

func deleteResult(err error) string {
	switch {
	case err == nil:
		return "deleted"
	case errors.Is(err, ErrInvalidID):
		return "invalid_id"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	default:
		return "error"
	}
}
