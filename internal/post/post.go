// Package post implements the post lifecycle: staged uploads to the asset
// store, the per-viewer feed, and owner-only deletion.
package post

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileType classifies an uploaded asset.
type FileType string

const (
	FileTypeImage FileType = "image"
	FileTypeVideo FileType = "video"
)

// FileTypeFromContentType maps a declared content type to a FileType.
// Anything that is not video/* is treated as an image.
func FileTypeFromContentType(contentType string) FileType {
	if strings.HasPrefix(contentType, "video/") {
		return FileTypeVideo
	}
	return FileTypeImage
}

// Post is a single uploaded media item.
type Post struct {
	ID        uuid.UUID `json:"id"`
	Caption   string    `json:"caption"`
	URL       string    `json:"url"`
	FileType  FileType  `json:"file_type"`
	FileName  string    `json:"file_name"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uuid.UUID `json:"user_id"`
}

// NewPost holds the fields of a post before the repository assigns id and created_at.
type NewPost struct {
	UserID   uuid.UUID
	Caption  string
	URL      string
	FileType FileType
	FileName string
}

// View is a post as shown in one viewer's feed.
type View struct {
	ID        string   `json:"id"`
	Caption   string   `json:"caption"`
	URL       string   `json:"url"`
	FileType  FileType `json:"file_type"`
	FileName  string   `json:"file_name"`
	CreatedAt string   `json:"created_at"`
	UserID    string   `json:"user_id"`
	IsOwner   bool     `json:"is_owner"`
	Email     string   `json:"email"`
}

// UnknownAuthor labels posts whose author no longer resolves.
const UnknownAuthor = "unknown"

var (
	// ErrUploadFailed wraps any staging, store or persistence failure of an upload.
	ErrUploadFailed = errors.New("file upload failed")
	// ErrNotFound is returned when the referenced post does not exist.
	ErrNotFound = errors.New("post not found")
	// ErrForbidden is returned when the caller does not own the post.
	ErrForbidden = errors.New("not authorized to delete this post")
	// ErrInvalidID is returned for a post id that is not a UUID.
	ErrInvalidID = errors.New("invalid post id")
)
