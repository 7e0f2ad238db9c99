// Package storage defines the asset store used to host uploaded media.
// Swap implementations by changing the concrete type injected at startup;
// the MinIO implementation works with any S3-compatible provider.
package storage

import (
	"context"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Object is a blob to be pushed to the store.
type Object struct {
	// Name is the client's original filename. Its extension is kept.
	Name        string
	Folder      string
	Tags        []string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Stored describes a blob after a successful upload.
type Stored struct {
	URL  string // durable public address
	Name string // canonical name assigned by the store
	Key  string // folder-qualified object key
}

// Storage is the interface for uploading and removing objects.
type Storage interface {
	// Upload pushes obj to the store and returns where it now lives.
	Upload(ctx context.Context, obj Object) (*Stored, error)
	// Delete removes an object identified by key.
	Delete(ctx context.Context, key string) error
	// PublicURL constructs the browser-accessible URL for a given key.
	PublicURL(key string) string
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// CanonicalName derives a collision-free object name from an uploaded
// filename: "My Cat.PNG" becomes "My_Cat_1a2b3c4d.png".
func CanonicalName(original string) string {
	base := path.Base(strings.ReplaceAll(original, "\\", "/"))
	ext := strings.ToLower(path.Ext(base))
	stem := strings.TrimSuffix(base, path.Ext(base))
	stem = strings.Trim(unsafeChars.ReplaceAllString(stem, "_"), "._")
	if stem == "" {
		stem = "file"
	}
	ext = unsafeChars.ReplaceAllString(ext, "")

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return stem + "_" + suffix + ext
}

// Key joins a folder and a canonical name into an object key.
func Key(folder, name string) string {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return name
	}
	return folder + "/" + name
}
