package post

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/rs/zerolog/log"
)

var extChars = regexp.MustCompile(`[^A-Za-z0-9.]`)

// stagedFile is an upload spooled to local disk so the asset store gets a
// seekable body of known size. It is owned by one request.
type stagedFile struct {
	file *os.File
	size int64
}

// stage copies src into a fresh temp file in dir (os.TempDir when empty),
// keeping the extension of filename. The caller must release the result.
func stage(src io.Reader, filename, dir string) (*stagedFile, error) {
	ext := extChars.ReplaceAllString(filepath.Ext(filename), "")
	f, err := os.CreateTemp(dir, "upload-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	st := &stagedFile{file: f}

	n, err := io.Copy(f, src)
	if err != nil {
		st.release()
		return nil, fmt.Errorf("copy upload: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		st.release()
		return nil, fmt.Errorf("rewind temp file: %w", err)
	}
	st.size = n
	return st, nil
}

// release closes and removes the temp file. Safe to call more than once.
func (s *stagedFile) release() {
	if s == nil || s.file == nil {
		return
	}
	name := s.file.Name()
	_ = s.file.Close()
	if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("path", name).Msg("staged upload not removed")
	}
	s.file = nil
}
