package static

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"time"
)

// ErrNotExist is returned by a Source when no file exists under the name.
var ErrNotExist = fs.ErrNotExist

// Object is an opened static file.
type Object struct {
	// Body is the file content. When it also implements io.Seeker the
	// handler supports range and conditional requests through
	// http.ServeContent.
	Body io.ReadCloser

	Size        int64
	ModTime     time.Time
	ContentType string
	ETag        string
}

// Source opens static files by slash-separated relative name.
type Source interface {
	Open(ctx context.Context, name string) (*Object, error)
}

// DirSource serves files from a directory on disk.
type DirSource struct {
	dir  string
	fsys fs.FS
}

// NewDirSource creates a source rooted at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir, fsys: os.DirFS(dir)}
}

// Dir returns the root directory.
func (s *DirSource) Dir() string {
	return s.dir
}

// Open opens name. Directories are reported as ErrNotExist.
func (s *DirSource) Open(_ context.Context, name string) (*Object, error) {
	f, err := s.fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotExist
		}
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, ErrNotExist
	}

	return &Object{
		Body:    f,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}
