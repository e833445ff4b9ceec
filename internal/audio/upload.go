// Package audio stores uploaded audio in short-lived temporary files.
package audio

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// DefaultExt is used when the upload's filename carries no usable extension.
const DefaultExt = ".mp3"

// Upload is an audio payload written to disk for the duration of one request.
type Upload struct {
	ID   string
	Path string
	Size int64

	once sync.Once
	err  error
}

// Save copies src into a new temp file under dir (os.TempDir() when empty).
// The caller owns the file and must call Remove, typically via defer.
func Save(dir string, src io.Reader, filename string) (*Upload, error) {
	id := uuid.NewString()

	f, err := os.CreateTemp(dir, "upload-"+id+"-*"+extension(filename))
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	u := &Upload{ID: id, Path: f.Name()}

	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		u.Remove()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	u.Size = n

	return u, nil
}

// Remove deletes the temp file. Safe to call more than once.
func (u *Upload) Remove() error {
	u.once.Do(func() {
		if err := os.Remove(u.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			u.err = fmt.Errorf("remove temp file: %w", err)
		}
	})
	return u.err
}

func extension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) < 2 || len(ext) > 6 || strings.ContainsAny(ext, `/\*`) {
		return DefaultExt
	}
	return ext
}
