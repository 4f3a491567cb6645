package storage

import (
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// newRef builds the ref of a new file: folder/<uuid><ext>, keeping the lowercased extension
// of the uploaded filename so served files get a sensible Content-Type.
// The client filename itself never reaches the storage key.
func newRef(folder, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return path.Join(folder, uuid.NewString()+ext)
}

// countingReader counts the bytes read through it, giving the stored size
// without buffering the upload
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
