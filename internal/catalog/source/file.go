package source

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"

	"github.com/xenking/galaxy-store/internal/catalog"
	"github.com/xenking/galaxy-store/internal/domain/product"
)

var _ catalog.Source = (*File)(nil)

// File reads the catalog from a JSON array on disk. Paths ending in .gz are
// gunzipped first.
type File struct {
	path string
}

// NewFile returns a File source for path.
func NewFile(path string) *File {
	return &File{path: path}
}

// List reads and decodes the file on every call.
func (f *File) List(ctx context.Context) ([]product.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := ReadCatalogFile(f.path)
	if err != nil {
		return nil, err
	}
	products, err := product.DecodeList(data)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", f.path)
	}
	return products, nil
}

// ReadCatalogFile returns the contents of path, decompressing .gz files.
func ReadCatalogFile(path string) ([]byte, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open catalog file")
	}
	defer fh.Close()

	var r io.Reader = fh
	if strings.HasSuffix(path, ".gz") {
		zr, err := pgzip.NewReader(fh)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip stream")
		}
		defer zr.Close()
		r = zr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return data, nil
}
