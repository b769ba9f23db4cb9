package connectors

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/maraichr/ontograph/internal/ingestion"
)

// ZipSource yields the supported documents inside a ZIP archive held in
// memory.
type ZipSource struct {
	data []byte
}

func NewZipSource(data []byte) *ZipSource {
	return &ZipSource{data: data}
}

// Documents reads every supported entry, in archive order.
func (z *ZipSource) Documents(ctx context.Context, fn func(ingestion.Document) error) error {
	zr, err := zip.NewReader(bytes.NewReader(z.data), int64(len(z.data)))
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}

	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		if f.FileInfo().IsDir() || strings.HasPrefix(path.Base(f.Name), ".") {
			continue
		}
		// Reject entries escaping the archive root.
		if clean := path.Clean(f.Name); strings.HasPrefix(clean, "../") || path.IsAbs(clean) {
			return fmt.Errorf("invalid zip entry: %s", f.Name)
		}
		mimeType, ok := MimeType(f.Name)
		if !ok {
			continue
		}

		data, err := readEntry(f)
		if err != nil {
			return err
		}
		if err := fn(ingestion.Document{Name: f.Name, MimeType: mimeType, Data: data}); err != nil {
			return err
		}
	}
	return nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open zip entry: %w", err)
	}
	defer rc.Close()

	// Limit extraction size to prevent zip bombs.
	data, err := io.ReadAll(io.LimitReader(rc, maxObjectSize))
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", f.Name, err)
	}
	return data, nil
}
