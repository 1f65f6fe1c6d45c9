package report

import (
	"bytes"
	"context"
	"os"
	"path"
	"path/filepath"

	"github.com/koustreak/schemadiff/internal/errs"
	"github.com/koustreak/schemadiff/internal/filestore"
)

// Destination stores an encoded report under name and returns where it went.
type Destination interface {
	Write(ctx context.Context, name string, data []byte, f Format) (string, error)
}

// FileDestination writes reports into Dir, creating it when needed.
type FileDestination struct {
	Dir string
}

func (d FileDestination) Write(_ context.Context, name string, data []byte, _ Format) (string, error) {
	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errs.Wrap(errs.ErrKindPermissionDenied, "failed to create report directory", err)
	}
	p := filepath.Join(dir, name)
	if err := WriteFile(p, data); err != nil {
		return "", err
	}
	return p, nil
}

// WriteFile writes data to p with 0644 permissions.
func WriteFile(p string, data []byte) error {
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return errs.Wrap(errs.ErrKindPermissionDenied, "failed to write report "+p, err)
	}
	return nil
}

// ObjectDestination uploads reports to Bucket under Prefix.
type ObjectDestination struct {
	Store  filestore.Store
	Bucket string
	Prefix string

	// Metadata is attached to every uploaded object.
	Metadata map[string]string
}

func (d ObjectDestination) Write(ctx context.Context, name string, data []byte, f Format) (string, error) {
	if d.Bucket == "" {
		return "", errs.New(errs.ErrKindInvalidInput, "object destination has no bucket")
	}
	if err := d.Store.EnsureBucket(ctx, d.Bucket); err != nil {
		return "", err
	}

	key := path.Join(d.Prefix, name)
	_, err := d.Store.PutObject(ctx, d.Bucket, key, bytes.NewReader(data), int64(len(data)), filestore.PutOptions{
		ContentType: f.ContentType(),
		Metadata:    d.Metadata,
	})
	if err != nil {
		return "", err
	}
	return d.Bucket + "/" + key, nil
}
