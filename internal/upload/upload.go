// Package upload is the document-management collaborator: it archives
// source bill PDFs to a GCS bucket after a successful batch. The ledger
// engine never depends on it; only the CLI wires it in.
package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// uploadTimeout bounds a single object upload.
const uploadTimeout = 2 * time.Minute

// Uploader stores a local file under an object name.
type Uploader interface {
	UploadFile(ctx context.Context, objectName, filePath string) error
}

// GCSUploader implements Uploader against a Google Cloud Storage
// bucket. With an empty credentials file, Application Default
// Credentials are used.
type GCSUploader struct {
	bucket    string
	credsFile string
}

// New creates an uploader for the given bucket.
func New(bucket, credsFile string) *GCSUploader {
	return &GCSUploader{bucket: bucket, credsFile: credsFile}
}

// UploadFile implements Uploader.
func (u *GCSUploader) UploadFile(ctx context.Context, objectName, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open file %q: %w", filePath, err)
	}
	defer f.Close()

	var opts []option.ClientOption
	if u.credsFile != "" {
		opts = append(opts, option.WithCredentialsFile(u.credsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := client.Bucket(u.bucket).Object(objectName).NewWriter(ctx)
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return fmt.Errorf("copy file to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload: %w", err)
	}
	return nil
}

// ObjectName derives the bucket object name for a source bill: the
// batch run id prefixed to the file's base name, under bills/.
func ObjectName(runID, filePath string) string {
	return path.Join("bills", runID+"_"+filepath.Base(filePath))
}
