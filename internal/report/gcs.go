package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"

	"spendlens/internal/analytics"
	"spendlens/internal/log"
)

const uploadTimeout = 2 * time.Minute

// ObjectWriter opens a writer for one object. The upload is committed on Close.
type ObjectWriter interface {
	NewWriter(ctx context.Context, bucket, object string) io.WriteCloser
}

type storageObjects struct {
	client *storage.Client
}

func (o storageObjects) NewWriter(ctx context.Context, bucket, object string) io.WriteCloser {
	w := o.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = "application/json"
	return w
}

// GCSSink uploads each report as an object in a Cloud Storage bucket.
type GCSSink struct {
	objects ObjectWriter
	bucket  string
	prefix  string
	closer  io.Closer
}

// NewGCSSink creates a storage client using Application Default Credentials.
func NewGCSSink(ctx context.Context, bucket, prefix string) (*GCSSink, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	sink := NewGCSSinkWithWriter(storageObjects{client: client}, bucket, prefix)
	sink.closer = client
	return sink, nil
}

func NewGCSSinkWithWriter(objects ObjectWriter, bucket, prefix string) *GCSSink {
	return &GCSSink{objects: objects, bucket: bucket, prefix: prefix}
}

func (s *GCSSink) Name() string { return "gcs" }

func (s *GCSSink) Write(ctx context.Context, rep *analytics.Report) (string, error) {
	body, err := Encode(rep)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	object := ObjectName(s.prefix, rep)
	w := s.objects.NewWriter(ctx, s.bucket, object)
	if _, err := w.Write(body); err != nil {
		w.Close()
		return "", fmt.Errorf("copy report to GCS writer: %w", err)
	}
	// Close finalizes the upload
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload: %w", err)
	}
	ref := fmt.Sprintf("gs://%s/%s", s.bucket, object)
	log.FromContext(ctx).DebugContext(ctx, "Report uploaded",
		log.FieldSink, s.Name(),
		log.FieldSinkRef, ref)
	return ref, nil
}

func (s *GCSSink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
