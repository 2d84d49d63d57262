// Package archive keeps immutable copies of every submitted report
// batch in object storage. The spreadsheet upstream is mutable and
// shared, so these snapshots are the only durable record of what a
// user actually sent.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Archiver stores submission snapshots.
type Archiver interface {
	StoreSnapshot(ctx context.Context, username, reportCode string, payload []byte) error
}

// MinioArchive implements Archiver against a MinIO or S3-compatible endpoint.
type MinioArchive struct {
	client *minio.Client
	bucket string
}

// NewMinioArchive connects to the object store and ensures the bucket
// exists. Returns an error if the endpoint is unreachable; callers
// treat the archive as optional and run without it.
func NewMinioArchive(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioArchive, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
		log.Printf("archive: created bucket %s", bucket)
	}

	return &MinioArchive{client: client, bucket: bucket}, nil
}

// StoreSnapshot writes one JSON snapshot under
// <username>/<reportCode>/<timestamp>.json. Object names embed the
// submission time so repeated updates to the same report never collide.
func (a *MinioArchive) StoreSnapshot(ctx context.Context, username, reportCode string, payload []byte) error {
	name := fmt.Sprintf("%s/%s/%s.json", username, reportCode, time.Now().UTC().Format("20060102T150405.000"))
	_, err := a.client.PutObject(ctx, a.bucket, name,
		bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("minio put %s: %w", name, err)
	}
	return nil
}
