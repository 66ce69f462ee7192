package storage

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/therealutkarshpriyadarshi/ytscribe/internal/config"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/metrics"
	"github.com/therealutkarshpriyadarshi/ytscribe/pkg/models"
)

// Mirror copies exported files to an S3 compatible bucket
type Mirror struct {
	client     *minio.Client
	bucketName string
	logger     *logging.Logger
}

// NewMirror connects to object storage and makes sure the bucket exists
func NewMirror(ctx context.Context, cfg config.StorageConfig, logger *logging.Logger) (*Mirror, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{
			Region: cfg.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &Mirror{
		client:     client,
		bucketName: cfg.BucketName,
		logger:     logger,
	}, nil
}

// ObjectKey returns the key under which a task's file is mirrored
func ObjectKey(taskID, filename string) string {
	return path.Join("transcripts", taskID, filename)
}

// Archive uploads each file and returns the files with their object keys set
func (m *Mirror) Archive(ctx context.Context, taskID string, files []models.ExportedFile) ([]models.ExportedFile, error) {
	out := make([]models.ExportedFile, len(files))
	copy(out, files)

	for i := range out {
		key := ObjectKey(taskID, out[i].Filename)
		start := time.Now()
		_, err := m.client.FPutObject(ctx, m.bucketName, key, out[i].Path, minio.PutObjectOptions{
			ContentType: ContentType(out[i].Filename),
		})
		m.record("upload", key, out[i].SizeBytes, start, err)
		if err != nil {
			return nil, fmt.Errorf("failed to upload %s: %w", out[i].Filename, err)
		}
		out[i].ObjectKey = key
	}
	return out, nil
}

// Remove deletes a mirrored object
func (m *Mirror) Remove(ctx context.Context, objectKey string) error {
	start := time.Now()
	err := m.client.RemoveObject(ctx, m.bucketName, objectKey, minio.RemoveObjectOptions{})
	m.record("delete", objectKey, 0, start, err)
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// Ping checks that the bucket is reachable
func (m *Mirror) Ping(ctx context.Context) error {
	if _, err := m.client.BucketExists(ctx, m.bucketName); err != nil {
		return fmt.Errorf("object storage unreachable: %w", err)
	}
	return nil
}

func (m *Mirror) record(operation, key string, size int64, start time.Time, err error) {
	elapsed := time.Since(start)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordStorageOperation(operation, status, elapsed.Seconds())
	m.logger.LogStorageOperation(operation, m.bucketName, key, size, elapsed, err)
}
