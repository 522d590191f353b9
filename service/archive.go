package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Ta-h-a/Hack2SkillFrontend/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ArchiveService retains copies of uploaded documents and exported redlines
// in object storage. The engine owns the authoritative data; the archive
// exists so users can re-download originals and exports after the engine's
// job state has been garbage collected.
type ArchiveService struct {
	client *minio.Client
	bucket string
	config *config.MinioConfig
}

func NewArchiveService(cfg *config.MinioConfig) (*ArchiveService, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &ArchiveService{
		client: client,
		bucket: cfg.Bucket,
		config: cfg,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *ArchiveService) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// PutOriginal stores the document as uploaded by the user, keyed under the
// tenant and document id.
func (s *ArchiveService) PutOriginal(ctx context.Context, tenant, documentID, filename string, reader io.Reader, size int64, contentType string) error {
	objectName := fmt.Sprintf("%s/%s/original/%s", tenant, documentID, filename)
	_, err := s.client.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to archive original: %w", err)
	}
	return nil
}

// PutRedline stores an exported redline blob and returns a presigned URL
// for re-download.
func (s *ArchiveService) PutRedline(ctx context.Context, tenant, documentID string, blob []byte, contentType string) (string, error) {
	objectName := fmt.Sprintf("%s/%s/redline/%s.bin", tenant, documentID, time.Now().UTC().Format("20060102T150405"))
	_, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(blob), int64(len(blob)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive redline: %w", err)
	}
	return s.PresignedURL(ctx, objectName)
}

// PresignedURL generates a presigned URL for the object with expiration
func (s *ArchiveService) PresignedURL(ctx context.Context, objectName string) (string, error) {
	expiry := time.Duration(s.config.ExpireDays) * 24 * time.Hour
	url, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url.String(), nil
}

// DeleteDocument removes every archived object belonging to a document.
func (s *ArchiveService) DeleteDocument(ctx context.Context, tenant, documentID string) error {
	prefix := fmt.Sprintf("%s/%s/", tenant, documentID)
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return fmt.Errorf("failed to list archived objects: %w", obj.Err)
		}
		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("failed to delete archived object: %w", err)
		}
	}
	return nil
}
