package s3

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/grenier-labs/marketplace/internal/listing/domain"
)

// S3Storage stores media blobs in a MinIO bucket. The object key is
// "<folder>/<publicID>", which doubles as the deletion identifier handed
// back to callers.
type S3Storage struct {
	client *minio.Client
	bucket string
	logger *zap.Logger
}

func NewS3Storage(endpoint, accessKey, secretKey, bucket string, useSSL bool, logger *zap.Logger) (*S3Storage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client for endpoint %s: %w", endpoint, err)
	}

	err = client.MakeBucket(context.Background(), bucket, minio.MakeBucketOptions{})
	if err != nil {
		exists, errBucketExists := client.BucketExists(context.Background(), bucket)
		if errBucketExists != nil || !exists {
			return nil, fmt.Errorf("failed to make/verify bucket %s: (make: %v / exists_check: %v)", bucket, err, errBucketExists)
		}
	}

	logger.Info("media storage initialized", zap.String("endpoint", endpoint), zap.String("bucket", bucket))
	return &S3Storage{
		client: client,
		bucket: bucket,
		logger: logger.Named("S3Storage"),
	}, nil
}

func (s *S3Storage) Upload(ctx context.Context, folder, publicID string, data []byte) (domain.ImageRef, error) {
	objectKey := folder + "/" + publicID

	_, err := s.client.PutObject(ctx, s.bucket, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: http.DetectContentType(data),
	})
	if err != nil {
		s.logger.Error("PutObject failed", zap.String("bucket", s.bucket), zap.String("key", objectKey), zap.Error(err))
		return domain.ImageRef{}, fmt.Errorf("failed to upload object %s to bucket %s: %w", objectKey, s.bucket, err)
	}

	s.logger.Debug("object uploaded",
		zap.String("bucket", s.bucket), zap.String("key", objectKey), zap.Int("size_bytes", len(data)))

	return domain.ImageRef{
		URL:      fmt.Sprintf("%s/%s/%s", s.client.EndpointURL().String(), s.bucket, objectKey),
		PublicID: objectKey,
	}, nil
}

func (s *S3Storage) Delete(ctx context.Context, publicID string) error {
	err := s.client.RemoveObject(ctx, s.bucket, publicID, minio.RemoveObjectOptions{})
	if err != nil {
		s.logger.Error("RemoveObject failed", zap.String("bucket", s.bucket), zap.String("key", publicID), zap.Error(err))
		return fmt.Errorf("failed to remove object %s from bucket %s: %w", publicID, s.bucket, err)
	}
	return nil
}
