package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bryanwahyu/glowreader/internal/domain/analysis"
)

// Store archives uploaded photos in a MinIO bucket.
type Store struct {
	client     *minio.Client
	bucketName string
	region     string
	newID      func() string
}

// New buat koneksi MinIO
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	// pastikan bucket ada
	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}

	return &Store{client: cli, bucketName: bucket, region: region, newID: uuid.NewString}, nil
}

// Archive uploads the photo under <mode>/<uuid><ext> and returns its URL.
func (s *Store) Archive(ctx context.Context, mode analysis.Mode, photo *analysis.Photo) (string, error) {
	if photo == nil || len(photo.Data) == 0 {
		return "", fmt.Errorf("archive: empty photo")
	}
	key := ObjectKey(mode, s.newID(), photo)

	_, err := s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(photo.Data), int64(len(photo.Data)), minio.PutObjectOptions{
		ContentType: photo.MimeType,
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}

	// URL publik (jika bucket public), kalau private harus generate presigned URL
	return fmt.Sprintf("%s/%s/%s", s.client.EndpointURL().String(), s.bucketName, key), nil
}

// Check dipakai health checker
func (s *Store) Check(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %s missing", s.bucketName)
	}
	return nil
}

var extByType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"image/heic": ".heic",
}

// ObjectKey builds <mode>/<id><ext>; the extension comes from the filename,
// then the content type.
func ObjectKey(mode analysis.Mode, id string, photo *analysis.Photo) string {
	ext := strings.ToLower(filepath.Ext(photo.Filename))
	if ext == "" {
		ext = extByType[strings.ToLower(photo.MimeType)]
	}
	return string(mode) + "/" + id + ext
}
