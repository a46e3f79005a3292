package storage

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// MinIOConfig configures MinIOStorage.
type MinIOConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Location        string
	UseSSL          bool
}

// MinIOStorage keeps objects in a MinIO or S3 compatible bucket.
type MinIOStorage struct {
	client *minio.Client
	bucket string
	log    zerolog.Logger
}

// NewMinIOStorage connects to the endpoint and makes sure the bucket exists.
func NewMinIOStorage(ctx context.Context, cfg MinIOConfig, log *zerolog.Logger) (*MinIOStorage, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("minio endpoint and bucket are required")
	}
	l := zerolog.Nop()
	if log != nil {
		l = log.With().Str("component", "storage").Logger()
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create minio client")
	}

	m := &MinIOStorage{client: client, bucket: cfg.Bucket, log: l}
	if err := m.ensureBucket(ctx, cfg.Location); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MinIOStorage) ensureBucket(ctx context.Context, location string) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return errors.Wrapf(err, "check bucket %s", m.bucket)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: location}); err != nil {
		return errors.Wrapf(err, "create bucket %s", m.bucket)
	}
	m.log.Info().Str("bucket", m.bucket).Msg("bucket created")
	return nil
}

// Put implements ObjectStorage.
func (m *MinIOStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	info, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return errors.Wrapf(err, "upload %s", key)
	}
	m.log.Debug().Str("key", key).Int64("size", info.Size).Msg("object stored")
	return nil
}

// Get implements ObjectStorage.
func (m *MinIOStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	// GetObject is lazy; Stat surfaces a missing key before streaming starts.
	if _, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, errors.Wrap(ErrObjectNotFound, key)
		}
		return nil, errors.Wrapf(err, "stat %s", key)
	}
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "download %s", key)
	}
	return obj, nil
}

// Delete implements ObjectStorage.
func (m *MinIOStorage) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrapf(err, "delete %s", key)
	}
	return nil
}
