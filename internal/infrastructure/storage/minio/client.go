// Package minio archives raw flight payloads in MinIO or any S3-compatible
// object store.
package minio

import (
	"context"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"

	"github.com/turtacn/FieldScout-Intelligence/internal/config"
	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
)

// MinIOAPI is the subset of *minio.Client used by the archive.
type MinIOAPI interface {
	ListBuckets(ctx context.Context) ([]minio.BucketInfo, error)
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	SetBucketLifecycle(ctx context.Context, bucketName string, config *lifecycle.Configuration) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
}

var (
	ErrMinIOClientClosed = errors.New(errors.ErrCodeStorageError, "minio client is closed")
	ErrObjectNotFound    = errors.New(errors.ErrCodeNotFound, "object not found")
)

// MinIOClient owns the connection and the archive bucket.
type MinIOClient struct {
	client MinIOAPI
	config config.MinIOConfig
	logger logging.Logger
	mu     sync.RWMutex
	closed bool
}

// NewMinIOClient connects, verifies reachability and ensures the bucket and
// its lifecycle rule exist.
func NewMinIOClient(cfg config.MinIOConfig, log logging.Logger) (*MinIOClient, error) {
	applyDefaults(&cfg)

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to create minio client")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := client.ListBuckets(ctx); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeServiceUnavailable, "failed to connect to minio")
	}

	c, err := NewMinIOClientWithAPI(ctx, client, cfg, log)
	if err != nil {
		return nil, err
	}
	log.Info("MinIO client connected", logging.String("endpoint", cfg.Endpoint), logging.Bool("ssl", cfg.UseSSL))
	return c, nil
}

// NewMinIOClientWithAPI wraps api and prepares the bucket.
func NewMinIOClientWithAPI(ctx context.Context, api MinIOAPI, cfg config.MinIOConfig, log logging.Logger) (*MinIOClient, error) {
	applyDefaults(&cfg)
	if log == nil {
		log = logging.NewNopLogger()
	}
	c := &MinIOClient{client: api, config: cfg, logger: log}
	if err := c.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	c.SetupLifecycleRules(ctx)
	return c, nil
}

func applyDefaults(cfg *config.MinIOConfig) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.Bucket == "" {
		cfg.Bucket = config.DefaultMinIOBucket
	}
}

// EnsureBucket creates the archive bucket when missing.
func (c *MinIOClient) EnsureBucket(ctx context.Context) error {
	exists, err := c.client.BucketExists(ctx, c.config.Bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to check bucket existence")
	}
	if exists {
		return nil
	}
	if err := c.client.MakeBucket(ctx, c.config.Bucket, minio.MakeBucketOptions{Region: c.config.Region}); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to create bucket").WithDetail("bucket=" + c.config.Bucket)
	}
	c.logger.Info("Created bucket", logging.String("bucket", c.config.Bucket))
	return nil
}

// SetupLifecycleRules expires archived payloads after RetentionDays. A failure
// is logged; the archive still works without it.
func (c *MinIOClient) SetupLifecycleRules(ctx context.Context) {
	if c.config.RetentionDays <= 0 {
		return
	}
	cfg := lifecycle.NewConfiguration()
	cfg.Rules = []lifecycle.Rule{{
		ID:     "raw-payload-expiry",
		Status: "Enabled",
		RuleFilter: lifecycle.Filter{
			Prefix: rawPrefix,
		},
		Expiration: lifecycle.Expiration{
			Days: lifecycle.ExpirationDays(c.config.RetentionDays),
		},
	}}
	if err := c.client.SetBucketLifecycle(ctx, c.config.Bucket, cfg); err != nil {
		c.logger.Warn("Failed to set bucket lifecycle", logging.String("bucket", c.config.Bucket), logging.Err(err))
	}
}

// Bucket returns the archive bucket name.
func (c *MinIOClient) Bucket() string { return c.config.Bucket }

func (c *MinIOClient) api() (MinIOAPI, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, ErrMinIOClientClosed
	}
	return c.client, nil
}

// Close marks the client closed. minio-go holds no persistent connection.
func (c *MinIOClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// HealthCheck verifies the server answers and the bucket exists.
func (c *MinIOClient) HealthCheck(ctx context.Context) error {
	api, err := c.api()
	if err != nil {
		return err
	}
	exists, err := api.BucketExists(ctx, c.config.Bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "minio health check failed")
	}
	if !exists {
		return errors.Newf(errors.ErrCodeStorageError, "bucket %s missing", c.config.Bucket)
	}
	return nil
}

//Personal.AI order the ending
