package minio

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/FieldScout-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FieldScout-Intelligence/pkg/errors"
)

const rawPrefix = "raw/"

// ArchivedPayload describes one stored flight payload.
type ArchivedPayload struct {
	Key          string
	FieldID      string
	Date         string
	Size         int64
	ETag         string
	LastModified time.Time
}

// RawArchive stores the unmodified ingestion request bodies under
// raw/<field_id>/<date>/<timestamp>.json so a day can be re-ingested or
// audited later.
type RawArchive struct {
	client *MinIOClient
	logger logging.Logger
}

// NewRawArchive creates a RawArchive over client.
func NewRawArchive(client *MinIOClient, logger logging.Logger) *RawArchive {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &RawArchive{client: client, logger: logger}
}

// ObjectKey returns the key a payload for fieldID captured at ts is stored under.
func ObjectKey(fieldID, date string, ts time.Time) string {
	return fmt.Sprintf("%s%s/%s/%s.json", rawPrefix, fieldID, date, ts.UTC().Format("20060102T150405.000Z"))
}

// Archive stores payload and returns its key.
func (a *RawArchive) Archive(ctx context.Context, fieldID, date string, ts time.Time, payload []byte) (string, error) {
	if fieldID == "" || date == "" {
		return "", errors.NewValidation("field id and date are required to archive a payload")
	}
	if len(payload) == 0 {
		return "", errors.NewValidation("payload is empty")
	}
	api, err := a.client.api()
	if err != nil {
		return "", err
	}

	key := ObjectKey(fieldID, date, ts)
	info, err := api.PutObject(ctx, a.client.Bucket(), key, bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType: "application/json",
		UserMetadata: map[string]string{
			"field-id": fieldID,
			"date":     date,
		},
	})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorageError, "failed to archive payload").WithDetail("key=" + key)
	}

	a.logger.Debug("Raw payload archived",
		logging.String("key", key),
		logging.Int64("size", info.Size))
	return key, nil
}

// List returns the archived payloads for fieldID, optionally restricted to
// one date, oldest first.
func (a *RawArchive) List(ctx context.Context, fieldID, date string) ([]ArchivedPayload, error) {
	if fieldID == "" {
		return nil, errors.NewValidation("field id is required")
	}
	api, err := a.client.api()
	if err != nil {
		return nil, err
	}

	prefix := rawPrefix + fieldID + "/"
	if date != "" {
		prefix += date + "/"
	}

	out := []ArchivedPayload{}
	for obj := range api.ListObjects(ctx, a.client.Bucket(), minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, errors.Wrap(obj.Err, errors.ErrCodeStorageError, "failed to list archive")
		}
		out = append(out, ArchivedPayload{
			Key:          obj.Key,
			FieldID:      fieldID,
			Date:         dateFromKey(obj.Key),
			Size:         obj.Size,
			ETag:         obj.ETag,
			LastModified: obj.LastModified,
		})
	}
	return out, nil
}

// Stat returns metadata for key.
func (a *RawArchive) Stat(ctx context.Context, key string) (*ArchivedPayload, error) {
	api, err := a.client.api()
	if err != nil {
		return nil, err
	}
	info, err := api.StatObject(ctx, a.client.Bucket(), key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrObjectNotFound.WithDetail("key=" + key)
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to stat archived payload")
	}
	parts := strings.SplitN(strings.TrimPrefix(key, rawPrefix), "/", 2)
	return &ArchivedPayload{
		Key:          key,
		FieldID:      parts[0],
		Date:         dateFromKey(key),
		Size:         info.Size,
		ETag:         info.ETag,
		LastModified: info.LastModified,
	}, nil
}

// PresignedURL returns a time-limited download URL for key.
func (a *RawArchive) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	api, err := a.client.api()
	if err != nil {
		return "", err
	}
	if expiry <= 0 {
		expiry = time.Hour
	}
	u, err := api.PresignedGetObject(ctx, a.client.Bucket(), key, expiry, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorageError, "failed to presign archived payload")
	}
	return u.String(), nil
}

// Delete removes key.
func (a *RawArchive) Delete(ctx context.Context, key string) error {
	api, err := a.client.api()
	if err != nil {
		return err
	}
	if err := api.RemoveObject(ctx, a.client.Bucket(), key, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to delete archived payload")
	}
	return nil
}

// dateFromKey extracts <date> from raw/<field>/<date>/<file>.
func dateFromKey(key string) string {
	parts := strings.Split(strings.TrimPrefix(key, rawPrefix), "/")
	if len(parts) < 3 {
		return ""
	}
	return parts[len(parts)-2]
}

//Personal.AI order the ending
