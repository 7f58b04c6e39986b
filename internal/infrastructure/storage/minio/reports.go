package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
	"github.com/rankscope/rankscope/pkg/errors"
)

const reportContentType = "text/html; charset=utf-8"

// ReportStore persists rendered report artifacts.
type ReportStore interface {
	// Save stores a rendered report and returns its object key.
	Save(ctx context.Context, targetDomain, runID string, html []byte) (string, error)

	// Get retrieves a stored report by object key.
	Get(ctx context.Context, objectKey string) ([]byte, error)

	// PresignDownload returns a time-limited download URL for a report.
	PresignDownload(ctx context.Context, objectKey string) (string, error)

	// Delete removes a stored report.
	Delete(ctx context.Context, objectKey string) error
}

type reportStore struct {
	client *Client
	logger logging.Logger
}

// NewReportStore constructs a ReportStore on top of a connected Client.
func NewReportStore(client *Client, logger logging.Logger) (ReportStore, error) {
	if client == nil {
		return nil, errors.NewValidation("ReportStore requires Client")
	}
	if logger == nil {
		return nil, errors.NewValidation("ReportStore requires Logger")
	}
	return &reportStore{client: client, logger: logger}, nil
}

// ObjectKey builds the canonical storage key for one run's report.
func ObjectKey(targetDomain, runID string) string {
	domain := strings.ToLower(strings.TrimSpace(targetDomain))
	return fmt.Sprintf("reports/%s/%s.html", domain, runID)
}

func (s *reportStore) Save(ctx context.Context, targetDomain, runID string, html []byte) (string, error) {
	if runID == "" {
		return "", errors.NewValidation("run ID is required")
	}
	if len(html) == 0 {
		return "", errors.NewValidation("report content is empty")
	}

	key := ObjectKey(targetDomain, runID)
	_, err := s.client.api.PutObject(ctx, s.client.cfg.Bucket, key,
		bytes.NewReader(html), int64(len(html)),
		minio.PutObjectOptions{ContentType: reportContentType},
	)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrCodeArtifactUpload, "failed to store report for run %s", runID)
	}

	s.logger.Info("report stored",
		logging.String("object_key", key),
		logging.Int("bytes", len(html)),
	)
	return key, nil
}

func (s *reportStore) Get(ctx context.Context, objectKey string) ([]byte, error) {
	if objectKey == "" {
		return nil, errors.NewValidation("object key is required")
	}

	// StatObject first: GetObject on the SDK is lazy and surfaces missing
	// objects only on read.
	if _, err := s.client.api.StatObject(ctx, s.client.cfg.Bucket, objectKey, minio.StatObjectOptions{}); err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return nil, errors.Newf(errors.ErrCodeReportNotFound, "report %s not found", objectKey)
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to stat report")
	}

	obj, err := s.client.api.GetObject(ctx, s.client.cfg.Bucket, objectKey)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to open report")
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to read report")
	}
	return data, nil
}

func (s *reportStore) PresignDownload(ctx context.Context, objectKey string) (string, error) {
	if objectKey == "" {
		return "", errors.NewValidation("object key is required")
	}
	expiry := s.client.cfg.PresignExpiry
	if expiry <= 0 {
		expiry = time.Hour
	}
	u, err := s.client.api.PresignedGetObject(ctx, s.client.cfg.Bucket, objectKey, expiry, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorageError, "failed to presign report download")
	}
	return u.String(), nil
}

func (s *reportStore) Delete(ctx context.Context, objectKey string) error {
	if objectKey == "" {
		return errors.NewValidation("object key is required")
	}
	if err := s.client.api.RemoveObject(ctx, s.client.cfg.Bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to delete report")
	}
	s.logger.Info("report deleted", logging.String("object_key", objectKey))
	return nil
}
