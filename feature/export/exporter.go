package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"

	"expense-sync/core/reconcile"
	"expense-sync/core/storage"
)

// Exporter writes run reports to object storage so they outlive the process
// and can be browsed through the serve command.
type Exporter struct {
	client storage.Client
	bucket string
	log    *zap.Logger

	bucketChecked bool
}

// NewExporter creates an exporter targeting bucket.
func NewExporter(client storage.Client, bucket string, log *zap.Logger) *Exporter {
	return &Exporter{client: client, bucket: bucket, log: log}
}

// Export uploads the report as JSON under reports/<run-id>/<scope>.json and
// returns the object name. The bucket is created on first use.
func (e *Exporter) Export(ctx context.Context, report *reconcile.Report) (string, error) {
	if err := e.ensureBucket(ctx); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	objectName := fmt.Sprintf("reports/%s/%s.json", report.RunID, report.Scope)
	_, err = e.client.PutObject(ctx, e.bucket, objectName,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return "", fmt.Errorf("failed to upload report %s: %w", objectName, err)
	}

	e.log.Info("Report exported",
		zap.String("object", objectName),
		zap.String("scope", report.Scope))
	return objectName, nil
}

func (e *Exporter) ensureBucket(ctx context.Context) error {
	if e.bucketChecked {
		return nil
	}
	exists, err := e.client.BucketExists(ctx, e.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", e.bucket, err)
	}
	if !exists {
		if err := e.client.MakeBucket(ctx, e.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", e.bucket, err)
		}
		e.log.Info("Report bucket created", zap.String("bucket", e.bucket))
	}
	e.bucketChecked = true
	return nil
}
