// Package archive keeps a copy of every raw CSV upload in S3 so imports can
// be audited and replayed.
package archive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/saral/aadhaar-pulse/internal/config"
	"github.com/saral/aadhaar-pulse/internal/pkg/logger"
)

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archiver writes raw uploads to S3. A nil Archiver is safe to call, so the
// server can run without a bucket configured.
type Archiver struct {
	client objectPutter
	bucket string
}

// New creates an Archiver, or nil when no bucket is configured.
func New(ctx context.Context, cfg config.ArchiveConfig) (*Archiver, error) {
	if cfg.Bucket == "" {
		return nil, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &Archiver{client: s3.NewFromConfig(awsCfg), bucket: cfg.Bucket}, nil
}

// Store uploads the raw CSV under uploads/{dataType}/. Archival is best
// effort: failures are logged and never fail the import that triggered it.
func (a *Archiver) Store(ctx context.Context, dataType, csvContent string) {
	if a == nil {
		return
	}
	key := fmt.Sprintf("uploads/%s/%s_%s.csv",
		dataType,
		time.Now().UTC().Format("20060102T150405"),
		uuid.New().String())

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(csvContent),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		logger.Warn("upload archival failed", "key", key, "error", err.Error())
		return
	}
	logger.Info("upload archived", "bucket", a.bucket, "key", key, "bytes", len(csvContent))
}
