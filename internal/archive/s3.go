package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BradenHooton/lure/internal/config"
	"github.com/BradenHooton/lure/internal/models"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	defaultUploadRetries = 3
	defaultUploadTimeout = 10 * time.Second
	maxUploadBackoff     = 2 * time.Second
)

// ErrNothingToArchive is returned when Archive is called with no attempts
var ErrNothingToArchive = errors.New("no attempts to archive")

// ObjectPutter is the subset of the S3 client the archiver needs
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver uploads attempt batches to s3://<bucket>/<prefix>attempts/yyyy/mm/dd/<unixnano>.jsonl.gz
type S3Archiver struct {
	client  ObjectPutter
	bucket  string
	prefix  string
	retries int
	timeout time.Duration
	logger  *slog.Logger
}

// NewS3Archiver loads the default AWS credential chain for cfg.AWSRegion
func NewS3Archiver(ctx context.Context, cfg config.ArchiveConfig, logger *slog.Logger) (*S3Archiver, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Retries are handled by Archive with its own backoff
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.RetryMaxAttempts = 1
	})

	return NewS3ArchiverWithClient(client, cfg.S3Bucket, cfg.S3Prefix, logger), nil
}

// NewS3ArchiverWithClient creates an archiver over an existing client
func NewS3ArchiverWithClient(client ObjectPutter, bucket, prefix string, logger *slog.Logger) *S3Archiver {
	return &S3Archiver{
		client:  client,
		bucket:  bucket,
		prefix:  prefix,
		retries: defaultUploadRetries,
		timeout: defaultUploadTimeout,
		logger:  logger,
	}
}

// ObjectKey builds the archive key for a batch taken at t
func (a *S3Archiver) ObjectKey(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%sattempts/%04d/%02d/%02d/%d.jsonl.gz", a.prefix, t.Year(), t.Month(), t.Day(), t.UnixNano())
}

// Archive encodes attempts and uploads them, returning the object key
func (a *S3Archiver) Archive(ctx context.Context, attempts []*models.LoginAttempt, at time.Time) (string, error) {
	if len(attempts) == 0 {
		return "", ErrNothingToArchive
	}

	body, err := EncodeJSONLGZ(attempts)
	if err != nil {
		return "", err
	}

	key := a.ObjectKey(at)
	if err := a.uploadWithRetry(ctx, key, body); err != nil {
		return "", fmt.Errorf("failed to upload archive %s: %w", key, err)
	}

	a.logger.InfoContext(ctx, "attempt archive uploaded",
		slog.String("bucket", a.bucket),
		slog.String("key", key),
		slog.Int("attempts", len(attempts)),
		slog.Int("bytes", len(body)),
	)

	return key, nil
}

func (a *S3Archiver) uploadWithRetry(ctx context.Context, key string, body []byte) error {
	var lastErr error
	backoff := 200 * time.Millisecond

	for attempt := 1; attempt <= a.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		// The body reader must be fresh on every try
		if lastErr = a.putObject(ctx, key, body); lastErr == nil {
			return nil
		}

		a.logger.WarnContext(ctx, "archive upload attempt failed",
			slog.Int("attempt", attempt),
			slog.String("key", key),
			slog.Any("error", lastErr),
		)

		if attempt == a.retries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
			backoff = min(backoff*2, maxUploadBackoff)
		}
	}

	return lastErr
}

func (a *S3Archiver) putObject(ctx context.Context, key string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:          aws.String(a.bucket),
		Key:             aws.String(key),
		Body:            bytes.NewReader(body),
		ContentLength:   aws.Int64(int64(len(body))),
		ContentType:     aws.String("application/x-ndjson"),
		ContentEncoding: aws.String("gzip"),
	})
	return err
}
