package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"texthighlight/internal/config"
	"texthighlight/internal/logging"
	"texthighlight/internal/pipeline"
)

// ObjectAPI is the subset of the S3 client the publisher needs.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Publisher writes run results to a bucket.
type S3Publisher struct {
	client ObjectAPI
	bucket string
	prefix string
	logger *slog.Logger
}

// NewS3Publisher builds a publisher from the default AWS credential chain.
func NewS3Publisher(ctx context.Context, cfg config.Publish, logger *slog.Logger) (*S3Publisher, error) {
	if strings.TrimSpace(cfg.S3Bucket) == "" {
		return nil, errors.New("s3 bucket required")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewWithClient(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.S3Prefix, logger), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client ObjectAPI, bucket, prefix string, logger *slog.Logger) *S3Publisher {
	return &S3Publisher{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logging.NewComponentLogger(logger, "publisher"),
	}
}

// Key returns the object key for runID.
func (p *S3Publisher) Key(runID string) string {
	return ObjectKey(p.prefix, runID)
}

// ObjectKey joins prefix and runID, inserting a slash when prefix lacks one.
func ObjectKey(prefix, runID string) string {
	prefix = strings.TrimLeft(strings.TrimSpace(prefix), "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + runID + ".json"
}

// Record uploads the run result.
func (p *S3Publisher) Record(ctx context.Context, run pipeline.Run) error {
	body, err := json.Marshal(run.Result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	key := p.Key(run.ID)
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"run-id": run.ID,
			"status": strconv.FormatBool(run.Result.Status),
			"kind":   run.Kind,
		},
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %s", p.bucket, key, Describe(err))
	}
	logging.WithContext(ctx, p.logger).Debug("result published",
		logging.String("bucket", p.bucket),
		logging.String("key", key),
		logging.Int("bytes", len(body)),
	)
	return nil
}

// Check verifies the bucket is reachable with the current credentials.
func (p *S3Publisher) Check(ctx context.Context) error {
	_, err := p.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(p.bucket)})
	if err != nil {
		if IsNotFound(err) {
			return fmt.Errorf("bucket %s does not exist", p.bucket)
		}
		return fmt.Errorf("head bucket %s: %s", p.bucket, Describe(err))
	}
	return nil
}

// Describe renders AWS API errors as "code: message" and anything else as is.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("%s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return err.Error()
}

// IsNotFound reports whether err is an S3 not-found response.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchBucket", "NoSuchKey", "404":
			return true
		}
	}
	return strings.Contains(err.Error(), "NotFound:")
}
