package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/novacarriers/claimdesk/internal/model"
)

// maxSnapshotSize is the largest snapshot object Load accepts (64MB).
var maxSnapshotSize int64 = 64 << 20

// S3API is the subset of the S3 client used by S3Backend.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewS3Client loads the AWS configuration, using a custom endpoint
// (e.g. http://localstack:4566) when one is given.
func NewS3Client(ctx context.Context, region, endpoint string) (*s3.Client, error) {
	cfg, err := awsCfg.LoadDefaultConfig(ctx, awsCfg.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// S3Backend keeps the collection as a single S3 object.
type S3Backend struct {
	client S3API
	bucket string
	key    string
}

// NewS3Backend returns a backend for s3://bucket/key.
func NewS3Backend(client S3API, bucket, key string) *S3Backend {
	if key == "" {
		key = "claims/" + SnapshotFile
	}
	return &S3Backend{client: client, bucket: bucket, key: key}
}

func (b *S3Backend) Load(ctx context.Context) (*model.Snapshot, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
	})
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return model.NewSnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: s3 get %s/%s: %v", ErrUnavailable, b.bucket, b.key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(io.LimitReader(out.Body, maxSnapshotSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: s3 read body: %v", ErrUnavailable, err)
	}
	if int64(len(body)) > maxSnapshotSize {
		return nil, fmt.Errorf("%w: s3 object %s/%s exceeds %d bytes", ErrUnavailable, b.bucket, b.key, maxSnapshotSize)
	}
	snap, err := decodeSnapshot(body)
	if err != nil {
		moved := corruptKey(b.key, time.Now())
		if qErr := b.put(ctx, moved, body); qErr != nil {
			return nil, fmt.Errorf("keep corrupt object: %w", qErr)
		}
		slog.Warn("corrupt snapshot object, starting empty", "bucket", b.bucket, "key", b.key, "copied_to", moved, "error", err)
		return model.NewSnapshot(), nil
	}
	return snap, nil
}

func (b *S3Backend) Save(ctx context.Context, snap *model.Snapshot) error {
	body, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	return b.put(ctx, b.key, body)
}

func (b *S3Backend) put(ctx context.Context, key string, body []byte) error {
	if _, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	}); err != nil {
		return fmt.Errorf("%w: s3 put %s/%s: %v", ErrUnavailable, b.bucket, key, err)
	}
	return nil
}
