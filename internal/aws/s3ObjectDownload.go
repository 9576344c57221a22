package aws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrObjectTooLarge is returned when an object exceeds maxObjectBytes.
var ErrObjectTooLarge = errors.New("s3 object too large")

// GetObject reads a whole object into memory.
func (service *S3Service) GetObject(ctx context.Context, bucket string, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, service.timeout)
	defer cancel()

	resp, err := service.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("couldn't download object s3://%s/%s: %w", bucket, key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxObjectBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read object data: %w", err)
	}
	if len(data) > maxObjectBytes {
		return nil, fmt.Errorf("s3://%s/%s: %w", bucket, key, ErrObjectTooLarge)
	}

	slog.Debug("s3 object downloaded", "bucket", bucket, "key", key, "bytes", len(data))
	return data, nil
}
