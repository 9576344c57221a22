package aws

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3API is the subset of *s3.Client used by S3Service.
type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// maxObjectBytes caps how much of an object is read; rclone configs are small text files.
const maxObjectBytes = 4 << 20

type S3Service struct {
	client  s3API
	timeout time.Duration
}

// Using Constructor Pattern to initalize our s3Service
func NewS3Service(client s3API, timeout time.Duration) *S3Service {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &S3Service{client: client, timeout: timeout}
}
