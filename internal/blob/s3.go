package blob

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"drinklog/internal/log"
)

// S3Store keeps photos in an S3 bucket and serves them through a public
// domain, so stored URLs look like {domain}/{bucket}/{key}.
type S3Store struct {
	client *s3.Client
	bucket string
	domain string
	logger *log.Logger
}

// NewS3Store builds an S3-backed image store using the default AWS
// credential chain.
func NewS3Store(ctx context.Context, region, bucket, domain string, logger *log.Logger) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &S3Store{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		domain: domain,
		logger: logger.WithComponent(log.ComponentBlob),
	}, nil
}

func (s *S3Store) Upload(ctx context.Context, filename string, size int64, body io.Reader) (string, error) {
	key := uuid.NewString() + "_" + filename

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ACL:           types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("upload image %q: %w", key, err)
	}

	url := s.domain + "/" + s.bucket + "/" + key
	s.logger.Debug("image uploaded", "key", key, "size", size)
	return url, nil
}

func (s *S3Store) Delete(ctx context.Context, url string) error {
	prefix := s.domain + "/" + s.bucket + "/"
	if url == "" || !strings.HasPrefix(url, prefix) {
		// Not one of ours. External URLs stay untouched.
		s.logger.Warn("skipping delete of foreign image url", "url", url)
		return nil
	}
	key := strings.TrimPrefix(url, prefix)

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete image %q: %w", key, err)
	}

	s.logger.Debug("image deleted", "key", key)
	return nil
}
