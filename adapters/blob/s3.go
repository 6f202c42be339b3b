package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"bhss/ports"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// S3Store keeps blobs in an S3 bucket. Credentials come from the default
// AWS chain (env, shared config, instance role).
type S3Store struct {
	client s3iface.S3API
	bucket string
	region string
}

// NewS3Store creates an S3-backed store for bucket
func NewS3Store(bucket, region string) (ports.BlobStore, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return NewS3StoreWithClient(s3.New(sess), bucket, region), nil
}

// NewS3StoreWithClient wraps an existing client
func NewS3StoreWithClient(client s3iface.S3API, bucket, region string) *S3Store {
	return &S3Store{client: client, bucket: bucket, region: region}
}

// Put uploads body as key and returns the object URL
func (s *S3Store) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}

	_, err = s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to S3: %w", key, err)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}

// Delete removes the object stored at key
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s from S3: %w", key, err)
	}
	return nil
}
