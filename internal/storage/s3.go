package storage

import (
	"bytes"   // Upload body
	"context" // Request scoped cancellation
	"fmt"     // Error wrapping
	"time"    // Key date prefix

	"github.com/aws/aws-sdk-go-v2/aws"         // AWS value helpers
	"github.com/aws/aws-sdk-go-v2/config"      // SDK config loading
	"github.com/aws/aws-sdk-go-v2/credentials" // Static credentials
	"github.com/aws/aws-sdk-go-v2/service/s3"  // S3 client
)

// S3Config describes an S3 or MinIO bucket.
type S3Config struct {
	Region    string
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
}

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads avatars to an S3-compatible bucket.
type S3Store struct {
	client putObjectAPI
	bucket string
}

// NewS3Store builds an S3 client from static credentials. A non-empty
// endpoint switches to path-style addressing for MinIO.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Store(client, cfg.Bucket), nil
}

func newS3Store(client putObjectAPI, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket}
}

// Save uploads the avatar and returns an s3://bucket/key reference.
func (s *S3Store) Save(ctx context.Context, userID string, avatar Avatar) (string, error) {
	if len(avatar.Data) == 0 {
		return "", ErrEmptyAvatar
	}

	key := ObjectKey(userID, avatar.Filename, time.Now().UTC())
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(avatar.Data),
		ContentLength: aws.Int64(int64(len(avatar.Data))),
	}
	if avatar.ContentType != "" {
		input.ContentType = aws.String(avatar.ContentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put avatar object: %w", err)
	}
	return "s3://" + s.bucket + "/" + key, nil
}
