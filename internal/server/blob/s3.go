package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/dkravets/irisvault/internal/common"
)

// test seams
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Options carries the settings of an S3-compatible backend (MinIO works).
type S3Options struct {
	RootUser     string
	RootPassword string
	Bucket       string
	Region       string
	BaseEndpoint string
}

// S3Store implements Store on an S3-compatible object storage backend.
type S3Store struct {
	client *s3.Client
	bucket string
}

func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.RootUser,
			opts.RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(opts.BaseEndpoint)
		o.UsePathStyle = true
	})

	return &S3Store{client: client, bucket: opts.Bucket}, nil
}

func (s *S3Store) Save(ctx context.Context, key string, r io.Reader) (int64, error) {
	// PutObject wants a sized body; uploads are capped by the request body
	// limit, so buffering is acceptable for a local tool.
	body, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("save %s: %w", key, errors.Join(common.ErrStorageIO, err))
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
		Body:   bytes.NewReader(body),
	})
	if err != nil {
		return 0, fmt.Errorf("save %s: %w", key, errors.Join(common.ErrStorageIO, err))
	}

	return int64(len(body)), nil
}

func (s *S3Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		if isNotFound(err) {
			return nil, common.ErrFileNotFound
		}
		return nil, fmt.Errorf("open %s: %w", key, errors.Join(common.ErrStorageIO, err))
	}
	return out.Body, nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	// S3 deletes are idempotent, so probe first to honor the vault's
	// not-found contract.
	exists, err := s.Exists(ctx, key)
	if err != nil {
		return err
	}
	if !exists {
		return common.ErrFileNotFound
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, errors.Join(common.ErrStorageIO, err))
	}
	return nil
}

func (s *S3Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("head %s: %w", key, errors.Join(common.ErrStorageIO, err))
	}
	return true, nil
}

func (s *S3Store) Size(ctx context.Context, key string) (int64, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		if isNotFound(err) {
			return 0, common.ErrFileNotFound
		}
		return 0, fmt.Errorf("head %s: %w", key, errors.Join(common.ErrStorageIO, err))
	}
	if out.ContentLength == nil {
		return 0, nil
	}
	return *out.ContentLength, nil
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NoSuchKey" || code == "NotFound"
	}
	return false
}
