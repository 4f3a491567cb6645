package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gymsite/backend/internal/apperrors"
	"github.com/gymsite/backend/internal/config"
	"github.com/gymsite/backend/internal/models"
)

// s3API is the part of the S3 client the storage uses
type s3API interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// uploader streams a body of unknown length to S3
type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Storage implements Storage on an S3 bucket.
// Objects are stored under prefix, refs do not include it.
type S3Storage struct {
	client    s3API
	uploader  uploader
	bucket    string
	prefix    string
	publicURL string
}

// NewS3Storage creates an S3Storage from the storage configuration
func NewS3Storage(ctx context.Context, cfg config.StorageConfig) (*S3Storage, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.S3AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// S3 compatible services (MinIO, R2) need a custom endpoint and path style addressing
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := cfg.S3PublicURL
	if publicURL == "" {
		switch {
		case cfg.S3Endpoint != "":
			publicURL = fmt.Sprintf("%s/%s", cfg.S3Endpoint, cfg.S3Bucket)
		default:
			publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, awsCfg.Region)
		}
	}

	return newS3Storage(client, manager.NewUploader(client), cfg.S3Bucket, cfg.S3Prefix, publicURL), nil
}

func newS3Storage(client s3API, up uploader, bucket, prefix, publicURL string) *S3Storage {
	return &S3Storage{
		client:    client,
		uploader:  up,
		bucket:    bucket,
		prefix:    prefix,
		publicURL: publicURL,
	}
}

func (s *S3Storage) key(ref string) string {
	if s.prefix == "" {
		return ref
	}
	return path.Join(s.prefix, ref)
}

// Save uploads r as a new object
func (s *S3Storage) Save(ctx context.Context, r io.Reader, filename, contentType string, kind models.MediaKind) (string, int64, error) {
	ref := newRef(Folder(kind), filename)

	body := &countingReader{r: r}
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(ref)),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return "", 0, apperrors.Storage("upload object", err)
	}
	return ref, body.n, nil
}

// Delete removes the object. S3 reports success for missing keys.
func (s *S3Storage) Delete(ctx context.Context, ref string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(ref)),
	})
	if err != nil {
		return apperrors.Storage("delete object", err)
	}
	return nil
}

// Exists reports whether the object is present
func (s *S3Storage) Exists(ctx context.Context, ref string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(ref)),
	})
	if err == nil {
		return true, nil
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, apperrors.Storage("head object", err)
}

// URL returns the public URL of the object
func (s *S3Storage) URL(ref string) string {
	return fmt.Sprintf("%s/%s", s.publicURL, s.key(ref))
}
