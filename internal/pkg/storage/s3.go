package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gofiber/fiber/v2/log"
)

// S3Config holds object storage configuration.
type S3Config struct {
	AccessKeyID     string `validate:"required"`
	SecretAccessKey string `validate:"required"`
	Region          string `validate:"required"`
	BucketName      string `validate:"required"`
	EndpointURL     string // Optional for S3-compatible services
	PublicBaseURL   string // Optional CDN/base URL; derived from endpoint when empty
	Prefix          string // Key namespace, e.g. "images"
}

// S3Backend stores blobs in an S3-compatible bucket.
type S3Backend struct {
	client *s3.Client
	cfg    *S3Config
}

// NewS3Backend creates an object storage backend and verifies the bucket is
// reachable.
func NewS3Backend(cfg *S3Config) (*S3Backend, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			// S3-compatible providers generally require path-style URLs.
			o.UsePathStyle = true
			o.UseAccelerate = false
		}
	})

	backend := &S3Backend{client: client, cfg: cfg}

	if _, err := client.HeadBucket(context.TODO(), &s3.HeadBucketInput{
		Bucket: aws.String(cfg.BucketName),
	}); err != nil {
		return nil, fmt.Errorf("bucket %s not accessible: %w", cfg.BucketName, err)
	}

	log.Infof("[S3Storage] Successfully initialized S3 client for bucket: %s", cfg.BucketName)
	return backend, nil
}

func (b *S3Backend) Name() string { return "s3" }

func (b *S3Backend) key(name string) string {
	if b.cfg.Prefix == "" {
		return name
	}
	return path.Join(b.cfg.Prefix, name)
}

func (b *S3Backend) Store(ctx context.Context, name string, data []byte, contentType string) (*Stored, error) {
	objectKey := b.key(name)

	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.cfg.BucketName),
		Key:           aws.String(objectKey),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		Metadata: map[string]string{
			"upload-source": "restaurant-image-service",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	log.Infof("[S3Storage] Successfully uploaded: s3://%s/%s (%d bytes)", b.cfg.BucketName, objectKey, len(data))

	return &Stored{
		Locator:    NewProviderLocator(objectKey),
		ExternalID: objectKey,
		PublicURL:  b.URLFor(objectKey),
		Size:       int64(len(data)),
	}, nil
}

func (b *S3Backend) Delete(ctx context.Context, key string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.cfg.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object from S3: %w", err)
	}

	log.Infof("[S3Storage] Successfully deleted: s3://%s/%s", b.cfg.BucketName, key)
	return nil
}

func (b *S3Backend) List(ctx context.Context) ([]Object, error) {
	var objects []Object

	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.cfg.BucketName),
		Prefix: aws.String(b.cfg.Prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list bucket %s: %w", b.cfg.BucketName, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, "/") {
				continue
			}
			objects = append(objects, Object{
				Key:  key,
				URL:  b.URLFor(key),
				Size: aws.ToInt64(obj.Size),
			})
		}
	}

	return objects, nil
}

func (b *S3Backend) Fetch(ctx context.Context, key string) ([]byte, error) {
	result, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.cfg.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	return data, nil
}

func (b *S3Backend) URLFor(key string) string {
	if b.cfg.PublicBaseURL != "" {
		return strings.TrimRight(b.cfg.PublicBaseURL, "/") + "/" + key
	}
	if b.cfg.EndpointURL != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(b.cfg.EndpointURL, "/"), b.cfg.BucketName, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", b.cfg.BucketName, b.cfg.Region, key)
}
