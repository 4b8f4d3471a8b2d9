package storage

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/Walid-EM/restaurantsitev0-sub001/internal/pkg/env"
)

// Default layout of the local image store. The same directory is the landing
// zone the reconciler downloads remote objects into, served publicly under
// PublicUploadsPrefix.
const (
	DefaultUploadsDir   = "uploads/images"
	PublicUploadsPrefix = "/uploads/images"
)

var validate = validator.New()

// NewBackendFromEnv builds the configured storage backend. The choice is a
// deployment-time decision (STORAGE_BACKEND=local|s3|github); handlers and the
// reconciler never select a backend per request.
func NewBackendFromEnv() (Backend, error) {
	switch backend := env.GetEnv("STORAGE_BACKEND", "local"); backend {
	case "local":
		return NewLocalBackend(UploadsDir(), PublicUploadsPrefix), nil

	case "s3":
		cfg := &S3Config{
			AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
			Region:          env.GetEnv("S3_REGION", "us-east-1"),
			BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
			EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
			PublicBaseURL:   env.GetEnv("S3_PUBLIC_BASE_URL", ""),
			Prefix:          env.GetEnv("S3_PREFIX", "images"),
		}
		if err := validate.Struct(cfg); err != nil {
			return nil, fmt.Errorf("incomplete S3 storage configuration: %w", err)
		}
		return NewS3Backend(cfg)

	case "github":
		return NewGithubBackendFromEnv()

	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// NewGithubBackendFromEnv builds the git-repository backend from GITHUB_*
// variables. It is also used standalone when git is the secondary target of
// the admin upload flow rather than the primary backend.
func NewGithubBackendFromEnv() (*GithubBackend, error) {
	cfg := &GithubConfig{
		Owner:        env.GetEnv("GITHUB_OWNER", ""),
		Repo:         env.GetEnv("GITHUB_REPO", ""),
		Branch:       env.GetEnv("GITHUB_BRANCH", "main"),
		Token:        env.GetEnv("GITHUB_TOKEN", ""),
		BasePath:     env.GetEnv("GITHUB_IMAGES_PATH", "public/images"),
		PublicPrefix: env.GetEnv("GITHUB_PUBLIC_PREFIX", ""),
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("incomplete GitHub storage configuration: %w", err)
	}
	return NewGithubBackend(cfg), nil
}

// UploadsDir returns the local image store directory.
func UploadsDir() string {
	return env.GetEnv("UPLOADS_DIR", DefaultUploadsDir)
}
