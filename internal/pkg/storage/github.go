package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/google/go-github/v75/github"
	"github.com/gofiber/fiber/v2/log"
)

// GithubConfig holds source-control storage configuration.
type GithubConfig struct {
	Owner  string `validate:"required"`
	Repo   string `validate:"required"`
	Branch string `validate:"required"`
	Token  string `validate:"required"`
	// BasePath is the repository directory blobs are committed under,
	// e.g. "public/images".
	BasePath string
	// PublicPrefix is the static-asset URL prefix the committed files are
	// served from once the site is redeployed.
	PublicPrefix string
}

// GithubBackend commits blobs into a repository through the contents API.
// The hosting platform serves the committed files as static assets after the
// next deploy.
type GithubBackend struct {
	client *github.Client
	cfg    *GithubConfig
}

// NewGithubBackend creates a source-control storage backend.
func NewGithubBackend(cfg *GithubConfig) *GithubBackend {
	client := github.NewClient(nil).WithAuthToken(cfg.Token)
	return &GithubBackend{client: client, cfg: cfg}
}

func (b *GithubBackend) Name() string { return "github" }

func (b *GithubBackend) repoPath(name string) string {
	if b.cfg.BasePath == "" {
		return name
	}
	return path.Join(b.cfg.BasePath, name)
}

func (b *GithubBackend) Store(ctx context.Context, name string, data []byte, _ string) (*Stored, error) {
	repoPath := b.repoPath(name)
	op := fmt.Sprintf("committing %s", repoPath)

	opts := &github.RepositoryContentFileOptions{
		Message: github.String(fmt.Sprintf("Add image %s", name)),
		Content: data,
		Branch:  github.String(b.cfg.Branch),
	}
	_, _, err := b.client.Repositories.CreateFile(ctx, b.cfg.Owner, b.cfg.Repo, repoPath, opts)
	if err != nil {
		return nil, handleGithubError(op, err)
	}

	log.Infof("[GithubStorage] Committed %s to %s/%s@%s", repoPath, b.cfg.Owner, b.cfg.Repo, b.cfg.Branch)

	return &Stored{
		Locator:    NewRemoteLocator(b.URLFor(repoPath)),
		ExternalID: repoPath,
		PublicURL:  b.URLFor(repoPath),
		Size:       int64(len(data)),
	}, nil
}

// Delete looks up the blob's current revision first; the contents API refuses
// a delete commit without the SHA.
func (b *GithubBackend) Delete(ctx context.Context, key string) error {
	opts := &github.RepositoryContentGetOptions{Ref: b.cfg.Branch}
	fileContent, _, _, err := b.client.Repositories.GetContents(ctx, b.cfg.Owner, b.cfg.Repo, key, opts)
	if err != nil {
		if isGithubNotFound(err) {
			log.Warnf("[GithubStorage] Delete of missing file %s ignored", key)
			return nil
		}
		return handleGithubError(fmt.Sprintf("resolving revision of %s", key), err)
	}
	if fileContent == nil {
		return fmt.Errorf("github: %s is not a file", key)
	}

	delOpts := &github.RepositoryContentFileOptions{
		Message: github.String(fmt.Sprintf("Delete image %s", path.Base(key))),
		SHA:     fileContent.SHA,
		Branch:  github.String(b.cfg.Branch),
	}
	if _, _, err := b.client.Repositories.DeleteFile(ctx, b.cfg.Owner, b.cfg.Repo, key, delOpts); err != nil {
		return handleGithubError(fmt.Sprintf("deleting %s", key), err)
	}

	log.Infof("[GithubStorage] Deleted %s from %s/%s@%s", key, b.cfg.Owner, b.cfg.Repo, b.cfg.Branch)
	return nil
}

func (b *GithubBackend) List(ctx context.Context) ([]Object, error) {
	opts := &github.RepositoryContentGetOptions{Ref: b.cfg.Branch}
	_, dirContent, _, err := b.client.Repositories.GetContents(ctx, b.cfg.Owner, b.cfg.Repo, b.cfg.BasePath, opts)
	if err != nil {
		if isGithubNotFound(err) {
			return nil, nil
		}
		return nil, handleGithubError(fmt.Sprintf("listing %s", b.cfg.BasePath), err)
	}

	var objects []Object
	for _, entry := range dirContent {
		if entry.GetType() != "file" {
			continue
		}
		objects = append(objects, Object{
			Key:  entry.GetPath(),
			URL:  b.URLFor(entry.GetPath()),
			Size: int64(entry.GetSize()),
		})
	}
	return objects, nil
}

func (b *GithubBackend) Fetch(ctx context.Context, key string) ([]byte, error) {
	opts := &github.RepositoryContentGetOptions{Ref: b.cfg.Branch}
	fileContent, _, _, err := b.client.Repositories.GetContents(ctx, b.cfg.Owner, b.cfg.Repo, key, opts)
	if err != nil {
		if isGithubNotFound(err) {
			return nil, ErrObjectNotFound
		}
		return nil, handleGithubError(fmt.Sprintf("getting file %s", key), err)
	}
	if fileContent == nil {
		return nil, fmt.Errorf("github: %s returned nil file content", key)
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return nil, fmt.Errorf("github: failed to decode content of %s: %w", key, err)
	}
	return []byte(content), nil
}

func (b *GithubBackend) URLFor(key string) string {
	if b.cfg.PublicPrefix != "" {
		return strings.TrimRight(b.cfg.PublicPrefix, "/") + "/" + path.Base(key)
	}
	return fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s/%s", b.cfg.Owner, b.cfg.Repo, b.cfg.Branch, key)
}

// handleGithubError inspects an error from the go-github client and returns a
// more informative, structured error.
func handleGithubError(op string, err error) error {
	if err == nil {
		return nil
	}

	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return fmt.Errorf("github: %s failed with status %d: %s", op, errResp.Response.StatusCode, errResp.Message)
	}

	return fmt.Errorf("github: %s failed: %w", op, err)
}

func isGithubNotFound(err error) bool {
	var errResp *github.ErrorResponse
	return errors.As(err, &errResp) && errResp.Response != nil && errResp.Response.StatusCode == http.StatusNotFound
}
