package storage

import (
	"errors"
	"net/http"
	"testing"

	"github.com/google/go-github/v75/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleGithubErrorWithResponse(t *testing.T) {
	err := handleGithubError("committing a.jpg", &github.ErrorResponse{
		Response: &http.Response{StatusCode: http.StatusUnprocessableEntity},
		Message:  "sha does not match",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "sha does not match")
}

func TestHandleGithubErrorNilResponse(t *testing.T) {
	// An ErrorResponse without an HTTP response must not panic
	err := handleGithubError("committing a.jpg", &github.ErrorResponse{Message: "boom"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "committing a.jpg")
}

func TestHandleGithubErrorPlainError(t *testing.T) {
	err := handleGithubError("listing", errors.New("dial tcp: timeout"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial tcp")

	assert.NoError(t, handleGithubError("noop", nil))
}

func TestIsGithubNotFound(t *testing.T) {
	assert.True(t, isGithubNotFound(&github.ErrorResponse{
		Response: &http.Response{StatusCode: http.StatusNotFound},
	}))
	assert.False(t, isGithubNotFound(&github.ErrorResponse{
		Response: &http.Response{StatusCode: http.StatusInternalServerError},
	}))
	assert.False(t, isGithubNotFound(&github.ErrorResponse{}))
	assert.False(t, isGithubNotFound(errors.New("nope")))
}
