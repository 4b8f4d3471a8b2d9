package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Walid-EM/restaurantsitev0-sub001/internal/pkg/storage"
)

func TestLocatorRoundTrip(t *testing.T) {
	cases := []storage.Locator{
		storage.NewLocalLocator("1700000000-abcd1234.jpg"),
		storage.NewRemoteLocator("https://cdn.example.com/images/burger.png"),
		storage.NewProviderLocator("images/1700000000-abcd1234.jpg"),
	}

	for _, loc := range cases {
		parsed, err := storage.ParseLocator(loc.String())
		require.NoError(t, err, loc.String())
		assert.Equal(t, loc, parsed)
	}
}

func TestParseLocatorRemoteKeepsURLIntact(t *testing.T) {
	loc, err := storage.ParseLocator("remote:https://cdn.example.com/a/b.webp")
	require.NoError(t, err)
	assert.Equal(t, storage.LocatorRemote, loc.Kind)
	assert.Equal(t, "https://cdn.example.com/a/b.webp", loc.Ref)
}

func TestParseLocatorRejectsMalformed(t *testing.T) {
	for _, raw := range []string{
		"",
		"justafilename.jpg",
		"local:",
		"remote:not-a-url",
		"ftp:something",
	} {
		_, err := storage.ParseLocator(raw)
		assert.Error(t, err, "expected %q to be rejected", raw)
	}
}

func TestLocatorIsZero(t *testing.T) {
	assert.True(t, storage.Locator{}.IsZero())
	assert.True(t, storage.Locator{Kind: storage.LocatorLocal}.IsZero())
	assert.False(t, storage.NewLocalLocator("x.png").IsZero())
}
