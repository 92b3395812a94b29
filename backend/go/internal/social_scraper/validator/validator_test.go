package validator

import (
	"encoding/json"
	"testing"

	"Orbit/backend/go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkedInRequiresNameAndURL(t *testing.T) {
	assert.False(t, Validate(json.RawMessage(`{"url":"https://linkedin.com/in/ada"}`), models.PlatformLinkedIn))
	assert.True(t, Validate(json.RawMessage(`{"name":"Ada","url":"https://linkedin.com/in/ada"}`), models.PlatformLinkedIn))

	err := Check(json.RawMessage(`{"name":"","url":null}`), models.PlatformLinkedIn)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"name", "url"}, ve.Missing)
}

func TestUsernamePlatforms(t *testing.T) {
	for _, p := range []models.Platform{models.PlatformInstagram, models.PlatformTikTok} {
		assert.True(t, Validate(json.RawMessage(`{"username":"ada"}`), p), p)
		assert.False(t, Validate(json.RawMessage(`{"username":""}`), p), p)
		assert.False(t, Validate(json.RawMessage(`{"followers":10}`), p), p)
	}
}

func TestPermissivePlatforms(t *testing.T) {
	for _, p := range []models.Platform{models.PlatformFacebook, models.PlatformTwitter, models.PlatformYouTube, "mastodon"} {
		assert.True(t, Validate(json.RawMessage(`{}`), p), p)
		assert.False(t, Validate(json.RawMessage(`[]`), p), p)
	}
}

func TestNonObjectPayloads(t *testing.T) {
	for _, raw := range []string{`null`, `"x"`, `42`, `[{"name":"a"}]`, `not json`, ``} {
		assert.False(t, Validate(json.RawMessage(raw), models.PlatformLinkedIn), raw)
	}
}

func TestTruthiness(t *testing.T) {
	assert.False(t, Validate(json.RawMessage(`{"username":0}`), models.PlatformInstagram))
	assert.False(t, Validate(json.RawMessage(`{"username":false}`), models.PlatformInstagram))
	assert.True(t, Validate(json.RawMessage(`{"username":1}`), models.PlatformInstagram))
	assert.True(t, Validate(json.RawMessage(`{"username":{}}`), models.PlatformInstagram))
}

func TestCheckPosts(t *testing.T) {
	assert.NoError(t, CheckPosts(json.RawMessage(`[]`), models.PlatformInstagram))
	assert.NoError(t, CheckPosts(json.RawMessage(`[{"likes":1},{}]`), models.PlatformLinkedIn))
	assert.Error(t, CheckPosts(json.RawMessage(`{"likes":1}`), models.PlatformLinkedIn))
	assert.Error(t, CheckPosts(json.RawMessage(`[{"likes":1},3]`), models.PlatformLinkedIn))
	assert.Error(t, CheckPosts(json.RawMessage(`null`), models.PlatformLinkedIn))
	assert.Error(t, CheckPosts(nil, models.PlatformLinkedIn))
}
