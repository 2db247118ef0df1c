package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEndpointURLValidator(t *testing.T) {
	v := NewEndpointURLValidator()
	require.NotNil(t, v)
	assert.False(t, v.AllowLocalhost)
	assert.False(t, v.AllowPrivateIPs)
	assert.Equal(t, 2048, v.MaxLength)

	p := NewPermissiveEndpointURLValidator()
	assert.True(t, p.AllowLocalhost)
	assert.True(t, p.AllowPrivateIPs)
}

func TestValidateAndNormalize(t *testing.T) {
	v := NewEndpointURLValidator()

	tests := []struct {
		name     string
		input    string
		expected string
		errorMsg string
	}{
		{name: "empty URL", input: "", errorMsg: "URL cannot be empty"},
		{name: "whitespace-only URL", input: "   ", errorMsg: "URL cannot be empty"},
		{name: "bare host gets https", input: "api.myanimelist.net/v2", expected: "https://api.myanimelist.net/v2"},
		{name: "trailing slash trimmed", input: "https://api.myanimelist.net/v2/", expected: "https://api.myanimelist.net/v2"},
		{name: "http preserved", input: "http://myanimelist.net/rss/news.xml", expected: "http://myanimelist.net/rss/news.xml"},
		{name: "fragment dropped", input: "https://myanimelist.net/v1/oauth2/token#x", expected: "https://myanimelist.net/v1/oauth2/token"},
		{name: "too long", input: "https://myanimelist.net/" + strings.Repeat("a", 3000), errorMsg: "URL too long"},
		{name: "invalid characters", input: "https://myanimelist.net/<script>", errorMsg: "invalid characters"},
		{name: "other scheme", input: "ftp://myanimelist.net", errorMsg: "http or https"},
		{name: "no hostname", input: "https:///v2", errorMsg: "valid hostname"},
		{name: "localhost blocked", input: "https://localhost/v2", errorMsg: "localhost URLs are not permitted"},
		{name: "loopback blocked", input: "https://127.0.0.1:8080/v2", errorMsg: "localhost URLs are not permitted"},
		{name: "private IP blocked", input: "https://192.168.1.1/v2", errorMsg: "private IP addresses are not permitted"},
		{name: "unspecified address", input: "https://0.0.0.0/v2", errorMsg: "unspecified address"},
		{name: "directory traversal", input: "https://myanimelist.net/../../etc", errorMsg: "directory traversal"},
		{name: "credentials", input: "https://user:pw@myanimelist.net/v2", errorMsg: "credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := v.ValidateAndNormalize(tt.input)
			if tt.errorMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestValidateAndNormalizePermissive(t *testing.T) {
	v := NewPermissiveEndpointURLValidator()

	for _, input := range []string{
		"http://127.0.0.1:3000/v2",
		"https://localhost:8080",
		"https://192.168.1.100/v2",
		"http://[::1]:9000/v2",
	} {
		got, err := v.ValidateAndNormalize(input)
		require.NoError(t, err, input)
		assert.Equal(t, input, got)
	}
}

func TestRedirectURL(t *testing.T) {
	got, err := RedirectURL(2006)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:2006/callback", got)

	_, err = RedirectURL(0)
	assert.Error(t, err)
	_, err = RedirectURL(70000)
	assert.Error(t, err)
}

func TestSanitizeQuery(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "naruto", "naruto"},
		{"trimmed", "  one piece  ", "one piece"},
		{"collapsed whitespace", "fullmetal\t\n  alchemist", "fullmetal alchemist"},
		{"control characters", "bleach\x00\x07", "bleach"},
		{"only whitespace", " \t\n ", ""},
		{"unicode kept", "進撃の巨人", "進撃の巨人"},
		{"length capped", strings.Repeat("a", 100), strings.Repeat("a", MaxQueryLength)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeQuery(tt.input))
		})
	}
}
