package urlhandler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{
			name:     "Lowercases scheme and host",
			input:    "HTTPS://Example.COM/Path",
			expected: "https://example.com/Path",
		},
		{
			name:     "Strips fragment",
			input:    "https://example.com/page#section-2",
			expected: "https://example.com/page",
		},
		{
			name:     "Keeps query string",
			input:    "https://example.com/search?q=test",
			expected: "https://example.com/search?q=test",
		},
		{
			name:     "Adds scheme to bare hostname",
			input:    "example.com/login",
			expected: "http://example.com/login",
		},
		{
			name:     "Trims surrounding whitespace",
			input:    "  https://example.com  ",
			expected: "https://example.com",
		},
		{
			name:    "Empty input",
			input:   "",
			wantErr: true,
		},
		{
			name:    "Whitespace only",
			input:   "   ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NormalizeURL(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestNormalizeURL_Idempotent(t *testing.T) {
	inputs := []string{
		"HTTP://Login.Bank-Secure.XYZ/verify?id=1#top",
		"example.com",
		"https://sub.example.co.uk/a/b?x=1&y=2",
	}

	for _, input := range inputs {
		once, err := NormalizeURL(input)
		require.NoError(t, err)
		twice, err := NormalizeURL(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice, "normalizing twice should be a no-op for %q", input)
	}
}

func TestIsScannable(t *testing.T) {
	tests := []struct {
		url      string
		expected bool
	}{
		{"https://example.com", true},
		{"http://example.com/login", true},
		{"HTTP://EXAMPLE.COM", true},
		{"chrome://settings", false},
		{"about:blank", false},
		{"file:///etc/passwd", false},
		{"data:text/html,<h1>x</h1>", false},
		{"ftp://example.com", false},
		{"", false},
		{"https://", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, IsScannable(tt.url), "IsScannable(%q)", tt.url)
	}
}

func TestHostnameOf(t *testing.T) {
	hostname, err := HostnameOf("https://Login.Example.com:8443/path")
	require.NoError(t, err)
	assert.Equal(t, "login.example.com", hostname)

	_, err = HostnameOf("not a url")
	assert.Error(t, err)
}

func TestAnalyzeHost(t *testing.T) {
	tests := []struct {
		name            string
		hostname        string
		expectedPrimary string
		expectedTLD     string
		suspiciousTLD   bool
		numericHost     bool
	}{
		{
			name:            "Plain domain",
			hostname:        "example.com",
			expectedPrimary: "example.com",
			expectedTLD:     "com",
		},
		{
			name:            "Subdomain",
			hostname:        "login.secure.example.com",
			expectedPrimary: "example.com",
			expectedTLD:     "com",
		},
		{
			name:            "Multi-label public suffix",
			hostname:        "shop.example.co.uk",
			expectedPrimary: "example.co.uk",
			expectedTLD:     "uk",
		},
		{
			name:            "Suspicious TLD",
			hostname:        "free-prizes.xyz",
			expectedPrimary: "free-prizes.xyz",
			expectedTLD:     "xyz",
			suspiciousTLD:   true,
		},
		{
			name:            "IPv4 host",
			hostname:        "192.168.10.5",
			expectedPrimary: "192.168.10.5",
			numericHost:     true,
		},
		{
			name:            "Host with port",
			hostname:        "example.com:8080",
			expectedPrimary: "example.com",
			expectedTLD:     "com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := AnalyzeHost(tt.hostname)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedPrimary, info.PrimaryDomain)
			assert.Equal(t, tt.expectedTLD, info.TLD)
			assert.Equal(t, tt.suspiciousTLD, info.HasSuspiciousTLD)
			assert.Equal(t, tt.numericHost, info.IsNumericHost)
		})
	}
}

func TestAnalyzeHost_SingleLabel(t *testing.T) {
	info, err := AnalyzeHost("localhost")
	require.NoError(t, err)
	assert.Equal(t, "localhost", info.PrimaryDomain)
	assert.Empty(t, info.TLD)
	assert.False(t, info.HasSuspiciousTLD)
}

func TestAnalyzeHost_Empty(t *testing.T) {
	_, err := AnalyzeHost("  ")
	assert.Error(t, err)
}

func TestIsSuspiciousTLD(t *testing.T) {
	assert.True(t, IsSuspiciousTLD("xyz"))
	assert.True(t, IsSuspiciousTLD(".tk"))
	assert.True(t, IsSuspiciousTLD("TOP"))
	assert.False(t, IsSuspiciousTLD("com"))
	assert.False(t, IsSuspiciousTLD("org"))
}
