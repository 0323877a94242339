package scraper

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "already normal", in: "https://example.com/path", want: "https://example.com/path"},
		{name: "uppercase host", in: "HTTPS://Example.COM/Path", want: "https://example.com/Path"},
		{name: "default https port", in: "https://example.com:443/", want: "https://example.com/"},
		{name: "default http port", in: "http://example.com:80/", want: "http://example.com/"},
		{name: "explicit port kept", in: "https://example.com:8443/", want: "https://example.com:8443/"},
		{name: "fragment stripped", in: "https://example.com/page#section", want: "https://example.com/page"},
		{name: "query sorted", in: "https://example.com/?b=2&a=1", want: "https://example.com/?a=1&b=2"},
		{name: "mailto rejected", in: "mailto:team@example.com", wantErr: true},
		{name: "relative rejected", in: "/just/a/path", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := NormalizeURL(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveLink(t *testing.T) {
	t.Parallel()

	base, err := url.Parse("https://example.com/docs/intro")
	require.NoError(t, err)

	tests := []struct {
		name string
		href string
		want string
		ok   bool
	}{
		{name: "relative", href: "guide", want: "https://example.com/docs/guide", ok: true},
		{name: "root relative", href: "/about", want: "https://example.com/about", ok: true},
		{name: "absolute", href: "https://other.example/page", want: "https://other.example/page", ok: true},
		{name: "fragment only", href: "#top", want: "https://example.com/docs/intro", ok: true},
		{name: "javascript", href: "javascript:void(0)", ok: false},
		{name: "mailto", href: "mailto:team@example.com", ok: false},
		{name: "empty", href: "   ", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ResolveLink(base, tt.href)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestSameHost(t *testing.T) {
	t.Parallel()

	assert.True(t, SameHost("https://example.com/a", "http://EXAMPLE.com/b"))
	assert.False(t, SameHost("https://example.com/", "https://other.example/"))
	assert.False(t, SameHost("not a url ::", "https://example.com/"))
	assert.False(t, SameHost("/relative", "/relative"))
}

func TestHostname(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "example.com", Hostname("https://Example.com:8443/x"))
	assert.Equal(t, "unknown", Hostname("not a url ::"))
	assert.Equal(t, "unknown", Hostname("/relative/only"))
}
