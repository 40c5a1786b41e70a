package warmup_test

import (
	"testing"

	"github.com/fwojciec/warmup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"adds root path", "https://example.org", "https://example.org/"},
		{"lowercases scheme and host", "HTTPS://Example.ORG/Foo", "https://example.org/Foo"},
		{"strips fragment", "https://example.org/foo#bar", "https://example.org/foo"},
		{"drops default https port", "https://example.org:443/", "https://example.org/"},
		{"drops default http port", "http://example.org:80/a", "http://example.org/a"},
		{"keeps other ports", "http://127.0.0.1:8080/a", "http://127.0.0.1:8080/a"},
		{"keeps query", "https://example.org/?page=2", "https://example.org/?page=2"},
		{"converts IDN host", "https://bücher.example/", "https://xn--bcher-kva.example/"},
		{"trims whitespace", "  https://example.org/foo\n", "https://example.org/foo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := warmup.NormalizeURL(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeURL_Invalid(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "/relative", "ftp://example.org/", "https://", "://bad"} {
		_, err := warmup.NormalizeURL(in)
		require.Error(t, err, in)
		assert.Equal(t, warmup.EINVALID, warmup.ErrorCode(err), in)
	}
}

func TestResolveURL(t *testing.T) {
	t.Parallel()

	t.Run("resolves relative location against sitemap", func(t *testing.T) {
		t.Parallel()

		got, err := warmup.ResolveURL("https://example.org/sitemaps/en.xml", "/foo")
		require.NoError(t, err)
		assert.Equal(t, "https://example.org/foo", got)
	})

	t.Run("keeps absolute location", func(t *testing.T) {
		t.Parallel()

		got, err := warmup.ResolveURL("https://example.org/sitemap.xml", "https://cdn.example.org/a")
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.org/a", got)
	})
}
