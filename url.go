package warmup

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// NormalizeURL returns the canonical form of an absolute http(s) URL.
// Scheme and host are lowercased, internationalized hosts are converted to
// their ASCII form, default ports and fragments are dropped, and an empty
// path becomes "/". Two URLs are considered equal when their normalized
// forms are equal.
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", WrapError(EINVALID, err, "invalid URL %q", rawURL)
	}
	if err := normalize(u); err != nil {
		return "", err
	}
	return u.String(), nil
}

// ResolveURL resolves ref against base and normalizes the result.
// Used for relative <loc> entries in sitemaps.
func ResolveURL(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", WrapError(EINVALID, err, "invalid base URL %q", base)
	}
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", WrapError(EINVALID, err, "invalid URL %q", ref)
	}
	u := b.ResolveReference(r)
	if err := normalize(u); err != nil {
		return "", err
	}
	return u.String(), nil
}

func normalize(u *url.URL) error {
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return Errorf(EINVALID, "unsupported URL scheme %q", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return Errorf(EINVALID, "URL %q has no host", u.String())
	}
	host = strings.ToLower(host)
	if net.ParseIP(host) == nil {
		ascii, err := idna.Lookup.ToASCII(host)
		if err != nil {
			return WrapError(EINVALID, err, "invalid host in URL %q", u.String())
		}
		host = ascii
	}

	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		u.Host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		u.Host = "[" + host + "]"
	} else {
		u.Host = host
	}

	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" {
		u.Path = "/"
		u.RawPath = ""
	}
	return nil
}
