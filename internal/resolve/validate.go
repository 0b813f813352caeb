package resolve

import (
	"fmt"
	"net/url"
	"strings"

	"malpha/internal/platform"
)

// Normalize validates the scheme of rawURL and rebuilds it as
// scheme://host/path, dropping user info, query string and fragment.
// Normalize(Normalize(u)) == Normalize(u) for every accepted u.
func Normalize(rawURL string) (string, error) {
	u, err := parseInput(rawURL)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func parseInput(rawURL string) (*url.URL, error) {
	s := strings.TrimSpace(rawURL)
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return nil, ErrInvalidInput
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if u.Host == "" {
		return nil, ErrInvalidInput
	}

	return &url.URL{
		Scheme:  strings.ToLower(u.Scheme),
		Host:    strings.ToLower(u.Host),
		Path:    u.Path,
		RawPath: u.RawPath,
	}, nil
}

// validate runs every input check that must pass before any network
// activity and returns the normalized URL.
func validate(rawURL string, allowed platform.Platform) (*url.URL, error) {
	u, err := parseInput(rawURL)
	if err != nil {
		return nil, err
	}
	if !allowed.Allows(u.Host) {
		return nil, fmt.Errorf("%w: only %s links are accepted", ErrUnsupportedDomain, allowed.Title)
	}
	return u, nil
}
