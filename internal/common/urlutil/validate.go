package urlutil

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidTargetURL marks input that is not a well-formed absolute URL
var ErrInvalidTargetURL = errors.New("target URL is not absolute")

// ValidateTargetURL checks that raw parses as an absolute URL with both a
// scheme and a host. No network access happens here; the check exists to
// short-circuit before a browser instance is committed to the request.
func ValidateTargetURL(raw string) (*url.URL, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTargetURL, err)
	}

	if parsed.Scheme == "" {
		return nil, fmt.Errorf("%w: missing scheme", ErrInvalidTargetURL)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidTargetURL)
	}

	return parsed, nil
}

// ExtractHost extracts and lowercases the host from a URL string.
// Returns empty string if URL is invalid or has no host.
func ExtractHost(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Host)
}
