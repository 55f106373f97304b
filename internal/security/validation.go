// Package security provides input validation and bounded conversions for
// desktopdye.
package security

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// ErrSizeLimitExceeded is returned by LimitedReader once its budget is spent.
var ErrSizeLimitExceeded = errors.New("decompression size limit exceeded")

// ValidateEndpoint validates a Home Assistant base URL. The endpoint must use
// http:// or https://, name a host and an explicit port, and must not end
// with a slash.
func ValidateEndpoint(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("empty endpoint")
	}

	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return fmt.Errorf("endpoint must start with http:// or https://")
	}

	if strings.HasSuffix(endpoint, "/") {
		return fmt.Errorf("endpoint must not end with a slash")
	}

	// One colon after the scheme and one before the port.
	if n := strings.Count(endpoint, ":"); n != 2 {
		return fmt.Errorf("endpoint must be in the form scheme://host:port (found %d colons)", n)
	}

	parsed, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}
	if parsed.Hostname() == "" {
		return fmt.Errorf("endpoint must have a hostname")
	}
	if parsed.Port() == "" {
		return fmt.Errorf("endpoint must have a port")
	}

	return nil
}

// ValidateEntityID checks that id looks like a Home Assistant entity id of
// the form domain.object_id.
func ValidateEntityID(id string) error {
	domain, object, ok := strings.Cut(id, ".")
	if !ok || domain == "" || object == "" {
		return fmt.Errorf("entity id must be in the form domain.object_id, got %q", id)
	}
	if strings.ContainsAny(id, "/ ?#") {
		return fmt.Errorf("entity id contains invalid characters: %q", id)
	}
	return nil
}

// SafeUint8FromUint32 converts uint32 to uint8, clamping at 255.
func SafeUint8FromUint32(val uint32) uint8 {
	if val > 255 {
		return 255
	}
	return uint8(val)
}

// LimitedReader wraps an io.Reader and fails once more than Remaining bytes
// have been requested. Used when decompressing frame files.
type LimitedReader struct {
	R         io.Reader
	Remaining int64
}

// Read implements io.Reader with size limits.
func (l *LimitedReader) Read(p []byte) (int, error) {
	if l.Remaining <= 0 {
		return 0, ErrSizeLimitExceeded
	}
	if int64(len(p)) > l.Remaining {
		p = p[:l.Remaining]
	}
	n, err := l.R.Read(p)
	l.Remaining -= int64(n)
	return n, err
}

// NewLimitedReader creates a new LimitedReader with the specified size limit.
func NewLimitedReader(r io.Reader, maxBytes int64) *LimitedReader {
	return &LimitedReader{
		R:         r,
		Remaining: maxBytes,
	}
}
