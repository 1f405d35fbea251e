package geoip

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"
)

// ErrUnavailable is returned when no database is loaded.
var ErrUnavailable = errors.New("geoip: database not loaded")

// Resolver maps client addresses to ISO country codes using a MaxMind
// country database. A nil *Resolver is valid and resolves nothing, so the
// locale middleware can run without a database.
type Resolver struct {
	reader *geoip2.Reader
}

// NewResolver opens the database at path. An empty path yields a nil
// resolver and no error.
func NewResolver(path string) (*Resolver, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip: open %s: %w", path, err)
	}
	return &Resolver{reader: reader}, nil
}

// Enabled reports whether lookups can succeed.
func (r *Resolver) Enabled() bool {
	return r != nil && r.reader != nil
}

// Country returns the upper-case ISO code for ip, or "" when the address is
// private or unknown to the database.
func (r *Resolver) Country(ip string) (string, error) {
	if !r.Enabled() {
		return "", ErrUnavailable
	}
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return "", fmt.Errorf("geoip: invalid ip %q", ip)
	}
	if parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() {
		return "", nil
	}
	record, err := r.reader.Country(parsed)
	if err != nil {
		return "", fmt.Errorf("geoip: lookup %s: %w", ip, err)
	}
	return strings.ToUpper(record.Country.IsoCode), nil
}

// Lookup adapts the resolver to a plain lookup function. It returns nil when
// no database is loaded so callers skip country detection entirely.
func (r *Resolver) Lookup() func(ip string) (string, error) {
	if !r.Enabled() {
		return nil
	}
	return r.Country
}

func (r *Resolver) Close() error {
	if !r.Enabled() {
		return nil
	}
	return r.reader.Close()
}
