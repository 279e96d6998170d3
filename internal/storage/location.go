// Package storage provides domain.ObjectStore adapters for S3-compatible,
// GCS, Azure Blob, local filesystem, and in-memory object storage.
package storage

import (
	"fmt"
	"net/url"
	"strings"
)

// Location is a parsed object URI such as "s3://bucket/path/to/key".
type Location struct {
	Scheme string
	Bucket string
	Key    string
}

// String reassembles the URI.
func (l Location) String() string {
	return fmt.Sprintf("%s://%s/%s", l.Scheme, l.Bucket, l.Key)
}

// Join returns a location whose key is l.Key joined with name by a single slash.
func (l Location) Join(name string) Location {
	key := l.Key
	if key != "" && !strings.HasSuffix(key, "/") {
		key += "/"
	}
	return Location{Scheme: l.Scheme, Bucket: l.Bucket, Key: key + strings.TrimPrefix(name, "/")}
}

var supportedSchemes = map[string]bool{
	"s3":   true,
	"gs":   true,
	"az":   true,
	"file": true,
	"mem":  true,
}

// ParseLocation extracts scheme, bucket, and key from an object URI.
// The key may be empty (a prefix location such as "s3://bucket/").
func ParseLocation(uri string) (Location, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return Location{}, fmt.Errorf("parse location %q: %w", uri, err)
	}
	if !supportedSchemes[u.Scheme] {
		return Location{}, fmt.Errorf("unsupported scheme %q in %q", u.Scheme, uri)
	}
	if u.Host == "" {
		return Location{}, fmt.Errorf("missing bucket in %q", uri)
	}
	return Location{
		Scheme: u.Scheme,
		Bucket: u.Host,
		Key:    strings.TrimPrefix(u.Path, "/"),
	}, nil
}

// ParseObjectLocation is ParseLocation but also requires a non-empty key.
func ParseObjectLocation(uri string) (Location, error) {
	loc, err := ParseLocation(uri)
	if err != nil {
		return Location{}, err
	}
	if loc.Key == "" || strings.HasSuffix(loc.Key, "/") {
		return Location{}, fmt.Errorf("empty key in %q", uri)
	}
	return loc, nil
}
