package storage

import (
	"io"
	"time"
)

// BlobStore is the persistence substrate for PDF and video objects. Material
// records treat the returned key/URL as opaque strings.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	Delete(key string) error
	SignedURL(key string, ttl time.Duration) (string, error) // fs returns "file://..." for dev
}
