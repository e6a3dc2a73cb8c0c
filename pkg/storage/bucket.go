// Package storage publishes local datasets to an object storage bucket.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrAccessDenied is returned when the bucket rejects credentials or permission.
	ErrAccessDenied = errors.New("access denied")

	// ErrNoSuchBucket is returned when the bucket does not exist.
	ErrNoSuchBucket = errors.New("no such bucket")
)

type ObjectInfo struct {
	Key  string
	Size int64

	// ETag without quotes. It can be empty.
	ETag string

	LastModified time.Time
}

// Bucket is an object storage bucket.
type Bucket interface {
	// Name returns the bucket name.
	Name() string

	// Exists looks up an object.
	//
	// # Returns
	//
	// - ObjectInfo: metadata of the object, if found.
	//
	// - bool: true if the object exists.
	//
	// - error
	Exists(ctx context.Context, key string) (ObjectInfo, bool, error)

	// Put stores body as the object of key, replacing the existing one.
	//
	// size is the length of body, or -1 if unknown.
	Put(ctx context.Context, key string, body io.Reader, size int64) error

	// List calls callback for each object whose key starts with prefix, in key order.
	//
	// When callback returns error, listing stops and the error is returned.
	List(ctx context.Context, prefix string, callback func(ObjectInfo) error) error
}
