package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemBucket is a Bucket on memory.
type MemBucket struct {
	name string

	mux     sync.Mutex
	objects map[string][]byte
	etags   map[string]string
	puts    int

	// FailOn, if set, is called on each Put. Non-nil return value fails the Put.
	FailOn func(key string) error
}

var _ Bucket = &MemBucket{}

func NewMemBucket(name string) *MemBucket {
	return &MemBucket{
		name:    name,
		objects: map[string][]byte{},
		etags:   map[string]string{},
	}
}

func (b *MemBucket) Name() string {
	return b.name
}

func (b *MemBucket) Exists(ctx context.Context, key string) (ObjectInfo, bool, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, false, err
	}
	b.mux.Lock()
	defer b.mux.Unlock()
	body, ok := b.objects[key]
	if !ok {
		return ObjectInfo{}, false, nil
	}
	return ObjectInfo{Key: key, Size: int64(len(body)), ETag: b.etags[key]}, true, nil
}

func (b *MemBucket) Put(ctx context.Context, key string, body io.Reader, size int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.FailOn != nil {
		if err := b.FailOn(key); err != nil {
			return err
		}
	}
	buf, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	sum := md5.Sum(buf)

	b.mux.Lock()
	defer b.mux.Unlock()
	b.objects[key] = buf
	b.etags[key] = hex.EncodeToString(sum[:])
	b.puts += 1
	return nil
}

func (b *MemBucket) List(ctx context.Context, prefix string, callback func(ObjectInfo) error) error {
	b.mux.Lock()
	keys := make([]string, 0, len(b.objects))
	infos := map[string]ObjectInfo{}
	for k, v := range b.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
			infos[k] = ObjectInfo{Key: k, Size: int64(len(v)), ETag: b.etags[k], LastModified: time.Time{}}
		}
	}
	b.mux.Unlock()

	sort.Strings(keys)
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := callback(infos[k]); err != nil {
			return err
		}
	}
	return nil
}

// Object returns the content of the object.
func (b *MemBucket) Object(key string) ([]byte, bool) {
	b.mux.Lock()
	defer b.mux.Unlock()
	body, ok := b.objects[key]
	return body, ok
}

// Keys returns keys of all objects, sorted.
func (b *MemBucket) Keys() []string {
	b.mux.Lock()
	defer b.mux.Unlock()
	keys := make([]string, 0, len(b.objects))
	for k := range b.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Puts returns how many times Put succeeded.
func (b *MemBucket) Puts() int {
	b.mux.Lock()
	defer b.mux.Unlock()
	return b.puts
}
