// Package storage holds the object storage contract and in-memory
// implementations of every persistence interface. The memory stores back the
// offline CLI and the tests; production wires PostgreSQL and S3.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"
	"sync"
	"time"
)

var ErrObjectNotFound = errors.New("object not found")

// BlobStore keeps the raw bytes of uploaded files.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ObjectKey builds "<user>/<project>/<unix-ms>-<name>" with the file name
// reduced to a safe character set.
func ObjectKey(userID, projectID, fileName string, now time.Time) string {
	name := path.Base(strings.ReplaceAll(fileName, `\`, "/"))
	name = strings.Trim(unsafeKeyChars.ReplaceAllString(name, "_"), "_")
	if name == "" || name == "." {
		name = "file"
	}
	return fmt.Sprintf("%s/%s/%d-%s", userID, projectID, now.UnixMilli(), name)
}

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryBlobStore is a BlobStore backed by a map.
type MemoryBlobStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{objects: make(map[string]memoryObject)}
}

func (m *MemoryBlobStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return fmt.Errorf("read object body: %w", err)
	}
	if size >= 0 && int64(buf.Len()) != size {
		return fmt.Errorf("object %s: expected %d bytes, got %d", key, size, buf.Len())
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{data: buf.Bytes(), contentType: contentType}
	return nil
}

func (m *MemoryBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return bytes.Clone(obj.data), nil
}

// Delete is idempotent, matching S3 semantics.
func (m *MemoryBlobStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *MemoryBlobStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	m.mu.RLock()
	_, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return "", ErrObjectNotFound
	}
	q := url.Values{}
	q.Set("expires", fmt.Sprint(time.Now().Add(ttl).Unix()))
	return "memory://" + key + "?" + q.Encode(), nil
}

// Len reports how many objects are stored.
func (m *MemoryBlobStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
