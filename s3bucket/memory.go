package s3bucket

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"
)

// MemBucket keeps objects in memory. It serves local runs without AWS
// credentials and tests.
type MemBucket struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]memObject
}

type memObject struct {
	content   []byte
	mediaType string
}

func NewMemBucket(baseURL string) *MemBucket {
	return &MemBucket{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]memObject),
	}
}

func (b *MemBucket) Upload(ctx context.Context, content []byte, key string, mediaType string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = memObject{content: append([]byte(nil), content...), mediaType: mediaType}
	return b.baseURL + "/" + key, nil
}

func (b *MemBucket) PresignedURL(ctx context.Context, key string, duration time.Duration) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if _, ok := b.objects[key]; !ok {
		return "", fmt.Errorf("no such key: %s", key)
	}
	expires := time.Now().Add(duration).Unix()
	return fmt.Sprintf("%s/%s?expires=%d", b.baseURL, url.PathEscape(key), expires), nil
}

func (b *MemBucket) Exists(ctx context.Context, key string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.objects[key]
	return ok, nil
}

func (b *MemBucket) Download(ctx context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	obj, ok := b.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such key: %s", key)
	}
	return append([]byte(nil), obj.content...), nil
}

func (b *MemBucket) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	return nil
}
