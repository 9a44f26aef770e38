// Package blob keeps short-lived in-memory objects addressable by URL, so a
// generated report can be handed to the download sink without touching disk
// first.
package blob

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Scheme prefixes every object URL.
const Scheme = "blob:"

// Object is the content behind an object URL.
type Object struct {
	Data        []byte
	ContentType string
	CreatedAt   time.Time
}

// Registry maps object URLs to their content until they are revoked.
type Registry struct {
	mu      sync.RWMutex
	objects map[string]*Object
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		objects: make(map[string]*Object),
	}
}

// Create registers data and returns a new object URL for it.
func (r *Registry) Create(data []byte, contentType string) string {
	url := Scheme + uuid.New().String()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.objects[url] = &Object{
		Data:        data,
		ContentType: contentType,
		CreatedAt:   time.Now(),
	}

	return url
}

// Resolve returns the object behind url.
func (r *Registry) Resolve(url string) (*Object, error) {
	if !strings.HasPrefix(url, Scheme) {
		return nil, fmt.Errorf("not an object URL: %s", url)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	obj, ok := r.objects[url]
	if !ok {
		return nil, fmt.Errorf("object URL not found or revoked: %s", url)
	}
	return obj, nil
}

// Revoke releases url. Revoking an unknown or already revoked URL is a no-op.
func (r *Registry) Revoke(url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.objects, url)
}

// Len returns the number of live object URLs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.objects)
}
