package blob

import (
	"strings"
	"sync"
	"testing"
)

func TestRegistry_CreateResolveRevoke(t *testing.T) {
	r := NewRegistry()

	url := r.Create([]byte("%PDF-1.4"), "application/pdf")
	if !strings.HasPrefix(url, Scheme) {
		t.Fatalf("expected %q prefix, got %s", Scheme, url)
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 live object, got %d", r.Len())
	}

	obj, err := r.Resolve(url)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if string(obj.Data) != "%PDF-1.4" {
		t.Errorf("unexpected data %q", obj.Data)
	}
	if obj.ContentType != "application/pdf" {
		t.Errorf("unexpected content type %q", obj.ContentType)
	}

	r.Revoke(url)
	if r.Len() != 0 {
		t.Errorf("expected no live objects after revoke, got %d", r.Len())
	}
	if _, err := r.Resolve(url); err == nil {
		t.Error("expected error resolving a revoked URL")
	}

	// Second revoke is harmless
	r.Revoke(url)
}

func TestRegistry_UniqueURLs(t *testing.T) {
	r := NewRegistry()
	a := r.Create([]byte("a"), "")
	b := r.Create([]byte("a"), "")
	if a == b {
		t.Fatalf("expected distinct URLs, got %s twice", a)
	}
}

func TestRegistry_ResolveRejectsForeignURLs(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Resolve("https://example.com/report.pdf"); err == nil {
		t.Error("expected error for non-blob URL")
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			url := r.Create([]byte("x"), "text/plain")
			if _, err := r.Resolve(url); err != nil {
				t.Errorf("resolve: %v", err)
			}
			r.Revoke(url)
		}()
	}
	wg.Wait()

	if r.Len() != 0 {
		t.Errorf("expected all objects revoked, got %d live", r.Len())
	}
}
