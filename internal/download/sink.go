// Package download delivers generated reports to the user.
package download

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/circom-analyzer/frontend/internal/blob"
	"github.com/circom-analyzer/frontend/internal/models"
)

// Trigger starts the download of the object behind an object URL. The
// object must have been fully consumed when Trigger returns, since the
// caller revokes the URL right after.
type Trigger interface {
	Trigger(ctx context.Context, objectURL, filename string) (*models.DownloadInfo, error)
}

// Resolver looks up object URLs.
type Resolver interface {
	Resolve(url string) (*blob.Object, error)
}

// maxDuplicates bounds the "name (n).ext" search.
const maxDuplicates = 1000

// DirSink saves downloads into a directory, never overwriting an existing file.
type DirSink struct {
	mu       sync.RWMutex
	dir      string
	resolver Resolver
	saved    []*models.DownloadInfo
}

// NewDirSink creates a DirSink writing into dir.
func NewDirSink(dir string, resolver Resolver) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating download directory: %w", err)
	}

	return &DirSink{
		dir:      dir,
		resolver: resolver,
	}, nil
}

// Dir returns the directory downloads are written to.
func (s *DirSink) Dir() string {
	return s.dir
}

// Trigger resolves objectURL and writes its content as filename.
func (s *DirSink) Trigger(ctx context.Context, objectURL, filename string) (*models.DownloadInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	obj, err := s.resolver.Resolve(objectURL)
	if err != nil {
		return nil, fmt.Errorf("resolving download: %w", err)
	}

	name := sanitizeFilename(filename)

	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.create(name, obj.Data)
	if err != nil {
		return nil, err
	}

	info := &models.DownloadInfo{
		Filename:    filepath.Base(path),
		Path:        path,
		Size:        int64(len(obj.Data)),
		ContentType: obj.ContentType,
		At:          time.Now(),
	}
	s.saved = append(s.saved, info)

	log.Printf("[Download] Saved %s (%d bytes)", info.Filename, info.Size)
	return info, nil
}

// create writes data under the first free variant of name.
func (s *DirSink) create(name string, data []byte) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for i := 0; i < maxDuplicates; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		path := filepath.Join(s.dir, candidate)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("creating download file: %w", err)
		}

		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(path)
			return "", fmt.Errorf("writing download file: %w", err)
		}
		if err := f.Close(); err != nil {
			os.Remove(path)
			return "", fmt.Errorf("closing download file: %w", err)
		}
		return path, nil
	}

	return "", fmt.Errorf("too many downloads named %s", name)
}

// List returns downloads saved by this sink, newest first.
func (s *DirSink) List(limit int) []*models.DownloadInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*models.DownloadInfo, 0, len(s.saved))
	for i := len(s.saved) - 1; i >= 0; i-- {
		list = append(list, s.saved[i])
	}

	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list
}

// Lookup returns a download saved by this sink by its file name.
func (s *DirSink) Lookup(filename string) (*models.DownloadInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, info := range s.saved {
		if info.Filename == filename {
			return info, nil
		}
	}
	return nil, fmt.Errorf("download not found: %s", filename)
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || name == "/" {
		return "download"
	}
	return name
}
