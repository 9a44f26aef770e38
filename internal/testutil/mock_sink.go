// mock_sink.go - Recording download trigger for testing
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/circom-analyzer/frontend/internal/download"
	"github.com/circom-analyzer/frontend/internal/models"
)

// Download is a download captured by a RecordingSink.
type Download struct {
	ObjectURL   string
	Filename    string
	Data        []byte
	ContentType string
}

// RecordingSink implements download.Trigger by remembering what it was asked
// to download.
type RecordingSink struct {
	mu        sync.Mutex
	resolver  download.Resolver
	downloads []Download
	err       error
}

// NewRecordingSink creates a sink that resolves object URLs through resolver.
func NewRecordingSink(resolver download.Resolver) *RecordingSink {
	return &RecordingSink{resolver: resolver}
}

// Ensure RecordingSink implements download.Trigger
var _ download.Trigger = (*RecordingSink)(nil)

func (s *RecordingSink) Trigger(ctx context.Context, objectURL, filename string) (*models.DownloadInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}

	obj, err := s.resolver.Resolve(objectURL)
	if err != nil {
		return nil, err
	}

	s.downloads = append(s.downloads, Download{
		ObjectURL:   objectURL,
		Filename:    filename,
		Data:        append([]byte(nil), obj.Data...),
		ContentType: obj.ContentType,
	})

	return &models.DownloadInfo{
		Filename:    filename,
		Size:        int64(len(obj.Data)),
		ContentType: obj.ContentType,
		At:          time.Now(),
	}, nil
}

// FailWith makes subsequent triggers return err.
func (s *RecordingSink) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Downloads returns the downloads triggered so far.
func (s *RecordingSink) Downloads() []Download {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Download, len(s.downloads))
	copy(out, s.downloads)
	return out
}
