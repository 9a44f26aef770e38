// Package upload holds the state machine that takes a source file from
// selection to a downloaded analysis report.
package upload

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/circom-analyzer/frontend/internal/analysis"
	"github.com/circom-analyzer/frontend/internal/download"
	"github.com/circom-analyzer/frontend/internal/models"
)

// Analyzer submits a file to the analysis service.
type Analyzer interface {
	Analyze(ctx context.Context, file *models.SelectedFile, format models.OutputFormat) (*models.AnalysisResult, error)
}

// ObjectURLs creates and releases object URLs for report artifacts.
type ObjectURLs interface {
	Create(data []byte, contentType string) string
	Revoke(url string)
}

// Controller owns the selected file, the chosen output format and the
// request state. All methods are safe for concurrent use; the lock is not
// held while the analysis request is in flight.
type Controller struct {
	mu sync.Mutex

	analyzer      Analyzer
	urls          ObjectURLs
	downloads     download.Trigger
	defaultFormat models.OutputFormat

	state        models.RequestState
	file         *models.SelectedFile
	format       models.OutputFormat
	errInfo      *models.ErrorInfo
	lastDownload *models.DownloadInfo
	revision     uint64

	// rejected holds a file rejection made while submitting; it is shown
	// once the request resolves.
	rejected *models.ErrorInfo

	observers    map[int]func(models.Snapshot)
	nextObserver int
}

// Option configures a Controller.
type Option func(*Controller)

// WithDefaultFormat sets the format selected initially and after each
// successful submission.
func WithDefaultFormat(f models.OutputFormat) Option {
	return func(c *Controller) {
		c.defaultFormat = f
	}
}

// NewController creates a Controller in the idle state.
func NewController(analyzer Analyzer, urls ObjectURLs, downloads download.Trigger, opts ...Option) *Controller {
	c := &Controller{
		analyzer:      analyzer,
		urls:          urls,
		downloads:     downloads,
		defaultFormat: models.DefaultOutputFormat,
		state:         models.StateIdle,
		observers:     make(map[int]func(models.Snapshot)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.format = c.defaultFormat
	return c
}

// SelectFile replaces the current selection with candidate. Only names
// ending in ".circom" are accepted; anything else clears the selection and
// records a validation error. While submitting, the error is held back
// until the request resolves.
func (c *Controller) SelectFile(candidate *models.SelectedFile) error {
	c.mu.Lock()

	if candidate == nil || !strings.HasSuffix(candidate.Name, analysis.SourceExtension) {
		verr := &ValidationError{Message: MsgWrongExtension}
		c.file = nil
		if c.state == models.StateSubmitting {
			c.rejected = errorInfoFor(verr)
		} else {
			c.errInfo = errorInfoFor(verr)
			c.lastDownload = nil
			c.state = models.StateFailed
		}
		snap := c.commitLocked()
		c.mu.Unlock()

		c.notify(snap)
		return verr
	}

	c.file = candidate.Clone()
	c.rejected = nil
	if c.state != models.StateSubmitting {
		c.errInfo = nil
		c.lastDownload = nil
		c.state = models.StateIdle
	}
	snap := c.commitLocked()
	c.mu.Unlock()

	log.Printf("[Upload] Selected %s (%d bytes)", candidate.Name, candidate.Size)
	c.notify(snap)
	return nil
}

// SelectOutputFormat changes the requested report format.
func (c *Controller) SelectOutputFormat(format models.OutputFormat) error {
	if _, err := models.ParseOutputFormat(string(format)); err != nil {
		return err
	}

	c.mu.Lock()
	c.format = format
	snap := c.commitLocked()
	c.mu.Unlock()

	c.notify(snap)
	return nil
}

// Reset returns the controller to its initial state.
func (c *Controller) Reset() error {
	c.mu.Lock()
	if c.state == models.StateSubmitting {
		c.mu.Unlock()
		return ErrSubmitInFlight
	}

	c.file = nil
	c.errInfo = nil
	c.lastDownload = nil
	c.format = c.defaultFormat
	c.state = models.StateIdle
	snap := c.commitLocked()
	c.mu.Unlock()

	c.notify(snap)
	return nil
}

// Submit sends the selected file for analysis and waits for the outcome.
// The outcome is also reflected in the controller state, so callers driving
// a UI can ignore the returned error.
func (c *Controller) Submit(ctx context.Context) error {
	file, format, err := c.begin()
	if err != nil {
		return err
	}
	return c.run(ctx, file, format)
}

// Start is Submit in its own goroutine. The returned channel receives the
// outcome once and is then closed. A submission that cannot start delivers
// its error immediately.
func (c *Controller) Start(ctx context.Context) <-chan error {
	done := make(chan error, 1)

	file, format, err := c.begin()
	if err != nil {
		done <- err
		close(done)
		return done
	}

	go func() {
		done <- c.run(ctx, file, format)
		close(done)
	}()

	return done
}

// begin checks the preconditions and moves to the submitting state.
func (c *Controller) begin() (*models.SelectedFile, models.OutputFormat, error) {
	c.mu.Lock()

	if c.state == models.StateSubmitting {
		c.mu.Unlock()
		return nil, "", ErrSubmitInFlight
	}

	if c.file == nil {
		verr := &ValidationError{Message: MsgNoFile}
		c.errInfo = errorInfoFor(verr)
		c.lastDownload = nil
		c.state = models.StateFailed
		snap := c.commitLocked()
		c.mu.Unlock()

		c.notify(snap)
		return nil, "", verr
	}

	file, format := c.file, c.format
	c.state = models.StateSubmitting
	c.errInfo = nil
	c.lastDownload = nil
	c.rejected = nil
	snap := c.commitLocked()
	c.mu.Unlock()

	log.Printf("[Upload] Submitting %s as %s", file.Name, format)
	c.notify(snap)
	return file, format, nil
}

func (c *Controller) run(ctx context.Context, file *models.SelectedFile, format models.OutputFormat) error {
	var info *models.DownloadInfo

	result, err := c.analyzer.Analyze(ctx, file, format)
	if err == nil {
		info, err = c.deliver(ctx, result)
	}

	c.finish(file, info, err)
	return err
}

// deliver hands the artifact to the download trigger through a transient
// object URL, which is revoked before returning.
func (c *Controller) deliver(ctx context.Context, result *models.AnalysisResult) (*models.DownloadInfo, error) {
	url := c.urls.Create(result.Data, result.ContentType)
	defer c.urls.Revoke(url)

	info, err := c.downloads.Trigger(ctx, url, result.Filename)
	if err != nil {
		return nil, &analysis.TransportError{Op: "Download failed", Err: err}
	}
	if info == nil {
		info = &models.DownloadInfo{Filename: result.Filename, Size: int64(len(result.Data)), ContentType: result.ContentType}
	}
	return info, nil
}

// finish leaves the submitting state exactly once. A file rejected during
// the request turns a success into that rejection; the report stays saved.
func (c *Controller) finish(submitted *models.SelectedFile, info *models.DownloadInfo, err error) {
	c.mu.Lock()

	rejected := c.rejected
	c.rejected = nil

	switch {
	case err != nil:
		c.state = models.StateFailed
		c.errInfo = errorInfoFor(err)
		c.lastDownload = nil
		log.Printf("[Upload] Analysis of %s failed: %s", submitted.Name, c.errInfo.Message)
	case rejected != nil:
		c.state = models.StateFailed
		c.errInfo = rejected
		c.lastDownload = nil
		log.Printf("[Upload] Analysis of %s downloaded as %s; a later pick was rejected", submitted.Name, info.Filename)
	default:
		c.state = models.StateSucceeded
		c.errInfo = nil
		c.lastDownload = info
		// A file picked while the request was in flight stays selected.
		if c.file == submitted {
			c.file = nil
			c.format = c.defaultFormat
		}
		log.Printf("[Upload] Analysis of %s downloaded as %s", submitted.Name, info.Filename)
	}

	snap := c.commitLocked()
	c.mu.Unlock()

	c.notify(snap)
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() models.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every transition.
// Snapshots may arrive out of order from concurrent transitions; Revision
// orders them. The returned func unsubscribes.
func (c *Controller) Subscribe(fn func(models.Snapshot)) func() {
	c.mu.Lock()
	id := c.nextObserver
	c.nextObserver++
	c.observers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

func (c *Controller) commitLocked() models.Snapshot {
	c.revision++
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() models.Snapshot {
	snap := models.Snapshot{
		State:     c.state,
		Format:    c.format,
		CanSubmit: c.file != nil && c.state != models.StateSubmitting,
		Revision:  c.revision,
	}
	if c.file != nil {
		snap.File = &models.FileMeta{
			Name:     c.file.Name,
			Size:     c.file.Size,
			MimeType: c.file.MimeType,
		}
	}
	if c.errInfo != nil {
		e := *c.errInfo
		snap.Error = &e
	}
	if c.lastDownload != nil {
		d := *c.lastDownload
		snap.LastDownload = &d
	}
	return snap
}

func (c *Controller) notify(snap models.Snapshot) {
	c.mu.Lock()
	observers := make([]func(models.Snapshot), 0, len(c.observers))
	for _, fn := range c.observers {
		observers = append(observers, fn)
	}
	c.mu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
}
