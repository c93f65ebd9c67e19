// Package transfer streams an HTTP resource into the distributed filesystem.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"hive-ingestion/internal/progress"
)

// Uploader is the storage side of a transfer; hdfs.Client implements it.
type Uploader interface {
	Upload(ctx context.Context, path string, r io.Reader, overwrite bool) (int64, error)
}

// TransportError means the source could not be fetched or read.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("downloading %s: HTTP %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("downloading %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StorageError means the destination write failed.
type StorageError struct {
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

type Options struct {
	// Retries is the number of extra GET attempts before any byte is read.
	Retries   int
	RetryWait time.Duration
	// Timeout bounds the whole request including the body; zero means none.
	Timeout time.Duration
	// Progress receives a progress bar; nil disables it.
	Progress io.Writer
}

type Downloader struct {
	client   *retryablehttp.Client
	progress io.Writer
}

func New(opts Options) *Downloader {
	c := retryablehttp.NewClient()
	c.RetryMax = opts.Retries
	if opts.RetryWait > 0 {
		c.RetryWaitMin = opts.RetryWait
		c.RetryWaitMax = opts.RetryWait
	}
	c.HTTPClient.Timeout = opts.Timeout
	c.Logger = nil
	c.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			log.Printf("[transfer] retrying GET %s (attempt %d of %d)", req.URL.Redacted(), attempt+1, opts.Retries+1)
		}
	}
	// status codes are classified by Copy, not by the retry loop
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Downloader{client: c, progress: opts.Progress}
}

// Copy fetches srcURL and streams the body into dst at path, overwriting it.
// The destination is only opened once a 2xx response has arrived, so a
// failed request leaves any existing file untouched.
func (d *Downloader) Copy(ctx context.Context, srcURL string, dst Uploader, path string) (int64, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return 0, &TransportError{URL: srcURL, Err: err}
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, &TransportError{URL: srcURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &TransportError{URL: srcURL, StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}

	log.Printf("[transfer] %s -> %s (content-length=%d)", srcURL, path, resp.ContentLength)

	tracker := progress.New(resp.ContentLength, "downloading", d.progress)
	body := &sourceReader{r: resp.Body}
	n, err := dst.Upload(ctx, path, io.TeeReader(body, tracker), true)
	tracker.Finish()

	if err != nil {
		if body.err != nil {
			return n, &TransportError{URL: srcURL, Err: body.err}
		}
		return n, &StorageError{Path: path, Err: err}
	}
	if resp.ContentLength >= 0 && n != resp.ContentLength {
		return n, &TransportError{URL: srcURL, Err: fmt.Errorf("short body: got %d of %d bytes", n, resp.ContentLength)}
	}

	return n, nil
}

// sourceReader remembers read failures so they can be told apart from
// write failures on the destination.
type sourceReader struct {
	r   io.Reader
	err error
}

func (s *sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && err != io.EOF {
		s.err = err
	}
	return n, err
}
