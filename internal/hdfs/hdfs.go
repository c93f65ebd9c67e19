// Package hdfs writes files to the distributed filesystem, either over the
// WebHDFS REST gateway or the native namenode RPC protocol.
package hdfs

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"hive-ingestion/internal/config"
)

// ChunkSize is the copy buffer used when streaming into a file.
const ChunkSize = 8192

// Client uploads a byte stream to a single path.
type Client interface {
	// Upload creates path (replacing it when overwrite is set) and streams r
	// into it, returning the number of bytes written.
	Upload(ctx context.Context, path string, r io.Reader, overwrite bool) (int64, error)
	Close() error
}

// NewFromConfig picks the client from the HDFS_URL scheme: http/https use
// WebHDFS, hdfs uses the native protocol.
func NewFromConfig(cfg *config.Config) (Client, error) {
	u, err := url.Parse(cfg.HDFSURL)
	if err != nil {
		return nil, fmt.Errorf("parsing HDFS_URL: %w", err)
	}

	switch u.Scheme {
	case "http", "https":
		return NewWebHDFS(cfg.HDFSURL, cfg.HDFSUser, nil)
	case "hdfs":
		return NewNative(cfg.HDFSURL, cfg.HDFSUser)
	default:
		return nil, fmt.Errorf("unsupported HDFS_URL scheme %q", u.Scheme)
	}
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

type unavailable struct{ err error }

// Unavailable returns a Client whose uploads fail with err. It stands in
// when the filesystem could not be reached at startup so the failure is
// reported by the transfer stage.
func Unavailable(err error) Client {
	return unavailable{err: err}
}

func (u unavailable) Upload(context.Context, string, io.Reader, bool) (int64, error) {
	return 0, u.err
}

func (u unavailable) Close() error { return nil }
