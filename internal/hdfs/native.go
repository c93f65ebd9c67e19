package hdfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/url"
	"os"
	"path"

	gohdfs "github.com/colinmarc/hdfs/v2"
)

const defaultNamenodePort = "8020"

// Native speaks the namenode RPC protocol directly.
type Native struct {
	client *gohdfs.Client
}

// NewNative connects to the namenode in rawURL (hdfs://host[:port]) as user.
func NewNative(rawURL, user string) (*Native, error) {
	addr, err := namenodeAddress(rawURL)
	if err != nil {
		return nil, err
	}

	client, err := gohdfs.NewClient(gohdfs.ClientOptions{
		Addresses: []string{addr},
		User:      user,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to namenode %s: %w", addr, err)
	}

	return &Native{client: client}, nil
}

func namenodeAddress(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing namenode url: %w", err)
	}
	if u.Scheme != "hdfs" || u.Hostname() == "" {
		return "", fmt.Errorf("namenode url must look like hdfs://host:port, got %q", rawURL)
	}
	if u.Port() == "" {
		return net.JoinHostPort(u.Hostname(), defaultNamenodePort), nil
	}
	return u.Host, nil
}

func (n *Native) Upload(ctx context.Context, name string, r io.Reader, overwrite bool) (int64, error) {
	if overwrite {
		if err := n.client.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("removing existing %s: %w", name, err)
		}
	}
	if err := n.client.MkdirAll(path.Dir(name), 0o755); err != nil {
		return 0, fmt.Errorf("creating parent of %s: %w", name, err)
	}

	w, err := n.client.Create(name)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", name, err)
	}

	written, err := io.CopyBuffer(w, ctxReader{ctx: ctx, r: r}, make([]byte, ChunkSize))
	if err != nil {
		w.Close()
		return written, fmt.Errorf("writing %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return written, fmt.Errorf("closing %s: %w", name, err)
	}

	log.Printf("[hdfs] wrote %d bytes to %s", written, name)
	return written, nil
}

func (n *Native) Close() error {
	return n.client.Close()
}
