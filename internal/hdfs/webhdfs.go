package hdfs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// WebHDFS talks to the namenode REST gateway (usually :9870).
type WebHDFS struct {
	base   *url.URL
	user   string
	client *http.Client
}

// RemoteError is a WebHDFS RemoteException response.
type RemoteError struct {
	StatusCode int
	Exception  string
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Exception == "" {
		return fmt.Sprintf("webhdfs: HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("webhdfs: %s: %s (HTTP %d)", e.Exception, e.Message, e.StatusCode)
}

// NewWebHDFS builds a client for baseURL acting as user (simple auth).
// A nil httpClient uses http.DefaultClient's settings.
func NewWebHDFS(baseURL, user string, httpClient *http.Client) (*WebHDFS, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing webhdfs url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("webhdfs url must be http(s), got %q", u.Scheme)
	}

	c := http.Client{}
	if httpClient != nil {
		c = *httpClient
	}
	// CREATE answers with a redirect to a datanode that must be followed by hand
	c.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &WebHDFS{base: u, user: user, client: &c}, nil
}

func (w *WebHDFS) opURL(path, op string, params url.Values) string {
	u := *w.base
	u.Path = w.base.Path + "/webhdfs/v1/" + strings.TrimLeft(path, "/")
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("op", op)
	if w.user != "" {
		q.Set("user.name", w.user)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (w *WebHDFS) Upload(ctx context.Context, path string, r io.Reader, overwrite bool) (int64, error) {
	params := url.Values{}
	params.Set("overwrite", strconv.FormatBool(overwrite))

	location, err := w.createLocation(ctx, w.opURL(path, "CREATE", params))
	if err != nil {
		return 0, fmt.Errorf("webhdfs create %s: %w", path, err)
	}

	body := &countingReader{r: ctxReader{ctx: ctx, r: r}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, location, body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := w.client.Do(req)
	if err != nil {
		return body.n, fmt.Errorf("webhdfs write %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return body.n, fmt.Errorf("webhdfs write %s: %w", path, decodeRemoteError(resp))
	}

	log.Printf("[hdfs] wrote %d bytes to %s", body.n, path)
	return body.n, nil
}

// createLocation performs the namenode half of CREATE and returns the datanode URL.
func (w *WebHDFS) createLocation(ctx context.Context, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, nil)
	if err != nil {
		return "", err
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusTemporaryRedirect, http.StatusFound, http.StatusSeeOther:
		loc := resp.Header.Get("Location")
		if loc == "" {
			return "", fmt.Errorf("namenode redirect without Location header")
		}
		return loc, nil
	default:
		return "", decodeRemoteError(resp)
	}
}

func decodeRemoteError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body struct {
		RemoteException struct {
			Exception string `json:"exception"`
			Message   string `json:"message"`
		} `json:"RemoteException"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.RemoteException.Exception != "" {
		return &RemoteError{
			StatusCode: resp.StatusCode,
			Exception:  body.RemoteException.Exception,
			Message:    body.RemoteException.Message,
		}
	}

	return &RemoteError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
}

func (w *WebHDFS) Close() error {
	w.client.CloseIdleConnections()
	return nil
}
