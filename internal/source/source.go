// Package source fetches graph snapshots from files or an HTTP endpoint
// and watches snapshot files for changes.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/msalah0e/kgviz/internal/graph"
)

// Source yields a validated graph model.
type Source interface {
	Fetch(ctx context.Context) (*graph.Model, error)
	String() string
}

// New returns an HTTP source for http(s) URLs and a file source otherwise.
func New(location string) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return &HTTP{URL: location}
	}
	return &File{Path: location}
}

// ─── File ───

// File reads a snapshot from disk; the format follows the extension.
type File struct {
	Path string
}

func (f *File) String() string { return f.Path }

// Fetch reads and validates the file.
func (f *File) Fetch(ctx context.Context) (*graph.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer fh.Close()

	m, err := graph.Load(fh, graph.FormatFromPath(f.Path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}
	return m, nil
}

// ─── HTTP ───

// DefaultTimeout bounds a single HTTP fetch.
const DefaultTimeout = 10 * time.Second

// maxBody caps how much of a response is read.
const maxBody = 64 << 20

// HTTP fetches a snapshot with a single GET. There is no retry; a failed
// fetch leaves it to the caller to keep the previous graph.
type HTTP struct {
	URL    string
	Client *http.Client
}

func (h *HTTP) String() string { return h.URL }

// Fetch performs the GET and validates the body. The format comes from
// the Content-Type header, falling back to the URL path extension.
func (h *HTTP) Fetch(ctx context.Context) (*graph.Model, error) {
	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/yaml")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", h.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch %s: status %d: %s", h.URL, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	format := graph.FormatJSON
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "text/plain") {
		format = graph.FormatFromContentType(ct)
	} else if u, err := url.Parse(h.URL); err == nil {
		format = graph.FormatFromPath(u.Path)
	}

	m, err := graph.Load(io.LimitReader(resp.Body, maxBody), format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", h.URL, err)
	}
	return m, nil
}
