// Package fetch loads the gallery's JSON documents (videos.json,
// auth.json) without reusing any cached copy.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Fetcher reads the JSON document called name into out.
type Fetcher interface {
	FetchJSON(ctx context.Context, name string, out any) error
}

// FetchError reports a document that could not be loaded: a non-2xx
// status, an unreadable file or an undecodable body.
type FetchError struct {
	Name   string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("failed to load %s (%d)", e.Name, e.Status)
	}
	return fmt.Sprintf("failed to load %s: %v", e.Name, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// HTTPFetcher fetches documents relative to BaseURL.
type HTTPFetcher struct {
	BaseURL string
	Client  *nethttp.Client
}

// NewHTTPFetcher returns a fetcher with a bounded client.
func NewHTTPFetcher(baseURL string) *HTTPFetcher {
	return &HTTPFetcher{
		BaseURL: baseURL,
		Client:  &nethttp.Client{Timeout: 30 * time.Second},
	}
}

func (f *HTTPFetcher) FetchJSON(ctx context.Context, name string, out any) error {
	u, err := resolve(f.BaseURL, name)
	if err != nil {
		return &FetchError{Name: name, Err: err}
	}
	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, u, nil)
	if err != nil {
		return &FetchError{Name: name, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache, no-store")
	req.Header.Set("Pragma", "no-cache")

	client := f.Client
	if client == nil {
		client = nethttp.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return &FetchError{Name: name, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &FetchError{Name: name, Status: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &FetchError{Name: name, Err: fmt.Errorf("read: %w", err)}
	}
	// the whole body must be one JSON document
	if err := json.Unmarshal(body, out); err != nil {
		return &FetchError{Name: name, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

func resolve(base, name string) (string, error) {
	b, err := url.Parse(strings.TrimSuffix(base, "/") + "/")
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(name)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(ref).String(), nil
}

// DirFetcher reads documents from Root on every call.
type DirFetcher struct {
	Root string
}

func (f DirFetcher) FetchJSON(_ context.Context, name string, out any) error {
	p := filepath.Join(f.Root, filepath.FromSlash(name))
	b, err := os.ReadFile(p)
	if err != nil {
		return &FetchError{Name: name, Err: err}
	}
	if err := json.Unmarshal(b, out); err != nil {
		return &FetchError{Name: name, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}
