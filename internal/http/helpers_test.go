package http

import (
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/claes/vidgallery/internal/auth"
	"github.com/claes/vidgallery/internal/catalog"
	"github.com/claes/vidgallery/internal/fetch"
	"github.com/claes/vidgallery/internal/gallery"
	"github.com/claes/vidgallery/internal/store"
)

const testCatalog = `{"videos":[
  {"title":"Intro to Go","video_file":"videos/intro.mp4","thumbnail_file":"thumbnails/intro.webp","duration_seconds":125,"size_bytes":1536},
  {"title":"Advanced Go","video_file":"videos/advanced.mp4","duration_seconds":45,"size_bytes":1073741824},
  {"title":"Rust basics","video_file":"videos/rust.mp4","duration_seconds":60,"size_bytes":0}
]}`

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// newSite lays out a site root with the test catalog and, when creds is
// not empty, an auth.json.
func newSite(t *testing.T, creds string) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "videos.json"), []byte(testCatalog))
	if creds != "" {
		writeFile(t, filepath.Join(root, "auth.json"), []byte(creds))
	}
	return root
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}



// newTestServer wires a handler the way cmd/gallery does.
func newTestServer(t *testing.T, root string, gate bool) nethttp.Handler {
	t.Helper()
	log := quietLogger()
	f := fetch.DirFetcher{Root: root}
	loader := catalog.NewLoader(f, "")
	var checker gallery.Checker
	if gate {
		checker = auth.NewGate(f, "")
	}
	reg := gallery.NewRegistry(func() *gallery.Session {
		return gallery.NewSession(gallery.Options{
			SiteTitle: "Videos",
			Gate:      checker,
			Loader:    loader,
			Log:       log,
		})
	}, store.NewMemory(), 0, log)
	return NewServer(Options{Root: root, Registry: reg, Log: log})
}

// client replays cookies between requests against a handler.
type client struct {
	t       *testing.T
	h       nethttp.Handler
	cookies map[string]*nethttp.Cookie
}

func newClient(t *testing.T, h nethttp.Handler) *client {
	return &client{t: t, h: h, cookies: make(map[string]*nethttp.Cookie)}
}

func (c *client) do(req *nethttp.Request) *httptest.ResponseRecorder {
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rr := httptest.NewRecorder()
	c.h.ServeHTTP(rr, req)
	for _, ck := range rr.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return rr
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest("GET", path, nil))
}

func (c *client) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}
