package http

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/claes/vidgallery/internal/gallery"
	"github.com/claes/vidgallery/internal/render"
)

const (
	browserCookie = "vg_browser"
	cookieMaxAge  = 10 * 365 * 24 * 60 * 60
)

// Options wire the server to the gallery core.
type Options struct {
	// Root is the site directory media and videos.json are served from.
	Root        string
	CatalogName string
	// FlagCookie is the cookie holding the advisory "authed" flag.
	FlagCookie string
	Registry   *gallery.Registry
	Renderer   *render.Renderer
	Log        logrus.FieldLogger
}

type server struct {
	root        string
	catalogName string
	flagCookie  string
	reg         *gallery.Registry
	tpl         *render.Renderer
	log         logrus.FieldLogger
}

// NewServer returns the gallery's HTTP handler.
func NewServer(opts Options) nethttp.Handler {
	s := &server{
		root:        opts.Root,
		catalogName: opts.CatalogName,
		flagCookie:  opts.FlagCookie,
		reg:         opts.Registry,
		tpl:         opts.Renderer,
		log:         opts.Log,
	}
	if s.catalogName == "" {
		s.catalogName = "videos.json"
	}
	if s.flagCookie == "" {
		s.flagCookie = "micro_lms_authed"
	}
	if s.tpl == nil {
		s.tpl = render.NewRenderer()
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)
	r.Get("/grid", s.handleGrid)
	r.Get("/api/videos", s.handleAPIVideos)
	r.Route("/player", func(r chi.Router) {
		r.Post("/open", s.handlePlayerOpen)
		r.Post("/close", s.handlePlayerClose)
		r.Post("/blocked", s.handlePlayerBlocked)
	})
	r.Get("/"+s.catalogName, s.handleCatalogFile)
	r.Get("/videos/*", s.media("videos"))
	r.Get("/thumbnails/*", s.media("thumbnails"))
	r.Method(nethttp.MethodGet, "/health", HealthHandler(s.reg))
	return r
}

// browserID returns the browser's ID cookie, issuing one if missing.
func (s *server) browserID(w nethttp.ResponseWriter, r *nethttp.Request) string {
	if c, err := r.Cookie(browserCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}
	id := uuid.NewString()
	nethttp.SetCookie(w, &nethttp.Cookie{
		Name:     browserCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		SameSite: nethttp.SameSiteLaxMode,
	})
	return id
}

func (s *server) flagSet(r *nethttp.Request) bool {
	c, err := r.Cookie(s.flagCookie)
	return err == nil && c.Value == "1"
}

func (s *server) setFlag(w nethttp.ResponseWriter) {
	nethttp.SetCookie(w, &nethttp.Cookie{
		Name:     s.flagCookie,
		Value:    "1",
		Path:     "/",
		MaxAge:   cookieMaxAge,
		SameSite: nethttp.SameSiteLaxMode,
	})
}

func (s *server) clearFlag(w nethttp.ResponseWriter) {
	nethttp.SetCookie(w, &nethttp.Cookie{
		Name:   s.flagCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}

// session returns the live session of the browser, starting a page
// lifetime when the server has none (first request or after a restart).
func (s *server) session(ctx context.Context, w nethttp.ResponseWriter, r *nethttp.Request) (string, *gallery.Session) {
	id := s.browserID(w, r)
	if sess, ok := s.reg.Get(id); ok {
		return id, sess
	}
	sess, err := s.reg.Begin(ctx, id, s.flagSet(r))
	if err != nil {
		s.entry(r).WithError(err).Warn("page init degraded")
	}
	return id, sess
}

func (s *server) entry(r *nethttp.Request) logrus.FieldLogger {
	return s.log.WithFields(logrus.Fields{
		"request_id": middleware.GetReqID(r.Context()),
		"path":       r.URL.Path,
	})
}

func writeJSON(w nethttp.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w nethttp.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(msg))
}

func requestLogger(log logrus.FieldLogger) func(nethttp.Handler) nethttp.Handler {
	return func(next nethttp.Handler) nethttp.Handler {
		return nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.WithFields(logrus.Fields{
				"request_id": middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
			}).Debug("request")
		})
	}
}
