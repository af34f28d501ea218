package http

import (
	"bytes"
	"errors"
	nethttp "net/http"
	"os"
	stdpath "path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/claes/vidgallery/internal/auth"
	"github.com/claes/vidgallery/internal/gallery"
	"github.com/claes/vidgallery/internal/model"
	"github.com/claes/vidgallery/internal/render"
	"github.com/claes/vidgallery/internal/videoindex"
)

// handleIndex is a full page load: a new page lifetime for the browser.
func (s *server) handleIndex(w nethttp.ResponseWriter, r *nethttp.Request) {
	id := s.browserID(w, r)
	sess, err := s.reg.Begin(r.Context(), id, s.flagSet(r))
	if err != nil {
		s.entry(r).WithError(err).Error("catalog unavailable")
	}
	s.page(w, r, nethttp.StatusOK, sess)
}

func (s *server) page(w nethttp.ResponseWriter, r *nethttp.Request, code int, sess *gallery.Session) {
	var buf bytes.Buffer
	if err := s.tpl.Page(&buf, sess.Page()); err != nil {
		s.entry(r).WithError(err).Error("render page")
		httpError(w, nethttp.StatusInternalServerError, "unable to render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_, _ = buf.WriteTo(w)
}

func (s *server) handleLogin(w nethttp.ResponseWriter, r *nethttp.Request) {
	if err := r.ParseForm(); err != nil {
		httpError(w, nethttp.StatusBadRequest, "bad form")
		return
	}
	id, sess := s.session(r.Context(), w, r)
	res, err := sess.Dispatch(r.Context(), gallery.Event{
		Kind: gallery.EventLogin,
		User: r.PostForm.Get("user"),
		Pass: r.PostForm.Get("pass"),
	})
	var fe *auth.FileError
	switch {
	case res.Authed:
		if sess.GateEnabled() {
			s.setFlag(w)
		}
		if err != nil {
			s.entry(r).WithError(err).Error("catalog unavailable after login")
		}
		s.reg.Save(r.Context(), id, sess)
		s.page(w, r, nethttp.StatusOK, sess)
	case errors.As(err, &fe):
		s.entry(r).WithError(err).Error("credentials file unavailable")
		s.page(w, r, nethttp.StatusInternalServerError, sess)
	default:
		if sess.GateEnabled() {
			s.clearFlag(w)
		}
		s.page(w, r, nethttp.StatusUnauthorized, sess)
	}
}

func (s *server) handleLogout(w nethttp.ResponseWriter, r *nethttp.Request) {
	id := s.browserID(w, r)
	s.clearFlag(w)
	s.reg.End(r.Context(), id)
	nethttp.Redirect(w, r, "/", nethttp.StatusSeeOther)
}

// authedSession returns the browser's session, or writes 401 when the
// gate is on and this browser has not passed it.
func (s *server) authedSession(w nethttp.ResponseWriter, r *nethttp.Request) (string, *gallery.Session, bool) {
	id, sess := s.session(r.Context(), w, r)
	if sess.GateEnabled() && !sess.Authed() {
		writeJSON(w, nethttp.StatusUnauthorized, map[string]string{"error": "login required"})
		return id, nil, false
	}
	return id, sess, true
}

func (s *server) handleGrid(w nethttp.ResponseWriter, r *nethttp.Request) {
	id, sess, ok := s.authedSession(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	seq, _ := strconv.ParseUint(q.Get("seq"), 10, 64)
	res, _ := sess.Dispatch(r.Context(), gallery.Event{Kind: gallery.EventInput, Text: q.Get("q"), Seq: seq})
	if res.Handled {
		s.reg.Save(r.Context(), id, sess)
	}
	writeJSON(w, nethttp.StatusOK, gridResponse{Grid: *res.Grid, Seq: seq, Stale: !res.Handled})
}

type gridResponse struct {
	render.Grid
	Seq   uint64 `json:"seq"`
	Stale bool   `json:"stale"`
}

type videosResponse struct {
	Query  string        `json:"query"`
	Count  int           `json:"count"`
	Total  int           `json:"total"`
	Videos model.Catalog `json:"videos"`
}

func (s *server) handleAPIVideos(w nethttp.ResponseWriter, r *nethttp.Request) {
	id, sess, ok := s.authedSession(w, r)
	if !ok {
		return
	}
	q := r.URL.Query().Get("q")
	_, _ = sess.Dispatch(r.Context(), gallery.Event{Kind: gallery.EventInput, Text: q})
	s.reg.Save(r.Context(), id, sess)
	visible := sess.Visible()
	if visible == nil {
		visible = model.Catalog{}
	}
	writeJSON(w, nethttp.StatusOK, videosResponse{
		Query:  q,
		Count:  len(visible),
		Total:  sess.Total(),
		Videos: visible,
	})
}

func (s *server) handlePlayerOpen(w nethttp.ResponseWriter, r *nethttp.Request) {
	if err := r.ParseForm(); err != nil {
		httpError(w, nethttp.StatusBadRequest, "bad form")
		return
	}
	s.playerEvent(w, r, gallery.Event{
		Kind: gallery.EventCardClick,
		Card: gallery.Card{Video: r.PostForm.Get("video"), Title: r.PostForm.Get("title")},
	})
}

func (s *server) handlePlayerClose(w nethttp.ResponseWriter, r *nethttp.Request) {
	s.playerEvent(w, r, gallery.Event{Kind: gallery.EventModalClick, CloseControl: true})
}

func (s *server) handlePlayerBlocked(w nethttp.ResponseWriter, r *nethttp.Request) {
	s.playerEvent(w, r, gallery.Event{Kind: gallery.EventPlaybackRejected})
}

func (s *server) playerEvent(w nethttp.ResponseWriter, r *nethttp.Request, ev gallery.Event) {
	id, sess, ok := s.authedSession(w, r)
	if !ok {
		return
	}
	res, _ := sess.Dispatch(r.Context(), ev)
	s.reg.Save(r.Context(), id, sess)
	pv := sess.PlayerView()
	if res.Player != nil {
		pv = *res.Player
	}
	writeJSON(w, nethttp.StatusOK, pv)
}

// handleCatalogFile serves the catalog document itself, never cached.
func (s *server) handleCatalogFile(w nethttp.ResponseWriter, r *nethttp.Request) {
	p := filepath.Join(s.root, filepath.FromSlash(s.catalogName))
	if !videoindex.IsSubpath(s.root, p) {
		httpError(w, nethttp.StatusNotFound, "not found")
		return
	}
	f, err := os.Open(p)
	if err != nil {
		httpError(w, nethttp.StatusNotFound, "not found")
		return
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil || fi.IsDir() {
		httpError(w, nethttp.StatusNotFound, "not found")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	nethttp.ServeContent(w, r, fi.Name(), fi.ModTime(), f)
}

// media serves files under dir with range support. Media is not gated:
// the flag is advisory only.
func (s *server) media(dir string) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		rel := strings.TrimPrefix(stdpath.Clean("/"+r.URL.Path), "/")
		if !strings.HasPrefix(rel, dir+"/") {
			httpError(w, nethttp.StatusNotFound, "not found")
			return
		}
		p := filepath.Join(s.root, filepath.FromSlash(rel))
		if !videoindex.IsSubpath(filepath.Join(s.root, dir), p) {
			httpError(w, nethttp.StatusNotFound, "not found")
			return
		}
		f, err := os.Open(p)
		if err != nil {
			httpError(w, nethttp.StatusNotFound, "not found")
			return
		}
		defer f.Close()
		fi, err := f.Stat()
		if err != nil || fi.IsDir() {
			httpError(w, nethttp.StatusNotFound, "not found")
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=60")
		nethttp.ServeContent(w, r, fi.Name(), fi.ModTime(), f)
	}
}
