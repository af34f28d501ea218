// Package gallery holds the per-browser application state and the
// operations the page's events map to: login, catalog load, filtering,
// rendering and the modal player.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/claes/vidgallery/internal/auth"
	"github.com/claes/vidgallery/internal/model"
	"github.com/claes/vidgallery/internal/render"
	"github.com/claes/vidgallery/internal/store"
)

// MsgAuthMismatch is shown for any wrong username or password.
const MsgAuthMismatch = "Invalid username or password."

// DefaultVideoTitle labels a card that has no title.
const DefaultVideoTitle = "Video"

// CatalogLoader fetches the full catalog.
type CatalogLoader interface {
	Load(ctx context.Context) (model.Catalog, error)
	Name() string
}

// Checker verifies login input.
type Checker interface {
	Check(ctx context.Context, username, password string) error
}

// View is the screen the page shows.
type View int

const (
	ViewAuth View = iota
	ViewApp
)

func (v View) String() string {
	if v == ViewApp {
		return "app"
	}
	return "auth"
}

// Card is what an activated card carries: its data-video and data-title.
type Card struct {
	Video string
	Title string
}

// Options configure a Session.
type Options struct {
	SiteTitle string
	// Gate is nil when the login gate is disabled.
	Gate   Checker
	Loader CatalogLoader
	Play   PlayFunc
	Log    logrus.FieldLogger
}

// Session is the state of one page lifetime in one browser. The full
// catalog is replaced wholesale on load and never mutated in place; the
// visible subset is always derived from it.
type Session struct {
	mu sync.Mutex

	siteTitle string
	gate      Checker
	loader    CatalogLoader
	log       logrus.FieldLogger

	all     model.Catalog
	loaded  bool
	query   string
	visible model.Catalog
	grid    render.Grid

	// inputSeq is the highest input sequence number applied.
	inputSeq uint64

	view    View
	authed  bool
	authErr string

	player *Player
}

// NewSession returns a session on the auth view with an empty catalog.
func NewSession(opts Options) *Session {
	log := opts.Log
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	s := &Session{
		siteTitle: opts.SiteTitle,
		gate:      opts.Gate,
		loader:    opts.Loader,
		log:       log,
		all:       model.Catalog{},
		player:    NewPlayer(opts.Play),
	}
	s.render(s.all)
	return s
}

// GateEnabled reports whether the login gate is active.
func (s *Session) GateEnabled() bool { return s.gate != nil }

// Init evaluates the gate at page load. With the gate disabled or the
// session flag already set it goes straight to the catalog; otherwise it
// shows the auth view without an error.
func (s *Session) Init(ctx context.Context, authed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gate != nil && !authed {
		s.showAuth("")
		return nil
	}
	s.authed = true
	s.showApp()
	return s.loadCatalog(ctx)
}

// AttemptLogin checks the input against the credentials document. On a
// match the session becomes authed, switches to the app view and loads
// the catalog; a catalog failure after that is returned but does not
// revert the login. On a credentials file failure the view is left as
// it is.
func (s *Session) AttemptLogin(ctx context.Context, username, password string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.authErr = ""
	if s.gate != nil {
		err := s.gate.Check(ctx, username, password)
		var fe *auth.FileError
		switch {
		case errors.As(err, &fe):
			s.log.WithError(err).Error("credentials unavailable")
			s.authErr = fe.Error()
			return false, err
		case err != nil:
			s.log.Info("login rejected")
			s.authed = false
			s.showAuth(MsgAuthMismatch)
			return false, err
		}
	}

	s.authed = true
	s.showApp()
	if err := s.loadCatalog(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// LoadCatalog fetches the catalog once per page lifetime and renders it
// in full.
func (s *Session) LoadCatalog(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadCatalog(ctx)
}

func (s *Session) loadCatalog(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	if s.loader == nil {
		return errors.New("no catalog loader")
	}
	c, err := s.loader.Load(ctx)
	if err != nil {
		s.log.WithError(err).Error("catalog load failed")
		s.all = model.Catalog{}
		s.render(s.all)
		s.grid.Count = fmt.Sprintf("Failed to load %s", s.loader.Name())
		s.grid.EmptyHidden = false
		s.grid.EmptyText = fmt.Sprintf("Could not load %s.", s.loader.Name())
		return err
	}
	s.all = c
	s.loaded = true
	s.log.WithField("videos", len(c)).Debug("catalog loaded")
	s.render(s.all)
	return nil
}

// ApplyFilter recomputes the visible subset from the full catalog.
func (s *Session) ApplyFilter(text string) render.Grid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyFilter(text)
}

// ApplyInput is ApplyFilter for the n-th input event of the page. Inputs
// that arrive after a later one has been applied are dropped and the
// current grid is returned with applied false. Zero is always applied.
func (s *Session) ApplyInput(n uint64, text string) (g render.Grid, applied bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n != 0 {
		if n <= s.inputSeq {
			return s.grid, false
		}
		s.inputSeq = n
	}
	return s.applyFilter(text), true
}

func (s *Session) applyFilter(text string) render.Grid {
	s.query = text
	if !s.loaded {
		// keep whatever status the failed or pending load left behind
		return s.grid
	}
	s.render(Filter(s.all, text))
	return s.grid
}

// OpenFromCard opens the modal on the card's video. A card without a
// title is labelled "Video".
func (s *Session) OpenFromCard(c Card) render.PlayerView {
	s.mu.Lock()
	defer s.mu.Unlock()
	title := c.Title
	if title == "" {
		title = DefaultVideoTitle
	}
	s.player.Open(c.Video, title)
	return s.player.View()
}

// RestorePlayer reopens a saved modal paused, waiting for a tap.
func (s *Session) RestorePlayer(c Card) render.PlayerView {
	s.mu.Lock()
	defer s.mu.Unlock()
	title := c.Title
	if title == "" {
		title = DefaultVideoTitle
	}
	s.player.Restore(c.Video, title)
	return s.player.View()
}

// CloseModal closes the modal and releases the media source.
func (s *Session) CloseModal() render.PlayerView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player.Close()
	return s.player.View()
}

// PlaybackBlocked records an autoplay rejection reported by the page.
func (s *Session) PlaybackBlocked() render.PlayerView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player.Blocked()
	return s.player.View()
}

func (s *Session) render(subset model.Catalog) {
	s.visible = subset
	s.grid = render.RenderGrid(subset, len(s.all))
}

func (s *Session) showAuth(errMsg string) {
	s.view = ViewAuth
	s.authErr = errMsg
}

func (s *Session) showApp() {
	s.view = ViewApp
	s.authErr = ""
}

// Page snapshots the session for the page shell.
func (s *Session) Page() render.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return render.Page{
		SiteTitle:   s.siteTitle,
		GateEnabled: s.gate != nil,
		ShowAuth:    s.view == ViewAuth,
		AuthErr:     s.authErr,
		Query:       s.query,
		Grid:        s.grid,
		Player:      s.player.View(),
	}
}

// Grid is the current rendered subset.
func (s *Session) Grid() render.Grid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid
}

// Visible returns the current visible subset.
func (s *Session) Visible() model.Catalog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

// Total is the size of the full catalog.
func (s *Session) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.all)
}

// View is the view currently shown.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Authed reports whether this page lifetime has passed the gate.
func (s *Session) Authed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authed
}

// AuthErr is the message under the login form, empty when hidden.
func (s *Session) AuthErr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authErr
}

// Query is the last search text, untrimmed.
func (s *Session) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// PlayerView snapshots the modal player.
func (s *Session) PlayerView() render.PlayerView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player.View()
}

// Snapshot is the part of the session that survives a reload.
func (s *Session) Snapshot() store.ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return store.ViewState{
		Query:       s.query,
		PlayerOpen:  s.player.State() == Open,
		PlayerSrc:   s.player.Src(),
		PlayerTitle: s.player.Title(),
	}
}
