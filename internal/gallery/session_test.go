package gallery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claes/vidgallery/internal/auth"
	"github.com/claes/vidgallery/internal/catalog"
	"github.com/claes/vidgallery/internal/fetch"
	"github.com/claes/vidgallery/internal/model"
)

type fakeLoader struct {
	c     model.Catalog
	err   error
	calls int
}

func (f *fakeLoader) Load(context.Context) (model.Catalog, error) {
	f.calls++
	return f.c, f.err
}

func (f *fakeLoader) Name() string { return "videos.json" }

func catalogOf(titles ...string) model.Catalog {
	c := make(model.Catalog, 0, len(titles))
	for i, t := range titles {
		c = append(c, model.VideoRecord{
			Title:     model.Text(t),
			VideoFile: model.Text(fmt.Sprintf("videos/%d.mp4", i)),
		})
	}
	return c
}

// site writes auth.json and videos.json into a temp dir and returns a
// session wired to it the way the server wires one.
func site(t *testing.T, creds string, titles ...string) *Session {
	t.Helper()
	root := t.TempDir()
	if creds != "" {
		require.NoError(t, os.WriteFile(filepath.Join(root, "auth.json"), []byte(creds), 0o644))
	}
	var items []string
	for _, ti := range titles {
		items = append(items, fmt.Sprintf(`{"title":%q,"video_file":"videos/%s.mp4"}`, ti, ti))
	}
	doc := `{"videos":[` + strings.Join(items, ",") + `]}`
	require.NoError(t, os.WriteFile(filepath.Join(root, "videos.json"), []byte(doc), 0o644))

	f := fetch.DirFetcher{Root: root}
	return NewSession(Options{
		SiteTitle: "Videos",
		Gate:      auth.NewGate(f, ""),
		Loader:    catalog.NewLoader(f, ""),
	})
}

func TestAttemptLogin_Success(t *testing.T) {
	s := site(t, `{"user":"admin","pass":"secret"}`, "one", "two")
	require.NoError(t, s.Init(context.Background(), false))
	assert.Equal(t, ViewAuth, s.View())
	assert.Empty(t, s.AuthErr())
	assert.Zero(t, s.Total(), "catalog is not loaded behind the gate")

	ok, err := s.AttemptLogin(context.Background(), " admin ", "secret")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, s.Authed())
	assert.Equal(t, ViewApp, s.View())
	assert.Equal(t, 2, s.Total())
	assert.Equal(t, "2 / 2", s.Grid().Count)
}

func TestAttemptLogin_Mismatch(t *testing.T) {
	s := site(t, `{"user":"admin","pass":"secret"}`, "one")
	require.NoError(t, s.Init(context.Background(), false))

	ok, err := s.AttemptLogin(context.Background(), "admin", "wrong")
	assert.False(t, ok)
	assert.ErrorIs(t, err, auth.ErrMismatch)
	assert.False(t, s.Authed())
	assert.Equal(t, ViewAuth, s.View())
	assert.Equal(t, MsgAuthMismatch, s.AuthErr())
	assert.Zero(t, s.Total())

	_, err = s.AttemptLogin(context.Background(), "nobody", "secret")
	assert.ErrorIs(t, err, auth.ErrMismatch)
	assert.Equal(t, MsgAuthMismatch, s.AuthErr(), "same message for user and password mismatch")
}

func TestAttemptLogin_CredentialsFileMissing(t *testing.T) {
	s := site(t, "", "one")
	require.NoError(t, s.Init(context.Background(), false))

	ok, err := s.AttemptLogin(context.Background(), "admin", "secret")
	assert.False(t, ok)
	var fe *auth.FileError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "auth.json missing or not readable.", s.AuthErr())
	assert.NotEqual(t, MsgAuthMismatch, s.AuthErr())
	assert.False(t, s.Authed())
	assert.Equal(t, ViewAuth, s.View())
}

func TestAttemptLogin_CatalogFailureKeepsLogin(t *testing.T) {
	l := &fakeLoader{err: &catalog.LoadError{Name: "videos.json", Err: errors.New("boom")}}
	g := &fakeGate{}
	s := NewSession(Options{Gate: g, Loader: l})

	ok, err := s.AttemptLogin(context.Background(), "u", "p")
	assert.True(t, ok)
	assert.Error(t, err)
	assert.True(t, s.Authed())
	assert.Equal(t, ViewApp, s.View())
	grid := s.Grid()
	assert.Equal(t, "Failed to load videos.json", grid.Count)
	assert.False(t, grid.EmptyHidden)
	assert.Equal(t, "Could not load videos.json.", grid.EmptyText)
	assert.Zero(t, s.Total())
}

type fakeGate struct{ err error }

func (g *fakeGate) Check(context.Context, string, string) error { return g.err }

func TestInit_FlagSetSkipsGate(t *testing.T) {
	l := &fakeLoader{c: catalogOf("a", "b", "c")}
	s := NewSession(Options{Gate: &fakeGate{err: auth.ErrMismatch}, Loader: l})

	require.NoError(t, s.Init(context.Background(), true))
	assert.Equal(t, ViewApp, s.View())
	assert.Equal(t, 1, l.calls)
	assert.Equal(t, "3 / 3", s.Grid().Count)
}

func TestInit_GateDisabled(t *testing.T) {
	l := &fakeLoader{c: catalogOf("a")}
	s := NewSession(Options{Loader: l})
	assert.False(t, s.GateEnabled())

	require.NoError(t, s.Init(context.Background(), false))
	assert.Equal(t, ViewApp, s.View())
	assert.Equal(t, 1, s.Total())
}

func TestLoadCatalog_AtMostOnce(t *testing.T) {
	l := &fakeLoader{c: catalogOf("a", "b")}
	s := NewSession(Options{Loader: l})
	require.NoError(t, s.Init(context.Background(), true))
	require.NoError(t, s.LoadCatalog(context.Background()))
	_, err := s.AttemptLogin(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, 1, l.calls)
}

func TestLoadCatalog_EmptyCatalog(t *testing.T) {
	s := NewSession(Options{Loader: &fakeLoader{c: model.Catalog{}}})
	require.NoError(t, s.Init(context.Background(), true))
	g := s.Grid()
	assert.Equal(t, "0 / 0", g.Count)
	assert.False(t, g.EmptyHidden)
}

func TestApplyFilter(t *testing.T) {
	all := catalogOf("Intro to Go", "Advanced GO", "Rust basics", "", "go-kart racing", "Pythons", "Gopher", "x", "y", "z")
	s := NewSession(Options{Loader: &fakeLoader{c: all}})
	require.NoError(t, s.Init(context.Background(), true))

	g := s.ApplyFilter("  GO ")
	assert.Equal(t, "4 / 10", g.Count)
	assert.True(t, g.EmptyHidden)
	var titles []string
	for _, v := range s.Visible() {
		titles = append(titles, string(v.Title))
	}
	assert.Equal(t, []string{"Intro to Go", "Advanced GO", "go-kart racing", "Gopher"}, titles)

	g = s.ApplyFilter("gopher")
	assert.Equal(t, "1 / 10", g.Count, "filter never compounds on the previous subset")

	g = s.ApplyFilter("nothing matches")
	assert.Equal(t, "0 / 10", g.Count)
	assert.False(t, g.EmptyHidden)

	g = s.ApplyFilter("")
	assert.Equal(t, "10 / 10", g.Count)
	assert.Equal(t, all, s.Visible())
}

func TestFilter_SubsequenceProperty(t *testing.T) {
	all := catalogOf("alpha", "Beta", "ALPHABET", "gamma", "delta", "Alpine", "", "betamax")
	terms := []string{"", " ", "a", "AL", "bet", "ta", "zzz", "alpha", "E", "  mAx  "}
	for _, term := range terms {
		got := Filter(all, term)
		want := strings.ToLower(strings.TrimSpace(term))

		// every element matches
		for _, v := range got {
			assert.Contains(t, strings.ToLower(string(v.Title)), want, "term %q", term)
		}
		// order-preserving subsequence of all
		i := 0
		for _, v := range got {
			for i < len(all) && all[i] != v {
				i++
			}
			require.Less(t, i, len(all), "term %q: %q not found in order", term, v.Title)
			i++
		}
		if want == "" {
			assert.Equal(t, all, got)
		}
	}
}

func TestOpenFromCard_DefaultTitle(t *testing.T) {
	s := NewSession(Options{})
	pv := s.OpenFromCard(Card{Video: "videos/a.mp4"})
	assert.True(t, pv.Open)
	assert.Equal(t, "Video", pv.Title)
	assert.Equal(t, "videos/a.mp4", pv.Src)
	assert.False(t, pv.Paused)
}

func TestReopenLeavesOnlyNewSource(t *testing.T) {
	s := NewSession(Options{})
	s.OpenFromCard(Card{Video: "videos/a.mp4", Title: "A"})
	pv := s.OpenFromCard(Card{Video: "videos/b.mp4", Title: "B"})
	assert.True(t, pv.Open)
	assert.Equal(t, "videos/b.mp4", pv.Src)
	assert.Equal(t, "B", pv.Title)

	snap := s.Snapshot()
	assert.Equal(t, "videos/b.mp4", snap.PlayerSrc)
	assert.NotContains(t, fmt.Sprintf("%+v", snap), "a.mp4")
}

func TestCloseModal_Idempotent(t *testing.T) {
	s := NewSession(Options{})
	s.OpenFromCard(Card{Video: "videos/a.mp4", Title: "A"})
	for i := 0; i < 2; i++ {
		pv := s.CloseModal()
		assert.False(t, pv.Open)
		assert.Empty(t, pv.Src)
		assert.True(t, pv.Paused)
	}
}

func TestPlaybackBlocked_StaysOpenAndPaused(t *testing.T) {
	s := NewSession(Options{Play: func(string) error { return ErrPlaybackBlocked }})
	pv := s.OpenFromCard(Card{Video: "videos/a.mp4", Title: "A"})
	assert.True(t, pv.Open)
	assert.True(t, pv.Paused)
	assert.True(t, pv.NeedsTap)
	assert.Equal(t, "videos/a.mp4", pv.Src)
}

func TestAttemptLogin_MismatchAfterFlagRevokes(t *testing.T) {
	s := NewSession(Options{Gate: &fakeGate{err: auth.ErrMismatch}, Loader: &fakeLoader{c: catalogOf("a")}})
	require.NoError(t, s.Init(context.Background(), true))
	require.True(t, s.Authed())

	ok, err := s.AttemptLogin(context.Background(), "admin", "wrong")
	assert.False(t, ok)
	assert.ErrorIs(t, err, auth.ErrMismatch)
	assert.False(t, s.Authed(), "the auth view and the authed flag must agree")
	assert.Equal(t, ViewAuth, s.View())
}

func TestApplyInput_DropsOlderInputs(t *testing.T) {
	s := NewSession(Options{Loader: &fakeLoader{c: catalogOf("cat", "car", "dog")}})
	require.NoError(t, s.Init(context.Background(), true))

	g, applied := s.ApplyInput(2, "c")
	require.True(t, applied)
	assert.Equal(t, "2 / 3", g.Count)

	// the response for "ca" was sent before "c" but arrives after it
	g, applied = s.ApplyInput(1, "ca")
	assert.False(t, applied)
	assert.Equal(t, "2 / 3", g.Count)
	assert.Equal(t, "c", s.Query())

	g, applied = s.ApplyInput(3, "cat")
	assert.True(t, applied)
	assert.Equal(t, "1 / 3", g.Count)

	_, applied = s.ApplyInput(0, "dog")
	assert.True(t, applied, "unnumbered input is always applied")
	assert.Equal(t, "dog", s.Query())
}

func TestRestorePlayer_WaitsForTap(t *testing.T) {
	played := 0
	s := NewSession(Options{Play: func(string) error { played++; return nil }})

	pv := s.RestorePlayer(Card{Video: "videos/a.mp4"})
	assert.True(t, pv.Open)
	assert.Equal(t, "videos/a.mp4", pv.Src)
	assert.Equal(t, DefaultVideoTitle, pv.Title)
	assert.True(t, pv.Paused)
	assert.True(t, pv.NeedsTap)
	assert.Zero(t, played, "restoring never starts playback")
}
