package gallery

import (
	"errors"

	"github.com/claes/vidgallery/internal/render"
)

// ErrPlaybackBlocked is what a PlayFunc returns when the browser refuses
// to start playback without a user gesture.
var ErrPlaybackBlocked = errors.New("playback blocked")

// PlayFunc attempts to start playback of src.
type PlayFunc func(src string) error

// PlayerState is either closed or open.
type PlayerState int

const (
	Closed PlayerState = iota
	Open
)

func (s PlayerState) String() string {
	if s == Open {
		return "open"
	}
	return "closed"
}

// Player models the single modal media element. Every Open and Close
// fully tears the element down first, so no source outlives its session.
type Player struct {
	state    PlayerState
	title    string
	src      string
	paused   bool
	needsTap bool
	loads    int
	play     PlayFunc
}

// NewPlayer returns a closed, paused player. A nil play always succeeds.
func NewPlayer(play PlayFunc) *Player {
	if play == nil {
		play = func(string) error { return nil }
	}
	return &Player{paused: true, play: play}
}

// Open loads src and attempts playback. A rejected play is swallowed and
// the player stays open and paused, waiting for a tap.
func (p *Player) Open(src, title string) {
	p.title = title
	p.teardown()
	p.src = src
	p.state = Open
	p.needsTap = false
	if err := p.play(src); err != nil {
		p.needsTap = true
		return
	}
	p.paused = false
}

// Restore reopens src from saved state without attempting playback; the
// page shows the tap hint instead.
func (p *Player) Restore(src, title string) {
	p.title = title
	p.teardown()
	p.src = src
	p.state = Open
	p.needsTap = true
}

// Close hides the modal and releases the source. Safe to call repeatedly.
func (p *Player) Close() {
	p.state = Closed
	p.needsTap = false
	p.teardown()
}

// Blocked records that the browser rejected autoplay for the current source.
func (p *Player) Blocked() {
	if p.state != Open {
		return
	}
	p.paused = true
	p.needsTap = true
}

// pause, drop the source, reload the element
func (p *Player) teardown() {
	p.paused = true
	p.src = ""
	p.loads++
}

func (p *Player) State() PlayerState { return p.state }
func (p *Player) Src() string        { return p.src }
func (p *Player) Title() string      { return p.title }
func (p *Player) Paused() bool       { return p.paused }
func (p *Player) NeedsTap() bool     { return p.needsTap }

// Loads counts element reloads.
func (p *Player) Loads() int { return p.loads }

// View is the render-side snapshot of the player.
func (p *Player) View() render.PlayerView {
	return render.PlayerView{
		Open:     p.state == Open,
		Title:    p.title,
		Src:      p.src,
		Paused:   p.paused,
		NeedsTap: p.needsTap,
	}
}
