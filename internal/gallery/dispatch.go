package gallery

import (
	"context"

	"github.com/claes/vidgallery/internal/render"
)

// EventKind names a UI event the page forwards.
type EventKind int

const (
	// EventLogin is a login submit (button click or Enter in a field).
	EventLogin EventKind = iota
	// EventInput is a change of the search text.
	EventInput
	// EventCardClick is a click on a card.
	EventCardClick
	// EventCardKey is a keydown on a focused card.
	EventCardKey
	// EventModalClick is a click inside the modal.
	EventModalClick
	// EventWindowKey is a keydown anywhere in the window.
	EventWindowKey
	// EventPlaybackRejected is the browser refusing to autoplay.
	EventPlaybackRejected
)

// Event is one UI event with whatever payload its kind uses.
type Event struct {
	Kind EventKind

	User string
	Pass string

	Text string
	// Seq orders input events of one page; zero means unordered.
	Seq uint64

	Card Card
	Key  string

	// CloseControl is set when the clicked element carries data-close="1".
	CloseControl bool
}

// Result tells the page what changed.
type Result struct {
	Handled bool
	// PreventDefault asks the page to suppress the key's default action.
	PreventDefault bool
	Authed         bool
	Grid           *render.Grid
	Player         *render.PlayerView
}

// Dispatch maps ev onto the matching session operation. Events that do
// not trigger anything come back with Handled false.
func (s *Session) Dispatch(ctx context.Context, ev Event) (Result, error) {
	switch ev.Kind {
	case EventLogin:
		ok, err := s.AttemptLogin(ctx, ev.User, ev.Pass)
		res := Result{Handled: true, Authed: ok}
		if ok {
			g := s.Grid()
			res.Grid = &g
		}
		return res, err

	case EventInput:
		g, applied := s.ApplyInput(ev.Seq, ev.Text)
		return Result{Handled: applied, Grid: &g}, nil

	case EventCardClick:
		pv := s.OpenFromCard(ev.Card)
		return Result{Handled: true, Player: &pv}, nil

	case EventCardKey:
		if ev.Key != "Enter" && ev.Key != " " {
			return Result{}, nil
		}
		pv := s.OpenFromCard(ev.Card)
		return Result{Handled: true, PreventDefault: true, Player: &pv}, nil

	case EventModalClick:
		if !ev.CloseControl {
			return Result{}, nil
		}
		pv := s.CloseModal()
		return Result{Handled: true, Player: &pv}, nil

	case EventWindowKey:
		if ev.Key != "Escape" || !s.PlayerView().Open {
			return Result{}, nil
		}
		pv := s.CloseModal()
		return Result{Handled: true, Player: &pv}, nil

	case EventPlaybackRejected:
		pv := s.PlaybackBlocked()
		return Result{Handled: true, Player: &pv}, nil
	}
	return Result{}, nil
}
