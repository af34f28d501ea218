// Package auth implements the optional login gate in front of the
// gallery. The gate is cosmetic: the credentials document and the media
// it guards are plain static files, so it grants no real access control.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/claes/vidgallery/internal/fetch"
	"github.com/claes/vidgallery/internal/model"
)

// DefaultName is the credentials document path relative to the site root.
const DefaultName = "auth.json"

// ErrMismatch is the uniform result for a wrong username or password.
var ErrMismatch = errors.New("invalid username or password")

// FileError means the credentials document itself could not be loaded.
type FileError struct {
	Name string
	Err  error
}

func (e *FileError) Error() string { return fmt.Sprintf("%s missing or not readable.", e.Name) }
func (e *FileError) Unwrap() error { return e.Err }

// Gate compares login input against the credentials document.
type Gate struct {
	fetcher fetch.Fetcher
	name    string
}

// NewGate returns a Gate reading name through f. An empty name means
// DefaultName.
func NewGate(f fetch.Fetcher, name string) *Gate {
	if name == "" {
		name = DefaultName
	}
	return &Gate{fetcher: f, name: name}
}

// Check loads the credentials fresh and compares them to the input. The
// username is trimmed, the password is taken as-is.
func (g *Gate) Check(ctx context.Context, username, password string) error {
	user := strings.TrimSpace(username)

	var creds model.Credentials
	if err := g.fetcher.FetchJSON(ctx, g.name, &creds); err != nil {
		return &FileError{Name: g.name, Err: err}
	}
	if user != string(creds.User) || password != string(creds.Pass) {
		return ErrMismatch
	}
	return nil
}
