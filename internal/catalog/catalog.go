// Package catalog loads the video catalog document.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/claes/vidgallery/internal/fetch"
	"github.com/claes/vidgallery/internal/model"
)

// DefaultName is the catalog document path relative to the site root.
const DefaultName = "videos.json"

// LoadError is returned when the catalog document cannot be fetched or
// parsed.
type LoadError struct {
	Name string
	Err  error
}

func (e *LoadError) Error() string { return fmt.Sprintf("catalog %s: %v", e.Name, e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

// Loader fetches the catalog fresh on every Load.
type Loader struct {
	fetcher fetch.Fetcher
	name    string
}

// NewLoader returns a Loader reading name through f. An empty name means
// DefaultName.
func NewLoader(f fetch.Fetcher, name string) *Loader {
	if name == "" {
		name = DefaultName
	}
	return &Loader{fetcher: f, name: name}
}

// Name is the document path the loader reads.
func (l *Loader) Name() string { return l.name }

// Load returns the records of the "videos" field in file order. A missing
// or non-array "videos" field yields an empty catalog, not an error.
func (l *Loader) Load(ctx context.Context) (model.Catalog, error) {
	var raw json.RawMessage
	if err := l.fetcher.FetchJSON(ctx, l.name, &raw); err != nil {
		return nil, &LoadError{Name: l.name, Err: err}
	}
	return Decode(raw), nil
}

// Decode extracts the catalog from a parsed document body.
func Decode(raw json.RawMessage) model.Catalog {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return model.Catalog{}
	}
	videos := bytes.TrimSpace(doc["videos"])
	if len(videos) == 0 || videos[0] != '[' {
		return model.Catalog{}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(videos, &items); err != nil {
		return model.Catalog{}
	}
	out := make(model.Catalog, 0, len(items))
	for _, it := range items {
		var v model.VideoRecord
		// Non-object entries still occupy a slot, with every field empty.
		_ = json.Unmarshal(it, &v)
		out = append(out, v)
	}
	return out
}
