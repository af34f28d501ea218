package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// File is a Store backed by one JSON document holding every browser's
// state. The whole document is rewritten atomically on each change.
type File struct {
	path string

	mu   sync.Mutex
	data map[string]ViewState
}

// OpenFile reads path if it exists. A missing or empty file starts empty;
// a file that cannot be parsed is an error so callers can log it.
func OpenFile(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("file store: empty path")
	}
	data, err := loadStates(path)
	if err != nil {
		return nil, err
	}
	return &File{path: path, data: data}, nil
}

func (f *File) Load(_ context.Context, id string) (ViewState, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.data[id]
	return st, ok, nil
}

func (f *File) Save(_ context.Context, id string, st ViewState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev, had := f.data[id]
	f.data[id] = st
	if err := saveStates(f.path, f.data); err != nil {
		if had {
			f.data[id] = prev
		} else {
			delete(f.data, id)
		}
		return err
	}
	return nil
}

func (f *File) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[id]; !ok {
		return nil
	}
	delete(f.data, id)
	return saveStates(f.path, f.data)
}

func (f *File) Close() error { return nil }

func loadStates(path string) (map[string]ViewState, error) {
	out := make(map[string]ViewState)
	fh, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return out, nil
		}
		return nil, fmt.Errorf("open state: %w", err)
	}
	defer fh.Close()
	data, err := io.ReadAll(fh)
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	if len(data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return out, nil
}

// saveStates writes the document to path atomically.
func saveStates(path string, data map[string]ViewState) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp := path + ".tmp"
	fh, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open tmp: %w", err)
	}
	enc := json.NewEncoder(fh)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		fh.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode state: %w", err)
	}
	if err := fh.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close tmp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename tmp: %w", err)
	}
	return nil
}
