package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"site2tg/internal/domain"
)

// FileStore keeps the seen set as a sorted JSON array of identity
// strings, rewritten in full on every change. The format is meant to
// be read and edited by hand.
type FileStore struct {
	path string
	seen map[string]struct{}
}

// OpenFile loads the state file. A missing file is an empty set; an
// existing file that cannot be read or parsed is a state error, never
// silently treated as empty.
func OpenFile(path string) (*FileStore, error) {
	store := &FileStore{path: path, seen: map[string]struct{}{}}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return store, nil
	}
	if err != nil {
		return nil, &domain.StateError{Err: fmt.Errorf("read state %s: %w", path, err)}
	}

	var identities []string
	if err := json.Unmarshal(raw, &identities); err != nil {
		return nil, &domain.StateError{Err: fmt.Errorf("parse state %s: %w", path, err)}
	}
	for _, id := range identities {
		store.seen[id] = struct{}{}
	}

	return store, nil
}

// Contains reports whether the identity was already published.
func (s *FileStore) Contains(_ context.Context, identity string) (bool, error) {
	_, ok := s.seen[identity]
	return ok, nil
}

// Record adds the identity and rewrites the file before returning, so
// a crash right after a publish can never replay the item.
func (s *FileStore) Record(_ context.Context, identity string) error {
	s.seen[identity] = struct{}{}
	if err := s.persist(); err != nil {
		return &domain.StateError{Err: err}
	}
	return nil
}

// persist writes the whole set to a temporary file in the same
// directory and renames it into place: the file on disk is always
// either the previous or the new complete set, never a truncated one.
func (s *FileStore) persist() error {
	identities := make([]string, 0, len(s.seen))
	for id := range s.seen {
		identities = append(identities, id)
	}
	sort.Strings(identities)

	raw, err := json.MarshalIndent(identities, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	raw = append(raw, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp state: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace state: %w", err)
	}

	return nil
}

// Close implements Store; the file store holds no open resources.
func (s *FileStore) Close() error {
	return nil
}
