// Package memory is an in-process ledger store, used for development and
// tests.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"kakeibo/internal/core"
)

type Store struct {
	mu      sync.Mutex
	items   []core.Entry
	version uint64
}

// New returns a store holding entries. Every entry must validate.
func New(entries ...core.Entry) (*Store, error) {
	s := &Store{}
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("seed entry %s: %w", e.ID, err)
		}
		s.items = append(s.items, e)
	}
	return s, nil
}

// NewFromFile loads a JSON array of entries. A missing file yields an empty
// store; a malformed one is an error.
func NewFromFile(path string) (*Store, error) {
	if path == "" {
		return New()
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return New()
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var entries []core.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	for i := range entries {
		if entries[i].ID == uuid.Nil {
			entries[i].ID = uuid.New()
		}
	}
	return New(entries...)
}

// ListEntries returns a copy of all entries in insertion order.
func (s *Store) ListEntries(_ context.Context) ([]core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Entry, len(s.items))
	copy(out, s.items)
	return out, nil
}

// ListMonth returns a copy of the entries dated in month.
func (s *Store) ListMonth(_ context.Context, month core.Month) ([]core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Entry, 0)
	for _, e := range s.items {
		if month.Contains(e.Date) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) GetEntry(_ context.Context, id uuid.UUID) (core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], nil
	}
	return core.Entry{}, core.ErrNotFound
}

func (s *Store) AddEntry(_ context.Context, e core.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(e.ID) >= 0 {
		return fmt.Errorf("entry %s already exists", e.ID)
	}
	s.items = append(s.items, e)
	s.version++
	return nil
}

func (s *Store) UpdateEntry(_ context.Context, e core.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(e.ID)
	if i < 0 {
		return core.ErrNotFound
	}
	e.CreatedAt = s.items[i].CreatedAt
	s.items[i] = e
	s.version++
	return nil
}

func (s *Store) DeleteEntry(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.ErrNotFound
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.version++
	return nil
}

// Version counts mutations since the store was created.
func (s *Store) Version(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version, nil
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) indexOf(id uuid.UUID) int {
	for i, e := range s.items {
		if e.ID == id {
			return i
		}
	}
	return -1
}
