/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package statusmanager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

// Status is the persisted manual check state, keyed by task id.
type Status map[string]bool

// Clone returns an independent copy. The clone of a nil Status is empty.
func (s Status) Clone() Status {
	if s == nil {
		return Status{}
	}
	return maps.Clone(s)
}

// Store reads and writes the manual check state.
type Store interface {
	// ObservedState returns the last persisted state, or an empty Status if
	// nothing was ever written.
	ObservedState(ctx context.Context) (Status, error)
	// SetActualState replaces the persisted state.
	SetActualState(ctx context.Context, status Status) error
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

func validateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("invalid state key %q", key)
	}
	return nil
}

func encode(status Status) ([]byte, error) {
	if status == nil {
		status = Status{}
	}
	b, err := json.Marshal(status)
	if err != nil {
		return nil, fmt.Errorf("marshaling status: %w", err)
	}
	return b, nil
}

func decode(b []byte) (Status, error) {
	var status Status
	if err := json.Unmarshal(b, &status); err != nil {
		return nil, fmt.Errorf("unmarshaling status: %w", err)
	}
	if status == nil {
		status = Status{}
	}
	return status, nil
}

// Memory is an in-process Store.
type Memory struct {
	mu     sync.Mutex
	status Status
	writes int
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-process Store.
func NewMemory() *Memory {
	return &Memory{}
}

// NewMemoryWith returns an in-process Store preloaded with status.
func NewMemoryWith(status Status) *Memory {
	return &Memory{status: status.Clone()}
}

// ObservedState implements Store.
func (m *Memory) ObservedState(context.Context) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status.Clone(), nil
}

// SetActualState implements Store.
func (m *Memory) SetActualState(_ context.Context, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status.Clone()
	m.writes++
	return nil
}

// Writes returns how many times SetActualState was called.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// File is a Store backed by a JSON file.
type File struct {
	mu   sync.Mutex
	path string
}

var _ Store = (*File)(nil)

// NewFile returns a Store writing <dir>/<key>.json. The directory is created
// on first write.
func NewFile(dir, key string) (*File, error) {
	if dir == "" {
		return nil, errors.New("state directory is required")
	}
	if err := validateKey(key); err != nil {
		return nil, err
	}
	return &File{path: filepath.Join(dir, key+".json")}, nil
}

// Path returns the file the state is written to.
func (f *File) Path() string {
	return f.path
}

// ObservedState implements Store.
func (f *File) ObservedState(context.Context) (Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return Status{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state file: %w", err)
	}
	return decode(b)
}

// SetActualState implements Store.
func (f *File) SetActualState(_ context.Context, status Status) error {
	b, err := encode(status)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}
