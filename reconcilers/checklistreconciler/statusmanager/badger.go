/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package statusmanager

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/chainguard-dev/clog"
	"github.com/dgraph-io/badger/v4"
)

const badgerKeyPrefix = "checklist/status/"

// BadgerConfig configures OpenBadger.
type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string
	// InMemory keeps the database in memory, for tests.
	InMemory bool
	// SyncWrites fsyncs every commit.
	SyncWrites bool
}

// OpenBadger opens (creating if needed) a BadgerDB for checklist state.
// BadgerDB's own log output is routed through the clog logger in ctx.
func OpenBadger(ctx context.Context, cfg BadgerConfig) (*badger.DB, error) {
	var opts badger.Options
	switch {
	case cfg.InMemory:
		opts = badger.DefaultOptions("").WithInMemory(true)
	case cfg.Path == "":
		return nil, errors.New("path is required for persistent database")
	default:
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("creating database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(&badgerLogger{log: clog.FromContext(ctx)})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger database: %w", err)
	}
	return db, nil
}

// badgerLogger adapts clog to badger.Logger. Badger is chatty at info level,
// so its info messages are demoted to debug.
type badgerLogger struct {
	log *clog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any)   { l.log.Errorf(format, args...) }
func (l *badgerLogger) Warningf(format string, args ...any) { l.log.Warnf(format, args...) }
func (l *badgerLogger) Infof(format string, args ...any)    { l.log.Debugf(format, args...) }
func (l *badgerLogger) Debugf(format string, args ...any)   { l.log.Debugf(format, args...) }

// Badger is a Store keeping the state under one BadgerDB key.
type Badger struct {
	db  *badger.DB
	key []byte
}

var _ Store = (*Badger)(nil)

// NewBadger returns a Store over db. The caller owns db and closes it.
func NewBadger(db *badger.DB, key string) (*Badger, error) {
	if db == nil {
		return nil, errors.New("db must not be nil")
	}
	if err := validateKey(key); err != nil {
		return nil, err
	}
	return &Badger{db: db, key: []byte(badgerKeyPrefix + key)}, nil
}

// ObservedState implements Store.
func (b *Badger) ObservedState(context.Context) (Status, error) {
	var raw []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.key)
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Status{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading state: %w", err)
	}
	return decode(raw)
}

// SetActualState implements Store.
func (b *Badger) SetActualState(_ context.Context, status Status) error {
	raw, err := encode(status)
	if err != nil {
		return err
	}
	if err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(b.key, raw)
	}); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}
	return nil
}
