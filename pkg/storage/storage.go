package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/akbarov/tushlikbot/pkg/logger"
	"github.com/akbarov/tushlikbot/pkg/models"
)

// stateKey is the single key holding the whole snapshot
const stateKey = "state"

var (
	// ErrCorruptState means a snapshot exists but cannot be parsed
	ErrCorruptState = errors.New("corrupt state snapshot")
	// ErrStaleState means the snapshot changed since this state was loaded
	ErrStaleState = errors.New("state version is stale")
)

// Store represents a BadgerDB-backed snapshot store
type Store struct {
	db     *badger.DB
	mu     sync.Mutex
	logger *logger.Logger
}

// New creates a new BadgerDB storage instance
func New(dataDir string) (*Store, error) {
	absPath, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	opts := badger.DefaultOptions(absPath)
	opts.Logger = nil // Disable Badger's internal logger

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	log := logger.New("storage")
	log.Info("BadgerDB opened at %s", absPath)
	return &Store{db: db, logger: log}, nil
}

// Close closes the BadgerDB database
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Load reads the current snapshot. A missing snapshot yields a fresh empty
// state; missing substructures inside a snapshot are defaulted to empty. Only
// an unparsable snapshot is an error.
func (s *Store) Load() (*models.State, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(stateKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			data = append([]byte{}, val...)
			return nil
		})
	})

	if err == badger.ErrKeyNotFound {
		return models.NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}

	state := &models.State{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	state.Normalize()
	return state, nil
}

// Save writes the snapshot in a single transaction. The stored version must
// match the version the state was loaded at, otherwise the save raced another
// writer and is rejected with ErrStaleState.
func (s *Store) Save(state *models.State) error {
	loadedVersion := state.Version
	state.Version++
	data, err := json.Marshal(state)
	if err != nil {
		state.Version = loadedVersion
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(stateKey))
		if err == nil {
			var stored struct {
				Version uint64 `json:"version"`
			}
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &stored)
			}); err == nil && stored.Version != loadedVersion {
				return ErrStaleState
			}
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		return txn.Set([]byte(stateKey), data)
	})
	if err != nil {
		state.Version = loadedVersion
		if errors.Is(err, ErrStaleState) {
			return err
		}
		return fmt.Errorf("failed to write state: %w", err)
	}
	return nil
}

// Update runs a full load-mutate-save cycle under the store's writer lock.
// Every phase trigger and inbound response handler goes through here, so two
// overlapping units of work can never discard each other's mutation. If the
// mutator returns an error nothing is written.
func (s *Store) Update(fn func(*models.State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.Load()
	if err != nil {
		return err
	}
	if err := fn(state); err != nil {
		return err
	}
	return s.Save(state)
}

// View runs a read-only function against a loaded snapshot
func (s *Store) View(fn func(*models.State) error) error {
	state, err := s.Load()
	if err != nil {
		return err
	}
	return fn(state)
}

// RunGC runs garbage collection on the database
func (s *Store) RunGC() error {
	return s.db.RunValueLogGC(0.5)
}

// StartGCRoutine starts a goroutine that periodically runs garbage collection
func (s *Store) StartGCRoutine(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for range ticker.C {
			err := s.RunGC()
			if err != nil {
				// Only log when GC actually did something
				if err != badger.ErrNoRewrite {
					s.logger.Error("BadgerDB GC error: %v", err)
				}
			}
		}
	}()
	s.logger.Info("Started BadgerDB GC routine with interval %v", interval)
}
