package owl

import (
	"sync"
	"time"
)

// Store keeps the latest Snapshot per DeviceClass. It is safe for concurrent
// use by one publisher and any number of readers.
type Store struct {
	// built once in NewStore, never mutated afterwards
	slots map[DeviceClass]*slot
}

type slot struct {
	mu       sync.RWMutex
	snapshot *Snapshot
}

func NewStore() *Store {
	store := &Store{
		slots: make(map[DeviceClass]*slot, len(deviceClasses)),
	}
	for _, c := range deviceClasses {
		store.slots[c] = &slot{}
	}
	return store
}

// Publish replaces the snapshot stored for the snapshot's class.
func (s *Store) Publish(snapshot *Snapshot) error {
	sl, ok := s.slots[snapshot.Class()]
	if !ok {
		return &UnknownClassError{Tag: string(snapshot.Class())}
	}
	sl.mu.Lock()
	sl.snapshot = snapshot
	sl.mu.Unlock()
	return nil
}

// Get returns the latest snapshot for class, or false if none arrived yet.
func (s *Store) Get(class DeviceClass) (*Snapshot, bool) {
	sl, ok := s.slots[class]
	if !ok {
		return nil, false
	}
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	return sl.snapshot, sl.snapshot != nil
}

// Ingest parses payload and publishes the result. On error the store is
// left untouched.
func (s *Store) Ingest(payload []byte, receivedAt time.Time) (*Snapshot, error) {
	snapshot, err := Parse(payload, receivedAt)
	if err != nil {
		return nil, err
	}
	if err := s.Publish(snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Snapshots returns the latest snapshot of every class that has one.
func (s *Store) Snapshots() map[DeviceClass]*Snapshot {
	snapshots := make(map[DeviceClass]*Snapshot)
	for _, c := range deviceClasses {
		if snapshot, ok := s.Get(c); ok {
			snapshots[c] = snapshot
		}
	}
	return snapshots
}
