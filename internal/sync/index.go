// Package sync reconciles local skill files against the remote version
// chains: change detection by content hash, concurrent push/pull with
// per-skill error collection, and a local index that is never a source of
// truth, only a memo of the last sync.
package sync

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// IndexFile is the index's name under the sync root.
const IndexFile = ".skillsync-index.json"

// Entry is the per-skill sync memo. LastSyncedHash mirrors the remote head
// we last agreed with; Fingerprint is the local content's full hash at that
// moment. The server's pointer, not this file, decides what is current.
type Entry struct {
	Key            string    `json:"key"`
	LastSyncedHash string    `json:"last_synced_hash"`
	Fingerprint    string    `json:"fingerprint"`
	RemoteUpdated  time.Time `json:"remote_updated"`
}

type Index struct {
	DeviceID string           `json:"device_id"`
	Entries  map[string]Entry `json:"entries"`

	path string
}

// LoadIndex reads the root's index, or starts an empty one with a fresh
// device id when none exists yet.
func LoadIndex(root string) (*Index, error) {
	path := filepath.Join(root, IndexFile)
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Index{
			DeviceID: uuid.NewString(),
			Entries:  map[string]Entry{},
			path:     path,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	ix := Index{path: path}
	if err := json.Unmarshal(b, &ix); err != nil {
		return nil, err
	}
	if ix.Entries == nil {
		ix.Entries = map[string]Entry{}
	}
	if ix.DeviceID == "" {
		ix.DeviceID = uuid.NewString()
	}
	return &ix, nil
}

// Save writes the whole index atomically: one bulk swap per batch, never
// interleaved per-entry writes.
func (ix *Index) Save() error {
	b, err := json.MarshalIndent(ix, "", "  ")
	if err != nil {
		return err
	}
	tmp := ix.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, ix.path)
}
