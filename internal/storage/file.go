package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// FileStore keeps one account's versions, heads and keyring under a
// directory. It backs the daemon when no Mongo URI is configured and the
// test suites; layout is one JSON file per version plus heads.json and
// keyring.json.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

func NewFileStore(dir string) *FileStore {
	_ = os.MkdirAll(dir, 0o700)
	return &FileStore{dir: dir}
}

func (f *FileStore) versionPath(key, hash string) string {
	return filepath.Join(f.versionDir(key), hash+".json")
}

func (f *FileStore) versionDir(key string) string {
	// Keys are "type:name"; the skill name charset admits no separators
	// and no ":" (skill.ValidName, enforced at the API boundary) so this
	// stays collision-free and inside the account directory.
	return filepath.Join(f.dir, "versions", strings.ReplaceAll(key, ":", "_"))
}

func (f *FileStore) CreateVersion(_ context.Context, v Version) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(f.versionDir(v.Key), 0o700); err != nil {
		return time.Time{}, err
	}
	path := f.versionPath(v.Key, v.Hash)

	// Idempotent on (key, hash): a retry keeps the original creation time
	// and parent, refreshing envelope and message.
	if prev, err := readJSON[Version](path); err == nil {
		prev.Envelope = v.Envelope
		prev.Message = v.Message
		if err := writeJSON(path, prev); err != nil {
			return time.Time{}, err
		}
		return prev.CreatedAt, nil
	}

	v.CreatedAt = time.Now().UTC()
	if err := writeJSON(path, v); err != nil {
		return time.Time{}, err
	}
	return v.CreatedAt, nil
}

func (f *FileStore) SetCurrent(_ context.Context, key, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	heads, err := f.readHeads()
	if err != nil {
		return err
	}
	heads[key] = Head{Key: key, CurrentHash: hash, UpdatedAt: time.Now().UTC()}
	return f.writeHeads(heads)
}

func (f *FileStore) GetVersion(_ context.Context, key, hash string) (Version, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, err := readJSON[Version](f.versionPath(key, hash))
	if os.IsNotExist(err) {
		return Version{}, ErrNotFound
	}
	return v, err
}

func (f *FileStore) ListVersions(_ context.Context, key string, limit int) ([]Version, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	vs, err := f.readVersions(key)
	if err != nil {
		return nil, err
	}
	sort.Slice(vs, func(i, j int) bool {
		if !vs[i].CreatedAt.Equal(vs[j].CreatedAt) {
			return vs[i].CreatedAt.After(vs[j].CreatedAt)
		}
		return vs[i].Hash < vs[j].Hash
	})
	if limit > 0 && len(vs) > limit {
		vs = vs[:limit]
	}
	return vs, nil
}

func (f *FileStore) ListHeads(_ context.Context) ([]Head, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	heads, err := f.readHeads()
	if err != nil {
		return nil, err
	}

	newest, err := f.newestVersions()
	if err != nil {
		return nil, err
	}

	list := make([]Head, 0, len(heads))
	for _, h := range heads {
		list = append(list, h)
	}
	out, stale := healHeads(list, newest)
	if len(stale) > 0 {
		for _, h := range stale {
			heads[h.Key] = h
		}
		if err := f.writeHeads(heads); err != nil {
			return nil, err
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (f *FileStore) PutKeyring(_ context.Context, kr Keyring) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kr.UpdatedAt = time.Now().UTC()
	return writeJSON(filepath.Join(f.dir, "keyring.json"), kr)
}

func (f *FileStore) GetKeyring(_ context.Context) (Keyring, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kr, err := readJSON[Keyring](filepath.Join(f.dir, "keyring.json"))
	if os.IsNotExist(err) {
		return Keyring{}, ErrNotFound
	}
	return kr, err
}

func (f *FileStore) readVersions(key string) ([]Version, error) {
	entries, err := os.ReadDir(f.versionDir(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []Version
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		v, err := readJSON[Version](filepath.Join(f.versionDir(key), e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (f *FileStore) newestVersions() (map[string]Version, error) {
	base := filepath.Join(f.dir, "versions")
	entries, err := os.ReadDir(base)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	newest := map[string]Version{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		key := strings.Replace(e.Name(), "_", ":", 1)
		vs, err := f.readVersions(key)
		if err != nil {
			return nil, err
		}
		for _, v := range vs {
			cur, ok := newest[key]
			if !ok || v.CreatedAt.After(cur.CreatedAt) {
				newest[key] = v
			}
		}
	}
	return newest, nil
}

func (f *FileStore) readHeads() (map[string]Head, error) {
	heads, err := readJSON[map[string]Head](filepath.Join(f.dir, "heads.json"))
	if os.IsNotExist(err) {
		return map[string]Head{}, nil
	}
	return heads, err
}

func (f *FileStore) writeHeads(heads map[string]Head) error {
	return writeJSON(filepath.Join(f.dir, "heads.json"), heads)
}

func readJSON[T any](path string) (T, error) {
	var v T
	b, err := os.ReadFile(path)
	if err != nil {
		return v, err
	}
	err = json.Unmarshal(b, &v)
	return v, err
}

func writeJSON(path string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
