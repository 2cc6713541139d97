package sync

import (
	"context"
	"fmt"
	"sort"
	stdsync "sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/a14a-org/claudeskill-manager/internal/crypto"
	"github.com/a14a-org/claudeskill-manager/internal/skill"
	"github.com/a14a-org/claudeskill-manager/internal/storage"
)

// Remote is what the reconciler needs from the server; *remote.Client
// satisfies it, and tests substitute an in-memory fake.
type Remote interface {
	Health(ctx context.Context) error
	ListSkills(ctx context.Context) ([]storage.Head, error)
	PushVersion(ctx context.Context, v storage.Version) (time.Time, error)
	SetCurrent(ctx context.Context, key, hash string) error
	GetVersion(ctx context.Context, key, hash string) (storage.Version, error)
}

// DefaultConcurrency bounds the per-skill fan-out within one batch.
const DefaultConcurrency = 4

type Reconciler struct {
	Root        string
	Remote      Remote
	Message     string // optional version message applied to pushes
	Concurrency int
}

// Status is the per-skill classification: unchanged, locally changed (or
// never synced), and present remotely but absent locally.
type Status struct {
	Synced      []string
	PendingPush []string
	PendingPull []string
}

// ItemError is one skill's failure inside an otherwise-continuing batch.
type ItemError struct {
	Key string
	Err error
}

func (e ItemError) Error() string { return e.Key + ": " + e.Err.Error() }

// Result reports a batch. Errors never abort the batch; a caller can always
// tell which skills succeeded.
type Result struct {
	Pushed  int
	Pulled  int
	Skipped int
	Errors  []ItemError
}

// Classify computes a Status from already-loaded state. Pure: no I/O, no
// plaintext comparison, hashes only.
func Classify(local []*skill.Skill, ix *Index, heads []storage.Head) Status {
	var st Status
	localKeys := make(map[string]bool, len(local))
	for _, s := range local {
		key := s.Key.String()
		localKeys[key] = true
		entry, ok := ix.Entries[key]
		if ok && entry.Fingerprint == s.FullHash() {
			st.Synced = append(st.Synced, key)
		} else {
			st.PendingPush = append(st.PendingPush, key)
		}
	}
	for _, h := range heads {
		if !localKeys[h.Key] {
			st.PendingPull = append(st.PendingPull, h.Key)
		}
	}
	sort.Strings(st.Synced)
	sort.Strings(st.PendingPush)
	sort.Strings(st.PendingPull)
	return st
}

// Status loads local skills and the remote list and classifies them.
func (r *Reconciler) Status(ctx context.Context, ix *Index) (Status, error) {
	local, err := skill.LoadAll(r.Root)
	if err != nil {
		return Status{}, err
	}
	heads, err := r.Remote.ListSkills(ctx)
	if err != nil {
		return Status{}, err
	}
	return Classify(local, ix, heads), nil
}

// Push encrypts every changed local skill under the master key and appends
// it to its remote version chain. The master key is unlocked once by the
// caller and reused across the whole batch; the KDF is far too expensive to
// run per skill. Unchanged skills are skipped with no network call. The
// index is rewritten once, after all per-skill work has resolved.
func (r *Reconciler) Push(ctx context.Context, masterKey []byte, ix *Index) (*Result, error) {
	if err := r.Remote.Health(ctx); err != nil {
		return nil, fmt.Errorf("server unreachable: %w", err)
	}
	local, err := skill.LoadAll(r.Root)
	if err != nil {
		return nil, err
	}
	heads, err := r.Remote.ListSkills(ctx)
	if err != nil {
		return nil, err
	}
	headByKey := make(map[string]storage.Head, len(heads))
	for _, h := range heads {
		headByKey[h.Key] = h
	}

	res := &Result{}
	var mu stdsync.Mutex
	updates := map[string]Entry{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency())
	for _, s := range local {
		key := s.Key.String()
		hash := s.FullHash()
		if entry, ok := ix.Entries[key]; ok && entry.Fingerprint == hash {
			res.Skipped++
			continue
		}
		g.Go(func() error {
			entry, err := r.pushOne(gctx, masterKey, s, hash, headByKey[key])
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Errors = append(res.Errors, ItemError{Key: key, Err: err})
				return nil // per-skill failures never abort the batch
			}
			res.Pushed++
			updates[key] = entry
			return nil
		})
	}
	_ = g.Wait()

	r.applyUpdates(ix, updates)
	sortErrors(res.Errors)
	return res, ix.Save()
}

func (r *Reconciler) pushOne(ctx context.Context, masterKey []byte, s *skill.Skill, hash string, head storage.Head) (Entry, error) {
	plaintext, err := skill.Marshal(s)
	if err != nil {
		return Entry{}, err
	}
	ct, nonce, tag, err := crypto.Encrypt(plaintext, masterKey)
	if err != nil {
		return Entry{}, err
	}

	// Parent is the remote head we last observed. If another device moved
	// it since, this push still lands and simply becomes the new head:
	// last-write-wins, divergence recorded in the chain but never merged.
	v := storage.Version{
		Key:      s.Key.String(),
		Hash:     hash,
		Envelope: crypto.EncodeEnvelope(ct, nonce, tag),
		Parent:   head.CurrentHash,
		Message:  r.Message,
	}
	createdAt, err := r.Remote.PushVersion(ctx, v)
	if err != nil {
		return Entry{}, err
	}
	if err := r.Remote.SetCurrent(ctx, v.Key, v.Hash); err != nil {
		return Entry{}, err
	}
	return Entry{
		Key:            v.Key,
		LastSyncedHash: v.Hash,
		Fingerprint:    hash,
		RemoteUpdated:  createdAt,
	}, nil
}

// Pull fetches every remote skill that is new or moved since the last sync,
// decrypts it and writes it into the type directory, overwriting local files
// at whole-skill granularity.
func (r *Reconciler) Pull(ctx context.Context, masterKey []byte, ix *Index) (*Result, error) {
	if err := r.Remote.Health(ctx); err != nil {
		return nil, fmt.Errorf("server unreachable: %w", err)
	}
	heads, err := r.Remote.ListSkills(ctx)
	if err != nil {
		return nil, err
	}
	local, err := skill.LoadAll(r.Root)
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(local))
	for _, s := range local {
		present[s.Key.String()] = true
	}

	res := &Result{}
	var mu stdsync.Mutex
	updates := map[string]Entry{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency())
	for _, h := range heads {
		// The index is a memo, not truth: a skill deleted locally is
		// restored even when the memo says it was synced.
		if entry, ok := ix.Entries[h.Key]; ok && entry.LastSyncedHash == h.CurrentHash && present[h.Key] {
			res.Skipped++
			continue
		}
		g.Go(func() error {
			entry, err := r.pullOne(gctx, masterKey, h)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Errors = append(res.Errors, ItemError{Key: h.Key, Err: err})
				return nil
			}
			res.Pulled++
			updates[h.Key] = entry
			return nil
		})
	}
	_ = g.Wait()

	r.applyUpdates(ix, updates)
	sortErrors(res.Errors)
	return res, ix.Save()
}

func (r *Reconciler) pullOne(ctx context.Context, masterKey []byte, h storage.Head) (Entry, error) {
	v, err := r.Remote.GetVersion(ctx, h.Key, h.CurrentHash)
	if err != nil {
		return Entry{}, err
	}
	ct, nonce, tag, err := v.Envelope.Decode()
	if err != nil {
		return Entry{}, err
	}
	plaintext, err := crypto.Decrypt(ct, masterKey, nonce, tag)
	if err != nil {
		return Entry{}, err
	}
	s, err := skill.Unmarshal(plaintext)
	if err != nil {
		return Entry{}, err
	}
	if got := s.Key.String(); got != h.Key {
		return Entry{}, fmt.Errorf("decrypted payload is %s, expected %s", got, h.Key)
	}
	if err := skill.Save(r.Root, s); err != nil {
		return Entry{}, err
	}
	return Entry{
		Key:            h.Key,
		LastSyncedHash: h.CurrentHash,
		Fingerprint:    s.FullHash(),
		RemoteUpdated:  h.UpdatedAt,
	}, nil
}

// applyUpdates folds successful per-skill results into the index after the
// join: the only write to shared state in a batch.
func (r *Reconciler) applyUpdates(ix *Index, updates map[string]Entry) {
	for key, e := range updates {
		ix.Entries[key] = e
	}
}

func (r *Reconciler) concurrency() int {
	if r.Concurrency > 0 {
		return r.Concurrency
	}
	return DefaultConcurrency
}

func sortErrors(errs []ItemError) {
	sort.Slice(errs, func(i, j int) bool { return errs[i].Key < errs[j].Key })
}
