// Package audit keeps a per-account, hash-chained record of mutating API
// calls. Each entry's hash covers the previous entry's hash, so truncation
// or edits anywhere but the tail break verification.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

type Entry struct {
	TS   int64  `json:"ts"`
	What string `json:"what"`
	Hash string `json:"hash"`
}

type chain struct {
	lastHash []byte
	entries  []Entry
}

type Log struct {
	mu     sync.Mutex
	chains map[string]*chain
}

func New() *Log {
	return &Log{chains: map[string]*chain{}}
}

func (l *Log) Append(account, what string) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.chains[account]
	if c == nil {
		c = &chain{}
		l.chains[account] = c
	}

	h := sha256.New()
	h.Write(c.lastHash)
	h.Write([]byte(what))
	sum := h.Sum(nil)
	c.lastHash = sum

	e := Entry{TS: time.Now().Unix(), What: what, Hash: hex.EncodeToString(sum)}
	c.entries = append(c.entries, e)
	return e
}

// Entries returns a copy of one account's chain, oldest first. Never nil.
func (l *Log) Entries(account string) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := l.chains[account]
	if c == nil {
		return []Entry{}
	}
	return append([]Entry(nil), c.entries...)
}

// Verify recomputes one account's chain from the start.
func (l *Log) Verify(account string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := l.chains[account]
	if c == nil {
		return nil
	}
	var prev []byte
	for i, e := range c.entries {
		h := sha256.New()
		h.Write(prev)
		h.Write([]byte(e.What))
		sum := h.Sum(nil)
		if hex.EncodeToString(sum) != e.Hash {
			return fmt.Errorf("audit chain broken at entry %d", i)
		}
		prev = sum
	}
	return nil
}
