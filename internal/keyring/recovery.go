package keyring

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
)

// RecoveryWords is the fixed length of a recovery key: 8 words, one raw byte
// each, indexed into the 256-entry wordlist.
const RecoveryWords = 8

var ErrMalformedRecovery = errors.New("keyring: recovery key must be 8 known words")

// RecoveryKey is the human-writable alternate secret. The words are the
// display form; the bytes are what feeds the KDF.
type RecoveryKey struct {
	Words [RecoveryWords]string
	Bytes [RecoveryWords]byte
}

// NewRecoveryKey draws 8 random bytes and maps each through the wordlist.
func NewRecoveryKey() (RecoveryKey, error) {
	var rk RecoveryKey
	if _, err := rand.Read(rk.Bytes[:]); err != nil {
		return RecoveryKey{}, err
	}
	for i, b := range rk.Bytes {
		rk.Words[i] = wordlist[b]
	}
	return rk, nil
}

// Format renders the one-time display form: upper-cased, hyphen-joined.
func (rk RecoveryKey) Format() string {
	parts := make([]string, RecoveryWords)
	for i, w := range rk.Words {
		parts[i] = strings.ToUpper(w)
	}
	return strings.Join(parts, "-")
}

// ParseRecoveryKey accepts hyphen- or whitespace-separated words in any case.
// Anything that does not resolve to exactly 8 wordlist members is rejected
// with ErrMalformedRecovery; parsing never touches the network.
func ParseRecoveryKey(s string) (RecoveryKey, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) != RecoveryWords {
		return RecoveryKey{}, fmt.Errorf("%w (got %d words)", ErrMalformedRecovery, len(fields))
	}
	var rk RecoveryKey
	for i, f := range fields {
		w := strings.ToLower(f)
		idx, ok := wordIndex[w]
		if !ok {
			return RecoveryKey{}, fmt.Errorf("%w (unknown word %q)", ErrMalformedRecovery, f)
		}
		rk.Words[i] = w
		rk.Bytes[i] = idx
	}
	return rk, nil
}
