package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	KeySize   = chacha20poly1305.KeySize   // 32 bytes
	NonceSize = chacha20poly1305.NonceSize // 12 bytes
	TagSize   = chacha20poly1305.Overhead  // 16 bytes
)

var (
	ErrIntegrity = errors.New("crypto: message authentication failed")
	ErrKeySize   = errors.New("crypto: key must be 32 bytes")
)

// Encrypt seals plaintext under key with ChaCha20-Poly1305. The nonce is
// generated internally from a CSPRNG and must never be supplied by callers;
// reuse under the same key would be catastrophic. The tag is returned
// separately from the ciphertext so callers control the storage layout.
func Encrypt(plaintext, key []byte) (ciphertext, nonce, tag []byte, err error) {
	if len(key) != KeySize {
		return nil, nil, nil, ErrKeySize
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, nil, nil, err
	}
	nonce = make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, nil, err
	}
	sealed := aead.Seal(nil, nonce, plaintext, nil)
	split := len(sealed) - TagSize
	return sealed[:split], nonce, sealed[split:], nil
}

// Decrypt opens ciphertext previously produced by Encrypt. Tag verification
// is part of the AEAD open; any mismatch (wrong key, tampered data, bad
// nonce/tag slicing) fails the whole call and no plaintext is returned.
func Decrypt(ciphertext, key, nonce, tag []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, ErrKeySize
	}
	if len(nonce) != NonceSize || len(tag) != TagSize {
		return nil, ErrIntegrity
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	sealed := make([]byte, 0, len(ciphertext)+TagSize)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)
	pt, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrIntegrity
	}
	return pt, nil
}

// Envelope is the transport form of an encrypted payload: all three fields
// base64 (std) encoded so they survive JSON and BSON untouched.
type Envelope struct {
	Ciphertext string `json:"ciphertext" bson:"ciphertext"`
	Nonce      string `json:"iv" bson:"iv"`
	Tag        string `json:"tag" bson:"tag"`
}

// EncryptString seals a UTF-8 string and returns the text-safe envelope.
// Interchangeable with Encrypt/Decrypt: the decoded fields round-trip
// through the byte-oriented calls.
func EncryptString(plaintext string, key []byte) (Envelope, error) {
	ct, nonce, tag, err := Encrypt([]byte(plaintext), key)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Ciphertext: base64.StdEncoding.EncodeToString(ct),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Tag:        base64.StdEncoding.EncodeToString(tag),
	}, nil
}

// DecryptString opens an envelope produced by EncryptString.
func DecryptString(env Envelope, key []byte) (string, error) {
	ct, nonce, tag, err := env.Decode()
	if err != nil {
		return "", err
	}
	pt, err := Decrypt(ct, key, nonce, tag)
	if err != nil {
		return "", err
	}
	return string(pt), nil
}

// Decode returns the raw ciphertext, nonce and tag of the envelope.
// Corrupted base64 is reported as an integrity failure: the payload cannot
// be authenticated either way, and callers should not distinguish the two.
func (e Envelope) Decode() (ciphertext, nonce, tag []byte, err error) {
	if ciphertext, err = base64.StdEncoding.DecodeString(e.Ciphertext); err != nil {
		return nil, nil, nil, ErrIntegrity
	}
	if nonce, err = base64.StdEncoding.DecodeString(e.Nonce); err != nil {
		return nil, nil, nil, ErrIntegrity
	}
	if tag, err = base64.StdEncoding.DecodeString(e.Tag); err != nil {
		return nil, nil, nil, ErrIntegrity
	}
	return ciphertext, nonce, tag, nil
}

// EncodeEnvelope is the inverse of Envelope.Decode, for callers holding the
// raw parts.
func EncodeEnvelope(ciphertext, nonce, tag []byte) Envelope {
	return Envelope{
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Tag:        base64.StdEncoding.EncodeToString(tag),
	}
}
