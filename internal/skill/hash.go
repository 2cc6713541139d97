package skill

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"sort"
)

// ShortHashLen is the human-facing hash width, à la short commit hashes.
// 32 bits of space: fine as a personal-scale version identifier, not a
// collision-resistance guarantee. Use FullHash where that matters.
const ShortHashLen = 8

// FullHash digests the skill's canonical content: name, type, body, then
// supporting files sorted by name, every field length-framed so no two
// distinct field sequences collide by concatenation. Metadata is excluded;
// it is presentation, not content. Construction order of Files never
// affects the result.
func (s *Skill) FullHash() string {
	h := sha256.New()
	writeField(h, []byte(s.Key.Name))
	writeField(h, []byte(s.Key.Type))
	writeField(h, []byte(s.Body))

	files := append([]SupportingFile(nil), s.Files...)
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	for _, f := range files {
		writeField(h, []byte(f.Name))
		writeField(h, f.Content)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Hash is the short display form: the first 8 hex characters of FullHash.
func (s *Skill) Hash() string {
	return ShortHash(s.FullHash())
}

// ShortHash truncates a full hash for display.
func ShortHash(full string) string {
	if len(full) <= ShortHashLen {
		return full
	}
	return full[:ShortHashLen]
}

func writeField(h hash.Hash, b []byte) {
	var n [binary.MaxVarintLen64]byte
	h.Write(n[:binary.PutUvarint(n[:], uint64(len(b)))])
	h.Write(b)
}
