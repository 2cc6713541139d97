package skill

import "encoding/json"

// Marshal serializes the full logical skill for encryption. This is the
// plaintext that goes into the AEAD envelope; only ciphertext ever leaves
// the machine.
func Marshal(s *Skill) ([]byte, error) {
	return json.Marshal(s)
}

// Unmarshal is the inverse of Marshal, used after pull+decrypt.
func Unmarshal(data []byte) (*Skill, error) {
	var s Skill
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
