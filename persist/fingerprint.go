package persist

import (
	"encoding/hex"
	"encoding/json"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint hashes a shape's content, ignoring its id, so id-less shapes
// can be de-duplicated across repeated saves.
func Fingerprint(s Shape) string {
	s.ID = ""
	payload, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	sum := blake2b.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
