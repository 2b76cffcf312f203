package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Derive fingerprints a computation: a stable identity string (name plus
// version, e.g. "kmer_table/v1") and the arguments that affect its output.
// Each field is length-prefixed before hashing so that no concatenation of
// argument values can collide with a different split of the same bytes
// (("AB","C") never hashes like ("A","BC")). The digest is SHA-256,
// rendered as lowercase hex.
func Derive(identity string, args ...string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d:%s", len(identity), identity)
	for _, arg := range args {
		fmt.Fprintf(h, "|%d:%s", len(arg), arg)
	}
	return hex.EncodeToString(h.Sum(nil))
}
