package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

func HashToken(tok string) string {
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:])
}

// BearerMatches reports whether an Authorization header carries want as a
// bearer token. An empty want matches nothing.
func BearerMatches(header, want string) bool {
	got, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || got == "" || want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(HashToken(got)), []byte(HashToken(want))) == 1
}
