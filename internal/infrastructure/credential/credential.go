// Package credential hashes and verifies room passwords.
package credential

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// legacyPrefix marks unsalted SHA-256 digests.
const legacyPrefix = "sha256:"

type Hasher struct {
	cost int
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns a salted bcrypt digest of password. Passwords longer than
// 72 bytes are pre-hashed with SHA-256 so bcrypt never truncates them.
func (h *Hasher) Hash(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword(prepare(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether password matches digest. Digests produced by
// HashSHA256 are accepted too.
func (h *Hasher) Verify(password, digest string) bool {
	if strings.HasPrefix(digest, legacyPrefix) {
		want := HashSHA256(password)
		return subtle.ConstantTimeCompare([]byte(want), []byte(digest)) == 1
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), prepare(password)) == nil
}

// HashSHA256 is the deterministic unsalted digest.
func HashSHA256(password string) string {
	sum := sha256.Sum256([]byte(password))
	return legacyPrefix + hex.EncodeToString(sum[:])
}

func prepare(password string) []byte {
	if len(password) <= 72 {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))
	return []byte(hex.EncodeToString(sum[:]))
}
