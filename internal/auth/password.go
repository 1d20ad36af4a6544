// Package auth — credential hashing and session tokens.
//
// THE HASHER INTERFACE:
// The original application hashed passwords with a single unsalted round
// of SHA-256 — a known weakness (fast hashes crack quickly on GPUs), but
// one we must keep readable: databases written by the legacy application
// contain those digests and logins against them must continue to verify.
//
// Isolating the scheme behind Hasher lets the two coexist:
//   - SHA256Hasher reproduces the legacy digests exactly
//   - BcryptHasher is the default for new deployments
//
// Callers (AuthService) depend only on the interface, so swapping schemes
// never touches them.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher is a one-way password hashing scheme.
type Hasher interface {
	// Hash turns a plaintext password into a storable digest.
	Hash(plaintext string) (string, error)
	// Verify returns nil when plaintext matches the stored digest.
	Verify(hash, plaintext string) error
}

// ErrPasswordMismatch is returned by Verify when the password is wrong.
// Callers should not distinguish this from other verification failures
// when talking to users — both mean "invalid credentials".
var ErrPasswordMismatch = errors.New("auth: invalid password")

// SHA256Hasher is the legacy scheme: hex(SHA-256(plaintext)), no salt,
// one round. Deterministic, so Verify is re-hash and compare.
//
// Do not pick this for new deployments — it exists for compatibility
// with databases created by the original application.
type SHA256Hasher struct{}

func (SHA256Hasher) Hash(plaintext string) (string, error) {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:]), nil
}

func (SHA256Hasher) Verify(hash, plaintext string) error {
	sum := sha256.Sum256([]byte(plaintext))
	computed := hex.EncodeToString(sum[:])
	// Constant-time compare — the digest is deterministic, so a
	// short-circuiting compare would leak prefix information.
	if subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

// defaultCost is the bcrypt work factor for new hashes.
//
// COST TUNING RULE OF THUMB:
// Set cost so that hashing takes ~200–300ms on production hardware.
// Too low → easy to crack. Too high → login is sluggish.
const defaultCost = 12

// BcryptHasher hashes with bcrypt. bcrypt generates a random salt and
// embeds it in the output, so two users with the same password get
// different digests, and CompareHashAndPassword is constant-time.
//
// It's a struct (not free functions) so the cost can be injected in
// tests — cost 4 (the bcrypt minimum) makes tests fast without changing
// the logic under test.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a BcryptHasher with the default cost (12).
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: defaultCost}
}

// NewBcryptHasherWithCost returns a BcryptHasher with a custom cost.
// Use cost 4 in tests; never in production.
func NewBcryptHasherWithCost(cost int) *BcryptHasher {
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		// bcrypt silently truncates past 72 bytes. Reject explicitly
		// so callers aren't surprised.
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

func (h *BcryptHasher) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
