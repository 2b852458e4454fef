package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"
)

const basicPrefix = "Basic "

// minLiteralSecretLen is the shortest Basic parameter accepted as a bare
// secret without base64 decoding. Generated secrets are 64 hex chars, so
// anything shorter than 32 cannot be one of ours.
const minLiteralSecretLen = 32

// BasicSecretVerifier implements ports.SecretVerifier for HTTP Basic
// credentials checked against a stored SHA-256 hash.
//
// Three caller shapes are supported: the bare secret placed directly in
// the Basic parameter, the legacy colon-joined "user:secret" base64 form,
// and the standard Basic form. Only the hash of the secret is ever
// stored.
type BasicSecretVerifier struct{}

// NewBasicSecretVerifier creates a new BasicSecretVerifier.
func NewBasicSecretVerifier() *BasicSecretVerifier {
	return &BasicSecretVerifier{}
}

// Verify reports whether the Authorization header carries a credential
// whose SHA-256 hash equals storedHashHex. Fails closed: an empty stored
// hash, a missing header or a non-Basic scheme all return false.
func (v *BasicSecretVerifier) Verify(storedHashHex, authorizationHeader string) bool {
	if storedHashHex == "" || authorizationHeader == "" {
		return false
	}
	if len(authorizationHeader) < len(basicPrefix) ||
		!strings.EqualFold(authorizationHeader[:len(basicPrefix)], basicPrefix) {
		return false
	}

	param := strings.TrimSpace(authorizationHeader[len(basicPrefix):])
	for _, candidate := range secretCandidates(param) {
		if fixedEqualsHex(ComputeSecretHash(candidate), storedHashHex) {
			return true
		}
	}
	return false
}

// secretCandidates lists every secret the Basic parameter could be
// carrying. A base64-encoded "user:secret" pair is itself long and
// whitespace-free, so the parameter is ambiguous between the two
// encodings; both readings are produced and the hash comparison decides.
func secretCandidates(param string) []string {
	var candidates []string
	if len(param) >= minLiteralSecretLen && !containsWhitespace(param) {
		candidates = append(candidates, param)
	}
	if decoded, err := base64.StdEncoding.DecodeString(param); err == nil {
		if parts := strings.SplitN(string(decoded), ":", 2); len(parts) == 2 {
			candidates = append(candidates, parts[1])
		}
	}
	return candidates
}

func containsWhitespace(s string) bool {
	return strings.IndexFunc(s, unicode.IsSpace) >= 0
}

// ComputeSecretHash returns the lowercase hex SHA-256 digest of the
// plaintext secret. This is the only form a secret is ever persisted in.
func ComputeSecretHash(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// GenerateSecret draws a fresh 256-bit secret from crypto/rand and
// returns it as 64 lowercase hex characters.
func GenerateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating webhook secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// fixedEqualsHex compares two hex digests in constant time. A length
// mismatch or a decode failure on either side is non-equal, not an error.
func fixedEqualsHex(hexA, hexB string) bool {
	if len(hexA) != len(hexB) {
		return false
	}
	a, errA := hex.DecodeString(hexA)
	b, errB := hex.DecodeString(hexB)
	if errA != nil || errB != nil {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
