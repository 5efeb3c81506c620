package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows the encoding to change without colliding.
const (
	DomainCompilation = "criteria/compilation/v1"
	DomainExpr        = "criteria/expr/v1"
	DomainSchema      = "criteria/schema/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ContentID returns the hex SHA-256 of v's canonical JSON under domain.
// Equal trees always produce equal IDs.
func ContentID(domain string, v IRValue) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("ContentID(%s): %w", domain, err)
	}
	return hashWithDomain(domain, canonical), nil
}

// MustContentID is like ContentID but panics on error.
// Use only in tests or when v is known to be encodable.
func MustContentID(domain string, v IRValue) string {
	id, err := ContentID(domain, v)
	if err != nil {
		panic(err)
	}
	return id
}
