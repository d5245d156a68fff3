package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainNetwork = "pulsenet/network/v1"
	DomainTrace   = "pulsenet/trace/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte (0x00) separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// NetworkHash computes the content hash of a network description.
// Rule order is part of the identity: target order drives event order.
// Source line numbers are not.
func NetworkHash(rules []Rule) (string, error) {
	canonical, err := MarshalCanonical(rules)
	if err != nil {
		return "", fmt.Errorf("NetworkHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainNetwork, canonical), nil
}

// TraceHash computes the content hash of an ordered event trace.
// Two runs are deterministic replays of each other iff their trace hashes match.
func TraceHash(events []TraceEvent) (string, error) {
	canonical, err := MarshalCanonical(events)
	if err != nil {
		return "", fmt.Errorf("TraceHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTrace, canonical), nil
}

// MustNetworkHash is like NetworkHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustNetworkHash(rules []Rule) string {
	h, err := NetworkHash(rules)
	if err != nil {
		panic(err)
	}
	return h
}

// MustTraceHash is like TraceHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustTraceHash(events []TraceEvent) string {
	h, err := TraceHash(events)
	if err != nil {
		panic(err)
	}
	return h
}
