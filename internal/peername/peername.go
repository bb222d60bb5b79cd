// Package peername derives filesystem-safe shared-memory segment names
// from participant ids.
package peername

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// MailboxSegment returns the on-disk segment name for a participant's
// mailbox. The spec's naming convention is "/queue_" + user_id, but this
// implementation never trusts that user_id is filesystem-safe (spec.md
// §4.2 only says the caller is "responsible" for that); it hashes the id
// instead, so the returned name is always a valid single path component
// regardless of what characters user_id contains.
func MailboxSegment(userID string) string {
	sum := blake2b.Sum256([]byte("queue_" + userID))
	return "queue_" + hex.EncodeToString(sum[:16])
}

// RegistrySegment returns the on-disk segment name for the shared
// participant registry. Unlike the mailbox name this is a single constant
// per spec.md §6, but it is still routed through this package so both
// segment kinds share one naming authority.
func RegistrySegment() string {
	return "synctext_registry"
}
