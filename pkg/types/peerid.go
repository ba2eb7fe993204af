// Package types defines the base value types shared across the module.
//
// This is the lowest-level package in the tree: it must not import any
// other internal package.
package types

import (
	"errors"

	"github.com/mr-tron/base58"
)

// PeerID is a remote peer's long-term identity, derived from its public key.
//
// External representation is base58, following the same convention as the
// rest of the peer-to-peer ecosystem (Bitcoin addresses, IPFS CIDs, and the
// teacher's own NodeID).
type PeerID [32]byte

// EmptyPeerID is the zero value.
var EmptyPeerID PeerID

// ErrInvalidPeerID is returned when a byte slice or string cannot be decoded
// into a 32-byte PeerID.
var ErrInvalidPeerID = errors.New("invalid peer id")

// String returns the base58 encoding of the PeerID.
func (id PeerID) String() string {
	if id.IsEmpty() {
		return ""
	}
	return base58.Encode(id[:])
}

// ShortString returns the first 8 characters of the base58 encoding, for
// log lines.
func (id PeerID) ShortString() string {
	s := id.String()
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

// Bytes returns the PeerID's underlying bytes.
func (id PeerID) Bytes() []byte {
	return id[:]
}

// Equal reports whether two PeerIDs are the same.
func (id PeerID) Equal(other PeerID) bool {
	return id == other
}

// IsEmpty reports whether the PeerID is the zero value.
func (id PeerID) IsEmpty() bool {
	return id == EmptyPeerID
}

// PeerIDFromBytes builds a PeerID from a 32-byte slice.
func PeerIDFromBytes(b []byte) (PeerID, error) {
	if len(b) != 32 {
		return EmptyPeerID, ErrInvalidPeerID
	}
	var id PeerID
	copy(id[:], b)
	return id, nil
}

// PeerIDFromString decodes a base58-encoded PeerID.
func PeerIDFromString(s string) (PeerID, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return EmptyPeerID, ErrInvalidPeerID
	}
	return PeerIDFromBytes(b)
}
