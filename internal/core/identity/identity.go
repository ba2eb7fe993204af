// Package identity provides the module's long-term peer identity and the
// key-agreement step the Peer Path Manager depends on to derive its shared
// secret (spec §4.1, NewPeer).
//
// Peer identities are Ed25519 keypairs; PeerID is derived from the public
// key. Key agreement uses the same Ed25519->Curve25519 conversion and
// flynn/noise DH25519 primitive the module's secure-transport handshake
// package already carries in its dependency graph, so Identity.Agree is a
// second, independent consumer of that stack rather than a hand-rolled X25519
// implementation living only here.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/flynn/noise"

	"github.com/quorumnet/overlay/pkg/types"
)

// ErrKeyAgreementFailed is returned when Agree cannot derive a shared secret.
var ErrKeyAgreementFailed = errors.New("identity: key agreement failed")

// Identity is a peer's long-term Ed25519 keypair. The zero value is not
// valid; use Generate or FromPrivateKey.
type Identity struct {
	public  ed25519.PublicKey
	private ed25519.PrivateKey // nil for identities that only hold a public key
}

// Generate creates a fresh random Identity.
func Generate() (Identity, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return Identity{}, fmt.Errorf("identity: generate: %w", err)
	}
	return Identity{public: pub, private: priv}, nil
}

// FromPrivateKey builds an Identity from an existing 64-byte Ed25519 private
// key.
func FromPrivateKey(priv ed25519.PrivateKey) (Identity, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return Identity{}, fmt.Errorf("identity: bad private key length %d", len(priv))
	}
	pub := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(pub, priv[32:])
	return Identity{public: pub, private: priv}, nil
}

// FromPublicKey builds a public-only Identity, sufficient for verifying a
// remote peer's identity and for deriving its PeerID, but not for Agree.
func FromPublicKey(pub ed25519.PublicKey) (Identity, error) {
	if len(pub) != ed25519.PublicKeySize {
		return Identity{}, fmt.Errorf("identity: bad public key length %d", len(pub))
	}
	cp := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(cp, pub)
	return Identity{public: cp}, nil
}

// PublicKey returns the identity's Ed25519 public key.
func (id Identity) PublicKey() ed25519.PublicKey {
	return id.public
}

// HasPrivateKey reports whether this Identity can sign or Agree.
func (id Identity) HasPrivateKey() bool {
	return len(id.private) == ed25519.PrivateKeySize
}

// PrivateKeyBytes returns the raw 64-byte Ed25519 private key, for callers
// that need to persist an Identity (e.g. to a key file) and later rebuild
// it with FromPrivateKey. Returns nil if HasPrivateKey is false.
func (id Identity) PrivateKeyBytes() ed25519.PrivateKey {
	if !id.HasPrivateKey() {
		return nil
	}
	out := make(ed25519.PrivateKey, ed25519.PrivateKeySize)
	copy(out, id.private)
	return out
}

// PeerID derives the PeerID this identity is known by: SHA-256 of the raw
// Ed25519 public key, truncated to 32 bytes (SHA-256 already produces
// exactly 32).
func (id Identity) PeerID() types.PeerID {
	sum := sha256.Sum256(id.public)
	var out types.PeerID
	copy(out[:], sum[:])
	return out
}

// Sign signs msg with the identity's private key.
func (id Identity) Sign(msg []byte) ([]byte, error) {
	if !id.HasPrivateKey() {
		return nil, errors.New("identity: no private key to sign with")
	}
	return ed25519.Sign(id.private, msg), nil
}

// Verify checks a signature made by id.Sign against id's public key.
func (id Identity) Verify(msg, sig []byte) bool {
	return ed25519.Verify(id.public, msg, sig)
}

// Agree performs an X25519 Diffie-Hellman exchange between this identity's
// private key and other's public key, converting both Ed25519 keys to
// Curve25519 form first. The result is a 32-byte shared secret suitable for
// use as a Peer's sharedSecret (spec §4.1).
func (id Identity) Agree(other Identity) ([]byte, error) {
	if !id.HasPrivateKey() {
		return nil, fmt.Errorf("%w: local identity has no private key", ErrKeyAgreementFailed)
	}
	dh := noise.DH25519

	localPriv := ed25519ToCurve25519Private(id.private)
	remotePub := ed25519ToCurve25519Public(other.public)

	keypair := noise.DHKey{
		Private: localPriv,
		Public:  ed25519ToCurve25519Public(id.public),
	}

	secret, err := dh.DH(keypair.Private, remotePub)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyAgreementFailed, err)
	}
	return secret, nil
}

// ed25519ToCurve25519Private converts an Ed25519 private key (seed or full
// 64-byte form) to its Curve25519 (X25519) counterpart: SHA-512 the seed,
// take the first 32 bytes, clamp per RFC 7748.
func ed25519ToCurve25519Private(edPriv ed25519.PrivateKey) []byte {
	var seed []byte
	switch len(edPriv) {
	case ed25519.PrivateKeySize:
		seed = edPriv[:32]
	case 32:
		seed = edPriv
	default:
		return make([]byte, 32)
	}

	h := sha512.Sum512(seed)
	h[0] &= 248
	h[31] &= 127
	h[31] |= 64
	return h[:32]
}

// ed25519ToCurve25519Public converts an Ed25519 public key (an Edwards
// curve point) to its Curve25519 Montgomery-form counterpart via
// u = (1+y)/(1-y).
func ed25519ToCurve25519Public(edPub ed25519.PublicKey) []byte {
	if len(edPub) != ed25519.PublicKeySize {
		return make([]byte, 32)
	}
	point, err := new(edwards25519.Point).SetBytes(edPub)
	if err != nil {
		return make([]byte, 32)
	}
	return point.BytesMontgomery()
}
