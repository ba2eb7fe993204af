package peer

import "errors"

// ErrKeyAgreementFailed is returned by NewPeer when the local and remote
// identities cannot agree on a shared secret. Construction failure is the
// only error that propagates out of this package (spec §7).
var ErrKeyAgreementFailed = errors.New("peer: key agreement failed")

// ErrUnknownAddressFamily is returned internally when an endpoint is
// neither IPv4 nor IPv6 and must be skipped rather than encoded.
var ErrUnknownAddressFamily = errors.New("peer: unknown address family")

// ErrMalformedWireMessage is returned by wire decoders on truncated or
// inconsistent input.
var ErrMalformedWireMessage = errors.New("peer: malformed wire message")
