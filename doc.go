// Package overlay is the root of a peer-to-peer overlay network node.
//
// The module's centerpiece is internal/core/peer: the per-remote-peer path
// manager that tracks reachable network paths to a remote identity, scores
// and selects among them, learns new paths from inbound traffic, keeps NATs
// open, and participates in optional cluster-based path redirection.
//
// Cryptographic identity, packet framing/MAC, and higher-level protocol
// dispatch live in sibling packages and are consumed by the path manager
// through narrow collaborator interfaces (see internal/core/peer/
// collaborators.go) rather than being reimplemented here.
package overlay
