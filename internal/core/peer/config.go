package peer

import "time"

// Protocol constants (spec §6). Values match the deployed protocol and
// must not be changed independently of the wire format they describe.
const (
	// MaxPaths is the fixed capacity of a Peer's path table.
	MaxPaths = 8

	// PathExpiration is how long a path may go without a receive before
	// Clean drops it.
	PathExpiration = 5 * time.Minute

	// PathAliveWindow is how recently a path must have received traffic
	// to be considered alive by the Scorer.
	PathAliveWindow = 30 * time.Second

	// PingPeriod is the interval at which an idle best path is re-pinged
	// with a HELLO.
	PingPeriod = 60 * time.Second

	// DirectPathPushInterval rate-limits pushDirectPaths.
	DirectPathPushInterval = 5 * time.Minute

	// MulticastLikeExpire bounds how often multicast groups are
	// re-announced to a peer.
	MulticastLikeExpire = 5 * time.Minute

	// MaxPerScopeAndFamily bounds how many SelfAwareness-predicted
	// addresses are sampled into a direct-path push.
	MaxPerScopeAndFamily = 4

	// SecretKeyLength is the length in bytes of a Peer's shared secret.
	SecretKeyLength = 32

	// ClusterRedirectBit flags a PUSH_DIRECT_PATHS record as a
	// cluster-issued redirect rather than an ordinary local address.
	ClusterRedirectBit uint8 = 0x01

	// maxPushDirectPathsPacketBytes bounds a single PUSH_DIRECT_PATHS
	// packet's payload (spec §4.6: "approximately 1200 bytes").
	maxPushDirectPathsPacketBytes = 1200

	// echoCapableMajor/Minor/Revision is the one reported remote version
	// that is probed with legacy HELLO even when its protocol version
	// would otherwise allow ECHO (see isEchoCapable).
	echoCapableMajor    = 1
	echoCapableMinor    = 1
	echoCapableRevision = 0

	// clusterRedirectCapableProtoVersion is the minimum reported protocol
	// version required to redirect via PUSH_DIRECT_PATHS rather than the
	// legacy RENDEZVOUS verb.
	clusterRedirectCapableProtoVersion = 5
)
