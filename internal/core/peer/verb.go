package peer

// Verb identifies the protocol verb of an inbound or outbound packet. Full
// verb dispatch lives outside this package (spec §1); the path manager
// only needs to recognize the handful of verbs that change its own
// behavior.
type Verb uint8

const (
	VerbOther Verb = iota
	VerbOK
	VerbError
	VerbHello
	VerbEcho
	VerbRendezvous
	VerbPushDirectPaths
	VerbFrame
	VerbExtFrame
	VerbMulticastFrame
)

// isClusterRedirectExempt reports whether v is one of the verbs the
// cluster-redirect check must never fire on (spec §4.3 step 1, resolved
// from the original source's exact exclusion list: OK, ERROR, RENDEZVOUS,
// PUSH_DIRECT_PATHS).
func isClusterRedirectExempt(v Verb) bool {
	switch v {
	case VerbOK, VerbError, VerbRendezvous, VerbPushDirectPaths:
		return true
	default:
		return false
	}
}
