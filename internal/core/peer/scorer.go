package peer

// pathScore computes a monotone uint64 score for e, higher is better,
// satisfying spec §4.2's four ordering properties:
//
//  1. alive dominates dead: bit 63 is set iff the path received within
//     PathAliveWindow.
//  2. freshness: among equally-alive, equally-optimal paths, higher
//     lastReceive scores higher (the low 62 bits carry lastReceive
//     directly — a Unix millisecond timestamp comfortably fits without
//     overflowing into the flag bits for the practical future).
//  3. cluster-optimal preferred: bit 62 is set iff the entry is not
//     flagged localClusterSuboptimal.
//  4. family neutral: family plays no part in the score, so v4 and v6
//     paths compare directly.
//
// Selectors compare with >= against a running max, so equal scores bias
// toward the later (higher-indexed) entry examined.
const (
	scoreAliveBit    = uint64(1) << 63
	scoreOptimalBit  = uint64(1) << 62
	scoreFreshMask   = scoreOptimalBit - 1
)

func pathScore(e PathEntry, now uint64) uint64 {
	score := e.LastReceive & scoreFreshMask
	if isAlive(e.LastReceive, now) {
		score |= scoreAliveBit
	}
	if !e.LocalClusterSuboptimal {
		score |= scoreOptimalBit
	}
	return score
}

// isAlive reports whether a receive at lastReceive is recent enough,
// relative to now, to be considered alive under PathAliveWindow.
func isAlive(lastReceive, now uint64) bool {
	if now < lastReceive {
		return true
	}
	return now-lastReceive <= uint64(PathAliveWindow.Milliseconds())
}
