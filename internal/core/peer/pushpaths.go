package peer

import (
	"context"
)

// pushDirectPaths implements spec §4.6. It is skipped entirely when
// clustering is enabled: cluster-based redirection supersedes it (spec
// §9, "Cluster redirect vs. direct-path push").
//
// Caller must hold p.mu.
func (p *Peer) pushDirectPaths(ctx context.Context, path Path, now uint64) bool {
	if p.cluster != nil {
		return false
	}
	if p.directPathPushed && now-p.lastDirectPathPushSent < uint64(DirectPathPushInterval.Milliseconds()) {
		return false
	}
	p.lastDirectPathPushSent = now
	p.directPathPushed = true

	candidates := p.node.DirectPaths()
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		seen[c.String()] = struct{}{}
	}

	predictions := p.selfAwareness.GetSymmetricNatPredictions()
	added := 0
	// Sample with replacement via PRNG, same as the original: at most
	// len(predictions) draws, so an exhausted predictor cannot spin
	// forever even though duplicates are discarded (spec §4.6).
	for attempt := 0; attempt < len(predictions) && added < MaxPerScopeAndFamily; attempt++ {
		pick := predictions[p.node.PRNG()%uint64(len(predictions))]
		if _, dup := seen[pick.String()]; dup {
			continue
		}
		seen[pick.String()] = struct{}{}
		candidates = append(candidates, pick)
		added++
	}

	if len(candidates) == 0 {
		return false
	}

	records := make([]PushDirectPathRecord, 0, len(candidates))
	for _, c := range candidates {
		records = append(records, PushDirectPathRecord{Endpoint: c})
	}

	packets, err := EncodePushDirectPathsPackets(records)
	if err != nil || len(packets) == 0 {
		return false
	}
	for _, pkt := range packets {
		path.Send(ctx, pkt, now)
	}
	return true
}
