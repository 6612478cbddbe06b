// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package peermanager

import (
	"github.com/ava-labs/preconsensus/avalanche/proof"
	"github.com/ava-labs/preconsensus/ids"
)

// Verify returns true if the internal state of the PeerManager is
// consistent. It walks every structure and is meant for tests.
func (pm *PeerManager) Verify() bool {
	return pm.verifySlots() && pm.verifyPeers() && pm.verifyNodes()
}

func (pm *PeerManager) verifySlots() bool {
	var (
		prevStop  uint64
		liveScore uint64
	)
	for i, s := range pm.slots {
		if s.start < prevStop {
			return false
		}
		prevStop = s.Stop()

		if s.peerID == ids.NoPeer {
			continue
		}

		p, ok := pm.peers[s.peerID]
		if !ok || p.index != i || p.score != s.score {
			return false
		}
		liveScore += uint64(s.score)
	}

	return prevStop == pm.slotCount &&
		pm.slotCount-liveScore == pm.fragmentation &&
		liveScore == pm.totalScore
}

func (pm *PeerManager) verifyPeers() bool {
	var (
		totalScore uint64
		numUTXOs   int
		numProofs  int
		seen       = make(map[proof.Outpoint]struct{})
	)
	for peerID, p := range pm.peers {
		totalScore += uint64(p.score)
		if p.id != peerID || p.index >= len(pm.slots) || pm.slots[p.index].peerID != peerID {
			return false
		}
		if p.nodes != len(pm.nodesOf(peerID)) {
			return false
		}

		if p.proof == nil {
			continue
		}
		numProofs++
		if pm.peersByProofID[p.proof.ID()] != p {
			return false
		}
		for _, ss := range p.proof.Stakes() {
			owner, ok := pm.validProofPool.GetProofByUTXO(ss.UTXO)
			if !ok || owner != p.proof {
				return false
			}
			if _, ok := seen[ss.UTXO]; ok {
				return false
			}
			seen[ss.UTXO] = struct{}{}
			numUTXOs++
		}
	}

	return totalScore == pm.totalScore &&
		numProofs == len(pm.peersByProofID) &&
		numProofs == pm.validProofPool.CountProofs() &&
		numUTXOs == pm.validProofPool.Size()
}

func (pm *PeerManager) verifyNodes() bool {
	if pm.nodesByRequestTime.Len() != len(pm.nodes) {
		return false
	}
	for nodeID, n := range pm.nodes {
		if n.id != nodeID {
			return false
		}
		if _, ok := pm.peers[n.peerID]; !ok {
			return false
		}
		if _, ok := pm.pendingNodes[nodeID]; ok {
			return false
		}
	}

	numPending := 0
	for proofID, nodeIDs := range pm.pendingByProofID {
		for nodeID := range nodeIDs {
			if pm.pendingNodes[nodeID].proofID != proofID {
				return false
			}
			numPending++
		}
	}
	return numPending == len(pm.pendingNodes)
}
