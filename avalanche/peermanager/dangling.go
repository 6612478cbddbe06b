// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package peermanager

import (
	"go.uber.org/zap"

	"github.com/ava-labs/preconsensus/avalanche/proof"
	"github.com/ava-labs/preconsensus/avalanche/proofpool"
	"github.com/ava-labs/preconsensus/ids"
)

// CleanupDanglingProofs drops the peers that are backed by a proof but had
// no node bound for DanglingTimeout since they were registered. Their
// proofs move to the dangling pool and are only registered again once a node
// announces them. It returns the ids of the proofs that were dropped.
func (pm *PeerManager) CleanupDanglingProofs() []ids.ProofID {
	var (
		now      = pm.clock.Time()
		dangling []*proof.Proof
	)
	pm.ForEachPeer(func(p Peer) {
		if p.Proof == nil || p.NodeCount > 0 {
			return
		}
		if p.RegistrationTime.Add(pm.config.DanglingTimeout).After(now) {
			return
		}
		dangling = append(dangling, p.Proof)
	})

	proofIDs := make([]ids.ProofID, len(dangling))
	for i, p := range dangling {
		proofIDs[i] = p.ID()
		pm.rejectProof(proofIDs[i], RejectInvalidate)
		if status, _ := pm.danglingProofPool.AddProofIfPreferred(p); status == proofpool.Succeed {
			pm.log.Debug("proof dangling for too long",
				zap.Stringer("proofID", proofIDs[i]),
			)
		}
	}

	pm.needMoreNodes = len(dangling) > 0
	pm.updateMetrics()
	return proofIDs
}

func (pm *PeerManager) IsDangling(proofID ids.ProofID) bool {
	_, ok := pm.danglingProofPool.GetProof(proofID)
	return ok
}

// ShouldRequestMoreNodes returns true, once, after the peer manager ran out
// of nodes to query or dropped a dangling proof.
func (pm *PeerManager) ShouldRequestMoreNodes() bool {
	needMoreNodes := pm.needMoreNodes
	pm.needMoreNodes = false
	return needMoreNodes
}
