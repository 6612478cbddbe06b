// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package peermanager

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ava-labs/preconsensus/avalanche/chain"
	"github.com/ava-labs/preconsensus/avalanche/proof"
	"github.com/ava-labs/preconsensus/avalanche/proofpool"
	"github.com/ava-labs/preconsensus/ids"
	"github.com/ava-labs/preconsensus/utils/set"
)

// RegisterProof validates [p] against the chain and creates a peer for it.
//
// A proof whose coins are missing or immature is kept as an orphan. A proof
// conflicting with registered proofs replaces them if it is preferred and
// the conflict cooldown of the registered proofs elapsed, otherwise it is
// moved to the conflicting pool.
func (pm *PeerManager) RegisterProof(p *proof.Proof) (bool, RegistrationResult) {
	return pm.registerProofWithMode(p, defaultRegistration)
}

// ForceAcceptProof registers [p] even if it loses a conflict. The proofs it
// conflicts with are moved to the conflicting pool.
func (pm *PeerManager) ForceAcceptProof(p *proof.Proof) (bool, RegistrationResult) {
	return pm.registerProofWithMode(p, forceAccept)
}

func (pm *PeerManager) registerProofWithMode(p *proof.Proof, mode registrationMode) (bool, RegistrationResult) {
	result := pm.registerProof(p, mode)
	pm.metrics.registrations.WithLabelValues(result.String()).Inc()
	pm.updateMetrics()

	if result != Registered {
		pm.log.Debug("proof not registered",
			zap.Stringer("proofID", p.ID()),
			zap.Stringer("result", result),
		)
		return false, result
	}
	return true, Registered
}

func (pm *PeerManager) registerProof(p *proof.Proof, mode registrationMode) RegistrationResult {
	proofID := p.ID()
	if (mode != forceAccept || !pm.IsInConflictingPool(proofID)) && pm.exists(proofID) {
		return AlreadyRegistered
	}

	if pm.IsDangling(proofID) && pm.pendingByProofID[proofID].Len() == 0 {
		// Wait for a node announcing the proof before trying it again.
		pm.needMoreNodes = true
		return Dangling
	}

	switch result := chain.VerifyProof(p, pm.view, pm.config.StakeUTXODustThreshold, pm.config.StakeUTXOConfirmations); result {
	case proof.Valid:
	case proof.MissingUTXO, proof.ImmatureUTXO:
		pm.orphanProofPool.AddProof(p)
		return Orphan
	default:
		pm.log.Debug("invalid proof",
			zap.Stringer("proofID", proofID),
			zap.Stringer("reason", result),
		)
		return Invalid
	}

	var (
		now          = pm.clock.Time()
		nextCooldown = now.Add(pm.config.ConflictingProofCooldown)
	)
	status, conflicts := pm.validProofPool.AddProofIfNoConflict(p)
	switch status {
	case proofpool.Succeed:
	case proofpool.Duplicated:
		return AlreadyRegistered
	case proofpool.Rejected:
		if mode == forceAccept {
			pm.conflictingProofPool.RemoveProof(proofID)
			pm.moveToConflictingPool(conflicts)
			if status, _ := pm.validProofPool.AddProofIfNoConflict(p); status != proofpool.Succeed {
				panic(fmt.Sprintf("proof %s still conflicts after its conflicts were removed", proofID))
			}
			break
		}

		// The utxos of a peer can't change hands before its cooldown elapsed.
		// Every attempt pushes the cooldown back.
		cooldownElapsed := true
		for _, conflict := range conflicts {
			conflictingPeer := pm.peersByProofID[conflict.ID()]
			if conflictingPeer.nextPossibleConflictTime.After(now) {
				cooldownElapsed = false
			}
			if nextCooldown.After(conflictingPeer.nextPossibleConflictTime) {
				conflictingPeer.nextPossibleConflictTime = nextCooldown
			}
		}
		if !cooldownElapsed {
			return CooldownNotElapsed
		}

		if status, _ := pm.validProofPool.AddProofIfPreferred(p); status == proofpool.Succeed {
			pm.moveToConflictingPool(conflicts)
			break
		}

		if status, _ := pm.conflictingProofPool.AddProofIfPreferred(p); status == proofpool.Rejected {
			return Rejected
		}
		return Conflicting
	}

	pm.conflictingProofPool.RemoveProof(proofID)
	pm.orphanProofPool.RemoveProof(proofID)
	pm.danglingProofPool.RemoveProof(proofID)

	newPeer := pm.addPeer(p.Score(), p)
	newPeer.nextPossibleConflictTime = nextCooldown
	pm.bindPendingNodes(newPeer)
	return Registered
}

// moveToConflictingPool removes the peers of [proofs] and keeps the proofs
// around in case the proof that replaced them goes away.
func (pm *PeerManager) moveToConflictingPool(proofs proofpool.ConflictingProofSet) {
	for _, p := range proofs {
		if conflictingPeer, ok := pm.peersByProofID[p.ID()]; ok {
			pm.removePeer(conflictingPeer.id)
		}
		pm.conflictingProofPool.AddProofIfPreferred(p)
	}
}

// RejectProof removes the proof from the pools and the peers. With
// RejectDefault a registered proof is kept in the conflicting pool, with
// RejectInvalidate it is dropped, even from the dangling pool. When a registered proof is rejected, the
// conflicting proofs it was holding back get a chance to be registered.
func (pm *PeerManager) RejectProof(proofID ids.ProofID, mode RejectionMode) bool {
	rejected := pm.rejectProof(proofID, mode)
	pm.updateMetrics()
	return rejected
}

func (pm *PeerManager) rejectProof(proofID ids.ProofID, mode RejectionMode) bool {
	if mode == RejectInvalidate && pm.danglingProofPool.RemoveProof(proofID) {
		return true
	}

	if !pm.exists(proofID) {
		return false
	}

	if pm.orphanProofPool.RemoveProof(proofID) {
		return true
	}

	if _, ok := pm.conflictingProofPool.GetProof(proofID); ok {
		if mode == RejectInvalidate {
			pm.conflictingProofPool.RemoveProof(proofID)
		}
		return true
	}

	rejectedPeer := pm.peersByProofID[proofID]
	rejected := rejectedPeer.proof
	if !pm.removePeer(rejectedPeer.id) {
		return false
	}

	for _, ss := range rejected.Stakes() {
		conflict, ok := pm.conflictingProofPool.GetProofByUTXO(ss.UTXO)
		if !ok {
			continue
		}
		pm.conflictingProofPool.RemoveProof(conflict.ID())
		pm.registerProof(conflict, defaultRegistration)
	}

	if mode == RejectDefault {
		pm.conflictingProofPool.AddProofIfPreferred(rejected)
	}

	pm.log.Debug("proof rejected",
		zap.Stringer("proofID", proofID),
		zap.Bool("invalidated", mode == RejectInvalidate),
	)
	return true
}

// UpdatedBlockTip revalidates every registered proof against the new chain
// tip and retries the orphans. It returns the ids of the proofs that became
// peers.
func (pm *PeerManager) UpdatedBlockTip() set.Set[ids.ProofID] {
	var (
		invalidProofIDs []ids.ProofID
		newOrphans      []*proof.Proof
	)
	for _, proofID := range pm.registeredProofIDs() {
		p := pm.peersByProofID[proofID].proof
		result := chain.VerifyProof(p, pm.view, pm.config.StakeUTXODustThreshold, pm.config.StakeUTXOConfirmations)
		if result == proof.Valid {
			continue
		}

		pm.log.Debug("invalidating proof",
			zap.Stringer("proofID", proofID),
			zap.Stringer("reason", result),
		)
		invalidProofIDs = append(invalidProofIDs, proofID)
		if result == proof.MissingUTXO || result == proof.ImmatureUTXO {
			newOrphans = append(newOrphans, p)
		}
	}

	// Invalid proofs are removed first so the orphans can claim their utxos.
	for _, proofID := range invalidProofIDs {
		pm.rejectProof(proofID, RejectInvalidate)
	}

	registered := set.Set[ids.ProofID]{}
	pm.orphanProofPool.Rescan(proofpool.RegistrarFunc(func(p *proof.Proof) bool {
		if pm.registerProof(p, defaultRegistration) != Registered {
			return false
		}
		registered.Add(p.ID())
		return true
	}))

	for _, p := range newOrphans {
		pm.orphanProofPool.AddProof(p)
	}

	pm.updateMetrics()
	return registered
}

// registeredProofIDs returns the proofs backing a peer, by increasing peer
// id.
func (pm *PeerManager) registeredProofIDs() []ids.ProofID {
	proofIDs := make([]ids.ProofID, 0, len(pm.peersByProofID))
	pm.ForEachPeer(func(p Peer) {
		if p.Proof != nil {
			proofIDs = append(proofIDs, p.Proof.ID())
		}
	})
	return proofIDs
}

// BlockConnected and BlockDisconnected implement chain.Notifications.
func (pm *PeerManager) BlockConnected(uint32) {
	pm.UpdatedBlockTip()
}

func (pm *PeerManager) BlockDisconnected(uint32) {
	pm.UpdatedBlockTip()
}

func (*PeerManager) TransactionAdded(ids.ID) {}

func (*PeerManager) TransactionRemoved(ids.ID) {}

func (pm *PeerManager) exists(proofID ids.ProofID) bool {
	return pm.IsBoundToPeer(proofID) ||
		pm.IsInConflictingPool(proofID) ||
		pm.IsOrphan(proofID)
}

// GetProof returns the proof from the peers, the conflicting pool or the
// orphan pool.
func (pm *PeerManager) GetProof(proofID ids.ProofID) (*proof.Proof, bool) {
	if p, ok := pm.peersByProofID[proofID]; ok {
		return p.proof, true
	}
	if p, ok := pm.conflictingProofPool.GetProof(proofID); ok {
		return p, true
	}
	return pm.orphanProofPool.GetProof(proofID)
}

// GetPeerID returns the peer backed by the proof.
func (pm *PeerManager) GetPeerID(proofID ids.ProofID) (ids.PeerID, bool) {
	p, ok := pm.peersByProofID[proofID]
	if !ok {
		return ids.NoPeer, false
	}
	return p.id, true
}

func (pm *PeerManager) IsBoundToPeer(proofID ids.ProofID) bool {
	_, ok := pm.peersByProofID[proofID]
	return ok
}

func (pm *PeerManager) IsOrphan(proofID ids.ProofID) bool {
	return pm.orphanProofPool.Exists(proofID)
}

func (pm *PeerManager) IsInConflictingPool(proofID ids.ProofID) bool {
	_, ok := pm.conflictingProofPool.GetProof(proofID)
	return ok
}
