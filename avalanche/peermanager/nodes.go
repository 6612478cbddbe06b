// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package peermanager

import (
	"math"
	"time"

	"github.com/google/btree"
	"go.uber.org/zap"

	"github.com/ava-labs/preconsensus/avalanche/delegation"
	"github.com/ava-labs/preconsensus/ids"
	"github.com/ava-labs/preconsensus/utils/crypto/schnorr"
	"github.com/ava-labs/preconsensus/utils/set"
)

var _ btree.LessFunc[*node] = (*node).Less

type node struct {
	id              ids.NodeID
	peerID          ids.PeerID
	nextRequestTime time.Time
	pubKey          schnorr.PublicKey
}

// Less orders nodes by peer, then by next request time.
func (n *node) Less(other *node) bool {
	switch {
	case n.peerID != other.peerID:
		return n.peerID < other.peerID
	case !n.nextRequestTime.Equal(other.nextRequestTime):
		return n.nextRequestTime.Before(other.nextRequestTime)
	default:
		return n.id < other.id
	}
}

// pendingNode is a node that announced a proof we don't have a peer for.
type pendingNode struct {
	proofID ids.ProofID
	pubKey  schnorr.PublicKey
}

// AddNodeToPeer binds a new node to the peer. It fails if the peer doesn't
// exist or if the node is already bound.
func (pm *PeerManager) AddNodeToPeer(peerID ids.PeerID, nodeID ids.NodeID, pubKey schnorr.PublicKey) bool {
	p, ok := pm.peers[peerID]
	if !ok {
		return false
	}
	if _, ok := pm.nodes[nodeID]; ok {
		return false
	}

	pm.bindNode(p, nodeID, pubKey, time.Time{})
	pm.updateMetrics()
	return true
}

// AddNode binds the node to the peer of [proofID], moving it from its
// previous peer if needed. The node's key is the proof master key.
//
// If no peer has this proof, the node is unbound and waits for the proof to
// be registered, and false is returned.
func (pm *PeerManager) AddNode(nodeID ids.NodeID, proofID ids.ProofID) bool {
	added := pm.addNode(nodeID, proofID, schnorr.PublicKey{})
	pm.updateMetrics()
	return added
}

// AddNodeWithDelegation is AddNode for a node that proved it holds a key
// delegated by the proof master.
func (pm *PeerManager) AddNodeWithDelegation(nodeID ids.NodeID, d *delegation.Delegation) bool {
	pubKey, result := d.Verify()
	if result != delegation.Valid {
		pm.log.Debug("dropping node with invalid delegation",
			zap.Stringer("nodeID", nodeID),
			zap.Stringer("result", result),
		)
		return false
	}

	added := pm.addNode(nodeID, d.ProofID(), pubKey)
	pm.updateMetrics()
	return added
}

func (pm *PeerManager) addNode(nodeID ids.NodeID, proofID ids.ProofID, pubKey schnorr.PublicKey) bool {
	p, ok := pm.peersByProofID[proofID]
	if !ok {
		// A node can't be both bound and pending.
		pm.removeNode(nodeID)
		pm.addPendingNode(nodeID, proofID, pubKey)
		return false
	}

	// A node that was already bound keeps its next request time so switching
	// peers doesn't bypass its cooldown.
	var nextRequestTime time.Time
	if n, ok := pm.nodes[nodeID]; ok {
		nextRequestTime = n.nextRequestTime
		pm.deleteNode(n)
	}
	pm.bindNode(p, nodeID, pubKey, nextRequestTime)
	return true
}

func (pm *PeerManager) bindNode(p *peer, nodeID ids.NodeID, pubKey schnorr.PublicKey, nextRequestTime time.Time) {
	pm.removePendingNode(nodeID)

	if pubKey == (schnorr.PublicKey{}) && p.proof != nil {
		pubKey = p.proof.Master()
	}

	n := &node{
		id:              nodeID,
		peerID:          p.id,
		nextRequestTime: nextRequestTime,
		pubKey:          pubKey,
	}
	pm.nodes[nodeID] = n
	pm.nodesByRequestTime.ReplaceOrInsert(n)
	p.nodes++
}

// deleteNode unbinds [n] from its peer.
func (pm *PeerManager) deleteNode(n *node) {
	delete(pm.nodes, n.id)
	pm.nodesByRequestTime.Delete(n)
	if p, ok := pm.peers[n.peerID]; ok {
		p.nodes--
	}
}

// RemoveNode forgets the node, whether it is bound or pending.
func (pm *PeerManager) RemoveNode(nodeID ids.NodeID) bool {
	removed := pm.removeNode(nodeID)
	pm.updateMetrics()
	return removed
}

func (pm *PeerManager) removeNode(nodeID ids.NodeID) bool {
	if pm.removePendingNode(nodeID) {
		return true
	}

	n, ok := pm.nodes[nodeID]
	if !ok {
		return false
	}
	pm.deleteNode(n)
	return true
}

func (pm *PeerManager) addPendingNode(nodeID ids.NodeID, proofID ids.ProofID, pubKey schnorr.PublicKey) {
	pm.removePendingNode(nodeID)

	pm.pendingNodes[nodeID] = pendingNode{
		proofID: proofID,
		pubKey:  pubKey,
	}
	nodeIDs, ok := pm.pendingByProofID[proofID]
	if !ok {
		nodeIDs = set.NewSet[ids.NodeID](1)
	}
	nodeIDs.Add(nodeID)
	pm.pendingByProofID[proofID] = nodeIDs
}

func (pm *PeerManager) removePendingNode(nodeID ids.NodeID) bool {
	pending, ok := pm.pendingNodes[nodeID]
	if !ok {
		return false
	}

	delete(pm.pendingNodes, nodeID)
	nodeIDs := pm.pendingByProofID[pending.proofID]
	nodeIDs.Remove(nodeID)
	if nodeIDs.Len() == 0 {
		delete(pm.pendingByProofID, pending.proofID)
	}
	return true
}

// bindPendingNodes binds the nodes waiting for the proof of [p].
func (pm *PeerManager) bindPendingNodes(p *peer) {
	nodeIDs, ok := pm.pendingByProofID[p.proof.ID()]
	if !ok {
		return
	}
	for _, nodeID := range nodeIDs.List() {
		pending := pm.pendingNodes[nodeID]
		pm.bindNode(p, nodeID, pending.pubKey, time.Time{})
	}
}

func (pm *PeerManager) IsNodePending(nodeID ids.NodeID) bool {
	_, ok := pm.pendingNodes[nodeID]
	return ok
}

func (pm *PeerManager) PendingNodeCount() int {
	return len(pm.pendingNodes)
}

func (pm *PeerManager) NodeCount() int {
	return len(pm.nodes)
}

// GetNode returns the peer the node is bound to and the key it uses.
func (pm *PeerManager) GetNode(nodeID ids.NodeID) (ids.PeerID, schnorr.PublicKey, bool) {
	n, ok := pm.nodes[nodeID]
	if !ok {
		return ids.NoPeer, schnorr.PublicKey{}, false
	}
	return n.peerID, n.pubKey, true
}

// UpdateNextRequestTime sets the time before which the node must not be
// queried.
func (pm *PeerManager) UpdateNextRequestTime(nodeID ids.NodeID, nextRequestTime time.Time) bool {
	n, ok := pm.nodes[nodeID]
	if !ok {
		return false
	}

	pm.nodesByRequestTime.Delete(n)
	n.nextRequestTime = nextRequestTime
	pm.nodesByRequestTime.ReplaceOrInsert(n)
	return true
}

// GetSuitableNodeToQuery picks a peer at random, weighted by score, and
// returns its node with the earliest next request time if that node can be
// queried now. The slot table is compacted whenever a draw fails. ids.NoNode
// is returned if no node was found after a few attempts, and
// ShouldRequestMoreNodes reports it.
func (pm *PeerManager) GetSuitableNodeToQuery() ids.NodeID {
	now := pm.clock.Time()
	for retry := 0; retry < selectNodeMaxRetry; retry++ {
		peerID := pm.SelectPeer()
		if peerID == ids.NoPeer {
			pm.Compact()
			continue
		}

		n, ok := pm.earliestNodeOf(peerID)
		if ok && !n.nextRequestTime.After(now) {
			return n.id
		}
	}
	pm.needMoreNodes = true
	return ids.NoNode
}

func (pm *PeerManager) earliestNodeOf(peerID ids.PeerID) (*node, bool) {
	var earliest *node
	pm.nodesByRequestTime.AscendGreaterOrEqual(
		&node{
			id:     math.MinInt64,
			peerID: peerID,
		},
		func(n *node) bool {
			if n.peerID == peerID {
				earliest = n
			}
			return false
		},
	)
	return earliest, earliest != nil
}

// nodesOf returns the nodes bound to [peerID], by next request time.
func (pm *PeerManager) nodesOf(peerID ids.PeerID) []*node {
	var nodes []*node
	pm.nodesByRequestTime.AscendGreaterOrEqual(
		&node{
			id:     math.MinInt64,
			peerID: peerID,
		},
		func(n *node) bool {
			if n.peerID != peerID {
				return false
			}
			nodes = append(nodes, n)
			return true
		},
	)
	return nodes
}
