// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package peermanager

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/btree"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/exp/maps"

	"github.com/ava-labs/preconsensus/avalanche/chain"
	"github.com/ava-labs/preconsensus/avalanche/proof"
	"github.com/ava-labs/preconsensus/avalanche/proofpool"
	"github.com/ava-labs/preconsensus/ids"
	"github.com/ava-labs/preconsensus/utils/logging"
	"github.com/ava-labs/preconsensus/utils/sampler"
	"github.com/ava-labs/preconsensus/utils/set"
	"github.com/ava-labs/preconsensus/utils/timer/mockable"
)

const (
	defaultTreeDegree = 2

	// selectPeerMaxRetry bounds the number of draws made by SelectPeer
	// before giving up on a fragmented slot table.
	selectPeerMaxRetry = 3
	// selectNodeMaxRetry bounds the number of peers GetSuitableNodeToQuery
	// tries before giving up.
	selectNodeMaxRetry = 3
)

type peer struct {
	id    ids.PeerID
	score uint32
	index int
	proof *proof.Proof
	nodes int

	registrationTime         time.Time
	nextPossibleConflictTime time.Time
	hasFinalized             bool
}

func (p *peer) proofID() ids.ProofID {
	if p.proof == nil {
		return ids.Empty
	}
	return p.proof.ID()
}

// Peer is a snapshot of a peer handed out by ForEachPeer.
type Peer struct {
	ID        ids.PeerID
	Score     uint32
	Proof     *proof.Proof
	NodeCount int

	RegistrationTime         time.Time
	NextPossibleConflictTime time.Time
	HasFinalized             bool
}

// PeerManager maps stake weighted peers onto a contiguous selection space,
// binds network nodes to them and keeps track of the proofs backing them.
//
// Every peer owns a slot whose width is its score, so drawing a uniform
// value in [0, SlotCount()) selects a peer with a probability proportional
// to its score. Removing or shrinking a slot in the middle of the table
// leaves a hole that is only reclaimed by Compact.
//
// PeerManager is not safe for concurrent use.
type PeerManager struct {
	log     logging.Logger
	config  Config
	view    chain.UTXOView
	rng     *sampler.RNG
	clock   mockable.Clock
	metrics metrics

	slots         []Slot
	slotCount     uint64
	fragmentation uint64

	nextPeerID     ids.PeerID
	peers          map[ids.PeerID]*peer
	peersByProofID map[ids.ProofID]*peer
	totalScore     uint64

	nodes map[ids.NodeID]*node
	// nodesByRequestTime orders the nodes by (peer, next request time).
	nodesByRequestTime *btree.BTreeG[*node]
	pendingNodes       map[ids.NodeID]pendingNode
	pendingByProofID   map[ids.ProofID]set.Set[ids.NodeID]

	validProofPool       *proofpool.ProofPool
	conflictingProofPool *proofpool.ProofPool
	orphanProofPool      *proofpool.OrphanProofPool
	// Proofs dropped because no node was bound to their peer.
	danglingProofPool *proofpool.ProofPool

	needMoreNodes bool
}

func New(
	log logging.Logger,
	config Config,
	view chain.UTXOView,
	rng *sampler.RNG,
	namespace string,
	registerer prometheus.Registerer,
) (*PeerManager, error) {
	if err := config.Verify(); err != nil {
		return nil, err
	}

	pm := &PeerManager{
		log:                log,
		config:             config,
		view:               view,
		rng:                rng,
		peers:              make(map[ids.PeerID]*peer),
		peersByProofID:     make(map[ids.ProofID]*peer),
		nodes:              make(map[ids.NodeID]*node),
		nodesByRequestTime: btree.NewG(defaultTreeDegree, (*node).Less),
		pendingNodes:       make(map[ids.NodeID]pendingNode),
		pendingByProofID:   make(map[ids.ProofID]set.Set[ids.NodeID]),
	}

	var err error
	pm.validProofPool, err = proofpool.New(namespace+"_valid_proofs", registerer)
	if err != nil {
		return nil, err
	}
	pm.conflictingProofPool, err = proofpool.New(namespace+"_conflicting_proofs", registerer)
	if err != nil {
		return nil, err
	}
	pm.orphanProofPool, err = proofpool.NewOrphanProofPool(config.OrphanProofPoolMaxStakes, namespace+"_orphan_proofs", registerer)
	if err != nil {
		return nil, err
	}
	pm.danglingProofPool, err = proofpool.New(namespace+"_dangling_proofs", registerer)
	if err != nil {
		return nil, err
	}
	if err := pm.metrics.initialize(namespace, registerer); err != nil {
		return nil, fmt.Errorf("couldn't initialize peer manager metrics: %w", err)
	}
	return pm, nil
}

// AddPeer creates a peer that isn't backed by a proof and appends its slot
// to the end of the selection space.
func (pm *PeerManager) AddPeer(score uint32) ids.PeerID {
	p := pm.addPeer(score, nil)
	pm.updateMetrics()
	return p.id
}

func (pm *PeerManager) addPeer(score uint32, pr *proof.Proof) *peer {
	p := &peer{
		id:               pm.nextPeerID,
		score:            score,
		proof:            pr,
		registrationTime: pm.clock.Time(),
	}
	pm.nextPeerID++

	p.index = pm.appendSlot(score, p.id)
	pm.peers[p.id] = p
	if pr != nil {
		pm.peersByProofID[pr.ID()] = p
	}
	pm.totalScore += uint64(score)

	pm.log.Debug("peer added",
		zap.Stringer("peerID", p.id),
		zap.Uint32("score", score),
	)
	return p
}

func (pm *PeerManager) appendSlot(score uint32, peerID ids.PeerID) int {
	index := len(pm.slots)
	pm.slots = append(pm.slots, NewSlot(pm.slotCount, score, peerID))
	pm.slotCount += uint64(score)
	return index
}

// removeSlot releases the slot at [index]. A trailing slot is dropped along
// with the removed slots preceding it, any other slot becomes a hole.
func (pm *PeerManager) removeSlot(index int) {
	if index+1 < len(pm.slots) {
		pm.fragmentation += uint64(pm.slots[index].score)
		pm.slots[index] = pm.slots[index].WithPeerID(ids.NoPeer)
		return
	}

	end := pm.slotCount - uint64(pm.slots[index].score)
	pm.slots = pm.slots[:index]
	for len(pm.slots) > 0 && pm.slots[len(pm.slots)-1].peerID == ids.NoPeer {
		pm.slots = pm.slots[:len(pm.slots)-1]
	}
	if len(pm.slots) == 0 {
		pm.slotCount = 0
	} else {
		pm.slotCount = pm.slots[len(pm.slots)-1].Stop()
	}
	// Everything between the new end of the table and the removed slot was
	// wasted space.
	pm.fragmentation -= end - pm.slotCount
}

// RemovePeer removes the peer and releases its slot, its nodes and the
// utxos of its proof. Nodes of a proof backed peer wait for the proof to be
// registered again.
func (pm *PeerManager) RemovePeer(peerID ids.PeerID) bool {
	if !pm.removePeer(peerID) {
		return false
	}
	pm.updateMetrics()
	return true
}

func (pm *PeerManager) removePeer(peerID ids.PeerID) bool {
	p, ok := pm.peers[peerID]
	if !ok {
		return false
	}

	for _, n := range pm.nodesOf(peerID) {
		pm.deleteNode(n)
		if p.proof != nil {
			pm.addPendingNode(n.id, p.proof.ID(), n.pubKey)
		}
	}

	if p.proof != nil {
		proofID := p.proof.ID()
		pm.validProofPool.RemoveProof(proofID)
		delete(pm.peersByProofID, proofID)
	}

	pm.removeSlot(p.index)
	delete(pm.peers, peerID)
	pm.totalScore -= uint64(p.score)

	pm.log.Debug("peer removed",
		zap.Stringer("peerID", peerID),
		zap.Stringer("proofID", p.proofID()),
	)
	return true
}

// RescorePeer changes the score of the peer. The slot is resized in place
// when possible, otherwise it is moved to the end of the table and the old
// range becomes a hole. Holes are only reclaimed by Compact, which has to be
// run periodically.
func (pm *PeerManager) RescorePeer(peerID ids.PeerID, score uint32) bool {
	p, ok := pm.peers[peerID]
	if !ok {
		return false
	}

	var (
		i       = p.index
		current = pm.slots[i]
		stop    = current.start + uint64(score)
	)
	switch {
	case i+1 == len(pm.slots):
		pm.slots[i] = current.WithScore(score)
		pm.slotCount = stop
	case stop <= pm.slots[i+1].start:
		pm.fragmentation = pm.fragmentation + current.Stop() - stop
		pm.slots[i] = current.WithScore(score)
	default:
		pm.fragmentation += uint64(current.score)
		pm.slots[i] = current.WithPeerID(ids.NoPeer)
		p.index = pm.appendSlot(score, peerID)
	}

	pm.totalScore = pm.totalScore - uint64(p.score) + uint64(score)
	p.score = score
	pm.updateMetrics()
	return true
}

// SelectPeer draws a peer with a probability proportional to its score.
// ids.NoPeer is returned if there is no peer, or if every draw landed in a
// hole.
func (pm *PeerManager) SelectPeer() ids.PeerID {
	if len(pm.slots) == 0 || pm.slotCount == 0 {
		return ids.NoPeer
	}

	for retry := 0; retry < selectPeerMaxRetry; retry++ {
		peerID := SelectPeerImpl(pm.slots, pm.rng.Uint64n(pm.slotCount), pm.slotCount)
		if peerID != ids.NoPeer {
			return peerID
		}
	}
	return ids.NoPeer
}

// Compact rebuilds the slot table without holes and returns the size of
// the selection space that was reclaimed.
func (pm *PeerManager) Compact() uint64 {
	if pm.fragmentation == 0 {
		return 0
	}

	newSlots := make([]Slot, 0, len(pm.peers))
	prevStop := uint64(0)
	for _, s := range pm.slots {
		if s.peerID == ids.NoPeer {
			continue
		}

		pm.peers[s.peerID].index = len(newSlots)
		newSlots = append(newSlots, NewSlot(prevStop, s.score, s.peerID))
		prevStop += uint64(s.score)
	}

	saved := pm.slotCount - prevStop
	pm.slots = newSlots
	pm.slotCount = prevStop
	pm.fragmentation = 0

	pm.metrics.compactions.Inc()
	pm.updateMetrics()
	pm.log.Debug("compacted peer slots",
		zap.Uint64("reclaimed", saved),
		zap.Int("numSlots", len(newSlots)),
	)
	return saved
}

func (pm *PeerManager) SlotCount() uint64 {
	return pm.slotCount
}

// Fragmentation is the part of the selection space not owned by a peer.
func (pm *PeerManager) Fragmentation() uint64 {
	return pm.fragmentation
}

func (pm *PeerManager) PeerCount() int {
	return len(pm.peers)
}

// TotalScore is the sum of the scores of every peer.
func (pm *PeerManager) TotalScore() uint64 {
	return pm.totalScore
}

// ForEachPeer calls [f] on every peer, by increasing peer id.
func (pm *PeerManager) ForEachPeer(f func(Peer)) {
	peerIDs := maps.Keys(pm.peers)
	slices.Sort(peerIDs)
	for _, peerID := range peerIDs {
		f(pm.peers[peerID].snapshot())
	}
}

func (p *peer) snapshot() Peer {
	return Peer{
		ID:                       p.id,
		Score:                    p.score,
		Proof:                    p.proof,
		NodeCount:                p.nodes,
		RegistrationTime:         p.registrationTime,
		NextPossibleConflictTime: p.nextPossibleConflictTime,
		HasFinalized:             p.hasFinalized,
	}
}

// SetFinalized records that the proof of the peer was finalized by the
// network.
func (pm *PeerManager) SetFinalized(peerID ids.PeerID) bool {
	p, ok := pm.peers[peerID]
	if !ok {
		return false
	}
	p.hasFinalized = true
	return true
}

func (pm *PeerManager) updateMetrics() {
	pm.metrics.numPeers.Set(float64(len(pm.peers)))
	pm.metrics.numSlots.Set(float64(len(pm.slots)))
	pm.metrics.slotCount.Set(float64(pm.slotCount))
	pm.metrics.fragmentation.Set(float64(pm.fragmentation))
	pm.metrics.numNodes.Set(float64(len(pm.nodes)))
	pm.metrics.numPendingNodes.Set(float64(len(pm.pendingNodes)))
	pm.metrics.totalScore.Set(float64(pm.totalScore))
}
