// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proofpool

import (
	"fmt"
	"slices"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/preconsensus/avalanche/proof"
	"github.com/ava-labs/preconsensus/ids"
	"github.com/ava-labs/preconsensus/utils/set"
)

// AddProofStatus is the outcome of adding a proof to a ProofPool.
type AddProofStatus uint8

const (
	// Rejected means the proof conflicts with proofs already in the pool.
	Rejected AddProofStatus = iota
	// Succeed means the proof was added.
	Succeed
	// Duplicated means a proof with the same id is already in the pool.
	Duplicated
)

func (s AddProofStatus) String() string {
	switch s {
	case Rejected:
		return "rejected"
	case Succeed:
		return "succeed"
	case Duplicated:
		return "duplicated"
	default:
		return "unknown"
	}
}

// ConflictingProofSet holds the proofs a new proof conflicts with, ordered
// from the most to the least preferred.
type ConflictingProofSet []*proof.Proof

// ProofPool indexes proofs by the utxos they stake.
//
// A utxo is claimed by at most one proof. The pool is indexed by utxo and by
// proof id, and both indices are only ever modified by insert and erase.
//
// ProofPool is not safe for concurrent use.
type ProofPool struct {
	metrics metrics

	byUTXO map[proof.Outpoint]*proof.Proof
	byID   map[ids.ProofID]*proof.Proof
}

func New(namespace string, registerer prometheus.Registerer) (*ProofPool, error) {
	pp := &ProofPool{
		byUTXO: make(map[proof.Outpoint]*proof.Proof),
		byID:   make(map[ids.ProofID]*proof.Proof),
	}
	if err := pp.metrics.initialize(namespace, registerer); err != nil {
		return nil, fmt.Errorf("couldn't initialize proof pool metrics: %w", err)
	}
	return pp, nil
}

func (pp *ProofPool) insert(p *proof.Proof) {
	pp.byID[p.ID()] = p
	for _, stake := range p.Stakes() {
		pp.byUTXO[stake.UTXO] = p
	}
	pp.updateMetrics()
}

func (pp *ProofPool) erase(p *proof.Proof) {
	proofID := p.ID()
	delete(pp.byID, proofID)
	for _, stake := range p.Stakes() {
		if owner, ok := pp.byUTXO[stake.UTXO]; !ok || owner.ID() != proofID {
			panic(fmt.Sprintf("utxo %s is not indexed for proof %s", stake.UTXO, proofID))
		}
		delete(pp.byUTXO, stake.UTXO)
	}
	pp.updateMetrics()
}

func (pp *ProofPool) updateMetrics() {
	pp.metrics.numProofs.Set(float64(len(pp.byID)))
	pp.metrics.numUTXOs.Set(float64(len(pp.byUTXO)))
}

// AddProofIfNoConflict adds [p] unless it is already in the pool or one of
// its utxos is claimed by another proof. When the proof is rejected, the
// conflicting proofs are returned and the pool is left untouched.
func (pp *ProofPool) AddProofIfNoConflict(p *proof.Proof) (AddProofStatus, ConflictingProofSet) {
	if _, ok := pp.byID[p.ID()]; ok {
		return Duplicated, nil
	}

	conflicts := pp.conflictsOf(p)
	if len(conflicts) > 0 {
		return Rejected, conflicts
	}

	pp.insert(p)
	return Succeed, nil
}

// AddProofIfPreferred adds [p] and evicts every proof it conflicts with,
// provided [p] is preferred over all of them. The returned set holds the
// conflicting proofs, whether they were evicted or not.
func (pp *ProofPool) AddProofIfPreferred(p *proof.Proof) (AddProofStatus, ConflictingProofSet) {
	status, conflicts := pp.AddProofIfNoConflict(p)
	if status != Rejected {
		return status, conflicts
	}

	for _, conflict := range conflicts {
		if !proof.IsPreferred(p, conflict) {
			return Rejected, conflicts
		}
	}

	for _, conflict := range conflicts {
		pp.erase(conflict)
	}
	pp.insert(p)
	return Succeed, conflicts
}

func (pp *ProofPool) conflictsOf(p *proof.Proof) ConflictingProofSet {
	var (
		conflicts ConflictingProofSet
		seen      set.Set[ids.ProofID]
	)
	for _, stake := range p.Stakes() {
		owner, ok := pp.byUTXO[stake.UTXO]
		if !ok || seen.Contains(owner.ID()) {
			continue
		}
		seen.Add(owner.ID())
		conflicts = append(conflicts, owner)
	}
	sortByPreference(conflicts)
	return conflicts
}

// RemoveProof erases every entry of [proofID]. Returns false if the proof
// wasn't in the pool.
func (pp *ProofPool) RemoveProof(proofID ids.ProofID) bool {
	p, ok := pp.byID[proofID]
	if !ok {
		return false
	}
	pp.erase(p)
	return true
}

func (pp *ProofPool) GetProof(proofID ids.ProofID) (*proof.Proof, bool) {
	p, ok := pp.byID[proofID]
	return p, ok
}

// GetProofByUTXO returns the proof claiming [utxo].
func (pp *ProofPool) GetProofByUTXO(utxo proof.Outpoint) (*proof.Proof, bool) {
	p, ok := pp.byUTXO[utxo]
	return p, ok
}

// GetLowestScoreProof returns the least preferred proof of the pool.
func (pp *ProofPool) GetLowestScoreProof() (*proof.Proof, bool) {
	var lowest *proof.Proof
	for _, p := range pp.byID {
		if lowest == nil || proof.IsPreferred(lowest, p) {
			lowest = p
		}
	}
	return lowest, lowest != nil
}

// CountProofs returns the number of distinct proofs.
func (pp *ProofPool) CountProofs() int {
	return len(pp.byID)
}

// Size returns the number of utxo entries.
func (pp *ProofPool) Size() int {
	return len(pp.byUTXO)
}

// ForEachProof calls [f] on every proof, from the most to the least
// preferred.
func (pp *ProofPool) ForEachProof(f func(p *proof.Proof)) {
	for _, p := range pp.sortedProofs() {
		f(p)
	}
}

func (pp *ProofPool) sortedProofs() []*proof.Proof {
	proofs := make([]*proof.Proof, 0, len(pp.byID))
	for _, p := range pp.byID {
		proofs = append(proofs, p)
	}
	sortByPreference(proofs)
	return proofs
}

// Rescan empties the pool and offers every proof it held to [registrar],
// most preferred first. It returns the ids of the proofs the registrar
// accepted.
func (pp *ProofPool) Rescan(registrar ProofRegistrar) set.Set[ids.ProofID] {
	previous := pp.sortedProofs()
	clear(pp.byID)
	clear(pp.byUTXO)
	pp.updateMetrics()

	registered := set.NewSet[ids.ProofID](len(previous))
	for _, p := range previous {
		if registrar.RegisterProof(p) {
			registered.Add(p.ID())
		}
	}
	return registered
}

func sortByPreference(proofs []*proof.Proof) {
	slices.SortFunc(proofs, func(a, b *proof.Proof) int {
		switch {
		case proof.IsPreferred(a, b):
			return -1
		case proof.IsPreferred(b, a):
			return 1
		default:
			return 0
		}
	})
}
