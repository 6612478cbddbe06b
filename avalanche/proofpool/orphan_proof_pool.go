// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proofpool

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/preconsensus/avalanche/proof"
	"github.com/ava-labs/preconsensus/ids"
	"github.com/ava-labs/preconsensus/utils/linked"
)

// OrphanProofPool holds proofs whose stakes can't be resolved against the
// current utxo set yet. It is bounded by the total number of stakes and
// evicts the oldest proofs first.
//
// OrphanProofPool is not safe for concurrent use.
type OrphanProofPool struct {
	metrics orphanMetrics

	maxNumberOfStakes int
	numStakes         int
	proofs            *linked.Hashmap[ids.ProofID, *proof.Proof]
}

func NewOrphanProofPool(maxNumberOfStakes int, namespace string, registerer prometheus.Registerer) (*OrphanProofPool, error) {
	pool := &OrphanProofPool{
		maxNumberOfStakes: maxNumberOfStakes,
		proofs:            linked.NewHashmap[ids.ProofID, *proof.Proof](),
	}
	if err := pool.metrics.initialize(namespace, registerer); err != nil {
		return nil, fmt.Errorf("couldn't initialize orphan pool metrics: %w", err)
	}
	return pool, nil
}

// AddProof appends [p] and then evicts the oldest proofs until the pool is
// within its stake budget, which can evict [p] itself. Returns false if the
// proof is already in the pool.
func (pool *OrphanProofPool) AddProof(p *proof.Proof) bool {
	if _, ok := pool.proofs.Get(p.ID()); ok {
		return false
	}

	pool.proofs.Put(p.ID(), p)
	pool.numStakes += p.StakeCount()
	pool.trimToMaximumSize()
	pool.updateMetrics()
	return true
}

func (pool *OrphanProofPool) trimToMaximumSize() {
	for pool.numStakes > pool.maxNumberOfStakes {
		proofID, oldest, ok := pool.proofs.Oldest()
		if !ok {
			return
		}
		pool.proofs.Delete(proofID)
		pool.numStakes -= oldest.StakeCount()
		pool.metrics.evicted.Inc()
	}
}

func (pool *OrphanProofPool) RemoveProof(proofID ids.ProofID) bool {
	p, ok := pool.proofs.Get(proofID)
	if !ok {
		return false
	}
	pool.proofs.Delete(proofID)
	pool.numStakes -= p.StakeCount()
	pool.updateMetrics()
	return true
}

func (pool *OrphanProofPool) GetProof(proofID ids.ProofID) (*proof.Proof, bool) {
	return pool.proofs.Get(proofID)
}

func (pool *OrphanProofPool) Exists(proofID ids.ProofID) bool {
	_, ok := pool.proofs.Get(proofID)
	return ok
}

func (pool *OrphanProofPool) NumProofs() int {
	return pool.proofs.Len()
}

func (pool *OrphanProofPool) NumStakes() int {
	return pool.numStakes
}

// Rescan empties the pool and offers every orphan to [registrar], oldest
// first. Proofs that are still orphans are expected to be added back by the
// registrar.
func (pool *OrphanProofPool) Rescan(registrar ProofRegistrar) {
	previous := make([]*proof.Proof, 0, pool.proofs.Len())
	for it := pool.proofs.NewIterator(); it.Next(); {
		previous = append(previous, it.Value())
	}
	pool.proofs.Clear()
	pool.numStakes = 0
	pool.updateMetrics()

	for _, p := range previous {
		registrar.RegisterProof(p)
	}
}

func (pool *OrphanProofPool) updateMetrics() {
	pool.metrics.numProofs.Set(float64(pool.proofs.Len()))
	pool.metrics.numStakes.Set(float64(pool.numStakes))
}
