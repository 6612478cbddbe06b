// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proof

import (
	"github.com/ava-labs/preconsensus/ids"
	"github.com/ava-labs/preconsensus/utils/crypto/schnorr"
)

// TestPayoutScript is a standard script used by generated proofs.
var TestPayoutScript = PayToPubKeyHash([20]byte{})

// TestOutpoint deterministically derives an outpoint from [seed] and [index].
func TestOutpoint(seed uint64, index uint32) Outpoint {
	return Outpoint{
		TxID:  ids.Empty.Prefix(seed),
		Index: index,
	}
}

// BuildTestProof creates a signed proof spending [utxos], each worth
// [amount], with a master key derived from [seed]. It panics on failure and
// is only meant for tests and simulations.
func BuildTestProof(seed uint64, sequence uint64, amount uint64, utxos ...Outpoint) *Proof {
	key := schnorr.TestKey(seed)
	b := NewBuilder(sequence, 0, key, TestPayoutScript)
	for _, utxo := range utxos {
		if err := b.AddUTXO(utxo, amount, 100, false, key); err != nil {
			panic(err)
		}
	}
	p, err := b.Build()
	if err != nil {
		panic(err)
	}
	return p
}

// BuildTestProofWithStakes creates a proof with [numStakes] fresh utxos.
func BuildTestProofWithStakes(seed uint64, numStakes int, amount uint64) *Proof {
	utxos := make([]Outpoint, numStakes)
	for i := range utxos {
		utxos[i] = TestOutpoint(seed, uint32(i))
	}
	return BuildTestProof(seed, 0, amount, utxos...)
}
