// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proofpool

import "github.com/ava-labs/preconsensus/avalanche/proof"

var _ ProofRegistrar = RegistrarFunc(nil)

// ProofRegistrar decides where a proof goes when a pool is rescanned.
type ProofRegistrar interface {
	// RegisterProof returns true if [p] was accepted as a peer.
	RegisterProof(p *proof.Proof) bool
}

// RegistrarFunc adapts a function to the ProofRegistrar interface.
type RegistrarFunc func(p *proof.Proof) bool

func (f RegistrarFunc) RegisterProof(p *proof.Proof) bool {
	return f(p)
}
