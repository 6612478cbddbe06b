// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package delegation

import (
	"errors"
	"slices"

	"github.com/ava-labs/preconsensus/avalanche/proof"
	"github.com/ava-labs/preconsensus/ids"
	"github.com/ava-labs/preconsensus/utils/crypto/schnorr"
)

var errWrongKey = errors.New("key does not match the delegated public key")

// Builder extends a delegation one level at a time.
type Builder struct {
	limitedProofID ids.LimitedProofID
	proofMaster    schnorr.PublicKey
	hash           ids.ID
	levels         []Level
}

// NewBuilder starts a delegation from the master key of a proof.
func NewBuilder(limitedProofID ids.LimitedProofID, proofMaster schnorr.PublicKey) *Builder {
	return &Builder{
		limitedProofID: limitedProofID,
		proofMaster:    proofMaster,
		hash:           proof.ComputeID(limitedProofID, proofMaster),
	}
}

// NewBuilderFromProof starts a delegation from [p].
func NewBuilderFromProof(p *proof.Proof) *Builder {
	return NewBuilder(p.LimitedID(), p.Master())
}

// NewBuilderFromDelegation extends an existing delegation.
func NewBuilderFromDelegation(d *Delegation) *Builder {
	b := NewBuilder(d.LimitedProofID, d.ProofMaster)
	for _, level := range d.Levels {
		b.hash = levelHash(b.hash, level.PubKey)
		b.levels = append(b.levels, level)
	}
	return b
}

func (b *Builder) delegatedPubKey() schnorr.PublicKey {
	if len(b.levels) == 0 {
		return b.proofMaster
	}
	return b.levels[len(b.levels)-1].PubKey
}

// AddLevel delegates from [key], which must own the currently delegated
// public key, to [newPubKey].
func (b *Builder) AddLevel(key *schnorr.PrivateKey, newPubKey schnorr.PublicKey) error {
	if key.PublicKey() != b.delegatedPubKey() {
		return errWrongKey
	}

	hash := levelHash(b.hash, newPubKey)
	sig, err := key.SignHash(hash[:])
	if err != nil {
		return err
	}
	b.hash = hash
	b.levels = append(b.levels, Level{
		PubKey:    newPubKey,
		Signature: sig,
	})
	return nil
}

func (b *Builder) Build() *Delegation {
	return &Delegation{
		LimitedProofID: b.limitedProofID,
		ProofMaster:    b.proofMaster,
		Levels:         slices.Clone(b.levels),
	}
}
