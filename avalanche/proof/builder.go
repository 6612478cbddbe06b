// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proof

import (
	"errors"
	"fmt"
	"slices"

	"github.com/ava-labs/preconsensus/ids"
	"github.com/ava-labs/preconsensus/utils/crypto/schnorr"
)

var errDuplicateUTXO = errors.New("duplicate utxo")

type stakeSigner struct {
	stake Stake
	key   *schnorr.PrivateKey
}

// Builder assembles and signs proofs.
type Builder struct {
	sequence       uint64
	expirationTime int64
	masterKey      *schnorr.PrivateKey
	payoutScript   []byte
	stakes         map[Outpoint]stakeSigner
}

func NewBuilder(sequence uint64, expirationTime int64, masterKey *schnorr.PrivateKey, payoutScript []byte) *Builder {
	return &Builder{
		sequence:       sequence,
		expirationTime: expirationTime,
		masterKey:      masterKey,
		payoutScript:   payoutScript,
		stakes:         make(map[Outpoint]stakeSigner),
	}
}

// AddUTXO stakes a coin owned by [key].
func (b *Builder) AddUTXO(utxo Outpoint, amount uint64, height uint32, isCoinbase bool, key *schnorr.PrivateKey) error {
	if _, ok := b.stakes[utxo]; ok {
		return fmt.Errorf("%w: %s", errDuplicateUTXO, utxo)
	}
	b.stakes[utxo] = stakeSigner{
		stake: Stake{
			UTXO:       utxo,
			Amount:     amount,
			Height:     height,
			IsCoinbase: isCoinbase,
			PubKey:     key.PublicKey(),
		},
		key: key,
	}
	return nil
}

// Build signs every stake and the proof itself.
func (b *Builder) Build() (*Proof, error) {
	type keyedStake struct {
		id ids.ID
		stakeSigner
	}
	sorted := make([]keyedStake, 0, len(b.stakes))
	for _, s := range b.stakes {
		sorted = append(sorted, keyedStake{
			id:          s.stake.ID(),
			stakeSigner: s,
		})
	}
	slices.SortFunc(sorted, func(a, b keyedStake) int {
		return a.id.Compare(b.id)
	})

	commitment := StakeCommitment(b.expirationTime, b.masterKey.PublicKey())
	stakes := make([]SignedStake, len(sorted))
	for i, s := range sorted {
		hash := s.stake.Hash(commitment)
		sig, err := s.key.SignHash(hash[:])
		if err != nil {
			return nil, err
		}
		stakes[i] = SignedStake{
			Stake:     s.stake,
			Signature: sig,
		}
	}

	limitedID := ComputeLimitedID(b.sequence, b.expirationTime, stakes, b.payoutScript)
	sig, err := b.masterKey.SignHash(limitedID[:])
	if err != nil {
		return nil, err
	}
	return New(
		b.sequence,
		b.expirationTime,
		b.masterKey.PublicKey(),
		stakes,
		b.payoutScript,
		sig,
	), nil
}
