// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proof

import (
	"fmt"

	"github.com/ava-labs/preconsensus/ids"
	"github.com/ava-labs/preconsensus/utils/crypto/schnorr"
	"github.com/ava-labs/preconsensus/utils/hashing"
	"github.com/ava-labs/preconsensus/utils/wrappers"
)

const (
	// txid + index + amount + height + pubkey
	stakeLen = ids.IDLen + wrappers.IntLen + wrappers.LongLen + wrappers.IntLen + wrappers.ByteLen + schnorr.PublicKeyLen

	signedStakeLen = stakeLen + schnorr.SignatureLen
)

// Outpoint references a transaction output.
type Outpoint struct {
	TxID  ids.ID
	Index uint32
}

func (o Outpoint) String() string {
	return fmt.Sprintf("%s:%d", o.TxID, o.Index)
}

// Compare orders outpoints by transaction id then by index.
func (o Outpoint) Compare(other Outpoint) int {
	if c := o.TxID.Compare(other.TxID); c != 0 {
		return c
	}
	switch {
	case o.Index < other.Index:
		return -1
	case o.Index > other.Index:
		return 1
	default:
		return 0
	}
}

// Stake commits a coin to a proof.
type Stake struct {
	UTXO       Outpoint
	Amount     uint64
	Height     uint32
	IsCoinbase bool
	PubKey     schnorr.PublicKey
}

// ID identifies the stake independently of the proof it belongs to. Stakes
// are sorted by ID inside a proof.
func (s *Stake) ID() ids.ID {
	p := wrappers.Packer{MaxSize: stakeLen}
	s.pack(&p)
	return hashing.ComputeDoubleHash256Array(p.Bytes)
}

// Hash is the digest signed by the stake's key. It binds the stake to the
// proof's expiration and master key through [commitment].
func (s *Stake) Hash(commitment ids.ID) ids.ID {
	p := wrappers.Packer{MaxSize: ids.IDLen + stakeLen}
	p.PackFixedBytes(commitment[:])
	s.pack(&p)
	return hashing.ComputeDoubleHash256Array(p.Bytes)
}

func (s *Stake) pack(p *wrappers.Packer) {
	p.PackFixedBytes(s.UTXO.TxID[:])
	p.PackInt(s.UTXO.Index)
	p.PackLong(s.Amount)
	heightAndCoinbase := s.Height << 1
	if s.IsCoinbase {
		heightAndCoinbase |= 1
	}
	p.PackInt(heightAndCoinbase)
	packPubKey(p, s.PubKey)
}

func (s *Stake) unpack(p *wrappers.Packer) {
	copy(s.UTXO.TxID[:], p.UnpackFixedBytes(ids.IDLen))
	s.UTXO.Index = p.UnpackInt()
	s.Amount = p.UnpackLong()
	heightAndCoinbase := p.UnpackInt()
	s.Height = heightAndCoinbase >> 1
	s.IsCoinbase = heightAndCoinbase&1 == 1
	s.PubKey = unpackPubKey(p)
}

// SignedStake is a stake along with the signature of its key.
type SignedStake struct {
	Stake
	Signature schnorr.Signature
}

// Verify checks the stake signature against [commitment].
func (s *SignedStake) Verify(commitment ids.ID) bool {
	hash := s.Hash(commitment)
	return s.PubKey.VerifyHash(hash[:], s.Signature)
}

func (s *SignedStake) pack(p *wrappers.Packer) {
	s.Stake.pack(p)
	p.PackFixedBytes(s.Signature[:])
}

func (s *SignedStake) unpack(p *wrappers.Packer) {
	s.Stake.unpack(p)
	copy(s.Signature[:], p.UnpackFixedBytes(schnorr.SignatureLen))
}

// StakeCommitment is the hash every stake signature commits to.
func StakeCommitment(expirationTime int64, master schnorr.PublicKey) ids.ID {
	p := wrappers.Packer{MaxSize: wrappers.LongLen + wrappers.ByteLen + schnorr.PublicKeyLen}
	p.PackLong(uint64(expirationTime))
	packPubKey(&p, master)
	return hashing.ComputeDoubleHash256Array(p.Bytes)
}

func packPubKey(p *wrappers.Packer, pk schnorr.PublicKey) {
	p.PackBytes(pk[:])
}

func unpackPubKey(p *wrappers.Packer) schnorr.PublicKey {
	var pk schnorr.PublicKey
	b := p.UnpackBytes()
	if p.Errored() {
		return pk
	}
	if len(b) != schnorr.PublicKeyLen {
		p.Add(fmt.Errorf("%w: got %d bytes", errInvalidPubKey, len(b)))
		return pk
	}
	copy(pk[:], b)
	return pk
}
