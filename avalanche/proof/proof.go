// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proof

import (
	"bytes"
	"errors"
	"math"
	"time"

	"github.com/ava-labs/preconsensus/ids"
	"github.com/ava-labs/preconsensus/utils/crypto/schnorr"
	"github.com/ava-labs/preconsensus/utils/hashing"
	safemath "github.com/ava-labs/preconsensus/utils/math"
	"github.com/ava-labs/preconsensus/utils/wrappers"
)

const (
	// MaxProofStakes is the largest number of stakes a valid proof may hold.
	MaxProofStakes = 1000

	// DustThreshold is the default minimum amount of a single stake.
	DustThreshold = 10_000_000_000

	// scoreUnit is the amount that is worth one point of score.
	scoreUnit = 1_000_000

	maxPayoutScriptLen = 10_000
)

var (
	errInvalidPubKey = errors.New("invalid public key")
	errTrailingBytes = errors.New("trailing bytes")
)

// Proof binds a set of stakes to a master key. Proofs are immutable once
// created and are shared by pointer.
type Proof struct {
	sequence       uint64
	expirationTime int64
	master         schnorr.PublicKey
	stakes         []SignedStake
	payoutScript   []byte
	signature      schnorr.Signature

	limitedID   ids.LimitedProofID
	id          ids.ProofID
	totalAmount uint64
	score       uint32
}

// New returns a proof built from its parts. It does not check any signature.
func New(
	sequence uint64,
	expirationTime int64,
	master schnorr.PublicKey,
	stakes []SignedStake,
	payoutScript []byte,
	signature schnorr.Signature,
) *Proof {
	p := &Proof{
		sequence:       sequence,
		expirationTime: expirationTime,
		master:         master,
		stakes:         stakes,
		payoutScript:   payoutScript,
		signature:      signature,
	}
	p.initialize()
	return p
}

func (p *Proof) initialize() {
	p.limitedID = ComputeLimitedID(p.sequence, p.expirationTime, p.stakes, p.payoutScript)
	p.id = ComputeID(p.limitedID, p.master)

	var err error
	for i := range p.stakes {
		p.totalAmount, err = safemath.Add(p.totalAmount, p.stakes[i].Amount)
		if err != nil {
			p.totalAmount = math.MaxUint64
			break
		}
	}
	p.score = uint32(min(p.totalAmount/scoreUnit, math.MaxUint32))
}

// ComputeLimitedID hashes everything but the master key.
func ComputeLimitedID(sequence uint64, expirationTime int64, stakes []SignedStake, payoutScript []byte) ids.LimitedProofID {
	p := wrappers.Packer{MaxSize: math.MaxInt32}
	p.PackLong(sequence)
	p.PackLong(uint64(expirationTime))
	p.PackBytes(payoutScript)
	p.PackCompactSize(uint64(len(stakes)))
	for i := range stakes {
		stakes[i].Stake.pack(&p)
	}
	return hashing.ComputeDoubleHash256Array(p.Bytes)
}

// ComputeID extends the limited id with the master key.
func ComputeID(limitedID ids.LimitedProofID, master schnorr.PublicKey) ids.ProofID {
	p := wrappers.Packer{MaxSize: ids.IDLen + wrappers.ByteLen + schnorr.PublicKeyLen}
	p.PackFixedBytes(limitedID[:])
	packPubKey(&p, master)
	return hashing.ComputeDoubleHash256Array(p.Bytes)
}

func (p *Proof) ID() ids.ProofID {
	return p.id
}

func (p *Proof) LimitedID() ids.LimitedProofID {
	return p.limitedID
}

func (p *Proof) Sequence() uint64 {
	return p.sequence
}

func (p *Proof) ExpirationTime() int64 {
	return p.expirationTime
}

func (p *Proof) Master() schnorr.PublicKey {
	return p.master
}

// Stakes must not be modified by the caller.
func (p *Proof) Stakes() []SignedStake {
	return p.stakes
}

func (p *Proof) StakeCount() int {
	return len(p.stakes)
}

func (p *Proof) PayoutScript() []byte {
	return p.payoutScript
}

func (p *Proof) Signature() schnorr.Signature {
	return p.signature
}

func (p *Proof) TotalAmount() uint64 {
	return p.totalAmount
}

// Score is the stake weight of the proof.
func (p *Proof) Score() uint32 {
	return p.score
}

// IsExpired returns true if the proof has an expiration time and [now] is at
// or past it.
func (p *Proof) IsExpired(now time.Time) bool {
	return p.expirationTime > 0 && now.Unix() >= p.expirationTime
}

// Verify runs the checks that don't depend on the chain state.
func (p *Proof) Verify(dustThreshold uint64) ValidationResult {
	switch {
	case len(p.stakes) == 0:
		return NoStake
	case len(p.stakes) > MaxProofStakes:
		return TooManyUTXOs
	case !IsStandardPayoutScript(p.payoutScript):
		return NonStandardDestination
	}

	if !p.master.VerifyHash(p.limitedID[:], p.signature) {
		return InvalidProofSignature
	}

	var (
		commitment = StakeCommitment(p.expirationTime, p.master)
		prevID     ids.ID
		seen       = make(map[Outpoint]struct{}, len(p.stakes))
	)
	for i := range p.stakes {
		stake := &p.stakes[i]
		if stake.Amount < dustThreshold {
			return BelowDustThreshold
		}

		stakeID := stake.ID()
		if i > 0 && stakeID.Less(prevID) {
			return WrongStakeOrdering
		}
		prevID = stakeID

		if _, ok := seen[stake.UTXO]; ok {
			return DuplicateStake
		}
		seen[stake.UTXO] = struct{}{}

		if !stake.Verify(commitment) {
			return InvalidStakeSignature
		}
	}
	return Valid
}

// IsPreferred returns true if [a] should win a conflict against [b].
//
// A master replaces its own proof by bumping the sequence, so between proofs
// of the same master the higher sequence wins. Otherwise the higher score
// wins, then the proof with fewer stakes, then the lower proof id.
func IsPreferred(a, b *Proof) bool {
	if a.master == b.master && a.sequence != b.sequence {
		return a.sequence > b.sequence
	}
	if a.score != b.score {
		return a.score > b.score
	}
	if len(a.stakes) != len(b.stakes) {
		return len(a.stakes) < len(b.stakes)
	}
	return a.id.Less(b.id)
}

// Pack writes the proof to [packer].
func (p *Proof) Pack(packer *wrappers.Packer) {
	packer.PackLong(p.sequence)
	packer.PackLong(uint64(p.expirationTime))
	packPubKey(packer, p.master)
	packer.PackCompactSize(uint64(len(p.stakes)))
	for i := range p.stakes {
		p.stakes[i].pack(packer)
	}
	packer.PackBytes(p.payoutScript)
	packer.PackFixedBytes(p.signature[:])
}

// Unpack reads a proof from [packer]. The returned proof is nil if [packer]
// errored.
func Unpack(packer *wrappers.Packer) *Proof {
	p := &Proof{}
	p.sequence = packer.UnpackLong()
	p.expirationTime = int64(packer.UnpackLong())
	p.master = unpackPubKey(packer)

	numStakes := packer.UnpackLength(uint64(packer.Remaining() / signedStakeLen))
	if packer.Errored() {
		return nil
	}
	p.stakes = make([]SignedStake, numStakes)
	for i := range p.stakes {
		p.stakes[i].unpack(packer)
	}

	scriptLen := packer.UnpackLength(maxPayoutScriptLen)
	p.payoutScript = bytes.Clone(packer.UnpackFixedBytes(scriptLen))
	copy(p.signature[:], packer.UnpackFixedBytes(schnorr.SignatureLen))
	if packer.Errored() {
		return nil
	}

	p.initialize()
	return p
}

// Bytes returns the wire representation of the proof.
func (p *Proof) Bytes() []byte {
	packer := wrappers.Packer{MaxSize: math.MaxInt32}
	p.Pack(&packer)
	return packer.Bytes
}

// Parse decodes a proof and requires the whole input to be consumed.
func Parse(b []byte) (*Proof, error) {
	p := wrappers.Packer{Bytes: b}
	proof := Unpack(&p)
	if p.Err == nil && p.Remaining() != 0 {
		p.Add(errTrailingBytes)
	}
	if p.Err != nil {
		return nil, p.Err
	}
	return proof, nil
}
