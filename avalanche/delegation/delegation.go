// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package delegation

import (
	"errors"
	"fmt"
	"math"

	"github.com/ava-labs/preconsensus/avalanche/proof"
	"github.com/ava-labs/preconsensus/ids"
	"github.com/ava-labs/preconsensus/utils/crypto/schnorr"
	"github.com/ava-labs/preconsensus/utils/hashing"
	"github.com/ava-labs/preconsensus/utils/wrappers"
)

// MaxDelegationLevels is the deepest chain of delegations that verifies.
const MaxDelegationLevels = 20

const levelLen = wrappers.ByteLen + schnorr.PublicKeyLen + schnorr.SignatureLen

var (
	errInvalidPubKey = errors.New("invalid public key")
	errTrailingBytes = errors.New("trailing bytes")
)

// Result is the outcome of Delegation.Verify.
type Result uint8

const (
	Valid Result = iota
	TooManyLevels
	InvalidSignature
)

func (r Result) String() string {
	switch r {
	case Valid:
		return "valid"
	case TooManyLevels:
		return "too-many-levels"
	case InvalidSignature:
		return "invalid-signature"
	default:
		return "unknown"
	}
}

// Level hands the authority of the previous key over to PubKey.
type Level struct {
	PubKey    schnorr.PublicKey
	Signature schnorr.Signature
}

// Delegation is a chain of authority starting at a proof master key.
type Delegation struct {
	LimitedProofID ids.LimitedProofID
	ProofMaster    schnorr.PublicKey
	Levels         []Level
}

// ProofID of the proof this delegation derives from.
func (d *Delegation) ProofID() ids.ProofID {
	return proof.ComputeID(d.LimitedProofID, d.ProofMaster)
}

// ID is the hash of the whole chain.
func (d *Delegation) ID() ids.ID {
	hash := d.ProofID()
	for _, level := range d.Levels {
		hash = levelHash(hash, level.PubKey)
	}
	return hash
}

// DelegatedPubKey is the key the delegation grants authority to.
func (d *Delegation) DelegatedPubKey() schnorr.PublicKey {
	if len(d.Levels) == 0 {
		return d.ProofMaster
	}
	return d.Levels[len(d.Levels)-1].PubKey
}

// Verify walks the chain from the proof master key and returns the delegated
// key if every level is signed by the key of the level before it.
func (d *Delegation) Verify() (schnorr.PublicKey, Result) {
	if len(d.Levels) > MaxDelegationLevels {
		return schnorr.PublicKey{}, TooManyLevels
	}

	var (
		hash   = d.ProofID()
		pubKey = d.ProofMaster
	)
	for _, level := range d.Levels {
		hash = levelHash(hash, level.PubKey)
		if !pubKey.VerifyHash(hash[:], level.Signature) {
			return schnorr.PublicKey{}, InvalidSignature
		}
		pubKey = level.PubKey
	}
	return pubKey, Valid
}

func levelHash(prev ids.ID, pubKey schnorr.PublicKey) ids.ID {
	p := wrappers.Packer{MaxSize: ids.IDLen + wrappers.ByteLen + schnorr.PublicKeyLen}
	p.PackFixedBytes(prev[:])
	p.PackBytes(pubKey[:])
	return hashing.ComputeDoubleHash256Array(p.Bytes)
}

// Bytes returns the wire representation of the delegation.
func (d *Delegation) Bytes() []byte {
	p := wrappers.Packer{MaxSize: math.MaxInt32}
	p.PackFixedBytes(d.LimitedProofID[:])
	p.PackBytes(d.ProofMaster[:])
	p.PackCompactSize(uint64(len(d.Levels)))
	for _, level := range d.Levels {
		p.PackBytes(level.PubKey[:])
		p.PackFixedBytes(level.Signature[:])
	}
	return p.Bytes
}

// Parse decodes a delegation. The number of levels is not limited here so
// that Verify can report it.
func Parse(b []byte) (*Delegation, error) {
	p := wrappers.Packer{Bytes: b}
	d := &Delegation{}
	copy(d.LimitedProofID[:], p.UnpackFixedBytes(ids.IDLen))
	d.ProofMaster = unpackPubKey(&p)

	numLevels := p.UnpackLength(uint64(p.Remaining() / levelLen))
	if p.Errored() {
		return nil, p.Err
	}
	d.Levels = make([]Level, numLevels)
	for i := range d.Levels {
		d.Levels[i].PubKey = unpackPubKey(&p)
		copy(d.Levels[i].Signature[:], p.UnpackFixedBytes(schnorr.SignatureLen))
	}
	if p.Err == nil && p.Remaining() != 0 {
		p.Add(errTrailingBytes)
	}
	if p.Err != nil {
		return nil, p.Err
	}
	return d, nil
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
