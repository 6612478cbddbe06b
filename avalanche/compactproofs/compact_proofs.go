// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package compactproofs

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/dchest/siphash"

	"github.com/ava-labs/preconsensus/avalanche/proof"
	"github.com/ava-labs/preconsensus/ids"
	"github.com/ava-labs/preconsensus/utils/sampler"
	"github.com/ava-labs/preconsensus/utils/wrappers"
)

const (
	// ShortIDLen is the number of bytes of a short proof id on the wire.
	ShortIDLen = wrappers.Uint48Len

	shortIDMask = 1<<(8*ShortIDLen) - 1

	// MaxShortIDPerBucket bounds the number of short ids expected to share a
	// hash bucket when they are uniformly distributed.
	MaxShortIDPerBucket = 12
)

var (
	errIndexesOverflow      = errors.New("indexes overflowed 32 bits")
	errNonContiguousIndexes = errors.New("non contiguous indexes")
	errTrailingBytes        = errors.New("trailing bytes")
	errOutOfBoundIndex      = errors.New("prefilled proof index out of bound")
	errShortIDCollision     = errors.New("short id collision")
	errUnevenDistribution   = errors.New("short ids are not evenly distributed")
	errUnknownIndex         = errors.New("unknown proof index")
	errNotSender            = errors.New("compact proofs were not built locally")
)

// PrefilledProof is a proof sent in full, at position [Index] of the list.
type PrefilledProof struct {
	Index uint32
	Proof *proof.Proof
}

type proofAdapter struct{}

func (proofAdapter) Index(pf PrefilledProof) uint32 {
	return pf.Index
}

func (proofAdapter) Item(pf PrefilledProof) *proof.Proof {
	return pf.Proof
}

func (proofAdapter) Equal(a, b *proof.Proof) bool {
	return a.ID() == b.ID()
}

// CompactProofs announces a set of proofs mostly by their short ids. Short
// ids are the 48 low bits of the SipHash-2-4 of the proof id, keyed with a
// random key chosen by the sender.
type CompactProofs struct {
	k0, k1    uint64
	shortIDs  []uint64
	prefilled []PrefilledProof

	// proofs is the full list, by index. It is only known by the sender.
	proofs []*proof.Proof
}

// New announces [proofs] as short ids, ordered by proof id, and [prefilled]
// in full. The indices of [prefilled] must be strictly increasing and refer
// to the combined list.
func New(rng *sampler.RNG, proofs []*proof.Proof, prefilled []PrefilledProof) *CompactProofs {
	c := &CompactProofs{
		k0:        rng.Uint64(),
		k1:        rng.Uint64(),
		shortIDs:  make([]uint64, len(proofs)),
		prefilled: prefilled,
		proofs:    make([]*proof.Proof, len(proofs)+len(prefilled)),
	}

	sorted := slices.Clone(proofs)
	slices.SortFunc(sorted, func(a, b *proof.Proof) int {
		return a.ID().Compare(b.ID())
	})

	for _, pf := range prefilled {
		if int(pf.Index) < len(c.proofs) {
			c.proofs[pf.Index] = pf.Proof
		}
	}
	next := 0
	for i, p := range sorted {
		c.shortIDs[i] = c.ShortID(p.ID())
		for next < len(c.proofs) && c.proofs[next] != nil {
			next++
		}
		if next < len(c.proofs) {
			c.proofs[next] = p
		}
	}
	return c
}

// ShortID returns the short id of [proofID] under the key of [c].
func (c *CompactProofs) ShortID(proofID ids.ProofID) uint64 {
	return siphash.Hash(c.k0, c.k1, proofID[:]) & shortIDMask
}

func (c *CompactProofs) Keys() (uint64, uint64) {
	return c.k0, c.k1
}

func (c *CompactProofs) ShortIDs() []uint64 {
	return c.shortIDs
}

func (c *CompactProofs) Prefilled() []PrefilledProof {
	return c.prefilled
}

// Size is the number of announced proofs.
func (c *CompactProofs) Size() int {
	return len(c.shortIDs) + len(c.prefilled)
}

// NewProcessor returns a processor to match the announced short ids against
// the proofs known locally.
func (c *CompactProofs) NewProcessor() *ShortIDProcessor[PrefilledProof, *proof.Proof] {
	return NewShortIDProcessor[PrefilledProof, *proof.Proof](
		c.prefilled,
		c.shortIDs,
		proofAdapter{},
		MaxShortIDPerBucket,
	)
}

// Reconcile matches [known] against the announcement and returns the
// processor along with the request for the proofs that are still missing.
// Announcements that can't be trusted are reported as errors.
func (c *CompactProofs) Reconcile(known []*proof.Proof) (*ShortIDProcessor[PrefilledProof, *proof.Proof], *ProofsRequest, error) {
	processor := c.NewProcessor()
	switch {
	case processor.IsOutOfBoundIndex():
		return nil, nil, errOutOfBoundIndex
	case processor.HasShortIDCollision():
		return nil, nil, errShortIDCollision
	case !processor.IsEvenlyDistributed():
		return nil, nil, errUnevenDistribution
	}

	for _, p := range known {
		processor.MatchKnownItem(c.ShortID(p.ID()), p)
	}
	return processor, &ProofsRequest{Indices: processor.MissingIndices()}, nil
}

// GetProofs answers [request] with the proofs at the requested indices.
func (c *CompactProofs) GetProofs(request *ProofsRequest) ([]*proof.Proof, error) {
	if c.proofs == nil && c.Size() != 0 {
		return nil, errNotSender
	}

	proofs := make([]*proof.Proof, len(request.Indices))
	for i, index := range request.Indices {
		if int(index) >= len(c.proofs) || c.proofs[index] == nil {
			return nil, fmt.Errorf("%w: %d", errUnknownIndex, index)
		}
		proofs[i] = c.proofs[index]
	}
	return proofs, nil
}

// Bytes returns the wire representation of the announcement. Prefilled
// indices are written as differences.
func (c *CompactProofs) Bytes() ([]byte, error) {
	p := wrappers.Packer{MaxSize: math.MaxInt32}
	p.PackLong(c.k0)
	p.PackLong(c.k1)
	p.PackCompactSize(uint64(len(c.shortIDs)))
	for _, shortID := range c.shortIDs {
		p.PackUint48(shortID)
	}

	p.PackCompactSize(uint64(len(c.prefilled)))
	var encoder wrappers.DifferenceEncoder
	for _, pf := range c.prefilled {
		encoder.Pack(&p, pf.Index)
		pf.Proof.Pack(&p)
	}
	return p.Bytes, p.Err
}

// Parse decodes an announcement. Prefilled indices that don't fit in 32 bits
// once the short ids are accounted for, or that leave a gap no short id can
// fill, are rejected.
func Parse(b []byte) (*CompactProofs, error) {
	p := wrappers.Packer{Bytes: b}
	c := &CompactProofs{
		k0: p.UnpackLong(),
		k1: p.UnpackLong(),
	}

	numShortIDs := p.UnpackLength(uint64(p.Remaining() / ShortIDLen))
	if p.Errored() {
		return nil, p.Err
	}
	c.shortIDs = make([]uint64, numShortIDs)
	for i := range c.shortIDs {
		c.shortIDs[i] = p.UnpackUint48()
	}

	numPrefilled := p.UnpackLength(uint64(p.Remaining()))
	if p.Errored() {
		return nil, p.Err
	}
	c.prefilled = make([]PrefilledProof, numPrefilled)
	var decoder wrappers.DifferenceEncoder
	for i := range c.prefilled {
		c.prefilled[i].Index = decoder.Unpack(&p)
		c.prefilled[i].Proof = proof.Unpack(&p)
		if p.Errored() {
			return nil, p.Err
		}
	}
	if p.Remaining() != 0 {
		return nil, errTrailingBytes
	}

	if len(c.prefilled) > 0 {
		lastIndex := uint64(c.prefilled[len(c.prefilled)-1].Index)
		if lastIndex+uint64(len(c.shortIDs)) > math.MaxUint32 {
			return nil, errIndexesOverflow
		}
		if lastIndex >= uint64(c.Size()) {
			return nil, errNonContiguousIndexes
		}
	}
	return c, nil
}

// ProofsRequest asks for the proofs at [Indices], which are strictly
// increasing.
type ProofsRequest struct {
	Indices []uint32
}

func (r *ProofsRequest) Bytes() ([]byte, error) {
	p := wrappers.Packer{MaxSize: math.MaxInt32}
	p.PackCompactSize(uint64(len(r.Indices)))
	var encoder wrappers.DifferenceEncoder
	for _, index := range r.Indices {
		encoder.Pack(&p, index)
	}
	return p.Bytes, p.Err
}

func ParseProofsRequest(b []byte) (*ProofsRequest, error) {
	p := wrappers.Packer{Bytes: b}
	numIndices := p.UnpackLength(uint64(p.Remaining()))
	if p.Errored() {
		return nil, p.Err
	}

	r := &ProofsRequest{
		Indices: make([]uint32, numIndices),
	}
	var decoder wrappers.DifferenceEncoder
	for i := range r.Indices {
		r.Indices[i] = decoder.Unpack(&p)
	}
	if p.Err == nil && p.Remaining() != 0 {
		p.Add(errTrailingBytes)
	}
	if p.Err != nil {
		return nil, p.Err
	}
	return r, nil
}
