// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package voterecord

import (
	"math/bits"
	"sync/atomic"

	"github.com/ava-labs/preconsensus/ids"
	"github.com/ava-labs/preconsensus/utils/sampler"
)

const (
	// FinalizationScore is the confidence an item needs to be finalized.
	FinalizationScore = 128

	// MaxInflightPoll is the number of polls that may be outstanding for a
	// single item.
	MaxInflightPoll = 10

	// VoteStaleThreshold is the default number of successful votes after
	// which an item that has not gained enough confidence is considered
	// stale.
	VoteStaleThreshold = 4096

	// VoteStaleMinThreshold is the lowest stale threshold that may be
	// configured.
	VoteStaleMinThreshold = 140

	// VoteStaleFactor is the default ratio of successful votes to confidence
	// below which an item is considered stale.
	VoteStaleFactor = 64

	// Number of votes kept in the rolling history and in the node filter.
	windowSize = 8
	// A direction needs strictly more than this many agreeing votes among the
	// considered votes of the window.
	quorumThreshold = 6

	initialVotes = 0xaa
)

// VoteRecord tracks the votes received for a single item.
//
// Only the inflight counter may be accessed concurrently. Every other method
// requires the caller to hold the lock guarding the record.
type VoteRecord struct {
	// The lowest bit is the accepted/rejected direction, the remaining bits
	// are the confidence in that direction.
	confidence uint16

	// Rolling histories of the last 8 votes. A set bit in [votes] is a yes,
	// a set bit in [consider] is a vote that was not an abstention.
	votes    uint8
	consider uint8

	inflight atomic.Uint32

	seed            uint64
	successfulVotes uint32
	nodeFilter      [windowSize]uint16
}

// New returns a record leaning in the [accepted] direction with a random
// node filter seed.
func New(accepted bool) *VoteRecord {
	return NewWithSeed(accepted, uint64(uint32(sampler.Global().Uint64())))
}

// NewWithSeed returns a record whose node filter is keyed by [seed].
func NewWithSeed(accepted bool, seed uint64) *VoteRecord {
	vr := &VoteRecord{
		votes: initialVotes,
		seed:  seed,
	}
	if accepted {
		vr.confidence = 1
	}
	return vr
}

// IsAccepted returns the direction the record currently leans in.
func (vr *VoteRecord) IsAccepted() bool {
	return vr.confidence&1 == 1
}

// Confidence returns the confidence in the current direction.
func (vr *VoteRecord) Confidence() uint16 {
	return vr.confidence >> 1
}

// HasFinalized returns true if the confidence in the current direction
// reached FinalizationScore.
func (vr *VoteRecord) HasFinalized() bool {
	return vr.Confidence() >= FinalizationScore
}

// IsStale reports whether the record received more than [threshold]
// successful votes without reaching a confidence of successfulVotes/[factor].
func (vr *VoteRecord) IsStale(threshold, factor uint32) bool {
	if factor == 0 {
		return false
	}
	return vr.successfulVotes > threshold && uint32(vr.Confidence()) < vr.successfulVotes/factor
}

// SuccessfulVotes returns the number of votes that passed the node filter.
func (vr *VoteRecord) SuccessfulVotes() uint32 {
	return vr.successfulVotes
}

// RegisterVote records [errCode] as sent by [nodeID] and returns true if the
// record changed direction or just got finalized.
//
// An error code of zero is a yes, a code with the high bit set is an
// abstention and any other code is a no.
func (vr *VoteRecord) RegisterVote(nodeID ids.NodeID, errCode uint32) bool {
	// One less poll is outstanding, whether the vote counts or not.
	vr.ClearInflightRequest(1)

	if !vr.addNodeToQuorum(nodeID) {
		return false
	}

	vr.votes <<= 1
	if errCode == 0 {
		vr.votes |= 1
	}
	vr.consider <<= 1
	if int32(errCode) >= 0 {
		vr.consider |= 1
	}

	var yes bool
	switch {
	case bits.OnesCount8(vr.votes&vr.consider) > quorumThreshold:
		yes = true
	case bits.OnesCount8(^vr.votes&vr.consider) > quorumThreshold:
		yes = false
	default:
		return false
	}

	if vr.IsAccepted() == yes {
		vr.confidence += 2
		return vr.Confidence() == FinalizationScore
	}

	// The direction flipped, restart from zero confidence.
	vr.confidence = 0
	if yes {
		vr.confidence = 1
	}
	return true
}

// addNodeToQuorum returns false if [nodeID] is found among the last 7 nodes
// that voted. The filter is lossy so older votes are eventually forgotten.
func (vr *VoteRecord) addNodeToQuorum(nodeID ids.NodeID) bool {
	if nodeID == ids.NoNode {
		// Locally generated votes are always accepted.
		return true
	}

	// MMIX linear congruential generator mixed with a Fibonacci hash.
	n := uint64(nodeID)
	r1 := 6364136223846793005*n + 1442695040888963407
	r2 := 11400714819323198485 * (n ^ vr.seed)
	h := uint16((r1 + r2) >> 48)

	for i := uint32(1); i < windowSize; i++ {
		if vr.nodeFilter[(vr.successfulVotes+i)%windowSize] == h {
			return false
		}
	}

	vr.nodeFilter[vr.successfulVotes%windowSize] = h
	vr.successfulVotes++
	return true
}

// RegisterPoll reserves an inflight poll slot. It returns false if
// MaxInflightPoll polls are already outstanding.
func (vr *VoteRecord) RegisterPoll() bool {
	for {
		current := vr.inflight.Load()
		if current >= MaxInflightPoll {
			return false
		}
		if vr.inflight.CompareAndSwap(current, current+1) {
			return true
		}
	}
}

// ShouldPoll is a racy pre check for RegisterPoll.
func (vr *VoteRecord) ShouldPoll() bool {
	return vr.inflight.Load() < MaxInflightPoll
}

// ClearInflightRequest releases [count] inflight poll slots. The counter never
// goes below zero.
func (vr *VoteRecord) ClearInflightRequest(count uint8) {
	for {
		current := vr.inflight.Load()
		next := current - min(current, uint32(count))
		if vr.inflight.CompareAndSwap(current, next) {
			return
		}
	}
}

// Inflight returns the number of outstanding polls.
func (vr *VoteRecord) Inflight() int {
	return int(vr.inflight.Load())
}
