// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package peermanager

import (
	"fmt"
	"math/bits"

	"github.com/ava-labs/preconsensus/ids"
)

// linearSearchThreshold is the window size under which SelectPeerImpl stops
// interpolating and scans the remaining slots.
const linearSearchThreshold = 8

// Slot is the range [start, start+score) of the selection space owned by a
// peer. A slot whose peer was removed keeps its range and is owned by
// ids.NoPeer until the table is compacted.
type Slot struct {
	start  uint64
	score  uint32
	peerID ids.PeerID
}

// NewSlot returns the slot [start, start+score) owned by [peerID].
func NewSlot(start uint64, score uint32, peerID ids.PeerID) Slot {
	return Slot{
		start:  start,
		score:  score,
		peerID: peerID,
	}
}

// Start is the first value of the range.
func (s Slot) Start() uint64 {
	return s.start
}

// Stop is the first value past the range.
func (s Slot) Stop() uint64 {
	return s.start + uint64(s.score)
}

// Score is the width of the range.
func (s Slot) Score() uint32 {
	return s.score
}

// PeerID returns the owner of the slot, or ids.NoPeer for a hole left by a
// removed peer.
func (s Slot) PeerID() ids.PeerID {
	return s.peerID
}

// WithStart returns a copy of the slot moved to [start], keeping its score.
func (s Slot) WithStart(start uint64) Slot {
	s.start = start
	return s
}

// WithScore returns a copy of the slot resized to [score], keeping its start.
func (s Slot) WithScore(score uint32) Slot {
	s.score = score
	return s
}

// WithPeerID returns a copy of the slot owned by [peerID].
func (s Slot) WithPeerID(peerID ids.PeerID) Slot {
	s.peerID = peerID
	return s
}

// Contains returns true if [slot] is in this slot's range.
func (s Slot) Contains(slot uint64) bool {
	return s.start <= slot && slot < s.Stop()
}

// Precedes returns true if this slot ends at or before [slot].
func (s Slot) Precedes(slot uint64) bool {
	return slot >= s.Stop()
}

// Follows returns true if this slot starts after [slot].
func (s Slot) Follows(slot uint64) bool {
	return s.start > slot
}

func (s Slot) String() string {
	return fmt.Sprintf("[%d, %d) -> %d", s.start, s.Stop(), s.peerID)
}

// SelectPeerImpl returns the peer owning [slot] in [slots], which must be
// sorted and cover at most [0, max).
//
// The lookup interpolates the position of [slot] between the bounds of the
// remaining window, then falls back to a linear scan once the window is
// small. ids.NoPeer is returned when [slot] lands in a hole or in a removed
// slot, in which case the caller should draw again.
func SelectPeerImpl(slots []Slot, slot uint64, max uint64) ids.PeerID {
	var (
		begin  = 0
		end    = len(slots)
		bottom = uint64(0)
		top    = max
	)

	for end-begin > linearSearchThreshold {
		if slot < bottom || slot >= top {
			return ids.NoPeer
		}

		// (slot - bottom) < (top - bottom) so the quotient is below
		// (end - begin) and Div64 can't overflow.
		hi, lo := bits.Mul64(slot-bottom, uint64(end-begin))
		offset, _ := bits.Div64(hi, lo, top-bottom)
		i := begin + int(offset)

		switch {
		case slots[i].Contains(slot):
			return slots[i].peerID
		case slots[i].Precedes(slot):
			begin = i + 1
			if begin >= end {
				return ids.NoPeer
			}
			bottom = slots[begin].start
		case slots[i].Follows(slot):
			end = i
			top = slots[end].start
		default:
			return ids.NoPeer
		}
	}

	for i := begin; i < end; i++ {
		if slots[i].Contains(slot) {
			return slots[i].peerID
		}
	}
	return ids.NoPeer
}
