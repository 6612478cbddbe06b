// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package compactproofs

import (
	"encoding/binary"

	"github.com/spaolacci/murmur3"
)

// Adapter tells a ShortIDProcessor how to read its prefilled items and how
// to compare the items it reconciles.
type Adapter[P, T any] interface {
	// Index is the absolute position of the prefilled item.
	Index(prefilled P) uint32
	// Item is the item carried by the prefilled item.
	Item(prefilled P) T
	// Equal returns true if [a] and [b] are the same item.
	Equal(a, b T) bool
}

type slotState uint8

const (
	slotEmpty slotState = iota
	slotFilled
	// slotUnavailable marks a slot whose short id matched two different
	// items. The item must be requested by index.
	slotUnavailable
)

// ShortIDProcessor rebuilds a list of items sent as a mix of prefilled items
// and short ids, by matching the short ids against the items known
// locally.
//
// Construction never fails, the problems found in the input are exposed
// through IsOutOfBoundIndex, HasShortIDCollision and IsEvenlyDistributed.
// A processor reporting any of them should not be trusted.
type ShortIDProcessor[P, T any] struct {
	adapter Adapter[P, T]

	items []T
	state []slotState

	// shortIDs maps a short id to the index of its item.
	shortIDs map[uint64]int

	outOfBoundIndex   bool
	shortIDCollision  bool
	evenlyDistributed bool
}

func NewShortIDProcessor[P, T any](
	prefilled []P,
	shortIDs []uint64,
	adapter Adapter[P, T],
	maxShortIDPerBucket int,
) *ShortIDProcessor[P, T] {
	itemCount := len(prefilled) + len(shortIDs)
	s := &ShortIDProcessor[P, T]{
		adapter:           adapter,
		items:             make([]T, itemCount),
		state:             make([]slotState, itemCount),
		shortIDs:          make(map[uint64]int, len(shortIDs)),
		evenlyDistributed: true,
	}

	for _, pf := range prefilled {
		index := int(adapter.Index(pf))
		if index >= itemCount {
			s.outOfBoundIndex = true
			return s
		}
		s.items[index] = adapter.Item(pf)
		s.state[index] = slotFilled
	}

	// Short ids fill the gaps between the prefilled items, in order.
	var (
		offset     int
		numBuckets = uint64(max(len(shortIDs), 1))
		buckets    = make([]int, numBuckets)
	)
	for i, shortID := range shortIDs {
		for s.state[i+offset] == slotFilled {
			offset++
		}
		s.shortIDs[shortID] = i + offset

		bucket := bucketOf(shortID, numBuckets)
		buckets[bucket]++
		if buckets[bucket] > maxShortIDPerBucket {
			s.evenlyDistributed = false
		}
	}
	s.shortIDCollision = len(s.shortIDs) != len(shortIDs)
	return s
}

func bucketOf(shortID uint64, numBuckets uint64) uint64 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], shortID)
	return murmur3.Sum64(b[:]) % numBuckets
}

// IsOutOfBoundIndex returns true if a prefilled item was positioned past the
// end of the list.
func (s *ShortIDProcessor[_, _]) IsOutOfBoundIndex() bool {
	return s.outOfBoundIndex
}

// HasShortIDCollision returns true if the same short id was sent twice.
func (s *ShortIDProcessor[_, _]) HasShortIDCollision() bool {
	return s.shortIDCollision
}

// IsEvenlyDistributed returns false if too many short ids landed in the same
// hash bucket.
func (s *ShortIDProcessor[_, _]) IsEvenlyDistributed() bool {
	return s.evenlyDistributed
}

// MatchKnownItem offers [item], whose short id is [shortID], to the
// processor.
//
// It returns 1 if the item filled its slot, 0 if the short id is unknown or
// the slot already holds this item, and -1 if the slot held a different
// item. In the last case the slot is marked unavailable: later matches for
// this short id return 0 and the item stays missing until it is requested
// again by index through MissingIndices.
func (s *ShortIDProcessor[_, T]) MatchKnownItem(shortID uint64, item T) int {
	index, ok := s.shortIDs[shortID]
	if !ok {
		return 0
	}

	switch s.state[index] {
	case slotEmpty:
		s.items[index] = item
		s.state[index] = slotFilled
		return 1
	case slotFilled:
		if s.adapter.Equal(s.items[index], item) {
			return 0
		}
		var zero T
		s.items[index] = zero
		s.state[index] = slotUnavailable
		return -1
	default:
		return 0
	}
}

// GetItem returns the item at [index], if it is known.
func (s *ShortIDProcessor[_, T]) GetItem(index int) (T, bool) {
	if index < 0 || index >= len(s.items) || s.state[index] != slotFilled {
		var zero T
		return zero, false
	}
	return s.items[index], true
}

// MissingIndices returns the indices of the items that are still unknown,
// in increasing order.
func (s *ShortIDProcessor[_, _]) MissingIndices() []uint32 {
	var missing []uint32
	for i, state := range s.state {
		if state != slotFilled {
			missing = append(missing, uint32(i))
		}
	}
	return missing
}

func (s *ShortIDProcessor[_, _]) ItemCount() int {
	return len(s.items)
}

func (s *ShortIDProcessor[_, _]) ShortIDCount() int {
	return len(s.shortIDs)
}
