// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bloom

import (
	"errors"
	"fmt"
	"hash"

	bloomfilter "github.com/holiman/bloomfilter/v2"
	"github.com/spaolacci/murmur3"
)

var (
	errTooFewEntries            = errors.New("too few entries")
	errInvalidFalsePositiveRate = errors.New("invalid false positive rate")
)

// RollingFilter remembers at least the last [maxN] inserted elements.
//
// Elements are added to the current generation. Once it holds [maxN]
// elements it becomes the previous generation and the oldest one is dropped.
//
// RollingFilter is not safe for concurrent use.
type RollingFilter struct {
	maxN                     uint64
	falsePositiveProbability float64

	current  *bloomfilter.Filter
	previous *bloomfilter.Filter
}

func NewRollingFilter(maxN uint64, falsePositiveProbability float64) (*RollingFilter, error) {
	if maxN == 0 {
		return nil, errTooFewEntries
	}
	if falsePositiveProbability <= 0 || falsePositiveProbability >= 1 {
		return nil, fmt.Errorf("%w: %f", errInvalidFalsePositiveRate, falsePositiveProbability)
	}

	f := &RollingFilter{
		maxN:                     maxN,
		falsePositiveProbability: falsePositiveProbability,
	}
	return f, f.Reset()
}

func (f *RollingFilter) Add(b []byte) error {
	if f.current.N() >= f.maxN {
		next, err := bloomfilter.NewOptimal(f.maxN, f.falsePositiveProbability)
		if err != nil {
			return err
		}
		f.previous = f.current
		f.current = next
	}
	f.current.Add(hashOf(b))
	return nil
}

func (f *RollingFilter) Contains(b []byte) bool {
	h := hashOf(b)
	return f.current.Contains(h) || (f.previous != nil && f.previous.Contains(h))
}

// Count returns the number of elements in the generations still remembered.
func (f *RollingFilter) Count() uint64 {
	count := f.current.N()
	if f.previous != nil {
		count += f.previous.N()
	}
	return count
}

// Reset forgets every element.
func (f *RollingFilter) Reset() error {
	current, err := bloomfilter.NewOptimal(f.maxN, f.falsePositiveProbability)
	if err != nil {
		return err
	}
	f.current = current
	f.previous = nil
	return nil
}

func hashOf(b []byte) hash.Hash64 {
	h := murmur3.New64()
	_, _ = h.Write(b)
	return h
}
