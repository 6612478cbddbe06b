// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wrappers

import (
	"errors"
	"math"
)

var ErrDifferentialOverflow = errors.New("differential value overflow")

// DifferenceEncoder packs a strictly increasing sequence of indices as the
// gaps between consecutive values: the first index is written as is and
// every following one as index - (previous + 1).
type DifferenceEncoder struct {
	shift uint64
}

// Pack writes [index] relative to the previously packed index.
func (d *DifferenceEncoder) Pack(p *Packer, index uint32) {
	v := uint64(index)
	if v < d.shift {
		p.Add(ErrDifferentialOverflow)
		return
	}
	p.PackCompactSize(v - d.shift)
	d.shift = v + 1
}

// Unpack reads the next index and returns its absolute value. Indices that do
// not fit in 32 bits are rejected.
func (d *DifferenceEncoder) Unpack(p *Packer) uint32 {
	n := p.UnpackCompactSize()
	if p.Errored() {
		return 0
	}
	d.shift += n
	if d.shift < n || d.shift > math.MaxUint32 {
		p.Add(ErrDifferentialOverflow)
		return 0
	}
	index := uint32(d.shift)
	d.shift++
	return index
}
