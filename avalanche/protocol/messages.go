// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package protocol defines the records exchanged by avalanche polls.
//
// Every record is serialized with the little endian packer, vectors are
// prefixed by their compact size length.
package protocol

import (
	"cmp"
	"errors"
	"fmt"
	"math"

	"github.com/ava-labs/preconsensus/ids"
	"github.com/ava-labs/preconsensus/utils/wrappers"
)

// MaxElementPoll is the maximum number of items in a single poll.
const MaxElementPoll = 16

const (
	voteLen = wrappers.IntLen + ids.IDLen
	invLen  = wrappers.IntLen + ids.IDLen
)

var (
	errTooManyElements = errors.New("too many elements")
	errTrailingBytes   = errors.New("trailing bytes")
)

// Vote is the answer of a node about a single item.
type Vote struct {
	// Error is zero for a yes. A value with the high bit set is an
	// abstention, any other value is a no.
	Error uint32
	Hash  ids.ID
}

func (v Vote) pack(p *wrappers.Packer) {
	p.PackInt(v.Error)
	p.PackFixedBytes(v.Hash[:])
}

func (v *Vote) unpack(p *wrappers.Packer) {
	v.Error = p.UnpackInt()
	copy(v.Hash[:], p.UnpackFixedBytes(ids.IDLen))
}

// Inv identifies a polled item.
type Inv struct {
	Type InvType
	Hash ids.ID
}

func (i Inv) String() string {
	return fmt.Sprintf("%s %s", i.Type, i.Hash)
}

// Compare orders invs by type, then by hash.
func (i Inv) Compare(other Inv) int {
	if c := cmp.Compare(i.Type, other.Type); c != 0 {
		return c
	}
	return i.Hash.Compare(other.Hash)
}

func (i Inv) pack(p *wrappers.Packer) {
	p.PackInt(uint32(i.Type))
	p.PackFixedBytes(i.Hash[:])
}

func (i *Inv) unpack(p *wrappers.Packer) {
	i.Type = InvType(p.UnpackInt())
	copy(i.Hash[:], p.UnpackFixedBytes(ids.IDLen))
}

// Poll asks a node to vote on [Invs].
type Poll struct {
	Round uint64
	Invs  []Inv
}

func (m *Poll) Bytes() ([]byte, error) {
	if len(m.Invs) > MaxElementPoll {
		return nil, fmt.Errorf("%w: %d > %d", errTooManyElements, len(m.Invs), MaxElementPoll)
	}

	p := wrappers.Packer{MaxSize: math.MaxInt32}
	p.PackLong(m.Round)
	p.PackCompactSize(uint64(len(m.Invs)))
	for _, inv := range m.Invs {
		inv.pack(&p)
	}
	return p.Bytes, p.Err
}

func ParsePoll(b []byte) (*Poll, error) {
	p := wrappers.Packer{Bytes: b}
	m := &Poll{
		Round: p.UnpackLong(),
	}
	numInvs := unpackElementCount(&p, invLen)
	if p.Errored() {
		return nil, p.Err
	}

	m.Invs = make([]Inv, numInvs)
	for i := range m.Invs {
		m.Invs[i].unpack(&p)
	}
	if err := finish(&p); err != nil {
		return nil, err
	}
	return m, nil
}

// Response carries the votes of a node for the poll of the same round. The
// node must not be polled again before [Cooldown] milliseconds.
type Response struct {
	Round    uint64
	Cooldown uint32
	Votes    []Vote
}

func (m *Response) Bytes() ([]byte, error) {
	if len(m.Votes) > MaxElementPoll {
		return nil, fmt.Errorf("%w: %d > %d", errTooManyElements, len(m.Votes), MaxElementPoll)
	}

	p := wrappers.Packer{MaxSize: math.MaxInt32}
	p.PackLong(m.Round)
	p.PackInt(m.Cooldown)
	p.PackCompactSize(uint64(len(m.Votes)))
	for _, v := range m.Votes {
		v.pack(&p)
	}
	return p.Bytes, p.Err
}

func ParseResponse(b []byte) (*Response, error) {
	p := wrappers.Packer{Bytes: b}
	m := &Response{
		Round:    p.UnpackLong(),
		Cooldown: p.UnpackInt(),
	}
	numVotes := unpackElementCount(&p, voteLen)
	if p.Errored() {
		return nil, p.Err
	}

	m.Votes = make([]Vote, numVotes)
	for i := range m.Votes {
		m.Votes[i].unpack(&p)
	}
	if err := finish(&p); err != nil {
		return nil, err
	}
	return m, nil
}

func unpackElementCount(p *wrappers.Packer, elementLen int) int {
	n := p.UnpackLength(uint64(p.Remaining() / elementLen))
	if !p.Errored() && n > MaxElementPoll {
		p.Add(fmt.Errorf("%w: %d > %d", errTooManyElements, n, MaxElementPoll))
	}
	return n
}

func finish(p *wrappers.Packer) error {
	if p.Err == nil && p.Remaining() != 0 {
		p.Add(errTrailingBytes)
	}
	return p.Err
}
