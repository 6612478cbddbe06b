// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wrappers

import (
	"encoding/binary"
	"errors"
	"math"
)

const (
	ByteLen   = 1
	ShortLen  = 2
	IntLen    = 4
	Uint48Len = 6
	LongLen   = 8

	// MaxCompactSize is the largest length prefix that will be accepted
	// when unpacking a vector or a byte slice.
	MaxCompactSize = 0x02000000

	maxUint48 = 1<<48 - 1
)

var (
	ErrInsufficientLength = errors.New("packer has insufficient length for input")
	errNegativeOffset     = errors.New("negative offset")
	errInvalidInput       = errors.New("input does not match expected format")
	errNonCanonicalSize   = errors.New("non-canonical compact size")
	errOversized          = errors.New("size is larger than limit")
)

// Packer packs and unpacks a byte array from/to standard values. All the
// integers are little endian, matching the peer-to-peer serialization.
type Packer struct {
	Errs

	// The largest allowed size of expanding the byte array
	MaxSize int
	// The current byte array
	Bytes []byte
	// The offset that is being written to in the byte array
	Offset int
}

// Remaining returns the number of unread bytes
func (p *Packer) Remaining() int {
	return len(p.Bytes) - p.Offset
}

// PackByte append a byte to the byte array
func (p *Packer) PackByte(val byte) {
	p.expand(ByteLen)
	if p.Errored() {
		return
	}

	p.Bytes[p.Offset] = val
	p.Offset++
}

// UnpackByte unpack a byte from the byte array
func (p *Packer) UnpackByte() byte {
	p.checkSpace(ByteLen)
	if p.Errored() {
		return 0
	}

	val := p.Bytes[p.Offset]
	p.Offset += ByteLen
	return val
}

// PackShort append a short to the byte array
func (p *Packer) PackShort(val uint16) {
	p.expand(ShortLen)
	if p.Errored() {
		return
	}

	binary.LittleEndian.PutUint16(p.Bytes[p.Offset:], val)
	p.Offset += ShortLen
}

// UnpackShort unpack a short from the byte array
func (p *Packer) UnpackShort() uint16 {
	p.checkSpace(ShortLen)
	if p.Errored() {
		return 0
	}

	val := binary.LittleEndian.Uint16(p.Bytes[p.Offset:])
	p.Offset += ShortLen
	return val
}

// PackInt append an int to the byte array
func (p *Packer) PackInt(val uint32) {
	p.expand(IntLen)
	if p.Errored() {
		return
	}

	binary.LittleEndian.PutUint32(p.Bytes[p.Offset:], val)
	p.Offset += IntLen
}

// UnpackInt unpack an int from the byte array
func (p *Packer) UnpackInt() uint32 {
	p.checkSpace(IntLen)
	if p.Errored() {
		return 0
	}

	val := binary.LittleEndian.Uint32(p.Bytes[p.Offset:])
	p.Offset += IntLen
	return val
}

// PackUint48 appends the low 6 bytes of [val]. Values that do not fit in 48
// bits are rejected.
func (p *Packer) PackUint48(val uint64) {
	if val > maxUint48 {
		p.Add(errInvalidInput)
		return
	}
	p.PackInt(uint32(val))
	p.PackShort(uint16(val >> 32))
}

// UnpackUint48 unpacks a 6 byte unsigned integer
func (p *Packer) UnpackUint48() uint64 {
	low := p.UnpackInt()
	high := p.UnpackShort()
	return uint64(high)<<32 | uint64(low)
}

// PackLong append a long to the byte array
func (p *Packer) PackLong(val uint64) {
	p.expand(LongLen)
	if p.Errored() {
		return
	}

	binary.LittleEndian.PutUint64(p.Bytes[p.Offset:], val)
	p.Offset += LongLen
}

// UnpackLong unpack a long from the byte array
func (p *Packer) UnpackLong() uint64 {
	p.checkSpace(LongLen)
	if p.Errored() {
		return 0
	}

	val := binary.LittleEndian.Uint64(p.Bytes[p.Offset:])
	p.Offset += LongLen
	return val
}

// PackCompactSize appends a variable length unsigned integer: one byte below
// 0xfd, otherwise a marker byte followed by 2, 4 or 8 bytes.
func (p *Packer) PackCompactSize(val uint64) {
	switch {
	case val < 0xfd:
		p.PackByte(byte(val))
	case val <= math.MaxUint16:
		p.PackByte(0xfd)
		p.PackShort(uint16(val))
	case val <= math.MaxUint32:
		p.PackByte(0xfe)
		p.PackInt(uint32(val))
	default:
		p.PackByte(0xff)
		p.PackLong(val)
	}
}

// UnpackCompactSize unpacks a variable length unsigned integer and rejects
// encodings that are not the shortest possible.
func (p *Packer) UnpackCompactSize() uint64 {
	var (
		marker = p.UnpackByte()
		val    uint64
		min    uint64
	)
	switch marker {
	case 0xfd:
		val, min = uint64(p.UnpackShort()), 0xfd
	case 0xfe:
		val, min = uint64(p.UnpackInt()), math.MaxUint16+1
	case 0xff:
		val, min = p.UnpackLong(), math.MaxUint32+1
	default:
		return uint64(marker)
	}
	if !p.Errored() && val < min {
		p.Add(errNonCanonicalSize)
		return 0
	}
	return val
}

// UnpackLength unpacks a compact size used as a vector length. Lengths larger
// than [limit] or than the number of bytes left are rejected.
func (p *Packer) UnpackLength(limit uint64) int {
	size := p.UnpackCompactSize()
	if p.Errored() {
		return 0
	}
	if size > limit || size > MaxCompactSize {
		p.Add(errOversized)
		return 0
	}
	return int(size)
}

// PackFixedBytes append a byte slice, with no length descriptor to the byte
// array
func (p *Packer) PackFixedBytes(bytes []byte) {
	p.expand(len(bytes))
	if p.Errored() {
		return
	}

	copy(p.Bytes[p.Offset:], bytes)
	p.Offset += len(bytes)
}

// UnpackFixedBytes unpack a byte slice, with no length descriptor from the
// byte array
func (p *Packer) UnpackFixedBytes(size int) []byte {
	p.checkSpace(size)
	if p.Errored() {
		return nil
	}

	bytes := p.Bytes[p.Offset : p.Offset+size]
	p.Offset += size
	return bytes
}

// PackBytes append a compact size prefixed byte slice to the byte array
func (p *Packer) PackBytes(bytes []byte) {
	p.PackCompactSize(uint64(len(bytes)))
	p.PackFixedBytes(bytes)
}

// UnpackBytes unpack a compact size prefixed byte slice from the byte array
func (p *Packer) UnpackBytes() []byte {
	size := p.UnpackLength(MaxCompactSize)
	return p.UnpackFixedBytes(size)
}

// checkSpace requires that there is at least [bytes] of read space left in the
// byte array. If this is not true, an error is added to the packer
func (p *Packer) checkSpace(bytes int) {
	switch {
	case p.Offset < 0:
		p.Add(errNegativeOffset)
	case bytes < 0:
		p.Add(errInvalidInput)
	case len(p.Bytes)-p.Offset < bytes:
		p.Add(ErrInsufficientLength)
	}
}

// expand ensures that there is [bytes] bytes left of space in the byte slice.
// If this is not allowed due to the maximum size, an error is added to the
// packer
func (p *Packer) expand(bytes int) {
	if p.Errored() {
		return
	}
	neededSize := bytes + p.Offset
	switch {
	case neededSize <= len(p.Bytes):
		return
	case neededSize > p.MaxSize:
		p.Add(ErrInsufficientLength)
		return
	case neededSize <= cap(p.Bytes):
		p.Bytes = p.Bytes[:neededSize]
		return
	default:
		p.Bytes = append(p.Bytes[:cap(p.Bytes)], make([]byte, neededSize-cap(p.Bytes))...)
	}
}
