// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ids

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ava-labs/preconsensus/utils/hashing"
)

// IDLen is the number of bytes in an ID
const IDLen = hashing.HashLen

var (
	// Empty is a useful all zero value
	Empty = ID{}

	errWrongIDLength = errors.New("wrong ID length")
)

// ID wraps a 32 byte hash used as an identifier. Transaction ids, block
// hashes and proof ids all share this representation.
type ID [IDLen]byte

// ToID attempt to convert a byte slice into an id
func ToID(bytes []byte) (ID, error) {
	if len(bytes) != IDLen {
		return Empty, fmt.Errorf("%w: expected %d bytes but got %d", errWrongIDLength, IDLen, len(bytes))
	}
	var id ID
	copy(id[:], bytes)
	return id, nil
}

// FromString is the inverse of ID.String()
func FromString(idStr string) (ID, error) {
	b, err := hex.DecodeString(idStr)
	if err != nil {
		return Empty, err
	}
	return ToID(b)
}

func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ID) UnmarshalText(text []byte) error {
	newID, err := FromString(string(text))
	if err != nil {
		return err
	}
	*id = newID
	return nil
}

// Prefix this id to create a more selective id. This can be used to store
// multiple values under the same key. For example:
// prefix1(id) -> confidence
// prefix2(id) -> vertex
// This will return a new id and not modify the original id.
func (id ID) Prefix(prefixes ...uint64) ID {
	packed := make([]byte, 0, len(prefixes)*8+IDLen)
	for _, prefix := range prefixes {
		packed = binary.BigEndian.AppendUint64(packed, prefix)
	}
	packed = append(packed, id[:]...)
	return hashing.ComputeHash256Array(packed)
}

// Bytes returns a copy of the underlying bytes
func (id ID) Bytes() []byte {
	return bytes.Clone(id[:])
}

// IsZero returns true if the value is the all zero ID
func (id ID) IsZero() bool {
	return id == Empty
}

func (id ID) Compare(other ID) int {
	return bytes.Compare(id[:], other[:])
}

// Less returns true if [id] sorts strictly before [other]
func (id ID) Less(other ID) bool {
	return id.Compare(other) < 0
}
