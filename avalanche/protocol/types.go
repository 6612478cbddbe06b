// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package protocol

import (
	"fmt"
	"math"
)

// InvType is the kind of item an Inv refers to.
type InvType uint32

const (
	MsgTx    InvType = 1
	MsgBlock InvType = 2
	MsgProof InvType = 0x1f000001
)

func (t InvType) String() string {
	switch t {
	case MsgTx:
		return "tx"
	case MsgBlock:
		return "block"
	case MsgProof:
		return "proof"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(t))
	}
}

// Vote error codes.
const (
	VoteYes uint32 = 0
	// VoteNo is the generic no. Any non zero code without the high bit is a
	// no.
	VoteNo uint32 = 1
	// VoteUnknown is sent for an item the node doesn't know about.
	VoteUnknown uint32 = math.MaxUint32
)

// IsYes returns true if [errCode] accepts the item.
func IsYes(errCode uint32) bool {
	return errCode == VoteYes
}

// IsAbstention returns true if [errCode] neither accepts nor rejects the
// item.
func IsAbstention(errCode uint32) bool {
	return errCode&(1<<31) != 0
}
