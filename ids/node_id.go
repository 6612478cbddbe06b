// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ids

import (
	"math"
	"strconv"
)

const (
	// NoNode is used to signal that no node could be found
	NoNode NodeID = -1

	// NoPeer is used to signal that no peer could be found
	NoPeer PeerID = math.MaxUint32
)

// NodeID identifies a network connection. Several nodes may back the same
// staked identity.
type NodeID int64

func (id NodeID) String() string {
	if id == NoNode {
		return "NoNode"
	}
	return "NodeID-" + strconv.FormatInt(int64(id), 10)
}

// PeerID identifies a staked identity, created when a proof is accepted.
// PeerIDs are assigned sequentially and never reused.
type PeerID uint32

func (id PeerID) String() string {
	if id == NoPeer {
		return "NoPeer"
	}
	return "PeerID-" + strconv.FormatUint(uint64(id), 10)
}
