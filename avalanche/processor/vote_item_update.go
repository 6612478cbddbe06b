// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package processor

import (
	"fmt"

	"github.com/ava-labs/preconsensus/avalanche/protocol"
)

type VoteStatus uint8

const (
	Invalid VoteStatus = iota
	Rejected
	Accepted
	Finalized
	Stale
)

func (s VoteStatus) String() string {
	switch s {
	case Invalid:
		return "invalid"
	case Rejected:
		return "rejected"
	case Accepted:
		return "accepted"
	case Finalized:
		return "finalized"
	case Stale:
		return "stale"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// VoteItemUpdate reports a change of status of a polled item.
type VoteItemUpdate struct {
	Inv    protocol.Inv
	Status VoteStatus
}
