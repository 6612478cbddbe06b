// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package simulator

import "github.com/ava-labs/preconsensus/avalanche/protocol"

// responder answers polls on behalf of a staker. Honest stakers vote their
// view of each item, byzantine ones vote against it. Unknown items get an
// abstention.
type responder struct {
	byzantine bool
	// Read only once the simulation runs.
	truth map[protocol.Inv]bool
}

func (r *responder) respond(request []byte) ([]byte, error) {
	poll, err := protocol.ParsePoll(request)
	if err != nil {
		return nil, err
	}

	response := &protocol.Response{
		Round: poll.Round,
		Votes: make([]protocol.Vote, len(poll.Invs)),
	}
	for i, inv := range poll.Invs {
		response.Votes[i] = protocol.Vote{
			Error: r.vote(inv),
			Hash:  inv.Hash,
		}
	}
	return response.Bytes()
}

func (r *responder) vote(inv protocol.Inv) uint32 {
	valid, ok := r.truth[inv]
	switch {
	case !ok:
		return protocol.VoteUnknown
	case valid != r.byzantine:
		return protocol.VoteYes
	default:
		return protocol.VoteNo
	}
}
