// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package processor

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/preconsensus/avalanche/protocol"
	"github.com/ava-labs/preconsensus/avalanche/voterecord"
	"github.com/ava-labs/preconsensus/ids"
	"github.com/ava-labs/preconsensus/utils/logging"
)

// maxTestRounds bounds the polls needed to settle a single item.
const maxTestRounds = 1000

type testScheduler map[ids.NodeID]time.Time

func (s testScheduler) UpdateNextRequestTime(nodeID ids.NodeID, nextRequestTime time.Time) bool {
	s[nodeID] = nextRequestTime
	return true
}

var startTime = time.Unix(1_000_000, 0)

func newTestProcessor(t *testing.T, params Parameters) (*Processor, testScheduler) {
	scheduler := make(testScheduler)
	p, err := New(
		logging.NoLog{},
		params,
		scheduler,
		"test",
		prometheus.NewRegistry(),
	)
	require.NoError(t, err)
	p.clock.Set(startTime)
	return p, scheduler
}

func testInv(i uint64) protocol.Inv {
	return protocol.Inv{
		Type: protocol.MsgProof,
		Hash: ids.Empty.Prefix(i),
	}
}

// poll asks [nodeID] about the next items to poll and answers [errCode] for
// all of them.
func poll(t *testing.T, p *Processor, nodeID ids.NodeID, errCode uint32) []VoteItemUpdate {
	invs := p.GetInvsForNextPoll()
	require.NotEmpty(t, invs)

	request := p.RegisterQuery(nodeID, invs)
	votes := make([]protocol.Vote, len(request.Invs))
	for i, inv := range request.Invs {
		votes[i] = protocol.Vote{
			Error: errCode,
			Hash:  inv.Hash,
		}
	}
	updates, err := p.RegisterVotes(nodeID, &protocol.Response{
		Round: request.Round,
		Votes: votes,
	})
	require.NoError(t, err)
	return updates
}

func TestParametersVerify(t *testing.T) {
	tests := []struct {
		name        string
		params      Parameters
		expectedErr error
	}{
		{
			name:        "valid",
			params:      DefaultParameters,
			expectedErr: nil,
		},
		{
			name: "no query timeout",
			params: Parameters{
				QueryTimeout:             0,
				StaleVoteThreshold:       voterecord.VoteStaleThreshold,
				StaleVoteFactor:          voterecord.VoteStaleFactor,
				FinalizedItemsFilterSize: 1,
			},
			expectedErr: ErrParametersInvalid,
		},
		{
			name: "stale vote threshold too low",
			params: Parameters{
				QueryTimeout:             time.Second,
				StaleVoteThreshold:       voterecord.VoteStaleMinThreshold - 1,
				StaleVoteFactor:          voterecord.VoteStaleFactor,
				FinalizedItemsFilterSize: 1,
			},
			expectedErr: ErrParametersInvalid,
		},
		{
			name: "no stale vote factor",
			params: Parameters{
				QueryTimeout:             time.Second,
				StaleVoteThreshold:       voterecord.VoteStaleThreshold,
				StaleVoteFactor:          0,
				FinalizedItemsFilterSize: 1,
			},
			expectedErr: ErrParametersInvalid,
		},
		{
			name: "empty finalized items filter",
			params: Parameters{
				QueryTimeout:             time.Second,
				StaleVoteThreshold:       voterecord.VoteStaleThreshold,
				StaleVoteFactor:          voterecord.VoteStaleFactor,
				FinalizedItemsFilterSize: 0,
			},
			expectedErr: ErrParametersInvalid,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.ErrorIs(t, test.params.Verify(), test.expectedErr)
		})
	}
}

func TestNewInvalidParameters(t *testing.T) {
	_, err := New(
		logging.NoLog{},
		Parameters{},
		make(testScheduler),
		"test",
		prometheus.NewRegistry(),
	)
	require.ErrorIs(t, err, ErrParametersInvalid)
}

func TestAddToReconcile(t *testing.T) {
	require := require.New(t)

	p, _ := newTestProcessor(t, DefaultParameters)

	accepted := testInv(0)
	rejected := testInv(1)
	require.True(p.AddToReconcile(accepted, true))
	require.False(p.AddToReconcile(accepted, false))
	require.True(p.AddToReconcile(rejected, false))
	require.Equal(2, p.VoteRecordCount())

	require.True(p.IsAccepted(accepted))
	require.False(p.IsAccepted(rejected))
	require.Zero(p.GetConfidence(accepted))
	require.Zero(p.GetConfidence(rejected))

	unknown := testInv(2)
	require.False(p.IsAccepted(unknown))
	require.Equal(-1, p.GetConfidence(unknown))

	// The same hash with another type is another item.
	require.True(p.AddToReconcile(protocol.Inv{Type: protocol.MsgBlock, Hash: accepted.Hash}, true))
}

func TestGetInvsForNextPoll(t *testing.T) {
	require := require.New(t)

	p, _ := newTestProcessor(t, DefaultParameters)

	const numItems = protocol.MaxElementPoll + 4
	for i := numItems - 1; i >= 0; i-- {
		require.True(p.AddToReconcile(testInv(uint64(i)), true))
	}

	all := make([]protocol.Inv, numItems)
	for i := range all {
		all[i] = testInv(uint64(i))
	}
	slices.SortFunc(all, protocol.Inv.Compare)

	invs := p.GetInvsForNextPoll()
	require.Equal(all[:protocol.MaxElementPoll], invs)

	// Every item can be polled MaxInflightPoll times before getting an
	// answer.
	p, _ = newTestProcessor(t, DefaultParameters)
	inv := testInv(0)
	require.True(p.AddToReconcile(inv, true))
	for i := 0; i < voterecord.MaxInflightPoll; i++ {
		require.Equal([]protocol.Inv{inv}, p.GetInvsForNextPoll())
	}
	require.Empty(p.GetInvsForNextPoll())
}

func TestRegisterQuery(t *testing.T) {
	require := require.New(t)

	p, scheduler := newTestProcessor(t, DefaultParameters)

	invs := []protocol.Inv{testInv(0), testInv(1)}
	first := p.RegisterQuery(1, invs)
	second := p.RegisterQuery(2, invs[:1])
	require.Equal(uint64(0), first.Round)
	require.Equal(uint64(1), second.Round)
	require.Equal(invs, first.Invs)
	require.Equal(invs[:1], second.Invs)

	// The nodes are busy until the polls time out.
	require.Equal(startTime.Add(DefaultParameters.QueryTimeout), scheduler[1])
	require.Equal(startTime.Add(DefaultParameters.QueryTimeout), scheduler[2])
	require.Len(p.queries, 2)
	require.Equal(2, p.queriesByTimeout.Len())
}

func TestRegisterVotesErrors(t *testing.T) {
	inv := testInv(0)

	tests := []struct {
		name        string
		nodeID      ids.NodeID
		round       uint64
		votes       []protocol.Vote
		expectedErr error
	}{
		{
			name:   "valid",
			nodeID: 1,
			round:  0,
			votes: []protocol.Vote{
				{Error: protocol.VoteYes, Hash: inv.Hash},
			},
			expectedErr: nil,
		},
		{
			name:   "unknown round",
			nodeID: 1,
			round:  1,
			votes: []protocol.Vote{
				{Error: protocol.VoteYes, Hash: inv.Hash},
			},
			expectedErr: errUnexpectedResponse,
		},
		{
			name:   "other node",
			nodeID: 2,
			round:  0,
			votes: []protocol.Vote{
				{Error: protocol.VoteYes, Hash: inv.Hash},
			},
			expectedErr: errUnexpectedResponse,
		},
		{
			name:        "missing vote",
			nodeID:      1,
			round:       0,
			votes:       nil,
			expectedErr: errInvalidResponseSize,
		},
		{
			name:   "extra vote",
			nodeID: 1,
			round:  0,
			votes: []protocol.Vote{
				{Error: protocol.VoteYes, Hash: inv.Hash},
				{Error: protocol.VoteYes, Hash: inv.Hash},
			},
			expectedErr: errInvalidResponseSize,
		},
		{
			name:   "wrong item",
			nodeID: 1,
			round:  0,
			votes: []protocol.Vote{
				{Error: protocol.VoteYes, Hash: testInv(1).Hash},
			},
			expectedErr: errInvalidResponseContent,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)

			p, scheduler := newTestProcessor(t, DefaultParameters)
			require.True(p.AddToReconcile(inv, true))
			require.Equal([]protocol.Inv{inv}, p.GetInvsForNextPoll())
			p.RegisterQuery(1, []protocol.Inv{inv})

			_, err := p.RegisterVotes(test.nodeID, &protocol.Response{
				Round:    test.round,
				Cooldown: 100,
				Votes:    test.votes,
			})
			require.ErrorIs(err, test.expectedErr)

			// The cooldown is applied whatever the outcome.
			require.Equal(startTime.Add(100*time.Millisecond), scheduler[test.nodeID])

			if errors.Is(test.expectedErr, errUnexpectedResponse) {
				require.Len(p.queries, 1)
				return
			}

			// The poll was answered, even if badly.
			require.Empty(p.queries)
			require.Zero(p.queriesByTimeout.Len())
			require.Zero(p.voteRecords[inv].Inflight())

			_, err = p.RegisterVotes(test.nodeID, &protocol.Response{
				Round: test.round,
				Votes: test.votes,
			})
			require.ErrorIs(err, errUnexpectedResponse)
		})
	}
}

func TestRegisterVotesFinalizes(t *testing.T) {
	require := require.New(t)

	p, _ := newTestProcessor(t, DefaultParameters)

	inv := testInv(0)
	require.True(p.AddToReconcile(inv, true))

	var (
		updates []VoteItemUpdate
		rounds  int
	)
	for ; rounds < maxTestRounds && len(updates) == 0; rounds++ {
		updates = poll(t, p, ids.NodeID(rounds), protocol.VoteYes)
		if len(updates) == 0 {
			require.True(p.IsAccepted(inv))
		}
	}
	require.Equal([]VoteItemUpdate{{Inv: inv, Status: Finalized}}, updates)
	require.GreaterOrEqual(rounds, voterecord.FinalizationScore)

	require.Zero(p.VoteRecordCount())
	require.Equal(-1, p.GetConfidence(inv))
	require.True(p.IsRecentlyFinalized(inv.Hash))
	require.False(p.AddToReconcile(inv, true))

	require.NoError(p.ClearFinalizedItems())
	require.False(p.IsRecentlyFinalized(inv.Hash))
	require.True(p.AddToReconcile(inv, true))
}

func TestRegisterVotesRejectsThenInvalidates(t *testing.T) {
	require := require.New(t)

	p, _ := newTestProcessor(t, DefaultParameters)

	inv := testInv(0)
	require.True(p.AddToReconcile(inv, true))

	var statuses []VoteStatus
	for i := 0; i < maxTestRounds && p.VoteRecordCount() != 0; i++ {
		for _, update := range poll(t, p, ids.NodeID(i), protocol.VoteNo) {
			require.Equal(inv, update.Inv)
			statuses = append(statuses, update.Status)
		}
	}
	require.Equal([]VoteStatus{Rejected, Invalid}, statuses)
	require.True(p.IsRecentlyFinalized(inv.Hash))
}

func TestRegisterVotesAbstentionsDoNotFinalize(t *testing.T) {
	require := require.New(t)

	p, _ := newTestProcessor(t, DefaultParameters)

	inv := testInv(0)
	require.True(p.AddToReconcile(inv, true))
	for i := 0; i < 2*voterecord.FinalizationScore; i++ {
		require.Empty(poll(t, p, ids.NodeID(i), protocol.VoteUnknown))
	}
	require.Zero(p.GetConfidence(inv))
}

func TestRegisterVotesStale(t *testing.T) {
	require := require.New(t)

	params := DefaultParameters
	params.StaleVoteThreshold = voterecord.VoteStaleMinThreshold
	p, _ := newTestProcessor(t, params)

	inv := testInv(0)
	require.True(p.AddToReconcile(inv, true))

	// Alternating votes never reach a quorum.
	var updates []VoteItemUpdate
	for i := 0; i < maxTestRounds && len(updates) == 0; i++ {
		errCode := protocol.VoteYes
		if i%2 == 1 {
			errCode = protocol.VoteNo
		}
		updates = poll(t, p, ids.NodeID(i), errCode)
	}
	require.Equal([]VoteItemUpdate{{Inv: inv, Status: Stale}}, updates)
	require.Zero(p.VoteRecordCount())

	// Stale items may be voted on again.
	require.False(p.IsRecentlyFinalized(inv.Hash))
	require.True(p.AddToReconcile(inv, true))
}

func TestClearTimedoutRequests(t *testing.T) {
	require := require.New(t)

	p, _ := newTestProcessor(t, DefaultParameters)

	inv := testInv(0)
	require.True(p.AddToReconcile(inv, true))

	require.Equal([]protocol.Inv{inv}, p.GetInvsForNextPoll())
	expired := p.RegisterQuery(1, []protocol.Inv{inv})

	p.clock.Set(startTime.Add(DefaultParameters.QueryTimeout / 2))
	require.Equal([]protocol.Inv{inv}, p.GetInvsForNextPoll())
	pending := p.RegisterQuery(2, []protocol.Inv{inv})
	require.Equal(2, p.voteRecords[inv].Inflight())

	// A poll is only dropped once its timeout is over.
	p.clock.Set(startTime.Add(DefaultParameters.QueryTimeout))
	p.ClearTimedoutRequests()
	require.Len(p.queries, 2)

	p.clock.Set(startTime.Add(DefaultParameters.QueryTimeout + time.Millisecond))
	p.ClearTimedoutRequests()
	require.Len(p.queries, 1)
	require.Equal(1, p.queriesByTimeout.Len())
	require.Equal(1, p.voteRecords[inv].Inflight())

	_, err := p.RegisterVotes(1, &protocol.Response{
		Round: expired.Round,
		Votes: []protocol.Vote{{Error: protocol.VoteYes, Hash: inv.Hash}},
	})
	require.ErrorIs(err, errUnexpectedResponse)

	_, err = p.RegisterVotes(2, &protocol.Response{
		Round: pending.Round,
		Votes: []protocol.Vote{{Error: protocol.VoteYes, Hash: inv.Hash}},
	})
	require.NoError(err)
	require.Zero(p.voteRecords[inv].Inflight())
}

func TestVoteStatusString(t *testing.T) {
	require := require.New(t)

	require.Equal("finalized", Finalized.String())
	require.Equal("stale", Stale.String())
	require.Equal("unknown(9)", VoteStatus(9).String())
}
