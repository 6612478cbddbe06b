// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package protocol

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/preconsensus/ids"
	"github.com/ava-labs/preconsensus/utils/wrappers"
)

func testInvs(n int) []Inv {
	invs := make([]Inv, n)
	for i := range invs {
		invs[i] = Inv{
			Type: MsgBlock,
			Hash: ids.Empty.Prefix(uint64(i)),
		}
	}
	return invs
}

func testVotes(n int) []Vote {
	votes := make([]Vote, n)
	for i := range votes {
		votes[i] = Vote{
			Error: uint32(i),
			Hash:  ids.Empty.Prefix(uint64(i)),
		}
	}
	return votes
}

func TestPoll(t *testing.T) {
	require := require.New(t)

	poll := &Poll{
		Round: 42,
		Invs:  testInvs(MaxElementPoll),
	}
	b, err := poll.Bytes()
	require.NoError(err)
	require.Len(b, wrappers.LongLen+1+MaxElementPoll*invLen)

	parsed, err := ParsePoll(b)
	require.NoError(err)
	require.Equal(poll, parsed)

	_, err = (&Poll{Invs: testInvs(MaxElementPoll + 1)}).Bytes()
	require.ErrorIs(err, errTooManyElements)

	_, err = ParsePoll(append(b, 0))
	require.ErrorIs(err, errTrailingBytes)

	_, err = ParsePoll(b[:wrappers.LongLen-1])
	require.ErrorIs(err, wrappers.ErrInsufficientLength)
}

func TestResponse(t *testing.T) {
	require := require.New(t)

	response := &Response{
		Round:    7,
		Cooldown: 100,
		Votes:    testVotes(3),
	}
	b, err := response.Bytes()
	require.NoError(err)

	parsed, err := ParseResponse(b)
	require.NoError(err)
	require.Equal(response, parsed)

	_, err = (&Response{Votes: testVotes(MaxElementPoll + 1)}).Bytes()
	require.ErrorIs(err, errTooManyElements)
}

func TestParseTooManyElements(t *testing.T) {
	require := require.New(t)

	p := wrappers.Packer{MaxSize: math.MaxInt32}
	p.PackLong(1)
	p.PackCompactSize(MaxElementPoll + 1)
	for _, inv := range testInvs(MaxElementPoll + 1) {
		inv.pack(&p)
	}
	_, err := ParsePoll(p.Bytes)
	require.ErrorIs(err, errTooManyElements)

	p = wrappers.Packer{MaxSize: math.MaxInt32}
	p.PackLong(1)
	p.PackInt(0)
	p.PackCompactSize(MaxElementPoll + 1)
	for _, v := range testVotes(MaxElementPoll + 1) {
		v.pack(&p)
	}
	_, err = ParseResponse(p.Bytes)
	require.ErrorIs(err, errTooManyElements)
}

func TestVoteErrors(t *testing.T) {
	tests := []struct {
		errCode            uint32
		expectedYes        bool
		expectedAbstention bool
	}{
		{
			errCode:     VoteYes,
			expectedYes: true,
		},
		{
			errCode: VoteNo,
		},
		{
			errCode: 3,
		},
		{
			errCode:            VoteUnknown,
			expectedAbstention: true,
		},
		{
			errCode:            1 << 31,
			expectedAbstention: true,
		},
	}
	for _, test := range tests {
		require.Equal(t, test.expectedYes, IsYes(test.errCode), "%d", test.errCode)
		require.Equal(t, test.expectedAbstention, IsAbstention(test.errCode), "%d", test.errCode)
	}
}

func TestInvString(t *testing.T) {
	require := require.New(t)

	require.Equal("proof", MsgProof.String())
	require.Equal("unknown(3)", InvType(3).String())
	inv := Inv{Type: MsgTx, Hash: ids.Empty}
	require.Equal("tx "+ids.Empty.String(), inv.String())
}
