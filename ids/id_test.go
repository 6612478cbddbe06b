// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ids

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestID(t *testing.T) {
	require := require.New(t)

	id := ID{24}
	idCopy := ID{24}
	prefixed := id.Prefix(0)

	require.Equal(idCopy, id)
	require.Equal(prefixed, id.Prefix(0))
	require.NotEqual(id, prefixed)
}

func TestIDStringRoundTrip(t *testing.T) {
	require := require.New(t)

	id := GenerateTestID()
	parsed, err := FromString(id.String())
	require.NoError(err)
	require.Equal(id, parsed)

	text, err := id.MarshalText()
	require.NoError(err)

	var unmarshalled ID
	require.NoError(unmarshalled.UnmarshalText(text))
	require.Equal(id, unmarshalled)
}

func TestToIDWrongLength(t *testing.T) {
	_, err := ToID([]byte{1, 2, 3})
	require.ErrorIs(t, err, errWrongIDLength)
}

func TestIDCompare(t *testing.T) {
	tests := []struct {
		a        ID
		b        ID
		expected int
	}{
		{a: ID{1}, b: ID{0}, expected: 1},
		{a: ID{1}, b: ID{1}, expected: 0},
		{a: ID{1, 0}, b: ID{1, 2}, expected: -1},
	}
	for _, test := range tests {
		t.Run(test.a.String()+"_"+test.b.String(), func(t *testing.T) {
			require := require.New(t)

			require.Equal(test.expected, test.a.Compare(test.b))
			require.Equal(-test.expected, test.b.Compare(test.a))
			require.Equal(test.expected < 0, test.a.Less(test.b))
		})
	}
}

func TestNodeAndPeerIDString(t *testing.T) {
	require := require.New(t)

	require.Equal("NodeID-42", NodeID(42).String())
	require.Equal("NoNode", NoNode.String())
	require.Equal("PeerID-7", PeerID(7).String())
	require.Equal("NoPeer", NoPeer.String())
}
