// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bloom

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func element(i uint64) []byte {
	return binary.LittleEndian.AppendUint64(nil, i)
}

func TestNewRollingFilterErrors(t *testing.T) {
	tests := []struct {
		name        string
		maxN        uint64
		p           float64
		expectedErr error
	}{
		{
			name:        "no entries",
			maxN:        0,
			p:           0.01,
			expectedErr: errTooFewEntries,
		},
		{
			name:        "zero probability",
			maxN:        10,
			p:           0,
			expectedErr: errInvalidFalsePositiveRate,
		},
		{
			name:        "certain false positive",
			maxN:        10,
			p:           1,
			expectedErr: errInvalidFalsePositiveRate,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewRollingFilter(test.maxN, test.p)
			require.ErrorIs(t, err, test.expectedErr)
		})
	}
}

func TestRollingFilterRemembersLastElements(t *testing.T) {
	require := require.New(t)

	const maxN = 100
	f, err := NewRollingFilter(maxN, 1e-7)
	require.NoError(err)

	for i := uint64(0); i < 10*maxN; i++ {
		require.NoError(f.Add(element(i)))

		first := uint64(0)
		if i >= maxN {
			first = i - maxN + 1
		}
		for j := first; j <= i; j++ {
			require.True(f.Contains(element(j)), "%d after adding %d", j, i)
		}
		require.LessOrEqual(f.Count(), uint64(2*maxN))
	}

	// The oldest generations are gone.
	forgotten := 0
	for i := uint64(0); i < 5*maxN; i++ {
		if !f.Contains(element(i)) {
			forgotten++
		}
	}
	require.Greater(forgotten, 4*maxN)
}

func TestRollingFilterReset(t *testing.T) {
	require := require.New(t)

	f, err := NewRollingFilter(10, 1e-7)
	require.NoError(err)

	for i := uint64(0); i < 15; i++ {
		require.NoError(f.Add(element(i)))
	}
	require.Equal(uint64(15), f.Count())

	require.NoError(f.Reset())
	require.Zero(f.Count())
	for i := uint64(0); i < 15; i++ {
		require.False(f.Contains(element(i)))
	}
}
