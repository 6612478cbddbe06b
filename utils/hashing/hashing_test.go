// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package hashing

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeDoubleHash256Array(t *testing.T) {
	require := require.New(t)

	buf := []byte("avalanche")
	first := sha256.Sum256(buf)
	expected := sha256.Sum256(first[:])
	require.Equal(expected, ComputeDoubleHash256Array(buf))
	require.NotEqual(ComputeHash256Array(buf), ComputeDoubleHash256Array(buf))
}
