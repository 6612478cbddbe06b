// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mockable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClockSet(t *testing.T) {
	require := require.New(t)

	clock := Clock{}
	clock.Set(time.Unix(1000000, 0))
	require.Equal(time.Unix(1000000, 0), clock.Time())
	require.Equal(int64(1000000), clock.Unix())

	clock.Advance(time.Minute)
	require.Equal(time.Unix(1000060, 0), clock.Time())
}

func TestClockSync(t *testing.T) {
	require := require.New(t)

	clock := Clock{}
	clock.Set(time.Unix(0, 0))
	require.Equal(time.Unix(0, 0), clock.Time())

	clock.Sync()
	require.True(clock.Time().After(time.Unix(0, 0)))
}
