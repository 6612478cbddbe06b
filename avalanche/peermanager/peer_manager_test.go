// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package peermanager

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/preconsensus/avalanche/chain"
	"github.com/ava-labs/preconsensus/avalanche/proof"
	"github.com/ava-labs/preconsensus/ids"
	"github.com/ava-labs/preconsensus/utils/logging"
	"github.com/ava-labs/preconsensus/utils/sampler"
)

var testConfig = Config{
	StakeUTXODustThreshold:   proof.DustThreshold,
	StakeUTXOConfirmations:   0,
	OrphanProofPoolMaxStakes: proof.MaxProofStakes,
	ConflictingProofCooldown: 0,
	DanglingTimeout:          15 * time.Minute,
}

func newTestPeerManager(t *testing.T, view chain.UTXOView, config Config) *PeerManager {
	pm, err := New(
		logging.NoLog{},
		config,
		view,
		sampler.NewRNG(sampler.NewSource(0)),
		"test",
		prometheus.NewRegistry(),
	)
	require.NoError(t, err)
	pm.clock.Set(time.Unix(1_000_000, 0))
	return pm
}

func TestAddPeer(t *testing.T) {
	require := require.New(t)

	pm := newTestPeerManager(t, chain.NewState(0), testConfig)
	require.Equal(ids.NoPeer, pm.SelectPeer())

	for i, score := range []uint32{100, 0, 200, 50} {
		require.Equal(ids.PeerID(i), pm.AddPeer(score))
	}
	require.Equal(uint64(350), pm.SlotCount())
	require.Zero(pm.Fragmentation())
	require.Equal(uint64(350), pm.TotalScore())
	require.Equal(4, pm.PeerCount())
	require.True(pm.Verify())

	expected := []Slot{
		NewSlot(0, 100, 0),
		NewSlot(100, 0, 1),
		NewSlot(100, 200, 2),
		NewSlot(300, 50, 3),
	}
	require.Equal(expected, pm.slots)
}

func TestRemovePeer(t *testing.T) {
	require := require.New(t)

	pm := newTestPeerManager(t, chain.NewState(0), testConfig)
	for i := 0; i < 4; i++ {
		pm.AddPeer(100)
	}

	require.False(pm.RemovePeer(42))

	// Removing from the middle leaves holes.
	require.True(pm.RemovePeer(1))
	require.True(pm.RemovePeer(2))
	require.Equal(uint64(400), pm.SlotCount())
	require.Equal(uint64(200), pm.Fragmentation())
	require.True(pm.Verify())
	require.False(pm.RemovePeer(1))

	// Removing the last slot drops the holes in front of it.
	require.True(pm.RemovePeer(3))
	require.Equal(uint64(100), pm.SlotCount())
	require.Zero(pm.Fragmentation())
	require.Len(pm.slots, 1)
	require.True(pm.Verify())

	require.True(pm.RemovePeer(0))
	require.Zero(pm.SlotCount())
	require.Empty(pm.slots)
	require.Equal(ids.NoPeer, pm.SelectPeer())
	require.True(pm.Verify())
}

func TestRescorePeer(t *testing.T) {
	tests := []struct {
		name                  string
		peerID                ids.PeerID
		score                 uint32
		expectedSlots         []Slot
		expectedSlotCount     uint64
		expectedFragmentation uint64
	}{
		{
			name:   "grow last slot",
			peerID: 2,
			score:  150,
			expectedSlots: []Slot{
				NewSlot(0, 100, 0),
				NewSlot(100, 50, 1),
				NewSlot(200, 150, 2),
			},
			expectedSlotCount:     350,
			expectedFragmentation: 50,
		},
		{
			name:   "shrink last slot",
			peerID: 2,
			score:  10,
			expectedSlots: []Slot{
				NewSlot(0, 100, 0),
				NewSlot(100, 50, 1),
				NewSlot(200, 10, 2),
			},
			expectedSlotCount:     210,
			expectedFragmentation: 50,
		},
		{
			name:   "shrink in place",
			peerID: 0,
			score:  40,
			expectedSlots: []Slot{
				NewSlot(0, 40, 0),
				NewSlot(100, 50, 1),
				NewSlot(200, 100, 2),
			},
			expectedSlotCount:     300,
			expectedFragmentation: 110,
		},
		{
			name:   "grow into the hole",
			peerID: 1,
			score:  100,
			expectedSlots: []Slot{
				NewSlot(0, 100, 0),
				NewSlot(100, 100, 1),
				NewSlot(200, 100, 2),
			},
			expectedSlotCount:     300,
			expectedFragmentation: 0,
		},
		{
			name:   "relocate when overlapping",
			peerID: 0,
			score:  150,
			expectedSlots: []Slot{
				NewSlot(0, 100, ids.NoPeer),
				NewSlot(100, 50, 1),
				NewSlot(200, 100, 2),
				NewSlot(300, 150, 0),
			},
			expectedSlotCount:     450,
			expectedFragmentation: 150,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)

			// Peer 1 shrinks from 100 to 50, leaving a hole of 50 before
			// peer 2.
			pm := newTestPeerManager(t, chain.NewState(0), testConfig)
			pm.AddPeer(100)
			pm.AddPeer(100)
			pm.AddPeer(100)
			require.True(pm.RescorePeer(1, 50))
			require.Equal(uint64(50), pm.Fragmentation())

			require.True(pm.RescorePeer(test.peerID, test.score))
			require.Equal(test.expectedSlots, pm.slots)
			require.Equal(test.expectedSlotCount, pm.SlotCount())
			require.Equal(test.expectedFragmentation, pm.Fragmentation())
			require.True(pm.Verify())
		})
	}
}

func TestRescoreUnknownPeer(t *testing.T) {
	pm := newTestPeerManager(t, chain.NewState(0), testConfig)
	require.False(t, pm.RescorePeer(0, 100))
}

func TestCompact(t *testing.T) {
	require := require.New(t)

	pm := newTestPeerManager(t, chain.NewState(0), testConfig)
	require.Zero(pm.Compact())

	for i := 0; i < 10; i++ {
		pm.AddPeer(100)
	}
	require.Zero(pm.Compact())

	for i := ids.PeerID(0); i < 10; i += 2 {
		require.True(pm.RemovePeer(i))
	}
	require.True(pm.RescorePeer(1, 20))
	require.True(pm.RescorePeer(3, 200))

	fragmentation := pm.Fragmentation()
	require.Equal(fragmentation, pm.Compact())
	require.Zero(pm.Fragmentation())
	require.True(pm.Verify())

	expected := []Slot{
		NewSlot(0, 20, 1),
		NewSlot(20, 100, 5),
		NewSlot(120, 100, 7),
		NewSlot(220, 100, 9),
		NewSlot(320, 200, 3),
	}
	require.Equal(expected, pm.slots)
	require.Equal(uint64(520), pm.SlotCount())

	// With no hole left, every draw selects a peer.
	for i := 0; i < 100; i++ {
		require.NotEqual(ids.NoPeer, pm.SelectPeer())
	}
}

func TestSelectPeerFairness(t *testing.T) {
	require := require.New(t)

	pm := newTestPeerManager(t, chain.NewState(0), testConfig)
	low := pm.AddPeer(100)
	high := pm.AddPeer(300)

	const numDraws = 100_000
	counts := make(map[ids.PeerID]int)
	for i := 0; i < numDraws; i++ {
		counts[pm.SelectPeer()]++
	}

	require.Len(counts, 2)
	require.InDelta(0.25, float64(counts[low])/numDraws, 0.02)
	require.InDelta(0.75, float64(counts[high])/numDraws, 0.02)
}

func TestSelectPeerSkipsHoles(t *testing.T) {
	require := require.New(t)

	pm := newTestPeerManager(t, chain.NewState(0), testConfig)
	for i := 0; i < 20; i++ {
		pm.AddPeer(100)
	}
	for i := ids.PeerID(0); i < 19; i++ {
		require.True(pm.RemovePeer(i))
	}

	// Only the last peer is left, holes either fail the draw or select it.
	for i := 0; i < 100; i++ {
		peerID := pm.SelectPeer()
		require.Contains([]ids.PeerID{ids.NoPeer, 19}, peerID)
	}

	pm.Compact()
	for i := 0; i < 100; i++ {
		require.Equal(ids.PeerID(19), pm.SelectPeer())
	}
}

func TestRandomOperationsKeepStateConsistent(t *testing.T) {
	require := require.New(t)

	var (
		pm      = newTestPeerManager(t, chain.NewState(0), testConfig)
		rng     = sampler.NewRNG(sampler.NewSource(42))
		peerIDs []ids.PeerID
		nodeID  ids.NodeID
	)
	for i := 0; i < 2000; i++ {
		switch op := rng.Uint64n(10); {
		case op < 4 || len(peerIDs) == 0:
			peerIDs = append(peerIDs, pm.AddPeer(uint32(rng.Uint64n(1000))))
		case op < 6:
			j := int(rng.Uint64n(uint64(len(peerIDs))))
			require.True(pm.RemovePeer(peerIDs[j]))
			peerIDs = append(peerIDs[:j], peerIDs[j+1:]...)
		case op < 8:
			j := int(rng.Uint64n(uint64(len(peerIDs))))
			require.True(pm.RescorePeer(peerIDs[j], uint32(rng.Uint64n(1000))))
		case op < 9:
			j := int(rng.Uint64n(uint64(len(peerIDs))))
			require.True(pm.AddNodeToPeer(peerIDs[j], nodeID, testPubKey))
			nodeID++
		default:
			fragmentation := pm.Fragmentation()
			require.Equal(fragmentation, pm.Compact())
		}
		require.True(pm.Verify(), "operation %d", i)

		if peerID := pm.SelectPeer(); peerID != ids.NoPeer {
			require.Contains(peerIDs, peerID)
		}
	}
}

func TestConfigVerify(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectedErr error
	}{
		{
			name:        "default",
			config:      DefaultConfig,
			expectedErr: nil,
		},
		{
			name: "orphan pool smaller than a proof",
			config: func() Config {
				c := DefaultConfig
				c.OrphanProofPoolMaxStakes = proof.MaxProofStakes - 1
				return c
			}(),
			expectedErr: ErrParametersInvalid,
		},
		{
			name: "negative cooldown",
			config: func() Config {
				c := DefaultConfig
				c.ConflictingProofCooldown = -time.Second
				return c
			}(),
			expectedErr: ErrParametersInvalid,
		},
		{
			name: "negative dangling timeout",
			config: func() Config {
				c := DefaultConfig
				c.DanglingTimeout = -time.Second
				return c
			}(),
			expectedErr: ErrParametersInvalid,
		},
		{
			name: "no dangling timeout",
			config: func() Config {
				c := DefaultConfig
				c.DanglingTimeout = 0
				return c
			}(),
			expectedErr: nil,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.config.Verify()
			require.ErrorIs(t, err, test.expectedErr)
		})
	}
}

func TestNewInvalidConfig(t *testing.T) {
	config := DefaultConfig
	config.OrphanProofPoolMaxStakes = 0
	_, err := New(logging.NoLog{}, config, chain.NewState(0), sampler.Global(), "test", prometheus.NewRegistry())
	require.ErrorIs(t, err, ErrParametersInvalid)
}
