// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package peermanager

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/preconsensus/avalanche/chain"
	"github.com/ava-labs/preconsensus/avalanche/delegation"
	"github.com/ava-labs/preconsensus/avalanche/proof"
	"github.com/ava-labs/preconsensus/ids"
	"github.com/ava-labs/preconsensus/utils/crypto/schnorr"
)

var testPubKey = schnorr.TestKey(1234).PublicKey()

func TestAddNodeToPeer(t *testing.T) {
	require := require.New(t)

	pm := newTestPeerManager(t, chain.NewState(0), testConfig)
	require.False(pm.AddNodeToPeer(0, 1, testPubKey))

	peerID := pm.AddPeer(100)
	require.True(pm.AddNodeToPeer(peerID, 1, testPubKey))
	require.False(pm.AddNodeToPeer(peerID, 1, testPubKey))
	require.True(pm.AddNodeToPeer(peerID, 2, testPubKey))
	require.Equal(2, pm.NodeCount())

	gotPeerID, pubKey, ok := pm.GetNode(1)
	require.True(ok)
	require.Equal(peerID, gotPeerID)
	require.Equal(testPubKey, pubKey)

	pm.ForEachPeer(func(p Peer) {
		require.Equal(2, p.NodeCount)
	})

	require.True(pm.RemoveNode(1))
	require.False(pm.RemoveNode(1))
	require.Equal(1, pm.NodeCount())
	require.True(pm.Verify())

	// Nodes of a peer without proof are dropped with it.
	require.True(pm.RemovePeer(peerID))
	require.Zero(pm.NodeCount())
	require.Zero(pm.PendingNodeCount())
	require.True(pm.Verify())
}

func TestGetSuitableNodeToQuery(t *testing.T) {
	require := require.New(t)

	pm := newTestPeerManager(t, chain.NewState(0), testConfig)
	require.False(pm.ShouldRequestMoreNodes())
	require.Equal(ids.NoNode, pm.GetSuitableNodeToQuery())
	require.True(pm.ShouldRequestMoreNodes())
	require.False(pm.ShouldRequestMoreNodes())

	// A peer without node can't be queried.
	peerID := pm.AddPeer(100)
	require.Equal(ids.NoNode, pm.GetSuitableNodeToQuery())

	require.True(pm.AddNodeToPeer(peerID, 1, testPubKey))
	require.True(pm.AddNodeToPeer(peerID, 2, testPubKey))

	now := pm.clock.Time()
	require.True(pm.UpdateNextRequestTime(1, now.Add(time.Second)))
	pm.ShouldRequestMoreNodes()
	require.Equal(ids.NodeID(2), pm.GetSuitableNodeToQuery())
	require.False(pm.ShouldRequestMoreNodes())

	require.True(pm.UpdateNextRequestTime(2, now.Add(2*time.Second)))
	require.Equal(ids.NoNode, pm.GetSuitableNodeToQuery())

	pm.clock.Set(now.Add(time.Second))
	require.Equal(ids.NodeID(1), pm.GetSuitableNodeToQuery())

	require.False(pm.UpdateNextRequestTime(3, now))
	require.True(pm.Verify())
}

func TestGetSuitableNodeToQueryCompacts(t *testing.T) {
	require := require.New(t)

	pm := newTestPeerManager(t, chain.NewState(0), testConfig)
	for i := 0; i < 100; i++ {
		pm.AddPeer(100)
	}
	for i := ids.PeerID(0); i < 99; i++ {
		require.True(pm.RemovePeer(i))
	}
	require.True(pm.AddNodeToPeer(99, 1, testPubKey))

	// Draws land in holes until the table is compacted.
	for i := 0; i < 10 && pm.Fragmentation() != 0; i++ {
		pm.GetSuitableNodeToQuery()
	}
	require.Zero(pm.Fragmentation())
	require.Equal(ids.NodeID(1), pm.GetSuitableNodeToQuery())
}

func TestAddNodePending(t *testing.T) {
	require := require.New(t)

	p := proof.BuildTestProof(1, 0, proof.DustThreshold, utxo0)
	state := chain.NewState(200)
	state.AddStakes(p)
	pm := newTestPeerManager(t, state, testConfig)

	require.False(pm.AddNode(1, p.ID()))
	require.True(pm.IsNodePending(1))
	require.Equal(1, pm.PendingNodeCount())
	require.Zero(pm.NodeCount())
	require.True(pm.Verify())

	_, result := pm.RegisterProof(p)
	require.Equal(Registered, result)
	require.False(pm.IsNodePending(1))
	require.Equal(1, pm.NodeCount())

	peerID, pubKey, ok := pm.GetNode(1)
	require.True(ok)
	require.Equal(p.Master(), pubKey)
	expectedPeerID, _ := pm.GetPeerID(p.ID())
	require.Equal(expectedPeerID, peerID)
	require.True(pm.Verify())

	// The node waits for the proof to come back.
	require.True(pm.RejectProof(p.ID(), RejectDefault))
	require.True(pm.IsNodePending(1))
	require.Zero(pm.NodeCount())
	require.True(pm.Verify())

	require.True(pm.RemoveNode(1))
	require.False(pm.IsNodePending(1))
	require.Zero(pm.PendingNodeCount())
	require.True(pm.Verify())
}

func TestAddNodeSwitchesPeer(t *testing.T) {
	require := require.New(t)

	p0 := proof.BuildTestProof(1, 0, proof.DustThreshold, utxo0)
	p1 := proof.BuildTestProof(2, 0, proof.DustThreshold, utxo1)
	state := chain.NewState(200)
	state.AddStakes(p0)
	state.AddStakes(p1)
	pm := newTestPeerManager(t, state, testConfig)

	_, result := pm.RegisterProof(p0)
	require.Equal(Registered, result)
	_, result = pm.RegisterProof(p1)
	require.Equal(Registered, result)
	peerID1, _ := pm.GetPeerID(p1.ID())

	require.True(pm.AddNode(1, p0.ID()))
	nextRequestTime := pm.clock.Time().Add(time.Minute)
	require.True(pm.UpdateNextRequestTime(1, nextRequestTime))

	require.True(pm.AddNode(1, p1.ID()))
	peerID, pubKey, ok := pm.GetNode(1)
	require.True(ok)
	require.Equal(peerID1, peerID)
	require.Equal(p1.Master(), pubKey)
	require.Equal(nextRequestTime, pm.nodes[1].nextRequestTime)
	require.Equal(1, pm.NodeCount())
	require.True(pm.Verify())

	// Pointing the node to an unknown proof unbinds it.
	unknown := proof.BuildTestProof(3, 0, proof.DustThreshold, utxo2)
	require.False(pm.AddNode(1, unknown.ID()))
	require.True(pm.IsNodePending(1))
	require.Zero(pm.NodeCount())
	require.True(pm.Verify())
}

func TestAddNodeWithDelegation(t *testing.T) {
	require := require.New(t)

	p := proof.BuildTestProof(1, 0, proof.DustThreshold, utxo0)
	state := chain.NewState(200)
	state.AddStakes(p)
	pm := newTestPeerManager(t, state, testConfig)
	_, result := pm.RegisterProof(p)
	require.Equal(Registered, result)

	delegatedKey := schnorr.TestKey(77)
	b := delegation.NewBuilderFromProof(p)
	require.NoError(b.AddLevel(schnorr.TestKey(1), delegatedKey.PublicKey()))
	d := b.Build()

	require.True(pm.AddNodeWithDelegation(1, d))
	_, pubKey, ok := pm.GetNode(1)
	require.True(ok)
	require.Equal(delegatedKey.PublicKey(), pubKey)

	forged := &delegation.Delegation{
		LimitedProofID: d.LimitedProofID,
		ProofMaster:    d.ProofMaster,
		Levels:         append([]delegation.Level(nil), d.Levels...),
	}
	forged.Levels[0].Signature[0] ^= 1
	require.False(pm.AddNodeWithDelegation(2, forged))
	require.False(pm.IsNodePending(2))
	_, _, ok = pm.GetNode(2)
	require.False(ok)
	require.True(pm.Verify())
}
