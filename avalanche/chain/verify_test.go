// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ava-labs/preconsensus/avalanche/chain"
	"github.com/ava-labs/preconsensus/avalanche/chain/chainmock"
	"github.com/ava-labs/preconsensus/avalanche/proof"
	"github.com/ava-labs/preconsensus/utils/crypto/schnorr"
)

const testAmount = 2 * proof.DustThreshold

func TestVerifyProof(t *testing.T) {
	p := proof.BuildTestProofWithStakes(1, 1, testAmount)
	stake := p.Stakes()[0].Stake
	matching := chain.Coin{
		Amount:     stake.Amount,
		Height:     stake.Height,
		IsCoinbase: stake.IsCoinbase,
		PubKey:     stake.PubKey,
	}

	tests := []struct {
		name          string
		coin          chain.Coin
		exists        bool
		tipHeight     uint32
		confirmations uint32
		expected      proof.ValidationResult
	}{
		{
			name:      "valid",
			coin:      matching,
			exists:    true,
			tipHeight: stake.Height,
			expected:  proof.Valid,
		},
		{
			name:     "missing",
			exists:   false,
			expected: proof.MissingUTXO,
		},
		{
			name: "coinbase mismatch",
			coin: func() chain.Coin {
				c := matching
				c.IsCoinbase = !c.IsCoinbase
				return c
			}(),
			exists:   true,
			expected: proof.CoinbaseMismatch,
		},
		{
			name: "height mismatch",
			coin: func() chain.Coin {
				c := matching
				c.Height++
				return c
			}(),
			exists:   true,
			expected: proof.HeightMismatch,
		},
		{
			name: "amount mismatch",
			coin: func() chain.Coin {
				c := matching
				c.Amount--
				return c
			}(),
			exists:   true,
			expected: proof.AmountMismatch,
		},
		{
			name: "pubkey mismatch",
			coin: func() chain.Coin {
				c := matching
				c.PubKey = schnorr.TestKey(1000).PublicKey()
				return c
			}(),
			exists:   true,
			expected: proof.PubKeyMismatch,
		},
		{
			name:          "immature",
			coin:          matching,
			exists:        true,
			tipHeight:     stake.Height + 8,
			confirmations: 10,
			expected:      proof.ImmatureUTXO,
		},
		{
			name:          "just mature",
			coin:          matching,
			exists:        true,
			tipHeight:     stake.Height + 9,
			confirmations: 10,
			expected:      proof.Valid,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			view := chainmock.NewUTXOView(ctrl)
			view.EXPECT().TipHeight().Return(test.tipHeight)
			view.EXPECT().GetCoin(stake.UTXO).Return(test.coin, test.exists)

			result := chain.VerifyProof(p, view, proof.DustThreshold, test.confirmations)
			require.Equal(t, test.expected, result)
		})
	}
}

func TestVerifyProofStatelessFailure(t *testing.T) {
	ctrl := gomock.NewController(t)

	// The chain must not be consulted when the proof is invalid on its own.
	view := chainmock.NewUTXOView(ctrl)

	p := proof.BuildTestProofWithStakes(1, 1, proof.DustThreshold)
	result := chain.VerifyProof(p, view, proof.DustThreshold+1, 0)
	require.Equal(t, proof.BelowDustThreshold, result)
}

func TestStateNotifications(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)

	s := chain.NewState(10)
	n := chainmock.NewNotifications(ctrl)
	s.Subscribe(n)

	txID := proof.TestOutpoint(1, 0).TxID
	gomock.InOrder(
		n.EXPECT().BlockConnected(uint32(11)),
		n.EXPECT().BlockDisconnected(uint32(10)),
		n.EXPECT().TransactionAdded(txID),
		n.EXPECT().TransactionRemoved(txID),
	)

	s.ConnectBlock()
	require.Equal(uint32(11), s.TipHeight())
	s.DisconnectBlock()
	require.Equal(uint32(10), s.TipHeight())
	s.AddTransaction(txID)
	s.RemoveTransaction(txID)
}

func TestStateCoins(t *testing.T) {
	require := require.New(t)

	s := chain.NewState(0)
	p := proof.BuildTestProofWithStakes(2, 3, testAmount)
	require.Equal(proof.MissingUTXO, chain.VerifyProof(p, s, proof.DustThreshold, 0))

	s.AddStakes(p)
	require.Equal(proof.Valid, chain.VerifyProof(p, s, proof.DustThreshold, 0))

	utxo := p.Stakes()[1].UTXO
	require.True(s.SpendCoin(utxo))
	require.False(s.SpendCoin(utxo))
	_, ok := s.GetCoin(utxo)
	require.False(ok)
	require.Equal(proof.MissingUTXO, chain.VerifyProof(p, s, proof.DustThreshold, 0))

	// Disconnecting below genesis is ignored.
	s.DisconnectBlock()
	require.Zero(s.TipHeight())
}
