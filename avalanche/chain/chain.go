// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package chain describes what the pre-consensus engine needs from the
// underlying blockchain: a view of the unspent coins and notifications about
// blocks and transactions.
package chain

import (
	"github.com/ava-labs/preconsensus/avalanche/proof"
	"github.com/ava-labs/preconsensus/ids"
	"github.com/ava-labs/preconsensus/utils/crypto/schnorr"
)

// Coin is an unspent transaction output as seen by the chain.
type Coin struct {
	Amount     uint64
	Height     uint32
	IsCoinbase bool
	PubKey     schnorr.PublicKey
}

// UTXOView answers questions about the current set of unspent coins.
type UTXOView interface {
	// GetCoin returns the coin at [utxo], or false if it doesn't exist or
	// was spent.
	GetCoin(utxo proof.Outpoint) (Coin, bool)

	// TipHeight returns the height of the current chain tip.
	TipHeight() uint32
}

// Notifications is implemented by components that follow the chain.
type Notifications interface {
	BlockConnected(height uint32)
	BlockDisconnected(height uint32)
	TransactionAdded(txID ids.ID)
	TransactionRemoved(txID ids.ID)
}
