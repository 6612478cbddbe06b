// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import "github.com/ava-labs/preconsensus/avalanche/proof"

// VerifyProof runs the stateless checks of [p] and then checks every stake
// against [view]. A stake is mature once its coin has at least
// [confirmations] confirmations, counting the block that created it.
//
// When a stake is both missing and immature, MissingUTXO is reported: a
// missing utxo can't become valid by waiting.
func VerifyProof(
	p *proof.Proof,
	view UTXOView,
	dustThreshold uint64,
	confirmations uint32,
) proof.ValidationResult {
	if result := p.Verify(dustThreshold); result != proof.Valid {
		return result
	}

	var (
		tipHeight = view.TipHeight()
		immature  bool
	)
	for _, ss := range p.Stakes() {
		stake := &ss.Stake
		coin, ok := view.GetCoin(stake.UTXO)
		switch {
		case !ok:
			return proof.MissingUTXO
		case coin.IsCoinbase != stake.IsCoinbase:
			return proof.CoinbaseMismatch
		case coin.Height != stake.Height:
			return proof.HeightMismatch
		case coin.Amount != stake.Amount:
			return proof.AmountMismatch
		case coin.PubKey != stake.PubKey:
			return proof.PubKeyMismatch
		}

		if !isMature(coin.Height, tipHeight, confirmations) {
			immature = true
		}
	}
	if immature {
		return proof.ImmatureUTXO
	}
	return proof.Valid
}

func isMature(coinHeight, tipHeight, confirmations uint32) bool {
	if confirmations == 0 {
		return true
	}
	if coinHeight > tipHeight {
		return false
	}
	return uint64(tipHeight)-uint64(coinHeight)+1 >= uint64(confirmations)
}
