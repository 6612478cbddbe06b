// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proof

// ValidationResult is the outcome of Proof.Verify.
type ValidationResult uint8

const (
	Valid ValidationResult = iota
	NoStake
	TooManyUTXOs
	NonStandardDestination
	BelowDustThreshold
	WrongStakeOrdering
	DuplicateStake
	InvalidStakeSignature
	InvalidProofSignature

	// The following results depend on the chain state.

	MissingUTXO
	CoinbaseMismatch
	HeightMismatch
	AmountMismatch
	PubKeyMismatch
	ImmatureUTXO
)

func (r ValidationResult) String() string {
	switch r {
	case Valid:
		return "valid"
	case NoStake:
		return "no-stake"
	case TooManyUTXOs:
		return "too-many-utxos"
	case NonStandardDestination:
		return "non-standard-destination"
	case BelowDustThreshold:
		return "amount-below-dust-threshold"
	case WrongStakeOrdering:
		return "wrong-stake-ordering"
	case DuplicateStake:
		return "duplicated-stake"
	case InvalidStakeSignature:
		return "invalid-stake-signature"
	case InvalidProofSignature:
		return "invalid-proof-signature"
	case MissingUTXO:
		return "utxo-missing-or-spent"
	case CoinbaseMismatch:
		return "coinbase-mismatch"
	case HeightMismatch:
		return "height-mismatch"
	case AmountMismatch:
		return "amount-mismatch"
	case PubKeyMismatch:
		return "pubkey-mismatch"
	case ImmatureUTXO:
		return "immature-utxo"
	default:
		return "unknown"
	}
}
