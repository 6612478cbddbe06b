// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

const (
	ConfigFileKey      = "config-file"
	LogsDirKey         = "log-dir"
	LogLevelKey        = "log-level"
	LogDisplayLevelKey = "log-display-level"
	LogFormatKey       = "log-format"

	// Simulation
	StakersKey             = "stakers"
	StakesPerProofKey      = "stakes-per-proof"
	ItemsKey               = "items"
	ByzantineFractionKey   = "byzantine-fraction"
	KnownProofsFractionKey = "known-proofs-fraction"
	MaxRoundsKey           = "max-rounds"
	SeedKey                = "seed"

	// Peer manager
	StakeUTXODustThresholdKey   = "stake-utxo-dust-threshold"
	StakeUTXOConfirmationsKey   = "stake-utxo-confirmations"
	OrphanProofPoolMaxStakesKey = "orphan-proof-pool-max-stakes"
	ConflictingProofCooldownKey = "conflicting-proof-cooldown"
	DanglingTimeoutKey          = "dangling-timeout"

	// Vote processing
	AvalancheQueryTimeoutKey             = "avalanche-query-timeout"
	AvalancheStaleVoteThresholdKey       = "avalanche-stale-vote-threshold"
	AvalancheStaleVoteFactorKey          = "avalanche-stale-vote-factor"
	AvalancheFinalizedItemsFilterSizeKey = "avalanche-finalized-items-filter-size"
)
