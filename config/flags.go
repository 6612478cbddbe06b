// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ava-labs/preconsensus/avalanche/peermanager"
	"github.com/ava-labs/preconsensus/avalanche/processor"
	"github.com/ava-labs/preconsensus/simulator"
)

// EnvPrefix is prepended to the upper cased flag keys, with dashes replaced
// by underscores, to look up their environment variable.
const EnvPrefix = "avasim"

// BuildFlagSet returns the complete set of flags for avasim.
func BuildFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("avasim", pflag.ContinueOnError)
	AddFlags(fs)
	return fs
}

func AddFlags(fs *pflag.FlagSet) {
	fs.String(ConfigFileKey, "", "Specifies a JSON or YAML config file")

	// Logging
	fs.String(LogsDirKey, "", "Logging directory. Logs are only displayed if left empty")
	fs.String(LogLevelKey, "info", "The log level. Should be one of {verbo, debug, trace, info, warn, error, fatal, off}")
	fs.String(LogDisplayLevelKey, "", "The log display level. If left blank, will inherit the value of log-level")
	fs.String(LogFormatKey, "plain", "The structure of log format. Should be one of {plain, json}")

	// Simulation
	fs.Int(StakersKey, simulator.DefaultConfig.Stakers, "Number of simulated stakers")
	fs.Int(StakesPerProofKey, simulator.DefaultConfig.StakesPerProof, "Number of coins staked by every proof")
	fs.Int(ItemsKey, simulator.DefaultConfig.Items, "Number of blocks and transactions to vote on")
	fs.Float64(ByzantineFractionKey, simulator.DefaultConfig.ByzantineFraction, "Part of the stakers voting against the honest view")
	fs.Float64(KnownProofsFractionKey, simulator.DefaultConfig.KnownProofsFraction, "Part of the proofs known before they are announced")
	fs.Int(MaxRoundsKey, simulator.DefaultConfig.MaxRounds, "Maximum number of polling rounds")
	fs.Uint64(SeedKey, simulator.DefaultConfig.Seed, "Seed of the simulation randomness")

	// Peer manager
	fs.Uint64(StakeUTXODustThresholdKey, peermanager.DefaultConfig.StakeUTXODustThreshold, "Minimum amount of a single stake")
	fs.Uint32(StakeUTXOConfirmationsKey, peermanager.DefaultConfig.StakeUTXOConfirmations, "Number of confirmations a staked coin needs")
	fs.Int(OrphanProofPoolMaxStakesKey, peermanager.DefaultConfig.OrphanProofPoolMaxStakes, "Maximum number of stakes held by orphan proofs")
	fs.Duration(ConflictingProofCooldownKey, peermanager.DefaultConfig.ConflictingProofCooldown, "Minimum delay between two conflicting proofs replacing each other")
	fs.Duration(DanglingTimeoutKey, peermanager.DefaultConfig.DanglingTimeout, "Time a proof can back a peer without any node before it is dropped")

	// Vote processing
	fs.Duration(AvalancheQueryTimeoutKey, processor.DefaultParameters.QueryTimeout, "Timeout of a poll")
	fs.Uint32(AvalancheStaleVoteThresholdKey, processor.DefaultParameters.StaleVoteThreshold, "Number of votes after which an item may be considered stale")
	fs.Uint32(AvalancheStaleVoteFactorKey, processor.DefaultParameters.StaleVoteFactor, "Ratio of votes to confidence below which an item is stale")
	fs.Uint64(AvalancheFinalizedItemsFilterSizeKey, processor.DefaultParameters.FinalizedItemsFilterSize, "Number of recently finalized items that are not voted on again")
}

// GetViper binds the parsed flags of [fs], the environment and, if one is
// specified, the config file.
func GetViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetEnvPrefix(EnvPrefix)
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}

	if v.IsSet(ConfigFileKey) {
		configFile := os.ExpandEnv(v.GetString(ConfigFileKey))
		if configFile != "" {
			v.SetConfigFile(configFile)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("couldn't read config file %q: %w", configFile, err)
			}
		}
	}
	return v, nil
}

// BuildViper parses [args] and returns the resulting viper environment.
func BuildViper(fs *pflag.FlagSet, args []string) (*viper.Viper, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return GetViper(fs)
}
