// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"os"

	"github.com/spf13/viper"

	"github.com/ava-labs/preconsensus/avalanche/peermanager"
	"github.com/ava-labs/preconsensus/avalanche/processor"
	"github.com/ava-labs/preconsensus/simulator"
	"github.com/ava-labs/preconsensus/utils/logging"
)

type Config struct {
	Logging   logging.Config   `json:"loggingConfig"`
	Simulator simulator.Config `json:"simulatorConfig"`
}

// GetConfig reads the configuration defined in [v] and verifies it.
func GetConfig(v *viper.Viper) (Config, error) {
	loggingConfig, err := getLoggingConfig(v)
	if err != nil {
		return Config{}, err
	}

	simulatorConfig := simulator.Config{
		Stakers:             v.GetInt(StakersKey),
		StakesPerProof:      v.GetInt(StakesPerProofKey),
		Items:               v.GetInt(ItemsKey),
		ByzantineFraction:   v.GetFloat64(ByzantineFractionKey),
		KnownProofsFraction: v.GetFloat64(KnownProofsFractionKey),
		MaxRounds:           v.GetInt(MaxRoundsKey),
		Seed:                v.GetUint64(SeedKey),
		PeerManager:         getPeerManagerConfig(v),
		Processor:           getProcessorParameters(v),
	}
	if err := simulatorConfig.Verify(); err != nil {
		return Config{}, err
	}

	return Config{
		Logging:   loggingConfig,
		Simulator: simulatorConfig,
	}, nil
}

func getLoggingConfig(v *viper.Viper) (logging.Config, error) {
	config := logging.DefaultConfig(os.ExpandEnv(v.GetString(LogsDirKey)))

	var err error
	config.LogLevel, err = logging.ToLevel(v.GetString(LogLevelKey))
	if err != nil {
		return config, err
	}

	config.DisplayLevel = config.LogLevel
	if v.IsSet(LogDisplayLevelKey) {
		config.DisplayLevel, err = logging.ToLevel(v.GetString(LogDisplayLevelKey))
		if err != nil {
			return config, err
		}
	}

	config.LogFormat, err = logging.ToFormat(v.GetString(LogFormatKey))
	return config, err
}

func getPeerManagerConfig(v *viper.Viper) peermanager.Config {
	return peermanager.Config{
		StakeUTXODustThreshold:   v.GetUint64(StakeUTXODustThresholdKey),
		StakeUTXOConfirmations:   v.GetUint32(StakeUTXOConfirmationsKey),
		OrphanProofPoolMaxStakes: v.GetInt(OrphanProofPoolMaxStakesKey),
		ConflictingProofCooldown: v.GetDuration(ConflictingProofCooldownKey),
		DanglingTimeout:          v.GetDuration(DanglingTimeoutKey),
	}
}

func getProcessorParameters(v *viper.Viper) processor.Parameters {
	return processor.Parameters{
		QueryTimeout:             v.GetDuration(AvalancheQueryTimeoutKey),
		StaleVoteThreshold:       v.GetUint32(AvalancheStaleVoteThresholdKey),
		StaleVoteFactor:          v.GetUint32(AvalancheStaleVoteFactorKey),
		FinalizedItemsFilterSize: v.GetUint64(AvalancheFinalizedItemsFilterSizeKey),
	}
}
