// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/preconsensus/avalanche/peermanager"
	"github.com/ava-labs/preconsensus/avalanche/processor"
	"github.com/ava-labs/preconsensus/simulator"
	"github.com/ava-labs/preconsensus/utils/logging"
)

func getConfig(t *testing.T, args ...string) (Config, error) {
	v, err := BuildViper(BuildFlagSet(), args)
	require.NoError(t, err)
	return GetConfig(v)
}

func TestGetConfigDefaults(t *testing.T) {
	require := require.New(t)

	config, err := getConfig(t)
	require.NoError(err)
	require.Equal(simulator.DefaultConfig, config.Simulator)
	require.Equal(logging.Info, config.Logging.LogLevel)
	require.Equal(logging.Info, config.Logging.DisplayLevel)
	require.Equal(logging.Plain, config.Logging.LogFormat)
	require.Empty(config.Logging.Directory)
}

func TestGetConfigFlags(t *testing.T) {
	require := require.New(t)

	config, err := getConfig(t,
		"--"+StakersKey+"=7",
		"--"+ByzantineFractionKey+"=0.25",
		"--"+SeedKey+"=42",
		"--"+StakeUTXOConfirmationsKey+"=6",
		"--"+ConflictingProofCooldownKey+"=2m",
		"--"+DanglingTimeoutKey+"=30m",
		"--"+AvalancheQueryTimeoutKey+"=3s",
		"--"+AvalancheStaleVoteFactorKey+"=8",
		"--"+LogLevelKey+"=debug",
		"--"+LogDisplayLevelKey+"=warn",
		"--"+LogFormatKey+"=json",
	)
	require.NoError(err)

	require.Equal(7, config.Simulator.Stakers)
	require.Equal(0.25, config.Simulator.ByzantineFraction)
	require.Equal(uint64(42), config.Simulator.Seed)
	require.Equal(uint32(6), config.Simulator.PeerManager.StakeUTXOConfirmations)
	require.Equal(2*time.Minute, config.Simulator.PeerManager.ConflictingProofCooldown)
	require.Equal(30*time.Minute, config.Simulator.PeerManager.DanglingTimeout)
	require.Equal(3*time.Second, config.Simulator.Processor.QueryTimeout)
	require.Equal(uint32(8), config.Simulator.Processor.StaleVoteFactor)
	require.Equal(logging.Debug, config.Logging.LogLevel)
	require.Equal(logging.Warn, config.Logging.DisplayLevel)
	require.Equal(logging.JSON, config.Logging.LogFormat)
}

func TestGetConfigFile(t *testing.T) {
	require := require.New(t)

	configFile := filepath.Join(t.TempDir(), "config.json")
	require.NoError(os.WriteFile(configFile, []byte(`{
		"items": 3,
		"max-rounds": 9,
		"avalanche-finalized-items-filter-size": 50
	}`), 0o600))

	config, err := getConfig(t,
		"--"+ConfigFileKey+"="+configFile,
		"--"+MaxRoundsKey+"=11",
	)
	require.NoError(err)
	require.Equal(3, config.Simulator.Items)
	require.Equal(uint64(50), config.Simulator.Processor.FinalizedItemsFilterSize)
	// Flags take precedence over the config file.
	require.Equal(11, config.Simulator.MaxRounds)

	v, err := BuildViper(BuildFlagSet(), []string{"--" + ConfigFileKey + "=" + filepath.Join(t.TempDir(), "missing.json")})
	require.Error(err) //nolint:forbidigo // error is returned by viper
	require.Nil(v)
}

func TestGetConfigEnv(t *testing.T) {
	t.Setenv("AVASIM_STAKES_PER_PROOF", "5")

	config, err := getConfig(t)
	require.NoError(t, err)
	require.Equal(t, 5, config.Simulator.StakesPerProof)
}

func TestGetConfigErrors(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		expectedErr error
	}{
		{
			name:        "invalid simulator config",
			args:        []string{"--" + StakersKey + "=0"},
			expectedErr: simulator.ErrInvalidConfig,
		},
		{
			name:        "invalid peer manager config",
			args:        []string{"--" + OrphanProofPoolMaxStakesKey + "=1"},
			expectedErr: peermanager.ErrParametersInvalid,
		},
		{
			name:        "invalid processor parameters",
			args:        []string{"--" + AvalancheStaleVoteThresholdKey + "=1"},
			expectedErr: processor.ErrParametersInvalid,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := getConfig(t, test.args...)
			require.ErrorIs(t, err, test.expectedErr)
		})
	}

	_, err := getConfig(t, "--"+LogLevelKey+"=loud")
	require.Error(t, err) //nolint:forbidigo // error is created with fmt.Errorf
}

func TestBuildViperUnknownFlag(t *testing.T) {
	_, err := BuildViper(BuildFlagSet(), []string{"--unknown"})
	require.Error(t, err) //nolint:forbidigo // error is returned by pflag
}
