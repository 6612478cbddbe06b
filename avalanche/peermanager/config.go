// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package peermanager

import (
	"errors"
	"fmt"
	"time"

	"github.com/ava-labs/preconsensus/avalanche/proof"
)

var ErrParametersInvalid = errors.New("parameters invalid")

type Config struct {
	// StakeUTXODustThreshold is the minimum amount of a single stake.
	StakeUTXODustThreshold uint64 `json:"stakeUTXODustThreshold" yaml:"stakeUTXODustThreshold"`

	// StakeUTXOConfirmations is the number of confirmations a staked coin
	// needs before the proof staking it is accepted.
	StakeUTXOConfirmations uint32 `json:"stakeUTXOConfirmations" yaml:"stakeUTXOConfirmations"`

	// OrphanProofPoolMaxStakes bounds the number of stakes held by proofs
	// that can't be validated yet.
	OrphanProofPoolMaxStakes int `json:"orphanProofPoolMaxStakes" yaml:"orphanProofPoolMaxStakes"`

	// ConflictingProofCooldown is the minimum delay between two conflicting
	// proofs replacing each other.
	ConflictingProofCooldown time.Duration `json:"conflictingProofCooldown" yaml:"conflictingProofCooldown"`

	// DanglingTimeout is how long a proof can back a peer without any node
	// before it is dropped.
	DanglingTimeout time.Duration `json:"danglingTimeout" yaml:"danglingTimeout"`
}

var DefaultConfig = Config{
	StakeUTXODustThreshold:   proof.DustThreshold,
	StakeUTXOConfirmations:   2016,
	OrphanProofPoolMaxStakes: 10_000,
	ConflictingProofCooldown: time.Minute,
	DanglingTimeout:          15 * time.Minute,
}

// Verify returns nil if the config is usable.
func (c Config) Verify() error {
	switch {
	case c.OrphanProofPoolMaxStakes < proof.MaxProofStakes:
		return fmt.Errorf("%w: orphanProofPoolMaxStakes = %d: fails the condition that: %d <= orphanProofPoolMaxStakes", ErrParametersInvalid, c.OrphanProofPoolMaxStakes, proof.MaxProofStakes)
	case c.ConflictingProofCooldown < 0:
		return fmt.Errorf("%w: conflictingProofCooldown = %s: fails the condition that: 0 <= conflictingProofCooldown", ErrParametersInvalid, c.ConflictingProofCooldown)
	case c.DanglingTimeout < 0:
		return fmt.Errorf("%w: danglingTimeout = %s: fails the condition that: 0 <= danglingTimeout", ErrParametersInvalid, c.DanglingTimeout)
	default:
		return nil
	}
}
