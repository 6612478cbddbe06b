// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package simulator

import (
	"errors"
	"fmt"

	"github.com/ava-labs/preconsensus/avalanche/peermanager"
	"github.com/ava-labs/preconsensus/avalanche/processor"
	"github.com/ava-labs/preconsensus/avalanche/proof"
)

var ErrInvalidConfig = errors.New("invalid simulator config")

type Config struct {
	// Stakers is the number of staked identities, each with its own proof
	// and node.
	Stakers int `json:"stakers" yaml:"stakers"`
	// StakesPerProof is the number of coins staked by every proof.
	StakesPerProof int `json:"stakesPerProof" yaml:"stakesPerProof"`
	// Items is the number of blocks and transactions voted on, on top of the
	// proofs.
	Items int `json:"items" yaml:"items"`
	// ByzantineFraction is the part of the stakers voting against their
	// view of every item.
	ByzantineFraction float64 `json:"byzantineFraction" yaml:"byzantineFraction"`
	// KnownProofsFraction is the part of the proofs registered directly. The
	// others are relayed as compact proofs.
	KnownProofsFraction float64 `json:"knownProofsFraction" yaml:"knownProofsFraction"`
	// MaxRounds bounds the number of polling rounds.
	MaxRounds int    `json:"maxRounds" yaml:"maxRounds"`
	Seed      uint64 `json:"seed" yaml:"seed"`

	PeerManager peermanager.Config   `json:"peerManager" yaml:"peerManager"`
	Processor   processor.Parameters `json:"processor" yaml:"processor"`
}

var DefaultConfig = Config{
	Stakers:             50,
	StakesPerProof:      2,
	Items:               100,
	ByzantineFraction:   0.1,
	KnownProofsFraction: 0.5,
	MaxRounds:           1000,
	Seed:                0,
	PeerManager:         peermanager.DefaultConfig,
	Processor:           processor.DefaultParameters,
}

func (c Config) Verify() error {
	switch {
	case c.Stakers <= 0:
		return fmt.Errorf("%w: stakers = %d: fails the condition that: 0 < stakers", ErrInvalidConfig, c.Stakers)
	case c.StakesPerProof <= 0 || c.StakesPerProof > proof.MaxProofStakes:
		return fmt.Errorf("%w: stakesPerProof = %d: fails the condition that: 0 < stakesPerProof <= %d", ErrInvalidConfig, c.StakesPerProof, proof.MaxProofStakes)
	case c.Items < 0:
		return fmt.Errorf("%w: items = %d: fails the condition that: 0 <= items", ErrInvalidConfig, c.Items)
	case c.ByzantineFraction < 0 || c.ByzantineFraction >= 1:
		return fmt.Errorf("%w: byzantineFraction = %f: fails the condition that: 0 <= byzantineFraction < 1", ErrInvalidConfig, c.ByzantineFraction)
	case c.KnownProofsFraction < 0 || c.KnownProofsFraction > 1:
		return fmt.Errorf("%w: knownProofsFraction = %f: fails the condition that: 0 <= knownProofsFraction <= 1", ErrInvalidConfig, c.KnownProofsFraction)
	case c.MaxRounds <= 0:
		return fmt.Errorf("%w: maxRounds = %d: fails the condition that: 0 < maxRounds", ErrInvalidConfig, c.MaxRounds)
	}
	if err := c.PeerManager.Verify(); err != nil {
		return err
	}
	return c.Processor.Verify()
}
