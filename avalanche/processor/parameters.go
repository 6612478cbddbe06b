// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package processor

import (
	"errors"
	"fmt"
	"time"

	"github.com/ava-labs/preconsensus/avalanche/voterecord"
)

var ErrParametersInvalid = errors.New("parameters invalid")

// Parameters of the vote processing.
//
//   - QueryTimeout is the delay after which a poll without response is
//     dropped and its items can be polled again.
//   - StaleVoteThreshold and StaleVoteFactor decide when an item that keeps
//     receiving votes without gaining confidence is given up on.
//   - FinalizedItemsFilterSize is the number of recently finalized items that
//     are refused by AddToReconcile.
type Parameters struct {
	QueryTimeout             time.Duration `json:"queryTimeout" yaml:"queryTimeout"`
	StaleVoteThreshold       uint32        `json:"staleVoteThreshold" yaml:"staleVoteThreshold"`
	StaleVoteFactor          uint32        `json:"staleVoteFactor" yaml:"staleVoteFactor"`
	FinalizedItemsFilterSize uint64        `json:"finalizedItemsFilterSize" yaml:"finalizedItemsFilterSize"`
}

var DefaultParameters = Parameters{
	QueryTimeout:             10 * time.Second,
	StaleVoteThreshold:       voterecord.VoteStaleThreshold,
	StaleVoteFactor:          voterecord.VoteStaleFactor,
	FinalizedItemsFilterSize: voterecord.MaxInflightPoll * 20,
}

// Verify returns nil if the parameters describe a valid configuration.
func (p Parameters) Verify() error {
	switch {
	case p.QueryTimeout <= 0:
		return fmt.Errorf("%w: queryTimeout = %s: fails the condition that: 0 < queryTimeout", ErrParametersInvalid, p.QueryTimeout)
	case p.StaleVoteThreshold < voterecord.VoteStaleMinThreshold:
		return fmt.Errorf("%w: staleVoteThreshold = %d: fails the condition that: %d <= staleVoteThreshold", ErrParametersInvalid, p.StaleVoteThreshold, voterecord.VoteStaleMinThreshold)
	case p.StaleVoteFactor == 0:
		return fmt.Errorf("%w: staleVoteFactor = %d: fails the condition that: 0 < staleVoteFactor", ErrParametersInvalid, p.StaleVoteFactor)
	case p.FinalizedItemsFilterSize == 0:
		return fmt.Errorf("%w: finalizedItemsFilterSize = %d: fails the condition that: 0 < finalizedItemsFilterSize", ErrParametersInvalid, p.FinalizedItemsFilterSize)
	default:
		return nil
	}
}
