// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ids

// ProofID identifies a stake proof, including its master key.
type ProofID = ID

// LimitedProofID identifies the stake content of a proof, without the master
// key. It is what a delegation commits to.
type LimitedProofID = ID
