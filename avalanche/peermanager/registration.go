// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package peermanager

// RegistrationResult explains the outcome of a proof registration.
type RegistrationResult uint8

const (
	Registered RegistrationResult = iota
	AlreadyRegistered
	// Orphan means the proof stakes coins that are missing or not mature
	// yet. The proof is kept in the orphan pool and retried on every new
	// block.
	Orphan
	Invalid
	CooldownNotElapsed
	// Conflicting means the proof lost a conflict and was moved to the
	// conflicting pool.
	Conflicting
	// Rejected means the proof lost a conflict against both the registered
	// proofs and the conflicting pool.
	Rejected
	// Dangling means the proof was dropped for having no node and no node
	// announced it since.
	Dangling
)

func (r RegistrationResult) String() string {
	switch r {
	case Registered:
		return "registered"
	case AlreadyRegistered:
		return "already-registered"
	case Orphan:
		return "orphan"
	case Invalid:
		return "invalid"
	case CooldownNotElapsed:
		return "cooldown-not-elapsed"
	case Conflicting:
		return "conflicting"
	case Rejected:
		return "rejected"
	case Dangling:
		return "dangling"
	default:
		return "unknown"
	}
}

type registrationMode uint8

const (
	defaultRegistration registrationMode = iota
	// forceAccept registers the proof even when it conflicts with better
	// proofs, which are moved to the conflicting pool.
	forceAccept
)

// RejectionMode selects what happens to a proof removed from the peers.
type RejectionMode uint8

const (
	// RejectDefault moves the proof to the conflicting pool so it can be
	// pulled back later.
	RejectDefault RejectionMode = iota
	// RejectInvalidate forgets the proof entirely.
	RejectInvalidate
)
