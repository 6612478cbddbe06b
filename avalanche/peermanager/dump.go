// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package peermanager

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/ava-labs/preconsensus/avalanche/proof"
	"github.com/ava-labs/preconsensus/ids"
	"github.com/ava-labs/preconsensus/utils/perms"
	"github.com/ava-labs/preconsensus/utils/set"
	"github.com/ava-labs/preconsensus/utils/wrappers"
)

// PeersDumpVersion is the version of the peers file format.
const PeersDumpVersion uint64 = 1

var (
	errUnsupportedVersion = errors.New("unsupported peers file version")
	errTrailingBytes      = errors.New("trailing bytes after the peers")
)

// DumpPeers writes the proofs of the peers, along with their state, to [w].
//
// The format is the version, the number of peers and for each peer its
// proof, whether it was finalized, its registration time and its next
// possible conflict time. Times are unix seconds.
func (pm *PeerManager) DumpPeers(w io.Writer) error {
	var dumped []*peer
	pm.ForEachPeer(func(p Peer) {
		if p.Proof != nil {
			dumped = append(dumped, pm.peers[p.ID])
		}
	})

	packer := wrappers.Packer{MaxSize: math.MaxInt32}
	packer.PackLong(PeersDumpVersion)
	packer.PackLong(uint64(len(dumped)))
	for _, p := range dumped {
		p.proof.Pack(&packer)
		if p.hasFinalized {
			packer.PackByte(1)
		} else {
			packer.PackByte(0)
		}
		packer.PackLong(uint64(p.registrationTime.Unix()))
		packer.PackLong(uint64(p.nextPossibleConflictTime.Unix()))
	}
	if packer.Errored() {
		return packer.Err
	}

	_, err := w.Write(packer.Bytes)
	return err
}

// LoadPeers registers the proofs read from [r] and restores the state of
// the resulting peers. It returns the ids of the proofs that were
// registered. Proofs that can't be registered anymore are skipped.
func (pm *PeerManager) LoadPeers(r io.Reader) (set.Set[ids.ProofID], error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	packer := wrappers.Packer{Bytes: b}
	version := packer.UnpackLong()
	if packer.Errored() {
		return nil, packer.Err
	}
	if version != PeersDumpVersion {
		return nil, fmt.Errorf("%w: %d", errUnsupportedVersion, version)
	}

	registered := set.Set[ids.ProofID]{}
	numPeers := packer.UnpackLong()
	for i := uint64(0); i < numPeers && !packer.Errored(); i++ {
		p := proof.Unpack(&packer)
		hasFinalized := packer.UnpackByte() != 0
		registrationTime := time.Unix(int64(packer.UnpackLong()), 0)
		nextPossibleConflictTime := time.Unix(int64(packer.UnpackLong()), 0)
		if packer.Errored() {
			break
		}

		if ok, _ := pm.RegisterProof(p); !ok {
			continue
		}

		loaded := pm.peersByProofID[p.ID()]
		loaded.hasFinalized = hasFinalized
		loaded.registrationTime = registrationTime
		loaded.nextPossibleConflictTime = nextPossibleConflictTime
		registered.Add(p.ID())
	}
	if packer.Err == nil && packer.Remaining() != 0 {
		packer.Add(errTrailingBytes)
	}
	if packer.Err != nil {
		return registered, fmt.Errorf("couldn't read peers: %w", packer.Err)
	}

	pm.log.Info("loaded peers",
		zap.Uint64("numPeers", numPeers),
		zap.Int("numRegistered", registered.Len()),
	)
	return registered, nil
}

// DumpPeersToFile atomically replaces the file at [path] with the peers.
func (pm *PeerManager) DumpPeersToFile(path string) error {
	tmpPath := path + ".new"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perms.ReadWrite)
	if err != nil {
		return err
	}
	if err := pm.DumpPeers(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// LoadPeersFromFile is LoadPeers reading from the file at [path].
func (pm *PeerManager) LoadPeersFromFile(path string) (set.Set[ids.ProofID], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return pm.LoadPeers(f)
}
