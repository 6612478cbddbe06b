// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package simulator runs the avalanche polls of a single node against a set
// of simulated stakers.
package simulator

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/exp/maps"
	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/preconsensus/avalanche/chain"
	"github.com/ava-labs/preconsensus/avalanche/compactproofs"
	"github.com/ava-labs/preconsensus/avalanche/peermanager"
	"github.com/ava-labs/preconsensus/avalanche/processor"
	"github.com/ava-labs/preconsensus/avalanche/proof"
	"github.com/ava-labs/preconsensus/avalanche/protocol"
	"github.com/ava-labs/preconsensus/ids"
	"github.com/ava-labs/preconsensus/utils/logging"
	"github.com/ava-labs/preconsensus/utils/sampler"
)

// stakeHeight is the height of every generated stake.
const stakeHeight = 100

// Result summarizes a simulation.
type Result struct {
	Rounds int
	Polls  int

	Finalized   int
	Invalidated int
	Stale       int
	// Mismatches counts the items settled against the view of the honest
	// stakers.
	Mismatches int
	// Pending counts the items still being voted on when the simulation
	// stopped.
	Pending int
}

// Network is a local node, its peer manager and vote processor, polling
// simulated stakers.
type Network struct {
	log    logging.Logger
	config Config
	rng    *sampler.RNG

	state       *chain.State
	peerManager *peermanager.PeerManager
	processor   *processor.Processor

	proofs     []*proof.Proof
	responders map[ids.NodeID]*responder
	// Whether each item is valid in the view of the honest stakers.
	truth map[protocol.Inv]bool
}

func NewNetwork(
	log logging.Logger,
	config Config,
	registerer prometheus.Registerer,
) (*Network, error) {
	if err := config.Verify(); err != nil {
		return nil, err
	}

	n := &Network{
		log:        log,
		config:     config,
		rng:        sampler.NewRNG(sampler.NewSource(config.Seed)),
		state:      chain.NewState(stakeHeight + config.PeerManager.StakeUTXOConfirmations),
		responders: make(map[ids.NodeID]*responder),
		truth:      make(map[protocol.Inv]bool),
	}

	var err error
	n.peerManager, err = peermanager.New(
		log,
		config.PeerManager,
		n.state,
		n.rng,
		"peermanager",
		registerer,
	)
	if err != nil {
		return nil, err
	}
	n.state.Subscribe(n.peerManager)

	n.processor, err = processor.New(
		log,
		config.Processor,
		n.peerManager,
		"processor",
		registerer,
	)
	if err != nil {
		return nil, err
	}

	if err := n.addStakers(); err != nil {
		return nil, err
	}
	n.addItems()
	return n, nil
}

func (n *Network) addStakers() error {
	numByzantine := int(math.Floor(n.config.ByzantineFraction * float64(n.config.Stakers)))
	numKnown := int(math.Round(n.config.KnownProofsFraction * float64(n.config.Stakers)))

	n.proofs = make([]*proof.Proof, n.config.Stakers)
	for i := range n.proofs {
		// Stakes are worth between 1 and 10 times the dust threshold.
		amount := n.config.PeerManager.StakeUTXODustThreshold * (1 + n.rng.Uint64n(10))
		p := proof.BuildTestProofWithStakes(n.config.Seed<<32|uint64(i), n.config.StakesPerProof, amount)
		n.proofs[i] = p
		n.state.AddStakes(p)
	}

	for _, p := range n.proofs[:numKnown] {
		if err := n.registerProof(p); err != nil {
			return err
		}
	}
	if err := n.relayProofs(n.proofs[:numKnown]); err != nil {
		return err
	}

	for i, p := range n.proofs {
		nodeID := ids.NodeID(i)
		if !n.peerManager.AddNode(nodeID, p.ID()) {
			return fmt.Errorf("couldn't bind %s to proof %s", nodeID, p.ID())
		}
		n.responders[nodeID] = &responder{
			byzantine: i < numByzantine,
			truth:     n.truth,
		}
	}

	n.log.Info("stakers registered",
		zap.Int("stakers", n.config.Stakers),
		zap.Int("byzantine", numByzantine),
		zap.Int("relayed", n.config.Stakers-numKnown),
		zap.Uint64("totalScore", n.peerManager.TotalScore()),
	)
	return nil
}

// relayProofs announces every proof to the local node as compact proofs. The
// local node only knows [known] and fetches the others.
func (n *Network) relayProofs(known []*proof.Proof) error {
	announcement := compactproofs.New(n.rng, n.proofs, nil)
	announcementBytes, err := announcement.Bytes()
	if err != nil {
		return err
	}

	received, err := compactproofs.Parse(announcementBytes)
	if err != nil {
		return err
	}
	_, request, err := received.Reconcile(known)
	if err != nil {
		return err
	}
	if len(request.Indices) == 0 {
		return nil
	}

	requestBytes, err := request.Bytes()
	if err != nil {
		return err
	}
	parsedRequest, err := compactproofs.ParseProofsRequest(requestBytes)
	if err != nil {
		return err
	}
	missing, err := announcement.GetProofs(parsedRequest)
	if err != nil {
		return err
	}

	for _, p := range missing {
		if err := n.registerProof(p); err != nil {
			return err
		}
	}
	n.log.Debug("proofs relayed",
		zap.Int("announced", announcement.Size()),
		zap.Int("fetched", len(missing)),
	)
	return nil
}

// registerProof adds [p] to the peers and starts voting on it.
func (n *Network) registerProof(p *proof.Proof) error {
	if ok, result := n.peerManager.RegisterProof(p); !ok {
		return fmt.Errorf("couldn't register proof %s: %s", p.ID(), result)
	}

	inv := protocol.Inv{
		Type: protocol.MsgProof,
		Hash: p.ID(),
	}
	n.truth[inv] = true
	n.processor.AddToReconcile(inv, true)
	return nil
}

// addItems creates blocks and transactions, half of them invalid. The local
// node starts with a random opinion on each of them.
func (n *Network) addItems() {
	for i := 0; i < n.config.Items; i++ {
		invType := protocol.MsgBlock
		if i%2 == 1 {
			invType = protocol.MsgTx
		}
		inv := protocol.Inv{
			Type: invType,
			Hash: ids.Empty.Prefix(n.config.Seed, uint64(i)),
		}
		n.truth[inv] = n.rng.Uint64n(2) == 0
		n.processor.AddToReconcile(inv, n.rng.Uint64n(2) == 0)
	}
}

type pendingPoll struct {
	nodeID   ids.NodeID
	request  []byte
	response []byte
}

// Run polls the stakers until every item is settled, [MaxRounds] is reached
// or [ctx] is cancelled.
func (n *Network) Run(ctx context.Context) (*Result, error) {
	result := &Result{}
	for ; result.Rounds < n.config.MaxRounds && n.processor.VoteRecordCount() > 0; result.Rounds++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		polls, err := n.sendPolls()
		if err != nil {
			return nil, err
		}
		result.Polls += len(polls)

		eg, egCtx := errgroup.WithContext(ctx)
		for _, poll := range polls {
			r := n.responders[poll.nodeID]
			eg.Go(func() error {
				if err := egCtx.Err(); err != nil {
					return err
				}
				response, err := r.respond(poll.request)
				if err != nil {
					return fmt.Errorf("%s failed to respond: %w", poll.nodeID, err)
				}
				poll.response = response
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}

		for _, poll := range polls {
			if err := n.handleResponse(poll, result); err != nil {
				return nil, err
			}
		}
	}

	result.Pending = n.processor.VoteRecordCount()
	n.log.Info("simulation finished",
		zap.Int("rounds", result.Rounds),
		zap.Int("polls", result.Polls),
		zap.Int("finalized", result.Finalized),
		zap.Int("invalidated", result.Invalidated),
		zap.Int("stale", result.Stale),
		zap.Int("mismatches", result.Mismatches),
		zap.Int("pending", result.Pending),
	)
	return result, nil
}

// sendPolls registers a poll for every node that can be queried.
func (n *Network) sendPolls() ([]*pendingPoll, error) {
	n.processor.ClearTimedoutRequests()
	if dangling := n.peerManager.CleanupDanglingProofs(); len(dangling) > 0 {
		n.log.Debug("dropped dangling proofs",
			zap.Int("numProofs", len(dangling)),
		)
	}

	var polls []*pendingPoll
	for {
		nodeID := n.peerManager.GetSuitableNodeToQuery()
		if nodeID == ids.NoNode {
			if n.peerManager.ShouldRequestMoreNodes() && len(polls) == 0 {
				n.log.Debug("no node to query")
			}
			return polls, nil
		}
		invs := n.processor.GetInvsForNextPoll()
		if len(invs) == 0 {
			return polls, nil
		}

		request, err := n.processor.RegisterQuery(nodeID, invs).Bytes()
		if err != nil {
			return nil, err
		}
		polls = append(polls, &pendingPoll{
			nodeID:  nodeID,
			request: request,
		})
	}
}

func (n *Network) handleResponse(poll *pendingPoll, result *Result) error {
	response, err := protocol.ParseResponse(poll.response)
	if err != nil {
		return err
	}

	updates, err := n.processor.RegisterVotes(poll.nodeID, response)
	if err != nil {
		return err
	}
	for _, update := range updates {
		valid := n.truth[update.Inv]
		switch update.Status {
		case processor.Finalized:
			result.Finalized++
			if !valid {
				result.Mismatches++
			}
			n.finalizeProof(update.Inv)
		case processor.Invalid:
			result.Invalidated++
			if valid {
				result.Mismatches++
			}
			if update.Inv.Type == protocol.MsgProof {
				n.peerManager.RejectProof(update.Inv.Hash, peermanager.RejectInvalidate)
			}
		case processor.Stale:
			result.Stale++
		}
	}
	return nil
}

func (n *Network) finalizeProof(inv protocol.Inv) {
	if inv.Type != protocol.MsgProof {
		return
	}
	if peerID, ok := n.peerManager.GetPeerID(inv.Hash); ok {
		n.peerManager.SetFinalized(peerID)
	}
}

// Invs returns the items of the simulation in inv order.
func (n *Network) Invs() []protocol.Inv {
	invs := maps.Keys(n.truth)
	slices.SortFunc(invs, protocol.Inv.Compare)
	return invs
}
