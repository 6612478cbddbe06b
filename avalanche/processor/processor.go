// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package processor runs the avalanche polls: it picks the items to poll,
// remembers the polls sent to every node and turns their responses into
// votes.
package processor

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/btree"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/exp/maps"

	"github.com/ava-labs/preconsensus/avalanche/protocol"
	"github.com/ava-labs/preconsensus/avalanche/voterecord"
	"github.com/ava-labs/preconsensus/ids"
	"github.com/ava-labs/preconsensus/utils/bloom"
	"github.com/ava-labs/preconsensus/utils/logging"
	"github.com/ava-labs/preconsensus/utils/timer/mockable"
)

const (
	defaultTreeDegree = 2

	finalizedItemsFalsePositiveRate = 0.0000001
)

var (
	errUnexpectedResponse     = errors.New("unexpected response")
	errInvalidResponseSize    = errors.New("invalid response size")
	errInvalidResponseContent = errors.New("invalid response content")
)

// RequestScheduler tracks when nodes can be polled again.
type RequestScheduler interface {
	UpdateNextRequestTime(nodeID ids.NodeID, nextRequestTime time.Time) bool
}

type queryKey struct {
	nodeID ids.NodeID
	round  uint64
}

type query struct {
	queryKey
	timeout time.Time
	invs    []protocol.Inv
}

// Less orders queries by timeout. Rounds are unique so they break ties.
func (q *query) Less(other *query) bool {
	if !q.timeout.Equal(other.timeout) {
		return q.timeout.Before(other.timeout)
	}
	return q.round < other.round
}

// Processor is safe for concurrent use. The RequestScheduler is only called
// while holding the processor lock.
type Processor struct {
	log       logging.Logger
	params    Parameters
	scheduler RequestScheduler
	clock     mockable.Clock
	metrics   metrics

	lock        sync.Mutex
	round       uint64
	voteRecords map[protocol.Inv]*voterecord.VoteRecord

	queries          map[queryKey]*query
	queriesByTimeout *btree.BTreeG[*query]

	// Items that were recently finalized or invalidated. They are not added
	// back for reconciliation.
	finalizedItems *bloom.RollingFilter
}

func New(
	log logging.Logger,
	params Parameters,
	scheduler RequestScheduler,
	namespace string,
	registerer prometheus.Registerer,
) (*Processor, error) {
	if err := params.Verify(); err != nil {
		return nil, err
	}

	finalizedItems, err := bloom.NewRollingFilter(params.FinalizedItemsFilterSize, finalizedItemsFalsePositiveRate)
	if err != nil {
		return nil, err
	}

	p := &Processor{
		log:              log,
		params:           params,
		scheduler:        scheduler,
		voteRecords:      make(map[protocol.Inv]*voterecord.VoteRecord),
		queries:          make(map[queryKey]*query),
		queriesByTimeout: btree.NewG(defaultTreeDegree, (*query).Less),
		finalizedItems:   finalizedItems,
	}
	if err := p.metrics.initialize(namespace, registerer); err != nil {
		return nil, fmt.Errorf("couldn't initialize processor metrics: %w", err)
	}
	return p, nil
}

// AddToReconcile starts voting on [inv], initially leaning towards
// [accepted]. It returns false if the item is already being voted on or was
// recently finalized.
func (p *Processor) AddToReconcile(inv protocol.Inv, accepted bool) bool {
	p.lock.Lock()
	defer p.lock.Unlock()

	if _, ok := p.voteRecords[inv]; ok {
		return false
	}
	if p.finalizedItems.Contains(inv.Hash[:]) {
		return false
	}

	p.voteRecords[inv] = voterecord.New(accepted)
	p.metrics.voteRecords.Set(float64(len(p.voteRecords)))
	return true
}

func (p *Processor) IsAccepted(inv protocol.Inv) bool {
	p.lock.Lock()
	defer p.lock.Unlock()

	vr, ok := p.voteRecords[inv]
	return ok && vr.IsAccepted()
}

// GetConfidence returns -1 if [inv] is not being voted on.
func (p *Processor) GetConfidence(inv protocol.Inv) int {
	p.lock.Lock()
	defer p.lock.Unlock()

	vr, ok := p.voteRecords[inv]
	if !ok {
		return -1
	}
	return int(vr.Confidence())
}

func (p *Processor) IsRecentlyFinalized(hash ids.ID) bool {
	p.lock.Lock()
	defer p.lock.Unlock()

	return p.finalizedItems.Contains(hash[:])
}

func (p *Processor) ClearFinalizedItems() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	return p.finalizedItems.Reset()
}

// VoteRecordCount returns the number of items being voted on.
func (p *Processor) VoteRecordCount() int {
	p.lock.Lock()
	defer p.lock.Unlock()

	return len(p.voteRecords)
}

// GetInvsForNextPoll returns, in inv order, at most protocol.MaxElementPoll
// items that don't have too many polls in flight. An inflight poll is
// reserved for each returned item.
func (p *Processor) GetInvsForNextPoll() []protocol.Inv {
	p.lock.Lock()
	defer p.lock.Unlock()

	candidates := maps.Keys(p.voteRecords)
	slices.SortFunc(candidates, protocol.Inv.Compare)

	invs := make([]protocol.Inv, 0, min(len(candidates), protocol.MaxElementPoll))
	for _, inv := range candidates {
		if len(invs) >= protocol.MaxElementPoll {
			break
		}
		if !p.voteRecords[inv].RegisterPoll() {
			continue
		}
		invs = append(invs, inv)
	}
	return invs
}

// RegisterQuery records that [invs] are being polled from [nodeID] and
// returns the poll to send. The node won't be selected again until the poll
// times out or gets a response.
func (p *Processor) RegisterQuery(nodeID ids.NodeID, invs []protocol.Inv) *protocol.Poll {
	p.lock.Lock()
	defer p.lock.Unlock()

	q := &query{
		queryKey: queryKey{
			nodeID: nodeID,
			round:  p.round,
		},
		timeout: p.clock.Time().Add(p.params.QueryTimeout),
		invs:    slices.Clone(invs),
	}
	p.round++

	p.queries[q.queryKey] = q
	p.queriesByTimeout.ReplaceOrInsert(q)
	p.scheduler.UpdateNextRequestTime(nodeID, q.timeout)

	p.metrics.polls.Inc()
	p.metrics.outstandingPolls.Set(float64(len(p.queries)))
	return &protocol.Poll{
		Round: q.round,
		Invs:  slices.Clone(invs),
	}
}

// RegisterVotes applies the votes of [nodeID] to the items of the matching
// poll. It returns the status changes of the polled items.
//
// An error is returned if the response doesn't match an outstanding poll
// from [nodeID]. The node cooldown is honored even in that case.
func (p *Processor) RegisterVotes(nodeID ids.NodeID, response *protocol.Response) ([]VoteItemUpdate, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	now := p.clock.Time()
	p.scheduler.UpdateNextRequestTime(nodeID, now.Add(time.Duration(response.Cooldown)*time.Millisecond))

	key := queryKey{
		nodeID: nodeID,
		round:  response.Round,
	}
	q, ok := p.queries[key]
	if !ok {
		// The query may have timed out already.
		p.metrics.invalidResponses.Inc()
		return nil, fmt.Errorf("%w: node %d round %d", errUnexpectedResponse, nodeID, response.Round)
	}
	p.deleteQuery(q)

	if len(response.Votes) != len(q.invs) {
		p.releaseInflight(q.invs)
		p.metrics.invalidResponses.Inc()
		return nil, fmt.Errorf("%w: expected %d votes, got %d", errInvalidResponseSize, len(q.invs), len(response.Votes))
	}
	for i, vote := range response.Votes {
		if vote.Hash != q.invs[i].Hash {
			p.releaseInflight(q.invs)
			p.metrics.invalidResponses.Inc()
			return nil, fmt.Errorf("%w: vote %d is for %s, polled %s", errInvalidResponseContent, i, vote.Hash, q.invs[i])
		}
	}

	var updates []VoteItemUpdate
	for i, vote := range response.Votes {
		inv := q.invs[i]
		vr, ok := p.voteRecords[inv]
		if !ok {
			// The item was finalized or dropped in the meantime.
			continue
		}

		if !vr.RegisterVote(nodeID, vote.Error) {
			if vr.IsStale(p.params.StaleVoteThreshold, p.params.StaleVoteFactor) {
				updates = append(updates, VoteItemUpdate{Inv: inv, Status: Stale})
				delete(p.voteRecords, inv)
			}
			continue
		}

		if !vr.HasFinalized() {
			status := Rejected
			if vr.IsAccepted() {
				status = Accepted
			}
			updates = append(updates, VoteItemUpdate{Inv: inv, Status: status})
			continue
		}

		status := Invalid
		if vr.IsAccepted() {
			status = Finalized
		}
		updates = append(updates, VoteItemUpdate{Inv: inv, Status: status})
		delete(p.voteRecords, inv)
		if err := p.finalizedItems.Add(inv.Hash[:]); err != nil {
			p.log.Error("failed to remember finalized item",
				zap.Stringer("inv", inv),
				zap.Error(err),
			)
		}
	}

	for _, update := range updates {
		p.metrics.updates.WithLabelValues(update.Status.String()).Inc()
		p.log.Debug("vote item updated",
			zap.Stringer("inv", update.Inv),
			zap.Stringer("status", update.Status),
		)
	}
	p.metrics.voteRecords.Set(float64(len(p.voteRecords)))
	return updates, nil
}

// ClearTimedoutRequests drops the polls that timed out and releases the
// inflight slots they reserved.
func (p *Processor) ClearTimedoutRequests() {
	p.lock.Lock()
	defer p.lock.Unlock()

	now := p.clock.Time()
	timedoutItems := make(map[protocol.Inv]uint8)
	for {
		q, ok := p.queriesByTimeout.Min()
		if !ok || !q.timeout.Before(now) {
			break
		}

		p.deleteQuery(q)
		p.metrics.timedoutPolls.Inc()
		for _, inv := range q.invs {
			timedoutItems[inv]++
		}
	}

	for inv, count := range timedoutItems {
		if vr, ok := p.voteRecords[inv]; ok {
			vr.ClearInflightRequest(count)
		}
	}
}

func (p *Processor) releaseInflight(invs []protocol.Inv) {
	for _, inv := range invs {
		if vr, ok := p.voteRecords[inv]; ok {
			vr.ClearInflightRequest(1)
		}
	}
}

func (p *Processor) deleteQuery(q *query) {
	delete(p.queries, q.queryKey)
	p.queriesByTimeout.Delete(q)
	p.metrics.outstandingPolls.Set(float64(len(p.queries)))
}
