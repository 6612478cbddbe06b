// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"sync"

	"github.com/ava-labs/preconsensus/avalanche/proof"
	"github.com/ava-labs/preconsensus/ids"
)

var _ UTXOView = (*State)(nil)

// State is an in-memory UTXOView that forwards chain events to its
// subscribers. It is used by simulations and tests in place of a full node.
//
// Subscribers are called synchronously, without holding the state lock, so
// they may query the state.
type State struct {
	lock        sync.RWMutex
	coins       map[proof.Outpoint]Coin
	tipHeight   uint32
	subscribers []Notifications
}

func NewState(tipHeight uint32) *State {
	return &State{
		coins:     make(map[proof.Outpoint]Coin),
		tipHeight: tipHeight,
	}
}

// Subscribe registers [n] to be notified of every subsequent event.
func (s *State) Subscribe(n Notifications) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.subscribers = append(s.subscribers, n)
}

func (s *State) GetCoin(utxo proof.Outpoint) (Coin, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	coin, ok := s.coins[utxo]
	return coin, ok
}

func (s *State) TipHeight() uint32 {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.tipHeight
}

// AddCoin makes [coin] spendable at [utxo].
func (s *State) AddCoin(utxo proof.Outpoint, coin Coin) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.coins[utxo] = coin
}

// AddStakes adds a coin matching each stake of [p].
func (s *State) AddStakes(p *proof.Proof) {
	s.lock.Lock()
	defer s.lock.Unlock()

	for _, ss := range p.Stakes() {
		s.coins[ss.UTXO] = Coin{
			Amount:     ss.Amount,
			Height:     ss.Height,
			IsCoinbase: ss.IsCoinbase,
			PubKey:     ss.PubKey,
		}
	}
}

// SpendCoin removes the coin at [utxo]. It returns false if there was no
// such coin.
func (s *State) SpendCoin(utxo proof.Outpoint) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.coins[utxo]; !ok {
		return false
	}
	delete(s.coins, utxo)
	return true
}

// ConnectBlock advances the tip by one block and notifies the subscribers.
func (s *State) ConnectBlock() {
	s.lock.Lock()
	s.tipHeight++
	height := s.tipHeight
	subscribers := s.subscribers
	s.lock.Unlock()

	for _, n := range subscribers {
		n.BlockConnected(height)
	}
}

// DisconnectBlock moves the tip back by one block and notifies the
// subscribers. Disconnecting the genesis block is a noop.
func (s *State) DisconnectBlock() {
	s.lock.Lock()
	if s.tipHeight == 0 {
		s.lock.Unlock()
		return
	}
	s.tipHeight--
	height := s.tipHeight
	subscribers := s.subscribers
	s.lock.Unlock()

	for _, n := range subscribers {
		n.BlockDisconnected(height)
	}
}

// AddTransaction notifies the subscribers that [txID] entered the mempool.
func (s *State) AddTransaction(txID ids.ID) {
	s.lock.RLock()
	subscribers := s.subscribers
	s.lock.RUnlock()

	for _, n := range subscribers {
		n.TransactionAdded(txID)
	}
}

// RemoveTransaction notifies the subscribers that [txID] left the mempool.
func (s *State) RemoveTransaction(txID ids.ID) {
	s.lock.RLock()
	subscribers := s.subscribers
	s.lock.RUnlock()

	for _, n := range subscribers {
		n.TransactionRemoved(txID)
	}
}
