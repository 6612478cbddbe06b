// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package processor

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/preconsensus/utils/wrappers"
)

type metrics struct {
	voteRecords      prometheus.Gauge
	outstandingPolls prometheus.Gauge
	polls            prometheus.Counter
	timedoutPolls    prometheus.Counter
	invalidResponses prometheus.Counter
	updates          *prometheus.CounterVec
}

func (m *metrics) initialize(namespace string, registerer prometheus.Registerer) error {
	m.voteRecords = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "vote_records",
		Help:      "Number of items being voted on",
	})
	m.outstandingPolls = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "outstanding_polls",
		Help:      "Number of polls waiting for a response",
	})
	m.polls = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "polls",
		Help:      "Number of polls registered",
	})
	m.timedoutPolls = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "timedout_polls",
		Help:      "Number of polls dropped without a response",
	})
	m.invalidResponses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invalid_responses",
		Help:      "Number of responses that didn't match a poll",
	})
	m.updates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vote_item_updates",
			Help:      "Number of item status updates by status",
		},
		[]string{"status"},
	)

	errs := wrappers.Errs{}
	errs.Add(
		registerer.Register(m.voteRecords),
		registerer.Register(m.outstandingPolls),
		registerer.Register(m.polls),
		registerer.Register(m.timedoutPolls),
		registerer.Register(m.invalidResponses),
		registerer.Register(m.updates),
	)
	return errs.Err
}
