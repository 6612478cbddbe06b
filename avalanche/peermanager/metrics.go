// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package peermanager

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/preconsensus/utils/wrappers"
)

type metrics struct {
	numPeers        prometheus.Gauge
	numSlots        prometheus.Gauge
	slotCount       prometheus.Gauge
	fragmentation   prometheus.Gauge
	numNodes        prometheus.Gauge
	numPendingNodes prometheus.Gauge
	totalScore      prometheus.Gauge
	compactions     prometheus.Counter
	registrations   *prometheus.CounterVec
}

func (m *metrics) initialize(namespace string, registerer prometheus.Registerer) error {
	m.numPeers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "peers",
		Help:      "Number of peers",
	})
	m.numSlots = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "slots",
		Help:      "Number of entries in the slot table, including removed ones",
	})
	m.slotCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "slot_count",
		Help:      "Size of the peer selection space",
	})
	m.fragmentation = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "fragmentation",
		Help:      "Part of the peer selection space not owned by any peer",
	})
	m.numNodes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "nodes",
		Help:      "Number of nodes bound to a peer",
	})
	m.numPendingNodes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pending_nodes",
		Help:      "Number of nodes waiting for their proof",
	})
	m.totalScore = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "total_score",
		Help:      "Sum of the scores of all the peers",
	})
	m.compactions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "compactions",
		Help:      "Number of times the slot table was compacted",
	})
	m.registrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proof_registrations",
			Help:      "Number of proof registration attempts by result",
		},
		[]string{"result"},
	)

	errs := wrappers.Errs{}
	errs.Add(
		registerer.Register(m.numPeers),
		registerer.Register(m.numSlots),
		registerer.Register(m.slotCount),
		registerer.Register(m.fragmentation),
		registerer.Register(m.numNodes),
		registerer.Register(m.numPendingNodes),
		registerer.Register(m.totalScore),
		registerer.Register(m.compactions),
		registerer.Register(m.registrations),
	)
	return errs.Err
}
