// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proofpool

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/preconsensus/utils/wrappers"
)

type metrics struct {
	numProofs prometheus.Gauge
	numUTXOs  prometheus.Gauge
}

func (m *metrics) initialize(namespace string, registerer prometheus.Registerer) error {
	m.numProofs = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "proofs",
		Help:      "Number of proofs in the pool",
	})
	m.numUTXOs = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "utxos",
		Help:      "Number of utxos claimed by the proofs in the pool",
	})

	errs := wrappers.Errs{}
	errs.Add(
		registerer.Register(m.numProofs),
		registerer.Register(m.numUTXOs),
	)
	return errs.Err
}

type orphanMetrics struct {
	numProofs prometheus.Gauge
	numStakes prometheus.Gauge
	evicted   prometheus.Counter
}

func (m *orphanMetrics) initialize(namespace string, registerer prometheus.Registerer) error {
	m.numProofs = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "proofs",
		Help:      "Number of orphan proofs",
	})
	m.numStakes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stakes",
		Help:      "Number of stakes held by orphan proofs",
	})
	m.evicted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "evicted",
		Help:      "Number of orphan proofs evicted to stay within the stake budget",
	})

	errs := wrappers.Errs{}
	errs.Add(
		registerer.Register(m.numProofs),
		registerer.Register(m.numStakes),
		registerer.Register(m.evicted),
	)
	return errs.Err
}
