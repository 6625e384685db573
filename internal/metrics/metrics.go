/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dgt_wallet"

var (
	OperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Failed wallet operations partitioned by operation and error kind.",
		},
		[]string{"op", "kind"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Provider cache lookups partitioned by operation and result (hit, miss, error).",
		},
		[]string{"op", "result"},
	)

	WebhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "events_total",
			Help:      "Ingested provider events partitioned by type and result.",
		},
		[]string{"type", "result"},
	)

	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "Outbound payment provider calls partitioned by endpoint and result.",
		},
		[]string{"endpoint", "result"},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "circuit_breaker_state",
			Help:      "Provider circuit breaker state (1 for the current state).",
		},
		[]string{"name", "state"},
	)
)

// Result labels
const (
	ResultOK        = "ok"
	ResultError     = "error"
	ResultHit       = "hit"
	ResultMiss      = "miss"
	ResultDuplicate = "duplicate"
	ResultRejected  = "rejected"
)
