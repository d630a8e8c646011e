// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package wallet

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultOk       = "ok"
	resultRejected = "rejected"
	resultError    = "error"
	resultDecode   = "decode_error"
)

type walletMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	lovelace prometheus.Gauge
	assets   prometheus.Gauge
	sessions prometheus.Counter
}

func (c *Client) initMetrics(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	c.metrics = &walletMetrics{
		requests: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletview_wallet_requests_total",
				Help: "wallet provider requests by method and result",
			},
			[]string{"method", "result"},
		),
		duration: promautoFactory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "walletview_wallet_request_duration_seconds",
				Help:    "wallet provider request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		lovelace: promautoFactory.NewGauge(
			prometheus.GaugeOpts{
				Name: "walletview_wallet_balance_lovelace",
				Help: "lovelace held by the wallet at the last balance query",
			},
		),
		assets: promautoFactory.NewGauge(
			prometheus.GaugeOpts{
				Name: "walletview_wallet_assets",
				Help: "distinct native tokens held at the last balance query",
			},
		),
		sessions: promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: "walletview_wallet_sessions_total",
				Help: "wallet sessions established",
			},
		),
	}
}

func (c *Client) observe(method string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	result := resultOk
	switch {
	case err == nil:
	case errors.Is(err, ErrRejected), errors.Is(err, ErrNotConnected):
		result = resultRejected
	case errors.Is(err, ErrProvider):
		result = resultError
	default:
		result = resultDecode
	}
	c.metrics.requests.WithLabelValues(method, result).Inc()
	c.metrics.duration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}
