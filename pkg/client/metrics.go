/*
Copyright 2024 The Nuclio Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package client

import (
	"strings"
	"time"

	"github.com/nuclio/errors"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc/codes"
)

type metrics struct {
	calls        *prometheus.CounterVec
	issues       *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
}

// newMetrics creates the client collectors and registers them when a registerer is given.
// collectors already registered by another client are shared
func newMetrics(registerer prometheus.Registerer) (*metrics, error) {
	newMetrics := &metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sonarlint_client_calls_total",
			Help: "Number of calls made to the analysis daemon, by terminal code",
		}, []string{"method", "code"}),
		issues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sonarlint_client_issues_total",
			Help: "Number of issues received from the analysis daemon",
		}, []string{"method"}),
		callDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sonarlint_client_call_duration_seconds",
			Help:    "Duration of calls to the analysis daemon, until their terminal status",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"method"}),
	}

	if registerer == nil {
		return newMetrics, nil
	}

	var err error

	if newMetrics.calls, err = registerCollector(registerer, newMetrics.calls); err != nil {
		return nil, errors.Wrap(err, "Failed to register calls counter")
	}

	if newMetrics.issues, err = registerCollector(registerer, newMetrics.issues); err != nil {
		return nil, errors.Wrap(err, "Failed to register issues counter")
	}

	if newMetrics.callDuration, err = registerCollector(registerer, newMetrics.callDuration); err != nil {
		return nil, errors.Wrap(err, "Failed to register call duration histogram")
	}

	return newMetrics, nil
}

func (m *metrics) observeCall(method string, code codes.Code, duration time.Duration) {
	m.calls.WithLabelValues(method, code.String()).Inc()
	m.callDuration.WithLabelValues(method).Observe(duration.Seconds())
}

func (m *metrics) observeIssue(method string) {
	m.issues.WithLabelValues(method).Inc()
}

func registerCollector[T prometheus.Collector](registerer prometheus.Registerer, collector T) (T, error) {
	if err := registerer.Register(collector); err != nil {
		alreadyRegisteredErr, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return collector, err
		}

		existingCollector, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, errors.Errorf("Collector registered with a different type: %T",
				alreadyRegisteredErr.ExistingCollector)
		}

		return existingCollector, nil
	}

	return collector, nil
}

// methodName returns "Analyze" for "/sonarlint.StandaloneSonarLint/Analyze"
func methodName(fullMethod string) string {
	return fullMethod[strings.LastIndex(fullMethod, "/")+1:]
}
