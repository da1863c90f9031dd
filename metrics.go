package bookauth

import "sync/atomic"

// MetricID identifies one counter in the in-process metrics system.
type MetricID uint16

const (
	MetricSignupSuccess MetricID = iota
	MetricSignupDuplicate
	MetricSignupPolicyRejected
	MetricEmailVerifySuccess
	MetricEmailVerifyFailure
	MetricVerificationResent
	MetricLoginSuccess
	MetricLoginFailure
	MetricLoginLocked
	MetricMFAChallengeIssued
	MetricMFAVerifySuccess
	MetricMFAVerifyFailure
	MetricPasswordForgotRequest
	MetricPasswordResetSuccess
	MetricPasswordResetFailure
	MetricPasswordChangePending
	MetricPasswordChangeSuccess
	MetricPasswordChangeFailure
	MetricRememberTokenIssued
	MetricRememberTokenRedeemed
	MetricRememberTokenExpired
	MetricSessionIssued
	MetricSessionRevoked
	MetricRevokedTokenRejected
	MetricMailEnqueued
	MetricMailDropped

	metricIDCount
)

// Metrics holds lock-free per-operation counters. A nil or disabled
// Metrics turns every operation into a no-op.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics creates a Metrics instance configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Inc increments one counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// Get returns the current value of one counter.
func (m *Metrics) Get(id MetricID) uint64 {
	if m == nil || !m.enabled || id >= metricIDCount {
		return 0
	}
	return m.counters[id].Load()
}

// Snapshot deep-copies every counter.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Counters: make(map[MetricID]uint64, metricIDCount),
	}
	if m == nil || !m.enabled {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id] = m.counters[id].Load()
	}
	return snap
}
