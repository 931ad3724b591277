package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPercentileFallbackDerivesTails(t *testing.T) {
	snapshot := PerformanceSnapshot{P50Millis: 100}
	applyPercentileFallback(&snapshot)

	assert.Equal(t, 180, snapshot.P95Millis)
	assert.Equal(t, 250, snapshot.P99Millis)
}

func TestPercentileFallbackRoundsHalfUp(t *testing.T) {
	snapshot := PerformanceSnapshot{P50Millis: 333}
	applyPercentileFallback(&snapshot)

	assert.Equal(t, 599, snapshot.P95Millis)
	assert.Equal(t, 833, snapshot.P99Millis)
}

func TestPercentileFallbackKeepsMeasuredTails(t *testing.T) {
	snapshot := PerformanceSnapshot{P50Millis: 100, P95Millis: 210, P99Millis: 340}
	applyPercentileFallback(&snapshot)

	assert.Equal(t, 210, snapshot.P95Millis)
	assert.Equal(t, 340, snapshot.P99Millis)
}

func TestPercentileFallbackNoopWithoutMedian(t *testing.T) {
	snapshot := PerformanceSnapshot{}
	applyPercentileFallback(&snapshot)

	assert.Zero(t, snapshot.P95Millis)
	assert.Zero(t, snapshot.P99Millis)
}

func TestNetworkUtilization(t *testing.T) {
	// 125 MB over 10s on a 1 Gbps link is 10%
	pct := networkUtilization(0, 0, 100_000_000, 25_000_000, 10*time.Second)
	assert.InDelta(t, 10, pct, 1e-9)
}

func TestNetworkUtilizationClampsAtFull(t *testing.T) {
	pct := networkUtilization(0, 0, 10_000_000_000, 0, time.Second)
	assert.InDelta(t, 100, pct, 1e-9)
}

func TestNetworkUtilizationIgnoresCounterResets(t *testing.T) {
	assert.Zero(t, networkUtilization(500, 500, 100, 100, time.Second))
	assert.Zero(t, networkUtilization(0, 0, 100, 100, 0))
}
