package external

import (
	"context"
	"sync"

	"spotsapi.app/internal/ports"
)

// Shared test doubles for the external adapter tests

type nopLogger struct{}

func (nopLogger) Debug(string, ...ports.Field) {}
func (nopLogger) Info(string, ...ports.Field)  {}
func (nopLogger) Warn(string, ...ports.Field)  {}
func (nopLogger) Error(string, ...ports.Field) {}

type countingMetrics struct {
	mu            sync.Mutex
	providerCalls map[string]int
	cacheHits     int
	cacheMisses   int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{providerCalls: map[string]int{}}
}

func (m *countingMetrics) RecordProviderCall(provider ports.Provider, op ports.Operation, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providerCalls[string(provider)]++
}

func (m *countingMetrics) RecordCacheHit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheHits++
}

func (m *countingMetrics) RecordCacheMiss() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheMisses++
}

func (m *countingMetrics) RecordSpotEnriched()          {}
func (m *countingMetrics) RecordFieldUnresolved(string) {}

// noLimiter never blocks; provider tests assert behavior, not pacing
type noLimiter struct{}

func (noLimiter) Wait(context.Context, ports.Provider) error { return nil }

// recordingLimiter tracks which providers asked for a slot
type recordingLimiter struct {
	mu    sync.Mutex
	waits []ports.Provider
}

func (l *recordingLimiter) Wait(_ context.Context, provider ports.Provider) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.waits = append(l.waits, provider)
	return nil
}

// stubProvider answers from a canned result or error and counts calls
type stubProvider struct {
	name   ports.Provider
	ops    []ports.Operation
	result *ports.GeocodeResult
	err    error
	mu     sync.Mutex
	calls  int
}

func (p *stubProvider) Resolve(context.Context, ports.GeocodeQuery, ports.Operation) (*ports.GeocodeResult, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	return p.result, nil
}

func (p *stubProvider) Name() ports.Provider { return p.name }

func (p *stubProvider) Supports(op ports.Operation) bool {
	for _, supported := range p.ops {
		if supported == op {
			return true
		}
	}
	return false
}

func (p *stubProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// allRegion accepts every coordinate; boxRegion only the Occitanie-like box
type allRegion struct{}

func (allRegion) IsWithinRegion(float64, float64) bool          { return true }
func (allRegion) DepartmentFor(float64, float64) (string, bool) { return "", false }

type boxRegion struct{}

func (boxRegion) IsWithinRegion(lat, lon float64) bool {
	return lat >= 42.3 && lat <= 45.05 && lon >= -0.4 && lon <= 4.9
}

func (boxRegion) DepartmentFor(float64, float64) (string, bool) { return "", false }
