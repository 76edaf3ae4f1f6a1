package router

import (
	"sync"
	"time"
)

// throughputMeter keeps a one-minute rolling count of requests and tokens so
// the router can feed the throughput alert path after each call.
type throughputMeter struct {
	mu      sync.Mutex
	events  []meterEvent
	horizon time.Duration
}

type meterEvent struct {
	at     time.Time
	tokens int64
}

func newThroughputMeter() *throughputMeter {
	return &throughputMeter{horizon: time.Minute}
}

// record registers one finished request and returns the current
// requests-per-minute and tokens-per-minute rates.
func (m *throughputMeter) record(tokens int64) (requestsPerMinute, tokensPerMinute float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-m.horizon)

	firstLive := len(m.events)
	for i, e := range m.events {
		if e.at.After(cutoff) {
			firstLive = i
			break
		}
	}
	if firstLive > 0 {
		m.events = append(m.events[:0:0], m.events[firstLive:]...)
	}

	m.events = append(m.events, meterEvent{at: now, tokens: tokens})

	var totalTokens int64
	for _, e := range m.events {
		totalTokens += e.tokens
	}
	return float64(len(m.events)), float64(totalTokens)
}

// budgetMeter keeps per-user rolling 24h token totals for budget alerts
type budgetMeter struct {
	mu        sync.Mutex
	byUser    map[string][]meterEvent
	horizon   time.Duration
	nextSweep time.Time
}

func newBudgetMeter() *budgetMeter {
	return &budgetMeter{
		byUser:  make(map[string][]meterEvent),
		horizon: 24 * time.Hour,
	}
}

// record adds tokens to a user's rolling total and returns the new total
func (m *budgetMeter) record(userID string, tokens int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-m.horizon)
	m.sweep(now, cutoff)

	events := m.byUser[userID]
	firstLive := len(events)
	for i, e := range events {
		if e.at.After(cutoff) {
			firstLive = i
			break
		}
	}
	if firstLive > 0 {
		events = append(events[:0:0], events[firstLive:]...)
	}
	events = append(events, meterEvent{at: now, tokens: tokens})
	m.byUser[userID] = events

	var total int64
	for _, e := range events {
		total += e.tokens
	}
	return total
}

// sweep drops users whose events have all aged out, so the map does not
// grow with every user ID ever seen. Runs at most once per hour.
func (m *budgetMeter) sweep(now, cutoff time.Time) {
	if now.Before(m.nextSweep) {
		return
	}
	m.nextSweep = now.Add(time.Hour)
	for userID, events := range m.byUser {
		if len(events) == 0 || !events[len(events)-1].at.After(cutoff) {
			delete(m.byUser, userID)
		}
	}
}
