package alerts

import (
	"sync"
	"time"

	"github.com/solara-ai/inference-router/internal/models"
)

// CooldownGate suppresses repeated alerts for the same (type, key) pair
// within a configured interval. The check-then-set is atomic per gate so two
// concurrent requests cannot both pass for the same key.
type CooldownGate struct {
	mu        sync.Mutex
	lastFired map[string]time.Time
	now       func() time.Time
}

// NewCooldownGate creates an empty gate
func NewCooldownGate() *CooldownGate {
	return &CooldownGate{
		lastFired: make(map[string]time.Time),
		now:       time.Now,
	}
}

// TryAcquire reports whether an alert for (alertType, key) may fire now, and
// if so records the firing time in the same critical section.
func (g *CooldownGate) TryAcquire(alertType models.AlertType, key string, interval time.Duration) bool {
	composite := string(alertType) + ":" + key

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if last, ok := g.lastFired[composite]; ok && now.Sub(last) < interval {
		return false
	}
	g.lastFired[composite] = now
	return true
}

// Reset clears the cooldown for a (type, key) pair
func (g *CooldownGate) Reset(alertType models.AlertType, key string) {
	composite := string(alertType) + ":" + key
	g.mu.Lock()
	delete(g.lastFired, composite)
	g.mu.Unlock()
}
