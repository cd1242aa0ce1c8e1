package services

import (
	"sync"
	"time"
)

// Clock abstracts wall time so cooldown behavior is testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// AdmissionController enforces a per-client cooldown between scrape
// requests. One scrape drives a whole headless browser, so admission is
// deliberately coarse.
type AdmissionController struct {
	mu       sync.Mutex
	cooldown time.Duration
	lastSeen map[string]time.Time
	clock    Clock
}

// NewAdmissionController creates a controller backed by the system clock.
func NewAdmissionController(cooldown time.Duration) *AdmissionController {
	return &AdmissionController{
		cooldown: cooldown,
		lastSeen: make(map[string]time.Time),
		clock:    systemClock{},
	}
}

// Admit reports whether the client may proceed now. An admitted call starts
// a new cooldown window; a rejected call does not extend it.
func (a *AdmissionController) Admit(clientID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now()
	if last, ok := a.lastSeen[clientID]; ok && now.Sub(last) < a.cooldown {
		return false
	}

	a.pruneLocked(now)
	a.lastSeen[clientID] = now
	return true
}

// pruneLocked drops expired entries so the table does not grow with every
// client IP ever seen. Caller holds the mutex.
func (a *AdmissionController) pruneLocked(now time.Time) {
	for id, last := range a.lastSeen {
		if now.Sub(last) >= a.cooldown {
			delete(a.lastSeen, id)
		}
	}
}
