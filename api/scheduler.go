/*
scheduler.go - Background overtime watcher

PURPOSE:
  Periodically scans currently clocked-in users and fires an overtime
  notification for anyone clocked in past the threshold. Clock actions
  also run detection inline, but a user who simply forgets to clock out
  never triggers another action; the watcher covers that gap.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Detection and recipient resolution live in timeclock.ClockService;
    the watcher only drives the loop
  - Notifications are best-effort: a delivery failure is logged and the
    scan continues

CONFIGURATION:
  - CheckInterval: How often to scan (default: 15 minutes)
  - Enabled: Whether the watcher is active (default: true)

USAGE:
  watcher := NewOvertimeWatcher(handler)
  watcher.Start()
  // ... later
  watcher.Stop()

SEE ALSO:
  - timeclock/clock.go: CheckOvertime / NotifyOvertime
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"
)

// OvertimeWatcher drives periodic overtime detection.
type OvertimeWatcher struct {
	Handler       *Handler
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewOvertimeWatcher creates a watcher over the handler's services.
func NewOvertimeWatcher(handler *Handler) *OvertimeWatcher {
	return &OvertimeWatcher{
		Handler:       handler,
		CheckInterval: 15 * time.Minute,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the background scan loop.
func (ow *OvertimeWatcher) Start() {
	ow.mu.Lock()
	defer ow.mu.Unlock()

	if !ow.Enabled {
		log.Println("[Watcher] Disabled, not starting")
		return
	}

	ow.ticker = time.NewTicker(ow.CheckInterval)
	ow.wg.Add(1)

	go ow.run()

	log.Printf("[Watcher] Started with check interval: %v", ow.CheckInterval)
}

// Stop stops the watcher and waits for an in-flight scan to finish.
func (ow *OvertimeWatcher) Stop() {
	ow.mu.Lock()
	defer ow.mu.Unlock()

	if ow.ticker != nil {
		ow.ticker.Stop()
		close(ow.stop)
		ow.wg.Wait()
		log.Println("[Watcher] Stopped")
	}
}

func (ow *OvertimeWatcher) run() {
	defer ow.wg.Done()

	// Scan immediately on start
	ow.scan()

	for {
		select {
		case <-ow.ticker.C:
			ow.scan()
		case <-ow.stop:
			return
		}
	}
}

func (ow *OvertimeWatcher) scan() {
	ctx := context.Background()

	users, err := ow.Handler.Clock.ClockedInUsers(ctx)
	if err != nil {
		log.Printf("[Watcher] Error listing clocked-in users: %v", err)
		return
	}

	notified := 0
	for _, user := range users {
		n, err := ow.Handler.Clock.CheckOvertime(ctx, user.ID)
		if err != nil {
			log.Printf("[Watcher] Error checking overtime for %s: %v", user.Email, err)
			continue
		}
		if n == nil {
			continue
		}
		if err := ow.Handler.Clock.Notifier.Notify(ctx, *n); err != nil {
			log.Printf("[Watcher] Notification to %s failed: %v", n.Recipient, err)
			continue
		}
		notified++
	}

	if notified > 0 {
		log.Printf("[Watcher] Completed: %d overtime notifications sent", notified)
	}
}

// RunNow triggers an immediate scan (for testing/admin).
func (ow *OvertimeWatcher) RunNow() {
	ow.scan()
}
