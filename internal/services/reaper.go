package services

import (
	"context"
	"log"
	"time"
)

const reaperPollInterval = 1 * time.Hour

type staleSessionStore interface {
	ReapStale(ctx context.Context, graceHours int) (int, error)
}

// Reaper closes out sessions that were abandoned mid-countdown: closing the
// tab never persists a terminal state, so without it an ACTIVE row would sit
// in storage forever and block the workspace's next session.
type Reaper struct {
	store      staleSessionStore
	graceHours int
	stopChan   chan struct{}
}

func NewReaper(store staleSessionStore, graceHours int) *Reaper {
	return &Reaper{
		store:      store,
		graceHours: graceHours,
		stopChan:   make(chan struct{}),
	}
}

func (r *Reaper) Start() {
	go r.loop()
	log.Printf("Stale session reaper started")
}

func (r *Reaper) Stop() {
	select {
	case <-r.stopChan:
		return
	default:
		close(r.stopChan)
	}
}

func (r *Reaper) loop() {
	// Run on startup as well as by interval.
	r.runOnce(context.Background())

	ticker := time.NewTicker(reaperPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopChan:
			return
		case <-ticker.C:
			r.runOnce(context.Background())
		}
	}
}

func (r *Reaper) runOnce(ctx context.Context) {
	reaped, err := r.store.ReapStale(ctx, r.graceHours)
	if err != nil {
		log.Printf("session reaper: %v", err)
		return
	}
	if reaped > 0 {
		log.Printf("session reaper: interrupted %d abandoned sessions", reaped)
	}
}
