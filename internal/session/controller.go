package session

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"studyden-backend/internal/models"
)

// Controller is the state machine for one live session. A session is ACTIVE
// from Start until exactly one terminal transition (complete, interrupt or
// cancel) lands; pausing only suspends the countdown and never touches
// storage. All state changes happen under one mutex, so a timer tick racing
// a terminal call is a no-op rather than a double transition.
type Controller struct {
	store  Store
	queue  FinalizeQueue
	events Publisher
	now    func() time.Time

	mu        sync.Mutex
	sess      *models.StudySession
	remaining int
	paused    bool
	done      bool
	timer     *Timer
}

func newController(store Store, queue FinalizeQueue, events Publisher, now func() time.Time, sess *models.StudySession) *Controller {
	return &Controller{
		store:     store,
		queue:     queue,
		events:    events,
		now:       now,
		sess:      sess,
		remaining: sess.PlannedDurationMinutes * 60,
	}
}

// Tick advances the countdown by one second. It is driven by the Timer and
// fires the only transition the user never invokes directly: the automatic
// complete when the countdown reaches zero.
func (c *Controller) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done || c.paused || c.remaining <= 0 {
		return
	}

	c.remaining--
	if c.remaining == 0 {
		c.finalizeLocked(context.Background(), models.SessionCompleted, nil)
	}
}

// Pause suspends the countdown. Idempotent; storage is untouched and the
// row stays ACTIVE.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done {
		return &InvalidStateError{Message: "Session has already ended"}
	}
	if c.paused {
		return nil
	}

	c.paused = true
	if c.timer != nil {
		c.timer.Suspend()
	}
	c.publishLocked(models.EventSessionPaused)
	return nil
}

// Resume restarts a paused countdown. Idempotent.
func (c *Controller) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done {
		return &InvalidStateError{Message: "Session has already ended"}
	}
	if !c.paused {
		return nil
	}

	c.paused = false
	if c.timer != nil {
		c.timer.Unsuspend()
	}
	c.publishLocked(models.EventSessionResumed)
	return nil
}

func (c *Controller) Complete(ctx context.Context, notes *string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finalizeLocked(ctx, models.SessionCompleted, notes)
}

func (c *Controller) Interrupt(ctx context.Context, notes *string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finalizeLocked(ctx, models.SessionInterrupted, notes)
}

func (c *Controller) Cancel(ctx context.Context, notes *string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finalizeLocked(ctx, models.SessionCancelled, notes)
}

// finalizeLocked performs the single terminal transition. Elapsed minutes
// count only unpaused seconds, because remaining is decremented exclusively
// by unpaused ticks.
//
// The write path is two-phase: if the direct Finish fails, the finalize
// record is handed to the durable queue and the transition is still
// accepted, so a finished session can never silently vanish from history.
// Only when the queue is unavailable too does the controller stay live and
// report a PersistenceError the caller may retry.
func (c *Controller) finalizeLocked(ctx context.Context, status string, notes *string) error {
	if c.done {
		return &InvalidStateError{Message: "Session has already ended"}
	}

	if c.timer != nil {
		c.timer.Disarm()
	}

	endedAt := c.now().UTC()
	elapsedSeconds := c.sess.PlannedDurationMinutes*60 - c.remaining
	minutes := int(math.Round(float64(elapsedSeconds) / 60.0))

	if err := c.store.Finish(ctx, c.sess.ID, status, endedAt, minutes, notes); err != nil {
		var ise *InvalidStateError
		if errors.As(err, &ise) {
			// Storage already holds a terminal row; our runtime is stale.
			c.done = true
			return err
		}

		if c.queue != nil {
			job := models.FinalizeJob{
				SessionID:       c.sess.ID,
				WorkspaceID:     c.sess.WorkspaceID,
				Status:          status,
				EndedAt:         endedAt,
				DurationMinutes: minutes,
				Notes:           notes,
			}
			if qerr := c.queue.Enqueue(ctx, job); qerr == nil {
				c.applyTerminalLocked(status, endedAt, minutes, notes)
				return nil
			}
		}

		return &PersistenceError{Op: "finish session", Err: err}
	}

	c.applyTerminalLocked(status, endedAt, minutes, notes)
	return nil
}

func (c *Controller) applyTerminalLocked(status string, endedAt time.Time, minutes int, notes *string) {
	c.done = true
	c.sess.Status = status
	c.sess.EndedAt = &endedAt
	c.sess.DurationMinutes = &minutes
	if notes != nil {
		c.sess.Notes = notes
	}

	switch status {
	case models.SessionCompleted:
		c.publishLocked(models.EventSessionCompleted)
	case models.SessionInterrupted:
		c.publishLocked(models.EventSessionInterrupted)
	case models.SessionCancelled:
		c.publishLocked(models.EventSessionCancelled)
	}
}

func (c *Controller) publishLocked(event string) {
	if c.events == nil {
		return
	}
	c.events.Publish(context.Background(), c.sess.WorkspaceID, models.WSMessage{
		Type: event,
		Payload: models.SessionEvent{
			SessionID:        c.sess.ID,
			Status:           c.sess.Status,
			RemainingSeconds: c.remaining,
			Paused:           c.paused,
		},
	})
}

// State snapshots the live countdown for the API.
func (c *Controller) State() models.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := *c.sess
	return models.SessionState{
		Session:          &snap,
		RemainingSeconds: c.remaining,
		Paused:           c.paused,
	}
}

func (c *Controller) isDone() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}
