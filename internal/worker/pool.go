package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"studyden-backend/internal/models"
	"studyden-backend/internal/repository"
	"studyden-backend/internal/services"
	"studyden-backend/internal/session"
)

const (
	maxFinalizeRetries = 5
	deadLetterQueue    = services.FinalizeQueueName + ":dead"
)

// Pool drains the finalize-retry queue: terminal session writes that missed
// storage on the first attempt are replayed here until they land. The queue
// plus this pool is what makes a finished session durable even when the
// database was unreachable at the moment the timer stopped.
type Pool struct {
	redis       *redis.Client
	sessionRepo *repository.SessionRepo
	workerCount int
	stopChan    chan struct{}
}

func NewPool(redisClient *redis.Client, sessionRepo *repository.SessionRepo, workerCount int) *Pool {
	return &Pool{
		redis:       redisClient,
		sessionRepo: sessionRepo,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}
	log.Printf("Started %d finalize workers", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Finalize worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, services.FinalizeQueueName).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		var job models.FinalizeJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Finalize worker %d: failed to parse job: %v", id, err)
			continue
		}

		p.process(ctx, &job, id)
	}
}

func (p *Pool) process(ctx context.Context, job *models.FinalizeJob, workerID int) {
	err := p.sessionRepo.Finish(ctx, job.SessionID, job.Status, job.EndedAt, job.DurationMinutes, job.Notes)
	if err == nil {
		log.Printf("Finalize worker %d: session %s persisted as %s after retry", workerID, job.SessionID, job.Status)
		return
	}

	// An already-terminal row means a previous attempt landed and only the
	// acknowledgement was lost; nothing left to do.
	var ise *session.InvalidStateError
	if errors.As(err, &ise) {
		return
	}

	job.RetryCount++
	if job.RetryCount >= maxFinalizeRetries {
		log.Printf("Finalize worker %d: session %s failed permanently: %v", workerID, job.SessionID, err)
		if data, mErr := json.Marshal(job); mErr == nil {
			p.redis.LPush(ctx, deadLetterQueue, string(data))
		}
		return
	}

	log.Printf("Finalize worker %d: session %s failed (attempt %d): %v, retrying", workerID, job.SessionID, job.RetryCount, err)

	// Re-queue after backoff
	data, mErr := json.Marshal(job)
	if mErr != nil {
		return
	}
	backoff := time.Duration(1<<uint(job.RetryCount)) * time.Second
	time.AfterFunc(backoff, func() {
		p.redis.LPush(context.Background(), services.FinalizeQueueName, string(data))
	})
}
