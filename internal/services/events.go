package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"studyden-backend/internal/models"
)

const FinalizeQueueName = "queue:session-finalize"

// EventPublisher relays session lifecycle events to redis pub/sub, where
// the websocket hub picks them up per workspace. Publishing is best-effort:
// a dropped event never fails the transition that produced it.
type EventPublisher struct {
	redis *redis.Client
}

func NewEventPublisher(redisClient *redis.Client) *EventPublisher {
	return &EventPublisher{redis: redisClient}
}

func (p *EventPublisher) Publish(ctx context.Context, workspaceID uuid.UUID, msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := p.redis.Publish(ctx, WorkspaceChannel(workspaceID), string(data)).Err(); err != nil {
		log.Printf("failed to publish %s event for workspace %s: %v", msg.Type, workspaceID, err)
	}
}

func WorkspaceChannel(workspaceID uuid.UUID) string {
	return fmt.Sprintf("workspace_updates:%s", workspaceID.String())
}

// FinalizeQueue is the durable half of the two-phase terminal write: when a
// direct Finish fails, the finalize record goes here and the worker pool
// retries it until the row is written.
type FinalizeQueue struct {
	redis *redis.Client
}

func NewFinalizeQueue(redisClient *redis.Client) *FinalizeQueue {
	return &FinalizeQueue{redis: redisClient}
}

func (q *FinalizeQueue) Enqueue(ctx context.Context, job models.FinalizeJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode finalize job: %w", err)
	}
	if err := q.redis.LPush(ctx, FinalizeQueueName, string(data)).Err(); err != nil {
		return fmt.Errorf("failed to enqueue finalize job: %w", err)
	}
	return nil
}
