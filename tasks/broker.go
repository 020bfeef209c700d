package tasks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mitodev/mito/utils"
)

// TaskPostCreated is fired after a post is persisted.
const TaskPostCreated = "post.created"

// Task is the broker envelope pushed onto the Redis queue.
type Task struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// PostCreatedPayload carries the identifier of a freshly created post.
type PostCreatedPayload struct {
	PostID uint `json:"post_id"`
}

// Enqueuer is the producer side of the task queue. Handlers depend on this
// interface so tests can substitute a recorder.
type Enqueuer interface {
	PostCreated(postID uint)
}

// Broker pushes task envelopes onto a Redis list. Enqueue is fire-and-forget:
// failures are logged and swallowed, never surfaced to the HTTP caller.
type Broker struct {
	rdb   *redis.Client
	queue string
}

// NewBroker returns a Broker bound to the given queue.
func NewBroker(rdb *redis.Client, queue string) *Broker {
	return &Broker{rdb: rdb, queue: queue}
}

// PostCreated enqueues a post.created task.
func (b *Broker) PostCreated(postID uint) {
	payload, err := json.Marshal(PostCreatedPayload{PostID: postID})
	if err != nil {
		utils.Sugar.Warnf("marshal post.created payload: %v", err)
		return
	}
	b.enqueue(TaskPostCreated, payload)
}

func (b *Broker) enqueue(name string, payload json.RawMessage) {
	task := Task{
		ID:         uuid.NewString(),
		Name:       name,
		Payload:    payload,
		EnqueuedAt: time.Now(),
	}
	body, err := json.Marshal(task)
	if err != nil {
		utils.Sugar.Warnf("marshal task %s: %v", name, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := b.rdb.LPush(ctx, b.queue, body).Err(); err != nil {
		utils.Sugar.Warnf("enqueue %s failed: %v", name, err)
		return
	}
	utils.Sugar.Infof("enqueued task %s id=%s", name, task.ID)
}
