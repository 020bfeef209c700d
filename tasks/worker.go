package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/mitodev/mito/models"
	"github.com/mitodev/mito/utils"
)

// Worker consumes task envelopes from the Redis queue on a single goroutine.
// There are no retries: a task that fails is logged and dropped.
type Worker struct {
	db    *gorm.DB
	rdb   *redis.Client
	queue string

	cancel context.CancelFunc
	done   chan struct{}
}

// NewWorker returns a Worker reading from the given queue.
func NewWorker(db *gorm.DB, rdb *redis.Client, queue string) *Worker {
	return &Worker{db: db, rdb: rdb, queue: queue}
}

// Start launches the consume loop.
func (w *Worker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.run(ctx)
	utils.Sugar.Infof("task worker started on queue %s", w.queue)
}

// Stop cancels the consume loop and waits for it to drain.
func (w *Worker) Stop() {
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
	utils.Sugar.Info("task worker stopped")
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	for {
		if ctx.Err() != nil {
			return
		}
		res, err := w.rdb.BRPop(ctx, 5*time.Second, w.queue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			utils.Sugar.Warnf("task queue read failed: %v", err)
			time.Sleep(time.Second)
			continue
		}
		// BRPop returns [queue, value]
		if len(res) == 2 {
			w.Dispatch(res[1])
		}
	}
}

// Dispatch decodes one task envelope and runs its handler. Unknown task
// names are logged and dropped.
func (w *Worker) Dispatch(raw string) {
	var task Task
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		utils.Sugar.Warnf("undecodable task dropped: %v", err)
		return
	}

	switch task.Name {
	case TaskPostCreated:
		w.handlePostCreated(task)
	default:
		utils.Sugar.Warnf("unknown task %s id=%s dropped", task.Name, task.ID)
	}
}

func (w *Worker) handlePostCreated(task Task) {
	var payload PostCreatedPayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		utils.Sugar.Warnf("bad post.created payload id=%s: %v", task.ID, err)
		return
	}

	var post models.Post
	if err := w.db.Preload("Author").First(&post, payload.PostID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Sugar.Errorf("Post with id %d does not exist", payload.PostID)
		} else {
			utils.Sugar.Warnf("load post %d: %v", payload.PostID, err)
		}
		return
	}
	utils.Sugar.Infof("Post details: id=%d title=%q author=%s", post.ID, post.Title, post.Author.Username)
}
