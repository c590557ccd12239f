package tasks

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Enqueuer puts tasks on the queue.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Queue enqueues outfit tasks.
type Queue struct {
	client Enqueuer
	logger *zap.Logger
}

// NewQueue wraps an asynq client.
func NewQueue(client Enqueuer, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{client: client, logger: logger}
}

// EnqueueAnalyze queues an image for analysis and returns the task id.
func (q *Queue) EnqueueAnalyze(ctx context.Context, p AnalyzeOutfitPayload) (string, error) {
	task, err := NewAnalyzeOutfitTask(p)
	if err != nil {
		return "", err
	}
	info, err := q.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	if err != nil {
		return "", err
	}
	q.logger.Debug("analyze task enqueued", zap.String("task_id", info.ID), zap.String("source", p.Source))
	return info.ID, nil
}

// EnqueueRebuild queues an index rebuild. A rebuild already waiting is not an error;
// the empty task id is returned for it.
func (q *Queue) EnqueueRebuild(ctx context.Context, force bool) (string, error) {
	task, err := NewRebuildIndexTask(force)
	if err != nil {
		return "", err
	}
	info, err := q.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	if errors.Is(err, asynq.ErrDuplicateTask) {
		q.logger.Debug("rebuild already queued")
		return "", nil
	}
	if err != nil {
		return "", err
	}
	q.logger.Debug("rebuild task enqueued", zap.String("task_id", info.ID), zap.Bool("force", force))
	return info.ID, nil
}

// WorkerOptions configures the asynq worker server.
type WorkerOptions struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Concurrency   int
}

// RedisOpt returns the asynq connection options.
func (o WorkerOptions) RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: o.RedisAddr, Password: o.RedisPassword, DB: o.RedisDB}
}

// NewServer creates the asynq server that runs the handlers.
func NewServer(o WorkerOptions, logger *zap.Logger) *asynq.Server {
	concurrency := o.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	cfg := asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{QueueDefault: 1},
	}
	if logger != nil {
		cfg.Logger = logger.Sugar()
	}
	return asynq.NewServer(o.RedisOpt(), cfg)
}
