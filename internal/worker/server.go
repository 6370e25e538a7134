package worker

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"plantguard/internal/tasks"
)

// WorkerServer runs the asynq server that drains queued prediction records.
type WorkerServer struct {
	server  *asynq.Server
	log     *logrus.Entry
	handler *PredictionPersistHandler
	queues  map[string]int
}

// NewWorkerServer builds the server; concurrency <= 0 means 10.
func NewWorkerServer(redisOpt asynq.RedisClientOpt, handler *PredictionPersistHandler, concurrency int, logger *logrus.Logger) *WorkerServer {
	logEntry := logger.WithField("component", "worker_server")
	if concurrency <= 0 {
		concurrency = 10
	}

	queues := map[string]int{tasks.QueueDefault: 1}
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: concurrency,
			Queues:      queues,

			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				taskID := ""
				if rw := task.ResultWriter(); rw != nil {
					taskID = rw.TaskID()
				}
				logEntry.WithFields(logrus.Fields{
					"task_id":   taskID,
					"task_type": task.Type(),
				}).Errorf("Task failed: %v", err)
			}),
			Logger: logEntry,
		},
	)

	return &WorkerServer{server: server, log: logEntry, handler: handler, queues: queues}
}

// Queues reports the queues this server consumes and their priorities.
func (ws *WorkerServer) Queues() map[string]int { return ws.queues }

// Mux returns the handler registrations; split out for tests.
func (ws *WorkerServer) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypePredictionPersist, ws.handler.ProcessTask)
	return mux
}

// Start blocks; call it from its own goroutine.
func (ws *WorkerServer) Start() {
	ws.log.Info("Worker server starting...")
	if err := ws.server.Run(ws.Mux()); err != nil {
		if !errors.Is(err, asynq.ErrServerClosed) {
			ws.log.Errorf("Could not run worker server: %v", err)
			return
		}
		ws.log.Info("Worker server stopped.")
	}
}

// Shutdown stops fetching tasks and waits for active ones.
func (ws *WorkerServer) Shutdown() {
	ws.log.Info("Shutting down worker server...")
	ws.server.Shutdown()
	ws.log.Info("Worker server shut down complete.")
}
