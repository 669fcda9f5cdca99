package jobs

import (
	"github.com/hibiken/asynq"

	"github.com/menucraft/api/pkg/logger"
)

// WorkerConfig holds the configuration for the job worker.
type WorkerConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Concurrency   int
}

// Worker processes background jobs.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *logger.Logger
}

// NewWorker creates a new background job worker with all handlers registered.
func NewWorker(
	cfg WorkerConfig,
	billing *BillingTaskHandler,
	usage *UsageTaskHandler,
	maintenance *MaintenanceTaskHandler,
	log *logger.Logger,
) *Worker {
	server := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues: map[string]int{
				"default":     10,
				"email":       5,
				"maintenance": 2,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeBillingExpiryWarning, billing.HandleExpiryWarning)
	mux.HandleFunc(TypeBillingSuspended, billing.HandleSuspended)
	mux.HandleFunc(TypeEmailWelcome, billing.HandleWelcomeEmail)
	mux.HandleFunc(TypeUsageTrack, usage.HandleUsageTrack)
	mux.HandleFunc(TypeExpirySweep, maintenance.HandleExpirySweep)
	mux.HandleFunc(TypeUsageRetention, maintenance.HandleUsageRetention)

	return &Worker{
		server: server,
		mux:    mux,
		logger: log,
	}
}

// Start starts the worker.
func (w *Worker) Start() error {
	w.logger.Info("starting job worker")
	return w.server.Start(w.mux)
}

// Stop stops the worker gracefully.
func (w *Worker) Stop() {
	w.logger.Info("stopping job worker")
	w.server.Shutdown()
}
