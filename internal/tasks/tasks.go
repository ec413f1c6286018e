package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/cache"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/config"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/models"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/notify"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/services"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/storage"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/store"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/utils"
)

// TaskType defines the type of a background task.
const (
	TypeNotificationDeliver = "notification:deliver"
	TypeContractArchive     = "contract:archive"
	TypeContractExpirySweep = "contract:expiry:sweep"
)

// RedisOpt builds the asynq connection options from the shared Redis settings.
func RedisOpt(cfg *config.Config) asynq.RedisClientOpt {
	opts := cache.Options(cfg)
	return asynq.RedisClientOpt{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
	}
}

// --- Task Client (Enqueuing tasks) ---

func NewClient(cfg *config.Config) *asynq.Client {
	return asynq.NewClient(RedisOpt(cfg))
}

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueDispatcher is the notify.Dispatcher used by the services: it only
// enqueues, delivery happens in the worker.
type QueueDispatcher struct {
	client Enqueuer
	now    func() time.Time
}

func NewQueueDispatcher(client Enqueuer) *QueueDispatcher {
	return &QueueDispatcher{client: client, now: time.Now}
}

func (d *QueueDispatcher) Notify(ctx context.Context, recipientID string, kind notify.Kind, payload notify.Payload) {
	log := utils.Logger.WithFields(logrus.Fields{"recipient": recipientID, "kind": kind})
	if recipientID == "" {
		log.Warn("Dropping notification without recipient")
		return
	}

	data, err := json.Marshal(notify.Notification{
		RecipientID: recipientID,
		Kind:        kind,
		Payload:     payload,
		CreatedAt:   d.now().UTC(),
	})
	if err != nil {
		log.WithError(err).Error("Failed to encode notification")
		return
	}
	if _, err := d.client.EnqueueContext(ctx, asynq.NewTask(TypeNotificationDeliver, data), asynq.MaxRetry(5)); err != nil {
		log.WithError(err).Error("Failed to enqueue notification")
	}
}

// ContractArchivePayload names the contract to snapshot.
type ContractArchivePayload struct {
	ContractID string `json:"contract_id"`
}

// QueueArchiver implements services.ContractArchiver by enqueuing an archive task.
type QueueArchiver struct {
	client Enqueuer
}

func NewQueueArchiver(client Enqueuer) *QueueArchiver {
	return &QueueArchiver{client: client}
}

func (a *QueueArchiver) ArchiveContract(ctx context.Context, contractID string) error {
	data, err := json.Marshal(ContractArchivePayload{ContractID: contractID})
	if err != nil {
		return fmt.Errorf("failed to encode archive payload: %w", err)
	}
	info, err := a.client.EnqueueContext(ctx, asynq.NewTask(TypeContractArchive, data), asynq.Queue("low"), asynq.MaxRetry(10))
	if err != nil {
		return fmt.Errorf("failed to enqueue contract archive for %s: %w", contractID, err)
	}
	utils.Logger.WithField("contract_id", contractID).Debugf("Enqueued contract archive task %s", info.ID)
	return nil
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks.
// It holds dependencies needed by task handlers.
type TaskProcessor struct {
	sink            notify.Sink
	archive         storage.IContractArchive
	contracts       store.Repository[models.LeaseContract]
	contractService services.IContractService
}

func NewTaskProcessor(
	sink notify.Sink,
	archive storage.IContractArchive,
	contracts store.Repository[models.LeaseContract],
	contractService services.IContractService,
) *TaskProcessor {
	return &TaskProcessor{
		sink:            sink,
		archive:         archive,
		contracts:       contracts,
		contractService: contractService,
	}
}

// SetupServer configures an asynq server and the handler mux. The caller runs
// the server so it can shut it down with the rest of the process.
func SetupServer(cfg *config.Config, processor *TaskProcessor) (*asynq.Server, *asynq.ServeMux) {
	srv := asynq.NewServer(
		RedisOpt(cfg),
		asynq.Config{
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			Logger: utils.Logger,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				utils.Logger.WithFields(logrus.Fields{
					"task_type": task.Type(),
					"payload":   string(task.Payload()),
				}).WithError(err).Error("Task failed")
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeNotificationDeliver, processor.HandleNotificationDeliverTask)
	mux.HandleFunc(TypeContractArchive, processor.HandleContractArchiveTask)
	mux.HandleFunc(TypeContractExpirySweep, processor.HandleContractExpirySweepTask)
	return srv, mux
}

// NewScheduler registers the periodic contract expiry sweep.
func NewScheduler(cfg *config.Config) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(RedisOpt(cfg), &asynq.SchedulerOpts{
		Logger:   utils.Logger,
		Location: time.UTC,
	})
	entryID, err := scheduler.Register(cfg.ContractExpiryCron, asynq.NewTask(TypeContractExpirySweep, nil), asynq.Unique(time.Minute))
	if err != nil {
		return nil, fmt.Errorf("failed to register contract expiry sweep %q: %w", cfg.ContractExpiryCron, err)
	}
	utils.Logger.WithField("entry_id", entryID).Infof("Contract expiry sweep scheduled (%s)", cfg.ContractExpiryCron)
	return scheduler, nil
}

// --- Task Handlers ---

// HandleNotificationDeliverTask hands a queued notification to the sink.
func (p *TaskProcessor) HandleNotificationDeliverTask(ctx context.Context, t *asynq.Task) error {
	var n notify.Notification
	if err := json.Unmarshal(t.Payload(), &n); err != nil {
		return fmt.Errorf("failed to unmarshal notification payload: %v: %w", err, asynq.SkipRetry)
	}
	if n.RecipientID == "" {
		return fmt.Errorf("notification without recipient: %w", asynq.SkipRetry)
	}
	if err := p.sink.Deliver(ctx, n); err != nil {
		return fmt.Errorf("failed to deliver %s to %s: %w", n.Kind, n.RecipientID, err)
	}
	return nil
}

// HandleContractArchiveTask snapshots the current contract document to S3.
func (p *TaskProcessor) HandleContractArchiveTask(ctx context.Context, t *asynq.Task) error {
	var payload ContractArchivePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal archive payload: %v: %w", err, asynq.SkipRetry)
	}

	contract, err := p.contracts.Get(ctx, payload.ContractID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("contract %s not found: %w", payload.ContractID, asynq.SkipRetry)
	}
	if err != nil {
		return fmt.Errorf("failed to load contract %s: %w", payload.ContractID, err)
	}

	key, err := p.archive.PutContract(ctx, contract)
	if err != nil {
		return err
	}
	utils.Logger.WithFields(logrus.Fields{"contract_id": contract.ID, "key": key}).Info("Contract archived")
	return nil
}

// HandleContractExpirySweepTask expires active contracts past their end date.
func (p *TaskProcessor) HandleContractExpirySweepTask(ctx context.Context, t *asynq.Task) error {
	n, err := p.contractService.ExpireDue(ctx)
	if err != nil {
		return fmt.Errorf("contract expiry sweep stopped after %d contracts: %w", n, err)
	}
	utils.Logger.Infof("Contract expiry sweep finished, %d expired", n)
	return nil
}
