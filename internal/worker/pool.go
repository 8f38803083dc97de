package worker

import (
	"context"
	"encoding/json"
	"time"

	"flowmrp/internal/model"
	"flowmrp/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const QueueAudit = "jobs:audit"

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AuditPayload carries one audit record through the queue.
type AuditPayload struct {
	Action     string `json:"action"`
	ParentCode string `json:"parent_code"`
	ChildCode  string `json:"child_code"`
	Succeeded  bool   `json:"succeeded"`
	Detail     string `json:"detail"`
}

// Dispatcher enqueues async jobs into Redis lists. The worker pool dequeues
// them via BRPOP. It satisfies service.AuditLogger, so services never see the
// queue — they just report outcomes.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher { return &Dispatcher{rdb: rdb} }

// Record enqueues one audit record. Services treat emission as best-effort
// and ignore the returned error, so a queue outage never fails a delete.
func (d *Dispatcher) Record(ctx context.Context, action, parentCode, childCode string, succeeded bool, detail string) error {
	return d.enqueue(ctx, QueueAudit, "audit", AuditPayload{
		Action:     action,
		ParentCode: parentCode,
		ChildCode:  childCode,
		Succeeded:  succeeded,
		Detail:     detail,
	})
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{Type: jobType, Payload: data})
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// AuditWorker persists dequeued audit records.
type AuditWorker struct {
	repo repository.AuditRepository
}

func NewAuditWorker(repo repository.AuditRepository) *AuditWorker { return &AuditWorker{repo: repo} }

func (w *AuditWorker) handle(ctx context.Context, job Job) {
	var p AuditPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		log.Error().Err(err).Msg("failed to unmarshal audit payload")
		return
	}
	entry := &model.AuditEntry{
		Action:     p.Action,
		ParentCode: p.ParentCode,
		ChildCode:  p.ChildCode,
		Succeeded:  p.Succeeded,
		Detail:     p.Detail,
	}
	if err := w.repo.Create(ctx, entry); err != nil {
		log.Error().Err(err).Str("action", p.Action).Msg("failed to persist audit entry")
	}
}

// StartWorkerPool launches numWorkers goroutines consuming the audit queue.
// Each goroutine blocks on BRPOP — zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, w *AuditWorker, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, w, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, w *AuditWorker, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, QueueAudit).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			var job Job
			if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
				log.Error().Str("queue", result[0]).Err(err).Msg("failed to unmarshal job")
				continue
			}
			w.handle(ctx, job)
		}
	}
}
