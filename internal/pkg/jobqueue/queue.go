package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/clubstack/clubstack/internal/pkg/cache"
	"github.com/clubstack/clubstack/internal/pkg/mail"
)

const (
	JobKeyPrefix      = "job:"
	JobQueueKey       = "job_queue"
	JobProcessingKey  = "job_processing"
	JobStatsKey       = "job_stats"
	DefaultMaxRetries = 3
	JobTTL            = 24 * time.Hour
)

// Queue manages background jobs over a Redis list. Workers block on
// BRPopLPush so pending jobs survive a crash in the processing list.
type Queue struct {
	client      *redis.Client
	workerCount int
	stopCh      chan struct{}
	wg          sync.WaitGroup
	running     bool
	mu          sync.Mutex
}

// NewQueue creates a queue backed by the shared Redis client
func NewQueue(workerCount int) *Queue {
	if workerCount <= 0 {
		workerCount = 2
	}
	return &Queue{
		client:      cache.GetClient(),
		workerCount: workerCount,
	}
}

// Start launches the worker pool and the stuck-job sweeper
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.stopCh = make(chan struct{})
	q.running = true

	for i := 0; i < q.workerCount; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	q.wg.Add(1)
	go q.stuckSweeper()

	log.Infof("[JobQueue] Started %d workers", q.workerCount)
}

// Stop signals workers to stop and waits for them to finish
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	close(q.stopCh)
	q.running = false
	q.mu.Unlock()

	q.wg.Wait()
	log.Info("[JobQueue] Stopped")
}

// EnqueueJob stores the job and pushes its ID onto the pending list
func (q *Queue) EnqueueJob(ctx context.Context, job *Job) error {
	jobData, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	pipe := q.client.Pipeline()
	pipe.Set(ctx, JobKeyPrefix+job.ID, jobData, JobTTL)
	pipe.LPush(ctx, JobQueueKey, job.ID)
	pipe.HIncrBy(ctx, JobStatsKey, string(JobStatusPending), 1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to enqueue job %s: %w", job.ID, err)
	}

	log.Infof("[JobQueue] Enqueued job %s (type: %s)", job.ID, job.Type)
	return nil
}

// EnqueuePaymentLinkEmail is a convenience wrapper used by the billing flow
func (q *Queue) EnqueuePaymentLinkEmail(ctx context.Context, payload PaymentLinkJobPayload) (*Job, error) {
	job := NewJob(JobTypePaymentLinkEmail, payload.ToMap())
	if err := q.EnqueueJob(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	ctx := context.Background()

	for {
		select {
		case <-q.stopCh:
			log.Debugf("[JobQueue] Worker %d stopping", id)
			return
		default:
		}

		jobID, err := q.client.BRPopLPush(ctx, JobQueueKey, JobProcessingKey, 2*time.Second).Result()
		if err != nil {
			if err != redis.Nil {
				log.Errorf("[JobQueue] Worker %d dequeue error: %v", id, err)
				time.Sleep(time.Second)
			}
			continue
		}

		job, err := q.GetJob(ctx, jobID)
		if err != nil {
			log.Errorf("[JobQueue] Worker %d failed to load job %s: %v", id, jobID, err)
			q.removeFromProcessing(ctx, jobID)
			continue
		}

		q.processJob(ctx, job)
	}
}

func (q *Queue) processJob(ctx context.Context, job *Job) {
	job.MarkAsProcessing()
	q.updateJob(ctx, job)

	var err error
	switch job.Type {
	case JobTypePaymentLinkEmail:
		err = q.processPaymentLinkEmail(job)
	default:
		err = fmt.Errorf("unknown job type: %s", job.Type)
	}

	if err != nil {
		log.Errorf("[JobQueue] Job %s failed: %v", job.ID, err)
		job.MarkAsFailed(err.Error())

		if job.IsRetryable() {
			log.Infof("[JobQueue] Retrying job %s (attempt %d/%d)", job.ID, job.RetryCount, job.MaxRetries)
			job.MarkAsRetrying()
			q.updateJob(ctx, job)

			// Re-enqueue with a linear backoff
			time.AfterFunc(time.Minute*time.Duration(job.RetryCount), func() {
				q.client.LPush(context.Background(), JobQueueKey, job.ID)
			})
		} else {
			log.Errorf("[JobQueue] Job %s permanently failed after %d retries", job.ID, job.RetryCount)
			q.updateJobStats(ctx, JobStatusFailed, 1)
		}
	} else {
		job.MarkAsCompleted()
		q.updateJobStats(ctx, JobStatusCompleted, 1)
		q.removeCompletedJob(ctx, job.ID)
	}

	if job.Status != JobStatusCompleted {
		q.updateJob(ctx, job)
	}
	q.removeFromProcessing(ctx, job.ID)
}

func (q *Queue) processPaymentLinkEmail(job *Job) error {
	payload, err := PaymentLinkJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid payment link payload: %w", err)
	}
	if payload.Email == "" || payload.CheckoutURL == "" {
		return fmt.Errorf("payment link payload missing email or checkout URL")
	}
	return mail.SendPaymentLink(payload.Email, payload.MemberName, payload.ClubName, payload.PlanName, payload.CheckoutURL)
}

// stuckSweeper requeues jobs that sat in the processing list for too
// long, which happens when a worker dies mid-job.
func (q *Queue) stuckSweeper() {
	defer q.wg.Done()
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-q.stopCh:
			return
		case <-ticker.C:
			q.sweepStuckJobs(context.Background())
		}
	}
}

func (q *Queue) sweepStuckJobs(ctx context.Context) {
	jobIDs, err := q.client.LRange(ctx, JobProcessingKey, 0, -1).Result()
	if err != nil {
		log.Errorf("[JobQueue] Failed to list processing jobs: %v", err)
		return
	}

	for _, jobID := range jobIDs {
		job, err := q.GetJob(ctx, jobID)
		if err != nil {
			// Job data expired, drop the dangling reference
			q.removeFromProcessing(ctx, jobID)
			continue
		}
		if job.ProcessedAt != nil && time.Since(*job.ProcessedAt) > 10*time.Minute {
			log.Warnf("[JobQueue] Requeueing stuck job %s", jobID)
			if err := q.requeueJob(ctx, job); err != nil {
				log.Errorf("[JobQueue] Failed to requeue stuck job %s: %v", jobID, err)
			}
		}
	}
}

func (q *Queue) updateJob(ctx context.Context, job *Job) {
	jobData, err := json.Marshal(job)
	if err != nil {
		log.Errorf("[JobQueue] Failed to marshal job %s: %v", job.ID, err)
		return
	}
	if err := q.client.Set(ctx, JobKeyPrefix+job.ID, jobData, JobTTL).Err(); err != nil {
		log.Errorf("[JobQueue] Failed to update job %s: %v", job.ID, err)
	}
}

func (q *Queue) requeueJob(ctx context.Context, job *Job) error {
	job.Status = JobStatusPending
	job.UpdatedAt = time.Now()
	q.updateJob(ctx, job)
	if err := q.client.LRem(ctx, JobProcessingKey, 1, job.ID).Err(); err != nil {
		log.Errorf("[JobQueue] Failed to remove job %s from processing: %v", job.ID, err)
	}
	return q.client.RPush(ctx, JobQueueKey, job.ID).Err()
}

func (q *Queue) removeFromProcessing(ctx context.Context, jobID string) {
	if err := q.client.LRem(ctx, JobProcessingKey, 1, jobID).Err(); err != nil {
		log.Errorf("[JobQueue] Failed to remove job %s from processing queue: %v", jobID, err)
	}
}

func (q *Queue) removeCompletedJob(ctx context.Context, jobID string) {
	if err := q.client.Del(ctx, JobKeyPrefix+jobID).Err(); err != nil {
		log.Errorf("[JobQueue] Failed to remove completed job %s: %v", jobID, err)
	}
}

func (q *Queue) updateJobStats(ctx context.Context, status JobStatus, delta int64) {
	if err := q.client.HIncrBy(ctx, JobStatsKey, string(status), delta).Err(); err != nil {
		log.Errorf("[JobQueue] Failed to update job stats: %v", err)
	}
}

// GetJob retrieves a job by ID
func (q *Queue) GetJob(ctx context.Context, jobID string) (*Job, error) {
	jobData, err := q.client.Get(ctx, JobKeyPrefix+jobID).Result()
	if err != nil {
		return nil, err
	}
	var job Job
	if err := json.Unmarshal([]byte(jobData), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

// GetQueueSize returns the number of pending jobs
func (q *Queue) GetQueueSize(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, JobQueueKey).Result()
}
