// Package queue implements the durable vote request queue.
//
// Submissions are validated synchronously, stored as a job hash and pushed
// onto a Redis list. A single consumer drains the list with BRPOPLPUSH into
// an active list (at-least-once delivery); jobs are removed from the active
// list only after the handler finished. This single-consumer discipline is
// what keeps the counter mutations of concurrent votes from racing - it
// substitutes for database transactions.
package queue

import (
	"context"
	"strconv"
	"time"

	"crowdcheck/apperror"
	"crowdcheck/helpers"
	"crowdcheck/lookups"
	"crowdcheck/models"

	"github.com/go-redis/redis/v8"
	"github.com/twinj/uuid"
)

// redis key layout
const (
	waitingKey   = "votes:waiting"
	activeKey    = "votes:active"
	jobKeyPrefix = "votes:job:"
)

// finished jobs stay queryable for a while, then expire
const jobRetention = 7 * 24 * time.Hour

// Job is the unit of work travelling through the vote queue
type Job struct {
	ID       string    `json:"jobId"`
	TargetID string    `json:"targetId"`
	Kind     string    `json:"kind"`
	Rating   int32     `json:"rating"`
	AuthorID string    `json:"authorId"`
	QueuedTS time.Time `json:"queuedTS"`
}

// JobState is the queryable lifecycle state of a job
type JobState struct {
	Job
	Status     string     `json:"status"`
	StatusText string     `json:"statusText"`
	Reason     string     `json:"reason,omitempty"`
	FinishedTS *time.Time `json:"finishedTS,omitempty"`
}

// VoteQueue accepts vote submissions and hands them to the single consumer.
// The target lookup and the lifecycle signals are injected by the environment.
type VoteQueue struct {
	Redis        *redis.Client
	TargetExists func(targetID string, kind string) (bool, error)

	// lifecycle signals (observability); may be nil
	OnJobAdded     func(job *Job)
	OnJobCompleted func(job *Job)
	OnJobFailed    func(job *Job, reason string)
}

// Enqueue validates a vote submission, appends it to the durable queue and
// returns the job handle without waiting for processing.
//
// The existence check is a lookup-only read and not serialized through the
// queue; if the target is missing the call fails fast and no job is created.
func (q *VoteQueue) Enqueue(targetID string, kind string, rating int32, authorID string) (*Job, error) {

	if rating != models.VoteUp && rating != models.VoteDown && rating != models.VoteNeutral {
		return nil, apperror.ErrInvalidRating
	}

	if !models.ValidKind(kind) {
		return nil, apperror.ErrInvalidKind
	}

	b, err := q.TargetExists(targetID, kind)
	if err != nil {
		return nil, err
	}
	if !b {
		return nil, apperror.ErrNotFound
	}

	job := &Job{
		ID:       uuid.NewV4().String(),
		TargetID: targetID,
		Kind:     kind,
		Rating:   rating,
		AuthorID: authorID,
		QueuedTS: time.Now(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = q.Redis.HSet(ctx, jobKeyPrefix+job.ID,
		"targetId", job.TargetID,
		"kind", job.Kind,
		"rating", int64(job.Rating),
		"authorId", job.AuthorID,
		"queuedTS", job.QueuedTS.Format(time.RFC3339Nano),
		"status", lookups.JSqueued,
	).Err()
	if err != nil {
		return nil, helpers.WrapError(err, helpers.FuncName())
	}

	// LPUSH head + BRPOPLPUSH tail = FIFO
	err = q.Redis.LPush(ctx, waitingKey, job.ID).Err()
	if err != nil {
		return nil, helpers.WrapError(err, helpers.FuncName())
	}

	if q.OnJobAdded != nil {
		q.OnJobAdded(job)
	}

	return job, nil
}

// GetJob returns the lifecycle state of a job
func (q *VoteQueue) GetJob(jobID string) (*JobState, error) {

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	data, err := q.Redis.HGetAll(ctx, jobKeyPrefix+jobID).Result()
	if err != nil {
		return nil, helpers.WrapError(err, helpers.FuncName())
	}

	// HGETALL returns an empty map for missing keys
	if len(data) == 0 {
		return nil, apperror.ErrNoData
	}

	return jobStateFromHash(jobID, data), nil
}

// Recover re-queues jobs a crashed consumer left on the active list.
// Called once at startup, before the consumer starts; the jobs will be
// delivered again (at-least-once).
func (q *VoteQueue) Recover() (int, error) {

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	moved := 0
	for {
		_, err := q.Redis.RPopLPush(ctx, activeKey, waitingKey).Result()
		if err == redis.Nil {
			return moved, nil
		}
		if err != nil {
			return moved, helpers.WrapError(err, helpers.FuncName())
		}
		moved++
	}
}

// internal functions used by the consumer

func (q *VoteQueue) loadJob(ctx context.Context, jobID string) (*Job, error) {
	data, err := q.Redis.HGetAll(ctx, jobKeyPrefix+jobID).Result()
	if err != nil {
		return nil, helpers.WrapError(err, helpers.FuncName())
	}
	if len(data) == 0 {
		return nil, apperror.ErrNoData
	}
	return &jobStateFromHash(jobID, data).Job, nil
}

func (q *VoteQueue) markActive(ctx context.Context, jobID string) error {
	return q.Redis.HSet(ctx, jobKeyPrefix+jobID, "status", lookups.JSactive).Err()
}

// markCompleted acknowledges the job: only now is it removed from the queue
func (q *VoteQueue) markCompleted(ctx context.Context, job *Job) error {
	key := jobKeyPrefix + job.ID

	err := q.Redis.HSet(ctx, key,
		"status", lookups.JScompleted,
		"finishedTS", time.Now().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return helpers.WrapError(err, helpers.FuncName())
	}

	err = q.Redis.LRem(ctx, activeKey, 1, job.ID).Err()
	if err != nil {
		return helpers.WrapError(err, helpers.FuncName())
	}

	q.Redis.Expire(ctx, key, jobRetention)

	if q.OnJobCompleted != nil {
		q.OnJobCompleted(job)
	}
	return nil
}

// markFailed records the failure and acknowledges the job anyway: there is
// no automatic retry, the caller already received a success response at
// enqueue time and learns about the loss through the failed signal only.
func (q *VoteQueue) markFailed(ctx context.Context, job *Job, reason string) error {
	key := jobKeyPrefix + job.ID

	err := q.Redis.HSet(ctx, key,
		"status", lookups.JSfailed,
		"reason", reason,
		"finishedTS", time.Now().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return helpers.WrapError(err, helpers.FuncName())
	}

	err = q.Redis.LRem(ctx, activeKey, 1, job.ID).Err()
	if err != nil {
		return helpers.WrapError(err, helpers.FuncName())
	}

	q.Redis.Expire(ctx, key, jobRetention)

	if q.OnJobFailed != nil {
		q.OnJobFailed(job, reason)
	}
	return nil
}

func jobStateFromHash(jobID string, data map[string]string) *JobState {

	rating, _ := strconv.ParseInt(data["rating"], 10, 32)
	queuedTS, _ := time.Parse(time.RFC3339Nano, data["queuedTS"])

	state := &JobState{
		Job: Job{
			ID:       jobID,
			TargetID: data["targetId"],
			Kind:     data["kind"],
			Rating:   int32(rating),
			AuthorID: data["authorId"],
			QueuedTS: queuedTS,
		},
		Status:     data["status"],
		StatusText: lookups.JobStatus(data["status"]),
		Reason:     data["reason"],
	}

	if ts, ok := data["finishedTS"]; ok {
		if finished, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			state.FinishedTS = &finished
		}
	}

	return state
}
