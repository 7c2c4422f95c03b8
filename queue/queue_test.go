package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"crowdcheck/apperror"
	"crowdcheck/lookups"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testTarget = "6055d819671e62579fcc2151"
	testAuthor = "601526e8a468e8973193facd"
)

func newTestQueue(t *testing.T) *VoteQueue {
	t.Helper()

	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return &VoteQueue{
		Redis: client,
		TargetExists: func(targetID string, kind string) (bool, error) {
			return true, nil
		},
	}
}

func TestEnqueueValidation(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	t.Run("invalid rating", func(t *testing.T) {
		job, err := q.Enqueue(testTarget, lookups.TKclaim, 2, testAuthor)
		assert.Equal(t, apperror.ErrInvalidRating, err)
		assert.Nil(t, job)
	})

	t.Run("invalid kind", func(t *testing.T) {
		job, err := q.Enqueue(testTarget, "COMMENT", 1, testAuthor)
		assert.Equal(t, apperror.ErrInvalidKind, err)
		assert.Nil(t, job)
	})

	t.Run("missing target", func(t *testing.T) {
		q.TargetExists = func(targetID string, kind string) (bool, error) {
			return false, nil
		}
		defer func() {
			q.TargetExists = func(targetID string, kind string) (bool, error) {
				return true, nil
			}
		}()

		job, err := q.Enqueue(testTarget, lookups.TKclaim, 1, testAuthor)
		assert.Equal(t, apperror.ErrNotFound, err)
		assert.Nil(t, job)
	})

	// a rejected submission must leave no job behind
	length, err := q.Redis.LLen(ctx, waitingKey).Result()
	require.NoError(t, err)
	assert.Zero(t, length)
}

func TestEnqueueAddsJob(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	var added *Job
	q.OnJobAdded = func(job *Job) { added = job }

	job, err := q.Enqueue(testTarget, lookups.TKclaim, 1, testAuthor)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.NotEmpty(t, job.ID)

	// signal fired
	require.NotNil(t, added)
	assert.Equal(t, job.ID, added.ID)

	// durable and queryable
	length, err := q.Redis.LLen(ctx, waitingKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), length)

	state, err := q.GetJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, lookups.JSqueued, state.Status)
	assert.Equal(t, "waiting for the vote worker", state.StatusText)
	assert.Equal(t, testTarget, state.TargetID)
	assert.Equal(t, lookups.TKclaim, state.Kind)
	assert.Equal(t, int32(1), state.Rating)
	assert.Equal(t, testAuthor, state.AuthorID)
}

func TestGetJobUnknown(t *testing.T) {
	q := newTestQueue(t)

	state, err := q.GetJob("no-such-job")
	assert.Equal(t, apperror.ErrNoData, err)
	assert.Nil(t, state)
}

func TestConsumerProcessesInOrder(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	var mu sync.Mutex
	var processed []int32

	consumer := NewConsumer(q, func(job *Job) error {
		mu.Lock()
		processed = append(processed, job.Rating)
		mu.Unlock()
		return nil
	})

	job1, err := q.Enqueue(testTarget, lookups.TKclaim, 1, testAuthor)
	require.NoError(t, err)
	job2, err := q.Enqueue(testTarget, lookups.TKclaim, -1, testAuthor)
	require.NoError(t, err)
	job3, err := q.Enqueue(testTarget, lookups.TKclaim, 0, testAuthor)
	require.NoError(t, err)

	consumer.Start()
	defer consumer.Stop()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(processed) == 3
	}, 10*time.Second, 10*time.Millisecond)

	// submission order is processing order
	mu.Lock()
	assert.Equal(t, []int32{1, -1, 0}, processed)
	mu.Unlock()

	// all jobs acknowledged
	require.Eventually(t, func() bool {
		active, _ := q.Redis.LLen(ctx, activeKey).Result()
		return active == 0
	}, 10*time.Second, 10*time.Millisecond)

	waiting, err := q.Redis.LLen(ctx, waitingKey).Result()
	require.NoError(t, err)
	assert.Zero(t, waiting)

	for _, id := range []string{job1.ID, job2.ID, job3.ID} {
		state, err := q.GetJob(id)
		require.NoError(t, err)
		assert.Equal(t, lookups.JScompleted, state.Status)
		assert.NotNil(t, state.FinishedTS)
	}
}

func TestConsumerMarksFailedWithoutRetry(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	var failedJob *Job
	var failedReason string
	q.OnJobFailed = func(job *Job, reason string) {
		failedJob = job
		failedReason = reason
	}

	var mu sync.Mutex
	attempts := 0

	consumer := NewConsumer(q, func(job *Job) error {
		mu.Lock()
		attempts++
		mu.Unlock()
		return apperror.ErrNotFound // target deleted mid-flight
	})

	job, err := q.Enqueue(testTarget, lookups.TKclaim, 1, testAuthor)
	require.NoError(t, err)

	consumer.Start()
	defer consumer.Stop()

	require.Eventually(t, func() bool {
		state, err := q.GetJob(job.ID)
		return err == nil && state.Status == lookups.JSfailed
	}, 10*time.Second, 10*time.Millisecond)

	state, err := q.GetJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, "failed (see reason)", state.StatusText)
	assert.Equal(t, apperror.ErrNotFound.Error(), state.Reason)

	// failure signal fired
	require.NotNil(t, failedJob)
	assert.Equal(t, job.ID, failedJob.ID)
	assert.Equal(t, apperror.ErrNotFound.Error(), failedReason)

	// the job is acknowledged despite the failure - no automatic retry
	active, err := q.Redis.LLen(ctx, activeKey).Result()
	require.NoError(t, err)
	assert.Zero(t, active)

	waiting, err := q.Redis.LLen(ctx, waitingKey).Result()
	require.NoError(t, err)
	assert.Zero(t, waiting)

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, 1, attempts)
	mu.Unlock()
}

func TestRecover(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	// simulate a consumer that crashed with two jobs in flight
	require.NoError(t, q.Redis.LPush(ctx, activeKey, "job-a", "job-b").Err())

	moved, err := q.Recover()
	require.NoError(t, err)
	assert.Equal(t, 2, moved)

	active, err := q.Redis.LLen(ctx, activeKey).Result()
	require.NoError(t, err)
	assert.Zero(t, active)

	waiting, err := q.Redis.LLen(ctx, waitingKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), waiting)
}
