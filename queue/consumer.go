package queue

import (
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// Handler processes one dequeued vote job
type Handler func(job *Job) error

// blocking pop timeout; also the latency for noticing a Stop call
const popTimeout = 5 * time.Second

// Consumer is the single logical worker draining the vote queue.
// Exactly one consumer may run against a queue - the counter mutations
// of the vote processor rely on never having two jobs in flight.
type Consumer struct {
	queue   *VoteQueue
	handler Handler
	stop    chan struct{}
	done    chan struct{}
}

// NewConsumer binds a handler to the queue
func NewConsumer(q *VoteQueue, handler Handler) *Consumer {
	return &Consumer{
		queue:   q,
		handler: handler,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the consumer loop in its own goroutine
func (c *Consumer) Start() {
	go c.loop()
}

// Stop signals the loop and waits for the in-flight job to finish.
// A dequeued job always runs to completion or failure; there is no
// cancellation of a running job.
func (c *Consumer) Stop() {
	close(c.stop)
	<-c.done
}

func (c *Consumer) loop() {
	defer close(c.done)

	ctx := context.Background()

	for {
		select {
		case <-c.stop:
			return
		default:
		}

		// move the oldest job to the active list; it stays there until
		// acknowledged, so a crash between pop and ack cannot lose it
		jobID, err := c.queue.Redis.BRPopLPush(ctx, waitingKey, activeKey, popTimeout).Result()
		if err == redis.Nil {
			continue // queue empty, check for stop again
		}
		if err != nil {
			log.Println("vote consumer: pop failed:", err)
			time.Sleep(time.Second)
			continue
		}

		c.processOne(ctx, jobID)
	}
}

func (c *Consumer) processOne(ctx context.Context, jobID string) {

	job, err := c.queue.loadJob(ctx, jobID)
	if err != nil {
		// hash expired or was never written; drop the dangling list entry
		log.Println("vote consumer: job data missing:", jobID)
		c.queue.Redis.LRem(ctx, activeKey, 1, jobID)
		return
	}

	if err := c.queue.markActive(ctx, jobID); err != nil {
		log.Println("vote consumer: mark active failed:", err)
	}

	if err := c.handler(job); err != nil {
		// fire-and-forget contract: the submitter got a 202 at enqueue
		// time and is not informed; the failure is signalled and logged
		log.Printf("vote consumer: job %s failed: %v", jobID, err)
		if err := c.queue.markFailed(ctx, job, err.Error()); err != nil {
			log.Println("vote consumer: mark failed failed:", err)
		}
		return
	}

	if err := c.queue.markCompleted(ctx, job); err != nil {
		log.Println("vote consumer: ack failed:", err)
	}
}
