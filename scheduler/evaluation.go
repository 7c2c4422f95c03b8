// Package scheduler runs the unattended claim evaluation batch.
//
// Once per day at midnight the run scores every pending review of each stale
// claim and either resolves the claim with the best-scoring review or, when
// the claim has no reviews at all, shortens its next waiting period.
//
// A single active instance is assumed; deployments with more than one
// instance need external leader election, which is not provided here.
package scheduler

import (
	"log"
	"sync/atomic"
	"time"

	"crowdcheck/models"

	"github.com/robfig/cron/v3"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// claims untouched for this long are picked up by the run
	staleAfter = 14 * 24 * time.Hour
	// a reviewless claim is made eligible again after this period
	// instead of a fresh full window
	retryDelay = 7 * 24 * time.Hour

	// review score weights
	positivityWeight = 0.6
	negativePenalty  = 0.4
	neutralPenalty   = 0.1
)

// Evaluator owns the lifecycle of the daily claim evaluation.
// The store operations are injected by the environment (like the
// cross-model functions of the models).
type Evaluator struct {
	FindUnrated func(olderThan time.Time) ([]models.Claim, error)
	ListByClaim func(claimID primitive.ObjectID) ([]models.Review, error)
	Postpone    func(ID primitive.ObjectID, updatedTS time.Time) error
	Resolve     func(ID primitive.ObjectID, rating float64) error
	MarkWinner  func(ID primitive.ObjectID) error

	cron    *cron.Cron
	running int32 // run-in-progress guard
}

// Start schedules the daily run at 00:00
func (e *Evaluator) Start() error {
	e.cron = cron.New()

	_, err := e.cron.AddFunc("0 0 * * *", func() {
		e.Run(time.Now())
	})
	if err != nil {
		return err
	}

	e.cron.Start()
	return nil
}

// Stop halts the trigger; a run already started finishes on its own
func (e *Evaluator) Stop() {
	if e.cron != nil {
		e.cron.Stop()
	}
}

// Run executes one evaluation pass over all stale claims.
//
// Overlapping runs are not expected (daily cadence, single instance), but a
// guard skips the trigger anyway should a run ever take longer than a day.
// An error on one claim must not abort the batch: each claim is evaluated
// independently and failures are only logged.
func (e *Evaluator) Run(now time.Time) {

	if !atomic.CompareAndSwapInt32(&e.running, 0, 1) {
		log.Println("claim evaluation: previous run still in progress, skipping")
		return
	}
	defer atomic.StoreInt32(&e.running, 0)

	claims, err := e.FindUnrated(now.Add(-staleAfter))
	if err != nil {
		log.Println("claim evaluation: selection failed:", err)
		return
	}

	if len(claims) == 0 {
		return
	}

	log.Printf("claim evaluation: %d stale claim(s)", len(claims))

	for i := range claims {
		if err := e.evaluateClaim(&claims[i], now); err != nil {
			log.Printf("claim evaluation: claim %s: %v", claims[i].ID.Hex(), err)
		}
	}
}

func (e *Evaluator) evaluateClaim(claim *models.Claim, now time.Time) error {

	// reviews are read once and sequentially within a claim; a partial
	// update must never operate on re-read, stale review data
	reviews, err := e.ListByClaim(claim.ID)
	if err != nil {
		return err
	}

	// no reviews at all: do not resolve, shorten the next waiting period
	if len(reviews) == 0 {
		return e.Postpone(claim.ID, now.Add(-retryDelay))
	}

	winner := pickWinner(reviews)
	if winner == nil {
		// reviews exist but none has votes yet; leave the claim pending
		// and let the next run look at it again
		return nil
	}

	rating := winnerRating(winner)

	if err := e.Resolve(claim.ID, rating); err != nil {
		return err
	}

	return e.MarkWinner(winner.ID)
}

// reviewScore rates one candidate review.
// The second return value is false when the review has no votes at all -
// the positivity ratio is undefined then and the review is no candidate.
func reviewScore(r *models.Review) (float64, bool) {

	nVotes := r.NVotes()
	if nVotes == 0 {
		return 0, false
	}

	positivityRatio := float64(r.NPosVotes) / float64(nVotes)

	score := positivityRatio*positivityWeight -
		negativePenalty*float64(r.NNegVotes) -
		neutralPenalty*float64(r.NNeutralVotes)

	return score, true
}

// pickWinner selects the review with the maximum score.
// The input is ordered oldest first and the comparison is strict, so with
// equal scores the earliest review wins (deterministic tie-break).
func pickWinner(reviews []models.Review) *models.Review {

	var winner *models.Review
	var best float64

	for i := range reviews {
		score, ok := reviewScore(&reviews[i])
		if !ok {
			continue
		}
		if winner == nil || score > best {
			winner = &reviews[i]
			best = score
		}
	}

	return winner
}

// winnerRating converts the winning review's approval into the claim rating
func winnerRating(winner *models.Review) float64 {
	return float64(winner.NPosVotes) / float64(winner.NVotes()) * 100
}
