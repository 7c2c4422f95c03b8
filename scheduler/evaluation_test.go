package scheduler

import (
	"errors"
	"testing"
	"time"

	"crowdcheck/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func review(pos, neg, neutral int32) models.Review {
	return models.Review{
		ID:            primitive.NewObjectID(),
		NPosVotes:     pos,
		NNegVotes:     neg,
		NNeutralVotes: neutral,
	}
}

func TestReviewScore(t *testing.T) {
	tests := []struct {
		name      string
		review    models.Review
		score     float64
		candidate bool
	}{
		// positivityRatio 0.5 * 0.6 - 0.4*0 - 0.1*2
		{"half positive with neutrals", review(2, 0, 2), 0.1, true},
		{"all positive", review(3, 0, 0), 0.6, true},
		{"negatives weigh heavy", review(3, 1, 0), 0.05, true},
		{"no votes is no candidate", review(0, 0, 0), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, ok := reviewScore(&tt.review)
			assert.Equal(t, tt.candidate, ok)
			if tt.candidate {
				assert.InDelta(t, tt.score, score, 1e-9)
			}
		})
	}
}

func TestPickWinner(t *testing.T) {

	t.Run("no reviews", func(t *testing.T) {
		assert.Nil(t, pickWinner(nil))
	})

	t.Run("only unvoted reviews", func(t *testing.T) {
		reviews := []models.Review{review(0, 0, 0), review(0, 0, 0)}
		assert.Nil(t, pickWinner(reviews))
	})

	t.Run("maximum score wins", func(t *testing.T) {
		reviews := []models.Review{
			review(2, 0, 2), // 0.1
			review(3, 0, 0), // 0.6
			review(3, 1, 0), // 0.05
		}

		winner := pickWinner(reviews)
		require.NotNil(t, winner)
		assert.Equal(t, reviews[1].ID, winner.ID)
	})

	t.Run("earliest review wins a tie", func(t *testing.T) {
		// identical counters, identical score; the slice is ordered
		// oldest first, so the first one must be kept
		reviews := []models.Review{
			review(1, 0, 0),
			review(1, 0, 0),
		}

		winner := pickWinner(reviews)
		require.NotNil(t, winner)
		assert.Equal(t, reviews[0].ID, winner.ID)
	})

	t.Run("unvoted reviews are skipped", func(t *testing.T) {
		reviews := []models.Review{
			review(0, 0, 0),
			review(0, 5, 0), // negative score, but a candidate
		}

		winner := pickWinner(reviews)
		require.NotNil(t, winner)
		assert.Equal(t, reviews[1].ID, winner.ID)
	})
}

// runRecorder collects the store operations a run performs
type runRecorder struct {
	postponedID primitive.ObjectID
	postponedTS time.Time
	postponed   int
	resolvedID  primitive.ObjectID
	rating      float64
	resolved    int
	winnerID    primitive.ObjectID
	winners     int
}

// newRunEvaluator builds an evaluator over in-memory claims and reviews
func newRunEvaluator(claims []models.Claim, reviews map[primitive.ObjectID][]models.Review, rec *runRecorder) *Evaluator {
	return &Evaluator{
		FindUnrated: func(olderThan time.Time) ([]models.Claim, error) {
			return claims, nil
		},
		ListByClaim: func(claimID primitive.ObjectID) ([]models.Review, error) {
			return reviews[claimID], nil
		},
		Postpone: func(ID primitive.ObjectID, updatedTS time.Time) error {
			rec.postponedID = ID
			rec.postponedTS = updatedTS
			rec.postponed++
			return nil
		},
		Resolve: func(ID primitive.ObjectID, rating float64) error {
			rec.resolvedID = ID
			rec.rating = rating
			rec.resolved++
			return nil
		},
		MarkWinner: func(ID primitive.ObjectID) error {
			rec.winnerID = ID
			rec.winners++
			return nil
		},
	}
}

func TestRunSelectsStaleClaims(t *testing.T) {
	now := time.Now()

	var selected time.Time
	e := &Evaluator{
		FindUnrated: func(olderThan time.Time) ([]models.Claim, error) {
			selected = olderThan
			return nil, nil
		},
	}

	e.Run(now)

	// only claims untouched for 14 days are picked up
	assert.Equal(t, now.Add(-14*24*time.Hour), selected)
}

// a claim nobody reviewed is not resolved; it becomes eligible again
// after 7 days instead of a fresh full window
func TestRunPostponesReviewlessClaim(t *testing.T) {
	now := time.Now()
	claim := models.Claim{ID: primitive.NewObjectID()}

	var rec runRecorder
	e := newRunEvaluator([]models.Claim{claim}, nil, &rec)

	e.Run(now)

	require.Equal(t, 1, rec.postponed)
	assert.Equal(t, claim.ID, rec.postponedID)
	assert.Equal(t, now.Add(-7*24*time.Hour), rec.postponedTS)

	assert.Zero(t, rec.resolved)
	assert.Zero(t, rec.winners)
}

// reviews without any votes are no candidates; the claim stays pending
// untouched and the next run looks at it again
func TestRunLeavesUnvotedReviewsPending(t *testing.T) {
	now := time.Now()
	claim := models.Claim{ID: primitive.NewObjectID()}
	reviews := map[primitive.ObjectID][]models.Review{
		claim.ID: {review(0, 0, 0), review(0, 0, 0)},
	}

	var rec runRecorder
	e := newRunEvaluator([]models.Claim{claim}, reviews, &rec)

	e.Run(now)

	assert.Zero(t, rec.postponed)
	assert.Zero(t, rec.resolved)
	assert.Zero(t, rec.winners)
}

func TestRunResolvesWithWinner(t *testing.T) {
	now := time.Now()
	claim := models.Claim{ID: primitive.NewObjectID()}
	reviews := map[primitive.ObjectID][]models.Review{
		claim.ID: {
			review(2, 0, 2), // 0.1
			review(3, 0, 0), // 0.6, all positive
		},
	}

	var rec runRecorder
	e := newRunEvaluator([]models.Claim{claim}, reviews, &rec)

	e.Run(now)

	require.Equal(t, 1, rec.resolved)
	assert.Equal(t, claim.ID, rec.resolvedID)
	assert.Equal(t, 100.0, rec.rating)

	require.Equal(t, 1, rec.winners)
	assert.Equal(t, reviews[claim.ID][1].ID, rec.winnerID)

	assert.Zero(t, rec.postponed)
}

// a failing claim must not abort the batch
func TestRunIsolatesClaimErrors(t *testing.T) {
	now := time.Now()
	broken := models.Claim{ID: primitive.NewObjectID()}
	claim := models.Claim{ID: primitive.NewObjectID()}
	reviews := map[primitive.ObjectID][]models.Review{
		claim.ID: {review(1, 0, 0)},
	}

	var rec runRecorder
	e := newRunEvaluator([]models.Claim{broken, claim}, reviews, &rec)
	inner := e.ListByClaim
	e.ListByClaim = func(claimID primitive.ObjectID) ([]models.Review, error) {
		if claimID == broken.ID {
			return nil, errors.New("read failed")
		}
		return inner(claimID)
	}

	e.Run(now)

	require.Equal(t, 1, rec.resolved)
	assert.Equal(t, claim.ID, rec.resolvedID)
}

func TestRunSkipsWhileInProgress(t *testing.T) {
	called := false
	e := &Evaluator{
		FindUnrated: func(olderThan time.Time) ([]models.Claim, error) {
			called = true
			return nil, nil
		},
	}
	e.running = 1

	e.Run(time.Now())

	assert.False(t, called)
}

func TestWinnerRating(t *testing.T) {
	r := review(2, 0, 2)
	assert.Equal(t, 50.0, winnerRating(&r))

	r = review(3, 0, 0)
	assert.Equal(t, 100.0, winnerRating(&r))

	r = review(1, 3, 0)
	assert.Equal(t, 25.0, winnerRating(&r))
}
