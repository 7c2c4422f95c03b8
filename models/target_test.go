package models

import (
	"testing"

	"crowdcheck/lookups"

	"github.com/stretchr/testify/assert"
)

func TestValidKind(t *testing.T) {
	assert.True(t, ValidKind(lookups.TKarticle))
	assert.True(t, ValidKind(lookups.TKclaim))
	assert.True(t, ValidKind(lookups.TKreview))
	assert.True(t, ValidKind(lookups.TKuser))

	assert.False(t, ValidKind(""))
	assert.False(t, ValidKind("claim")) // enumerants are upper-case
	assert.False(t, ValidKind("COMMENT"))
}

func TestRatingDelta(t *testing.T) {
	tests := []struct {
		name   string
		rating int32
		step   int32
		want   CounterDelta
	}{
		{"apply up-vote", VoteUp, 1, CounterDelta{Positive: 1}},
		{"apply down-vote", VoteDown, 1, CounterDelta{Negative: 1}},
		{"apply neutral vote", VoteNeutral, 1, CounterDelta{Neutral: 1}},
		{"retract up-vote", VoteUp, -1, CounterDelta{Positive: -1}},
		{"retract down-vote", VoteDown, -1, CounterDelta{Negative: -1}},
		{"retract neutral vote", VoteNeutral, -1, CounterDelta{Neutral: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RatingDelta(tt.rating, tt.step))
		})
	}
}

// changing a vote retracts the old contribution before counting the new one:
// an up-vote followed by a down-vote must yield 0/1, never 1/1
func TestRatingDeltaReplaceSemantics(t *testing.T) {

	counters := CounterDelta{Positive: 1} // state after the first up-vote

	retract := RatingDelta(VoteUp, -1)
	apply := RatingDelta(VoteDown, 1)

	counters.Positive += retract.Positive + apply.Positive
	counters.Negative += retract.Negative + apply.Negative
	counters.Neutral += retract.Neutral + apply.Neutral

	assert.Equal(t, CounterDelta{Positive: 0, Negative: 1, Neutral: 0}, counters)
}
