package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultReputationConfig(t *testing.T) {
	cfg := DefaultReputationConfig()

	require.NotNil(t, cfg)
	assert.Equal(t, 0.25, cfg.LevelConstant)

	// the fixed point table
	assert.Equal(t, int32(0), cfg.Points[ActionRegister])
	assert.Equal(t, int32(0), cfg.Points[ActionDailyLogin])
	assert.Equal(t, int32(8), cfg.Points[ActionCreateArticle])
	assert.Equal(t, int32(20), cfg.Points[ActionCreateClaim])
	assert.Equal(t, int32(30), cfg.Points[ActionCreateReview])
	assert.Equal(t, int32(10), cfg.Points[ActionAppearTop])
	assert.Equal(t, int32(30), cfg.Points[ActionInvite])
	assert.Equal(t, int32(15), cfg.Points[ActionShare])
	assert.Equal(t, int32(3), cfg.Points[ActionVote])
	assert.Equal(t, int32(100), cfg.Points[ActionCreateCommunity])
	assert.Equal(t, int32(10), cfg.Points[ActionJoinCommunity])
}

func TestLevel(t *testing.T) {
	m := ReputationModel{Config: DefaultReputationConfig()}

	tests := []struct {
		name       string
		reputation int32
		level      int32
	}{
		{"fresh user", 0, 0},
		{"negative stays zero", -10, 0},
		{"just below level 1", 15, 0},
		{"level 1", 16, 1},
		{"level 2 at 100 points", 100, 2}, // floor(0.25 * sqrt(100)) = floor(2.5)
		{"level 10", 1600, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.level, m.Level(tt.reputation))
		})
	}
}

func TestNextLevelExp(t *testing.T) {
	m := ReputationModel{Config: DefaultReputationConfig()}

	// ((level+1) / 0.25)^2
	assert.Equal(t, 16.0, m.NextLevelExp(0))
	assert.Equal(t, 64.0, m.NextLevelExp(1))
	assert.Equal(t, 144.0, m.NextLevelExp(2))
}

func TestLevelWithAlternateConstant(t *testing.T) {
	m := ReputationModel{Config: &ReputationConfig{LevelConstant: 1.0}}

	assert.Equal(t, int32(10), m.Level(100))
	assert.Equal(t, 4.0, m.NextLevelExp(1))
}
