package models

import (
	"context"
	"errors"
	"math"
	"time"

	"crowdcheck/apperror"
	"crowdcheck/helpers"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// reputation-earning actions
const (
	ActionRegister        = "REGISTER"
	ActionDailyLogin      = "DAILY_LOGIN"
	ActionCreateArticle   = "CREATE_ARTICLE"
	ActionCreateClaim     = "CREATE_CLAIM"
	ActionCreateReview    = "CREATE_REVIEW"
	ActionAppearTop       = "APPEAR_TOP"
	ActionInvite          = "INVITE"
	ActionShare           = "SHARE"
	ActionVote            = "VOTE"
	ActionCreateCommunity = "CREATE_COMMUNITY"
	ActionJoinCommunity   = "JOIN_COMMUNITY"
)

var ErrUnknownAction = errors.New("unknown reputation action")

// ReputationConfig holds the point table and the leveling constant.
// It is injected rather than declared as package constants so the
// model can be tested with alternate tables.
type ReputationConfig struct {
	Points        map[string]int32
	LevelConstant float64
}

// DefaultReputationConfig returns the production point table
func DefaultReputationConfig() *ReputationConfig {
	return &ReputationConfig{
		Points: map[string]int32{
			ActionRegister:        0,
			ActionDailyLogin:      0,
			ActionCreateArticle:   8,
			ActionCreateClaim:     20,
			ActionCreateReview:    30,
			ActionAppearTop:       10,
			ActionInvite:          30,
			ActionShare:           15,
			ActionVote:            3,
			ActionCreateCommunity: 100,
			ActionJoinCommunity:   10,
		},
		LevelConstant: 0.25,
	}
}

// ReputationEvent is one entry of the append-only reputation log
type ReputationEvent struct {
	ID           primitive.ObjectID  `json:"id" bson:"_id"`
	UserID       primitive.ObjectID  `json:"userID" bson:"userID"`
	Action       string              `json:"action" bson:"action"`
	Points       int32               `json:"points" bson:"points"`
	ReferencedID *primitive.ObjectID `json:"referencedID,omitempty" bson:"referencedID,omitempty"`
	CreatedTS    time.Time           `json:"createdTS" bson:"createdTS"`
}

// ReputationState is returned to display a user's progress
type ReputationState struct {
	Reputation   int32   `json:"reputation"`
	Level        int32   `json:"level"`
	NextLevelExp float64 `json:"nextLevelExp"`
}

// ReputationModel appends reputation events and maintains the user's
// cumulative score and derived level.
// The user collection functions are injected by the environment.
type ReputationModel struct {
	Collection              *mongo.Collection
	Config                  *ReputationConfig
	IncrementUserReputation func(ID primitive.ObjectID, points int32) (int32, error)
	SetUserLevel            func(ID primitive.ObjectID, level int32) error
}

// AddReputation appends an event for the given action, adds its points to the
// user's cumulative score and recomputes the level.
//
// There is no concurrency hazard here: $inc on a scalar is commutative, so
// this does not need the serialization the vote worker requires.
func (m ReputationModel) AddReputation(userID primitive.ObjectID, action string, referencedID *primitive.ObjectID) error {

	points, ok := m.Config.Points[action]
	if !ok {
		return ErrUnknownAction
	}

	event := ReputationEvent{
		ID:           primitive.NewObjectID(),
		UserID:       userID,
		Action:       action,
		Points:       points,
		ReferencedID: referencedID,
		CreatedTS:    time.Now(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := m.Collection.InsertOne(ctx, event)
	if err != nil {
		return helpers.WrapError(err, helpers.FuncName())
	}

	reputation, err := m.IncrementUserReputation(userID, points)
	if err != nil {
		return err
	}

	// the level is a pure function of the score and recomputed on every write,
	// never maintained independently
	return m.SetUserLevel(userID, m.Level(reputation))
}

// Level derives the user level from the cumulative reputation
func (m ReputationModel) Level(reputation int32) int32 {
	if reputation <= 0 {
		return 0
	}
	return int32(math.Floor(m.Config.LevelConstant * math.Sqrt(float64(reputation))))
}

// NextLevelExp returns the experience required to reach the next level.
// Used for progress display only, never for mutation.
func (m ReputationModel) NextLevelExp(level int32) float64 {
	return math.Pow(float64(level+1)/m.Config.LevelConstant, 2)
}

// ListEvents returns the most recent reputation events of a user
func (m ReputationModel) ListEvents(userID string) ([]ReputationEvent, error) {

	userOID := helpers.ObjectID(userID)

	filter := bson.D{{Key: "userID", Value: userOID}}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdTS", Value: -1}}).
		SetLimit(20)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := m.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, helpers.WrapError(err, helpers.FuncName())
	}

	var events []ReputationEvent

	err = cursor.All(ctx, &events)
	if err != nil {
		return nil, helpers.WrapError(err, helpers.FuncName())
	}

	if events == nil {
		return nil, apperror.ErrNoData
	}

	return events, nil
}
