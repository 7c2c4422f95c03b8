package models

import (
	"context"
	"errors"
	"time"

	"crowdcheck/apperror"
	"crowdcheck/helpers"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// vote (action) type
const (
	VoteUp      int32 = 1
	VoteDown    int32 = -1
	VoteNeutral int32 = 0
)

// custom error types of the voting system
var (
	ErrTargetGone  = errors.New("target deleted while the vote was in flight")
	ErrInvalidUser = errors.New("invalid user")
)

// Vote represents a single vote record - the source of truth for "who voted what".
// At most one record exists per (targetID, kind, authorID); the vote worker
// replaces a previous record rather than adding a second one.
type Vote struct {
	// ID ommitted, yet created in document
	TargetID primitive.ObjectID `json:"targetID" bson:"targetID" binding:"required"`
	// the target kind is stored to speed up querying of user actions in lists
	Kind       string             `json:"kind" bson:"kind" binding:"required"`
	AuthorID   primitive.ObjectID `json:"authorID" bson:"authorID"` // set by the API layer
	AuthorName string             `json:"authorName" bson:"authorName"`
	Rating     int32              `json:"rating" bson:"rating"`
	VotedTS    time.Time          `json:"votedTS" bson:"votedTS"` // stored separately because users can change their vote
}

// TargetVotes represents the current counter state of a target
// as derived from the vote records (not the target document)
type TargetVotes struct {
	UpVotes      int32 `json:"upVotes"`
	DownVotes    int32 `json:"downVotes"`
	NeutralVotes int32 `json:"neutralVotes"`
	UserVote     int32 `json:"userVote"` // vote action of the requesting user
}

// UserVote represents a user's vote action to a target
// usually used as a slice type for lists
type UserVote struct {
	TargetID primitive.ObjectID `json:"targetId" bson:"targetID"`
	UserVote int32              `json:"userVote" bson:"rating"` // primitive values need bson tag
}

// VoteModel provides the logics to the data type.
// Some information comes from the user and reputation models;
// those functions are injected here so the worker does not need the controllers.
type VoteModel struct {
	Collection     *mongo.Collection
	GetUserNameOID func(ID primitive.ObjectID) (string, error)
	AddReputation  func(userID primitive.ObjectID, action string, referencedID *primitive.ObjectID) error
}

// ProcessVote applies one dequeued vote job to the ledger and the target's counters.
//
// It MUST only ever be called by the single queue consumer: the retract and
// apply steps are two separate mutations on the same document and stay
// consistent only because no second job is in flight at the same time. This
// discipline replaces optimistic locking and transactions.
//
// After the call the target reflects exactly the author's most recent rating
// (last vote wins, not every vote counted).
func (v VoteModel) ProcessVote(targetOID primitive.ObjectID, kind string, rating int32, authorOID primitive.ObjectID, target Target) error {

	filter := bson.D{
		{Key: "targetID", Value: targetOID},
		{Key: "kind", Value: kind},
		{Key: "authorID", Value: authorOID},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 1. look for the author's previous vote on this target
	var previous Vote
	err := v.Collection.FindOne(ctx, filter).Decode(&previous)
	if err != nil && err != mongo.ErrNoDocuments {
		return helpers.WrapError(err, helpers.FuncName())
	}
	firstVote := err == mongo.ErrNoDocuments

	if !firstVote {
		// 2. retract: undo the previous contribution and drop the record
		err = target.IncrementCounters(targetOID, RatingDelta(previous.Rating, -1))
		if err != nil {
			return err
		}

		_, err = v.Collection.DeleteOne(ctx, filter)
		if err != nil {
			return helpers.WrapError(err, helpers.FuncName())
		}
	} else {
		// the VOTE reward is granted on the author's first vote only;
		// replacing a vote never earns points again
		err = v.AddReputation(authorOID, ActionVote, &targetOID)
		if err != nil {
			return err
		}
	}

	// 3. apply: insert the new record and count it on the target
	usr, err := v.GetUserNameOID(authorOID)
	if err != nil {
		return ErrInvalidUser
	}

	vote := Vote{
		TargetID:   targetOID,
		Kind:       kind,
		AuthorID:   authorOID,
		AuthorName: usr,
		Rating:     rating,
		VotedTS:    time.Now(),
	}

	_, err = v.Collection.InsertOne(ctx, vote)
	if err != nil {
		return helpers.WrapError(err, helpers.FuncName())
	}

	return target.IncrementCounters(targetOID, RatingDelta(rating, 1))
}

// GetUserVote returns the vote action of a user to a single target
func (v VoteModel) GetUserVote(targetID string, userID string) (int32, error) {

	targetOID := helpers.ObjectID(targetID)
	userOID := helpers.ObjectID(userID)

	filter := bson.D{
		{Key: "targetID", Value: targetOID},
		{Key: "authorID", Value: userOID},
	}

	fields := bson.D{
		{Key: "_id", Value: 0},
		{Key: "rating", Value: 1},
	}

	opts := options.FindOne().SetProjection(fields)

	data := struct {
		Rating int32 `bson:"rating"`
	}{VoteNeutral}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := v.Collection.FindOne(ctx, filter, opts).Decode(&data)
	if err != nil {
		// it's NOT an error if the user didn't vote
		if err != mongo.ErrNoDocuments {
			return VoteNeutral, helpers.WrapError(err, helpers.FuncName())
		}
	}
	return data.Rating, nil
}

// GetUserVotes returns the vote actions of a user to targets of a specific kind
// usually used for items displayed in lists
func (v VoteModel) GetUserVotes(kind string, userID string) ([]UserVote, error) {

	userOID := helpers.ObjectID(userID)

	fields := bson.D{
		{Key: "_id", Value: 0},
		{Key: "targetID", Value: 1},
		{Key: "rating", Value: 1},
	}

	filter := bson.D{
		{Key: "authorID", Value: userOID},
		{Key: "kind", Value: kind},
	}

	opts := options.Find().SetProjection(fields).SetLimit(20)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := v.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, helpers.WrapError(err, helpers.FuncName())
	}

	var votes []UserVote

	err = cursor.All(ctx, &votes)
	if err != nil {
		return nil, helpers.WrapError(err, helpers.FuncName())
	}

	// check for empty result set (no error raised by find)
	if votes == nil {
		return nil, apperror.ErrNoData
	}

	return votes, nil
}

// CountVotes derives the counter state of a target from the vote records.
// The result must always match the counters stored on the target document
// once the queue has drained; the monitor endpoint uses this to detect drift.
func (v VoteModel) CountVotes(targetOID primitive.ObjectID) (up int32, down int32, neutral int32, err error) {

	matchStage := bson.D{
		{Key: "$match", Value: bson.D{
			{Key: "targetID", Value: targetOID},
		}},
	}

	groupStage := bson.D{
		{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$rating"},
			{Key: "count", Value: bson.D{
				{Key: "$sum", Value: 1},
			},
			}},
		}}

	opts := options.Aggregate().SetMaxTime(5 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := v.Collection.Aggregate(ctx, mongo.Pipeline{
		matchStage,
		groupStage}, opts)
	if err != nil {
		return 0, 0, 0, helpers.WrapError(err, helpers.FuncName())
	}

	var votes []bson.M
	err = cursor.All(ctx, &votes)
	if err != nil {
		// it's NOT an error if there are no votes at all
		if err != mongo.ErrNoDocuments {
			return 0, 0, 0, helpers.WrapError(err, helpers.FuncName())
		}
	}

	// slice contains a map with values of "_id" (the rating) and the field "count"
	for _, m := range votes {
		switch m["_id"].(int32) {
		case VoteUp:
			up = m["count"].(int32)
		case VoteDown:
			down = m["count"].(int32)
		case VoteNeutral:
			neutral = m["count"].(int32)
		}
	}

	return up, down, neutral, nil
}
