package models

import (
	"context"
	"time"

	"crowdcheck/helpers"
	"crowdcheck/lookups"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// every votable document carries the three net counters.
// they are mutated through $inc only - any read-then-write path
// would race with the vote worker.

// ValidKind reports whether a kind string is one of the known enumerants
func ValidKind(kind string) bool {
	switch kind {
	case lookups.TKarticle, lookups.TKclaim, lookups.TKreview, lookups.TKuser:
		return true
	}
	return false
}

// CounterDelta describes one mutation of the three vote counters of a target
type CounterDelta struct {
	Positive int32
	Negative int32
	Neutral  int32
}

// RatingDelta maps a rating sign to the counter it contributes to.
// step is +1 to apply a vote and -1 to retract it.
func RatingDelta(rating int32, step int32) CounterDelta {
	switch {
	case rating > 0:
		return CounterDelta{Positive: step}
	case rating < 0:
		return CounterDelta{Negative: step}
	default:
		return CounterDelta{Neutral: step}
	}
}

// Target is the capability every votable model provides to the vote worker.
// one implementation exists per kind; dispatch happens in the environment
// registry, not via a lookup table.
type Target interface {
	Kind() string
	Exists(ID primitive.ObjectID) (bool, error)
	IncrementCounters(ID primitive.ObjectID, delta CounterDelta) error
}

// internal implementations shared by all target models

func documentExists(collection *mongo.Collection, ID primitive.ObjectID) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// there seems to be no function like "exists" so a projection on just the ID is used
	fields := bson.D{
		{Key: "_id", Value: 1}}

	data := struct {
		ID primitive.ObjectID `bson:"_id"`
	}{}

	err := collection.FindOne(ctx, bson.M{"_id": ID}, options.FindOne().SetProjection(fields)).Decode(&data)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return false, nil
		}
		// treat errors as a "yes" - caller should not evaluate the result in case of an error
		return true, helpers.WrapError(err, helpers.FuncName())
	}
	// no error means a document was found, hence the target does exist
	return true, nil
}

func incrementCounters(collection *mongo.Collection, ID primitive.ObjectID, delta CounterDelta) error {

	filter := bson.D{{Key: "_id", Value: ID}}
	update := bson.D{
		{Key: "$inc", Value: bson.D{
			{Key: "nPosVotes", Value: delta.Positive},
			{Key: "nNegVotes", Value: delta.Negative},
			{Key: "nNeutralVotes", Value: delta.Neutral},
		}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return helpers.WrapError(err, helpers.FuncName())
	}

	// the target may have been deleted between enqueue and processing
	if result.MatchedCount == 0 {
		return ErrTargetGone
	}

	return nil
}
