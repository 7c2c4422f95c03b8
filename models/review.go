package models

import (
	"context"
	"errors"
	"time"

	"crowdcheck/helpers"
	"crowdcheck/lookups"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrReviewTextMissing = errors.New("review text is required")

// Review is the "interface" used for client communication.
// isWinner flips to true at most once, when the referenced claim is
// resolved in this review's favor.
type Review struct {
	ID            primitive.ObjectID `json:"id" bson:"_id"`
	CreatedTS     time.Time          `json:"createdTS" bson:"-"` // read from Mongo's ObjectID
	CreatedID     primitive.ObjectID `json:"createdID" bson:"createdID"`
	CreatedName   string             `json:"createdName" bson:"createdName"`
	ClaimID       primitive.ObjectID `json:"claimID" bson:"claimID"`
	Text          string             `json:"text" bson:"text"`
	NPosVotes     int32              `json:"nPosVotes" bson:"nPosVotes"`
	NNegVotes     int32              `json:"nNegVotes" bson:"nNegVotes"`
	NNeutralVotes int32              `json:"nNeutralVotes" bson:"nNeutralVotes"`
	IsWinner      bool               `json:"isWinner" bson:"isWinner"`
	UserVote      int32              `json:"userVote" bson:"-"` // returned dynamically by API
}

// NVotes returns the total number of counted votes
func (r *Review) NVotes() int32 {
	return r.NPosVotes + r.NNegVotes + r.NNeutralVotes
}

// ReviewModel provides the logic to the interface and access to the database
type ReviewModel struct {
	Client         *mongo.Client
	Collection     *mongo.Collection
	GetUserNameOID func(ID primitive.ObjectID) (string, error)
	AddReputation  func(userID primitive.ObjectID, action string, referencedID *primitive.ObjectID) error
	ClaimExists    func(ID primitive.ObjectID) (bool, error)
}

// Kind marks reviews as votable targets
func (m ReviewModel) Kind() string {
	return lookups.TKreview
}

// Exists checks if a review document is present
func (m ReviewModel) Exists(ID primitive.ObjectID) (bool, error) {
	return documentExists(m.Collection, ID)
}

// IncrementCounters mutates the vote counters (called by the vote worker only)
func (m ReviewModel) IncrementCounters(ID primitive.ObjectID, delta CounterDelta) error {
	return incrementCounters(m.Collection, ID, delta)
}

// CreateReview adds a new review to a claim and awards the author's reputation
func (m ReviewModel) CreateReview(review *Review) (string, error) {

	if review.Text == "" {
		return "", ErrReviewTextMissing
	}

	b, err := m.ClaimExists(review.ClaimID)
	if err != nil {
		return "", err
	}
	if !b {
		return "", ErrTargetGone
	}

	usr, err := m.GetUserNameOID(review.CreatedID)
	if err != nil {
		return "", ErrInvalidUser
	}

	review.ID = primitive.NewObjectID()
	review.CreatedName = usr
	review.IsWinner = false

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := m.Collection.InsertOne(ctx, review)
	if err != nil {
		return "", helpers.WrapError(err, helpers.FuncName())
	}

	oid := res.InsertedID.(primitive.ObjectID)

	err = m.AddReputation(review.CreatedID, ActionCreateReview, &oid)
	if err != nil {
		return "", err
	}

	return oid.Hex(), nil
}

// ListByClaim returns all reviews of a claim, oldest first.
// The evaluation run relies on this order for its tie-break: with equal
// scores the earliest review wins.
func (m ReviewModel) ListByClaim(claimID primitive.ObjectID) ([]Review, error) {

	filter := bson.D{{Key: "claimID", Value: claimID}}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := m.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, helpers.WrapError(err, helpers.FuncName())
	}

	var reviews []Review

	err = cursor.All(ctx, &reviews)
	if err != nil {
		return nil, helpers.WrapError(err, helpers.FuncName())
	}

	for i := range reviews {
		reviews[i].CreatedTS = reviews[i].ID.Timestamp()
	}

	return reviews, nil
}

// MarkWinner flags the review the claim was resolved with
func (m ReviewModel) MarkWinner(ID primitive.ObjectID) error {

	filter := bson.D{{Key: "_id", Value: ID}}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "isWinner", Value: true}}}}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := m.Collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return helpers.WrapError(err, helpers.FuncName())
	}

	if result.MatchedCount == 0 {
		return ErrTargetGone
	}

	return nil
}
