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

var (
	ErrClaimTextMissing = errors.New("claim text is required")
	ErrClaimRated       = errors.New("claim is already rated")
)

// Claim is the "interface" used for client communication.
//
// isRated flips exactly once, from false to true, by the evaluation run.
// updatedTS may be rewound into the past by that run as an aging mechanism
// (a claim without reviews is made eligible again after 7 days instead of a
// fresh 14-day window).
type Claim struct {
	ID            primitive.ObjectID `json:"id" bson:"_id"`
	CreatedTS     time.Time          `json:"createdTS" bson:"-"` // read from Mongo's ObjectID
	CreatedID     primitive.ObjectID `json:"createdID" bson:"createdID"`
	CreatedName   string             `json:"createdName" bson:"createdName"`
	Text          string             `json:"text" bson:"text"`
	ArticleID     primitive.ObjectID `json:"articleID,omitempty" bson:"articleID,omitempty"`
	NPosVotes     int32              `json:"nPosVotes" bson:"nPosVotes"`
	NNegVotes     int32              `json:"nNegVotes" bson:"nNegVotes"`
	NNeutralVotes int32              `json:"nNeutralVotes" bson:"nNeutralVotes"`
	IsRated       bool               `json:"isRated" bson:"isRated"`
	Rating        *float64           `json:"rating" bson:"rating"` // null until resolved
	UpdatedTS     time.Time          `json:"updatedTS" bson:"updatedTS"`
	UserVote      int32              `json:"userVote" bson:"-"` // returned dynamically by API
}

// ClaimModel provides the logic to the interface and access to the database
type ClaimModel struct {
	Client         *mongo.Client
	Collection     *mongo.Collection
	GetUserNameOID func(ID primitive.ObjectID) (string, error)
	AddReputation  func(userID primitive.ObjectID, action string, referencedID *primitive.ObjectID) error
}

// Kind marks claims as votable targets
func (m ClaimModel) Kind() string {
	return lookups.TKclaim
}

// Exists checks if a claim document is present
func (m ClaimModel) Exists(ID primitive.ObjectID) (bool, error) {
	return documentExists(m.Collection, ID)
}

// IncrementCounters mutates the vote counters (called by the vote worker only).
// updatedTS is deliberately left untouched here - a vote must not restart
// the claim's 14-day evaluation window.
func (m ClaimModel) IncrementCounters(ID primitive.ObjectID, delta CounterDelta) error {
	return incrementCounters(m.Collection, ID, delta)
}

// CreateClaim adds a new claim and awards the author's reputation
func (m ClaimModel) CreateClaim(claim *Claim) (string, error) {

	if claim.Text == "" {
		return "", ErrClaimTextMissing
	}

	usr, err := m.GetUserNameOID(claim.CreatedID)
	if err != nil {
		return "", ErrInvalidUser
	}

	claim.ID = primitive.NewObjectID()
	claim.CreatedName = usr
	claim.IsRated = false
	claim.Rating = nil
	claim.UpdatedTS = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := m.Collection.InsertOne(ctx, claim)
	if err != nil {
		return "", helpers.WrapError(err, helpers.FuncName())
	}

	oid := res.InsertedID.(primitive.ObjectID)

	err = m.AddReputation(claim.CreatedID, ActionCreateClaim, &oid)
	if err != nil {
		return "", err
	}

	return oid.Hex(), nil
}

// GetClaim reads one claim
func (m ClaimModel) GetClaim(ID string) (*Claim, error) {

	var claim Claim

	oid := helpers.ObjectID(ID)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := m.Collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&claim)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrTargetGone
		}
		return nil, helpers.WrapError(err, helpers.FuncName())
	}

	claim.CreatedTS = claim.ID.Timestamp()

	return &claim, nil
}

// FindUnrated returns the claims still pending whose last update is older
// than the given threshold - the selection of the evaluation run
func (m ClaimModel) FindUnrated(olderThan time.Time) ([]Claim, error) {

	filter := bson.D{
		{Key: "isRated", Value: false},
		{Key: "updatedTS", Value: bson.D{
			{Key: "$lt", Value: olderThan},
		}},
	}

	opts := options.Find().SetSort(bson.D{{Key: "updatedTS", Value: 1}})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := m.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, helpers.WrapError(err, helpers.FuncName())
	}

	var claims []Claim

	err = cursor.All(ctx, &claims)
	if err != nil {
		return nil, helpers.WrapError(err, helpers.FuncName())
	}

	return claims, nil
}

// Resolve marks a claim as rated. The transition is terminal: the filter
// only matches while isRated is still false, so a claim can never be
// resolved twice.
func (m ClaimModel) Resolve(ID primitive.ObjectID, rating float64) error {

	filter := bson.D{
		{Key: "_id", Value: ID},
		{Key: "isRated", Value: false},
	}

	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "isRated", Value: true},
			{Key: "rating", Value: rating},
			{Key: "updatedTS", Value: time.Now()},
		}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := m.Collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return helpers.WrapError(err, helpers.FuncName())
	}

	if result.MatchedCount == 0 {
		return ErrClaimRated
	}

	return nil
}

// Postpone rewinds updatedTS so a reviewless claim becomes eligible for
// re-evaluation earlier than a fresh 14-day window
func (m ClaimModel) Postpone(ID primitive.ObjectID, updatedTS time.Time) error {

	filter := bson.D{
		{Key: "_id", Value: ID},
		{Key: "isRated", Value: false},
	}

	update := bson.D{
		{Key: "$set", Value: bson.D{{Key: "updatedTS", Value: updatedTS}}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := m.Collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return helpers.WrapError(err, helpers.FuncName())
	}

	return nil
}
