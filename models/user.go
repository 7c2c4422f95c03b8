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

// User is the "interface" used for client communication.
// Account management (passwords, tokens) lives in the excluded auth layer;
// this model carries what the voting and reputation systems need.
// Users are votable targets themselves, hence the three counters.
type User struct {
	ID            primitive.ObjectID `json:"id" bson:"_id"`
	LoginName     string             `json:"loginName" bson:"loginName"`
	EMailAddress  string             `json:"eMail" bson:"eMail"`
	Reputation    int32              `json:"reputation" bson:"reputation"`
	Level         int32              `json:"level" bson:"level"`
	NPosVotes     int32              `json:"nPosVotes" bson:"nPosVotes"`
	NNegVotes     int32              `json:"nNegVotes" bson:"nNegVotes"`
	NNeutralVotes int32              `json:"nNeutralVotes" bson:"nNeutralVotes"`
	LastSeenTS    time.Time          `json:"lastSeenTS" bson:"lastSeenTS,omitempty"`
}

// UserModel provides the logic to the interface and access to the database
type UserModel struct {
	Client     *mongo.Client
	Collection *mongo.Collection
}

// Kind marks users as votable targets
func (m UserModel) Kind() string {
	return lookups.TKuser
}

// Exists checks if a user document is present
func (m UserModel) Exists(ID primitive.ObjectID) (bool, error) {
	return documentExists(m.Collection, ID)
}

// IncrementCounters mutates the vote counters (called by the vote worker only)
func (m UserModel) IncrementCounters(ID primitive.ObjectID, delta CounterDelta) error {
	return incrementCounters(m.Collection, ID, delta)
}

// GetUserByID reads a user's record
func (m UserModel) GetUserByID(ID string) (*User, error) {

	var user User

	id, err := primitive.ObjectIDFromHex(ID)
	if err != nil {
		return nil, ErrInvalidUser
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = m.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrInvalidUser
		}
		// pass any other error
		return nil, err
	}

	return &user, nil
}

// GetUserNameOID returns the login name from an ID (reduced version, without profile data)
func (m UserModel) GetUserNameOID(ID primitive.ObjectID) (string, error) {

	data := struct {
		LoginName string `bson:"loginName"`
	}{}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fields := bson.D{
		{Key: "_id", Value: 0},
		{Key: "loginName", Value: 1}}

	err := m.Collection.FindOne(ctx, bson.M{"_id": ID}, options.FindOne().SetProjection(fields)).Decode(&data)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return "", ErrInvalidUser
		}
		// pass any other error
		return "", err
	}

	return data.LoginName, nil
}

// GetUserName is the string-ID variant used where the caller holds hex IDs
func (m UserModel) GetUserName(ID string) (string, error) {
	id, err := primitive.ObjectIDFromHex(ID)
	if err != nil {
		return "", ErrInvalidUser
	}
	return m.GetUserNameOID(id)
}

// IncrementReputation atomically adds points to the cumulative score and
// returns the new total. Called by the reputation model only.
func (m UserModel) IncrementReputation(ID primitive.ObjectID, points int32) (int32, error) {

	filter := bson.D{{Key: "_id", Value: ID}}
	update := bson.D{{Key: "$inc", Value: bson.D{{Key: "reputation", Value: points}}}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	data := struct {
		Reputation int32 `bson:"reputation"`
	}{}

	err := m.Collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&data)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, ErrInvalidUser
		}
		return 0, helpers.WrapError(err, helpers.FuncName())
	}

	return data.Reputation, nil
}

// SetLevel stores the derived level. Called by the reputation model only,
// right after it recomputed the level from the new score.
func (m UserModel) SetLevel(ID primitive.ObjectID, level int32) error {

	filter := bson.D{{Key: "_id", Value: ID}}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "level", Value: level}}}}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := m.Collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return helpers.WrapError(err, helpers.FuncName())
	}

	return nil
}

// SetLastSeen saves timestamp of last log-in
func (m UserModel) SetLastSeen(userID primitive.ObjectID) {
	// no error is returned since this function is not essential

	filter := bson.D{{Key: "_id", Value: userID}}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "lastSeenTS", Value: time.Now()}}}}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// just fire & forget
	_, _ = m.Collection.UpdateOne(ctx, filter, update)
}
