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
)

var ErrArticleTitleMissing = errors.New("article title is required")

// Article is the "interface" used for client communication
type Article struct {
	ID            primitive.ObjectID `json:"id" bson:"_id"`
	CreatedTS     time.Time          `json:"createdTS" bson:"-"` // read from Mongo's ObjectID
	CreatedID     primitive.ObjectID `json:"createdID" bson:"createdID"`
	CreatedName   string             `json:"createdName" bson:"createdName"`
	Title         string             `json:"title" bson:"title"`
	SourceURL     string             `json:"sourceURL" bson:"sourceURL"`
	NPosVotes     int32              `json:"nPosVotes" bson:"nPosVotes"`
	NNegVotes     int32              `json:"nNegVotes" bson:"nNegVotes"`
	NNeutralVotes int32              `json:"nNeutralVotes" bson:"nNeutralVotes"`
	UserVote      int32              `json:"userVote" bson:"-"` // returned dynamically by API
}

// ArticleModel provides the logic to the interface and access to the database.
// The reputation function is injected by the environment.
type ArticleModel struct {
	Client         *mongo.Client
	Collection     *mongo.Collection
	GetUserNameOID func(ID primitive.ObjectID) (string, error)
	AddReputation  func(userID primitive.ObjectID, action string, referencedID *primitive.ObjectID) error
}

// Kind marks articles as votable targets
func (m ArticleModel) Kind() string {
	return lookups.TKarticle
}

// Exists checks if an article document is present
func (m ArticleModel) Exists(ID primitive.ObjectID) (bool, error) {
	return documentExists(m.Collection, ID)
}

// IncrementCounters mutates the vote counters (called by the vote worker only)
func (m ArticleModel) IncrementCounters(ID primitive.ObjectID, delta CounterDelta) error {
	return incrementCounters(m.Collection, ID, delta)
}

// CreateArticle adds a new article and awards the author's reputation
func (m ArticleModel) CreateArticle(article *Article) (string, error) {

	if article.Title == "" {
		return "", ErrArticleTitleMissing
	}

	usr, err := m.GetUserNameOID(article.CreatedID)
	if err != nil {
		return "", ErrInvalidUser
	}

	article.ID = primitive.NewObjectID()
	article.CreatedName = usr

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := m.Collection.InsertOne(ctx, article)
	if err != nil {
		return "", helpers.WrapError(err, helpers.FuncName())
	}

	oid := res.InsertedID.(primitive.ObjectID)

	err = m.AddReputation(article.CreatedID, ActionCreateArticle, &oid)
	if err != nil {
		return "", err
	}

	return oid.Hex(), nil
}

// GetArticle reads one article
func (m ArticleModel) GetArticle(ID string) (*Article, error) {

	var article Article

	oid := helpers.ObjectID(ID)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := m.Collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&article)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrTargetGone
		}
		return nil, helpers.WrapError(err, helpers.FuncName())
	}

	article.CreatedTS = article.ID.Timestamp()

	return &article, nil
}
