package environment

import (
	"os"

	"crowdcheck/analytics"
	"crowdcheck/apperror"
	"crowdcheck/client"
	"crowdcheck/database"
	"crowdcheck/helpers"
	"crowdcheck/lookups"
	"crowdcheck/models"
	"crowdcheck/queue"
	"crowdcheck/scheduler"

	"github.com/go-redis/redis/v8"
	influxdb2 "github.com/influxdata/influxdb-client-go"
	"go.mongodb.org/mongo-driver/mongo"
)

// Environment is used for dependency-injection (package de-coupling)
type Environment struct {
	Tracker         *analytics.Tracker
	UserModel       models.UserModel
	ArticleModel    models.ArticleModel
	ClaimModel      models.ClaimModel
	ReviewModel     models.ReviewModel
	VoteModel       models.VoteModel
	ReputationModel models.ReputationModel
	VoteQueue       *queue.VoteQueue
	VoteWorker      *queue.Consumer
	Evaluator       *scheduler.Evaluator
}

// Target dispatches a kind enumerant to the model implementing the votable
// capability - an explicit switch, not a lookup table
func (e *Environment) Target(kind string) (models.Target, error) {
	switch kind {
	case lookups.TKarticle:
		return e.ArticleModel, nil
	case lookups.TKclaim:
		return e.ClaimModel, nil
	case lookups.TKreview:
		return e.ReviewModel, nil
	case lookups.TKuser:
		return e.UserModel, nil
	default:
		return nil, apperror.ErrInvalidKind
	}
}

// newEnv operates as the constructor to initialize the collection references (private)
func newEnv(mongoClient *mongo.Client, redisClient *redis.Client, influxClient influxdb2.Client) *Environment {
	env := &Environment{}

	db := mongoClient.Database(os.Getenv("DB_NAME"))

	// prepare analytics gathering (job lifecycle signals)
	// always create the object so no further checking is needed in the models
	env.Tracker = new(analytics.Tracker)
	env.Tracker.SetConnections(influxClient)
	env.Tracker.Requests = new(client.Registry)
	env.Tracker.Requests.Initialize()

	env.UserModel.Client = mongoClient
	env.UserModel.Collection = db.Collection("users")

	// inject user model function to analytics tracker after its initialization
	env.Tracker.GetUserName = env.UserModel.GetUserName

	env.ReputationModel.Collection = db.Collection("reputationEvents")
	env.ReputationModel.Config = models.DefaultReputationConfig()
	env.ReputationModel.IncrementUserReputation = env.UserModel.IncrementReputation
	env.ReputationModel.SetUserLevel = env.UserModel.SetLevel

	env.ArticleModel.Client = mongoClient
	env.ArticleModel.Collection = db.Collection("articles")
	env.ArticleModel.GetUserNameOID = env.UserModel.GetUserNameOID
	env.ArticleModel.AddReputation = env.ReputationModel.AddReputation

	env.ClaimModel.Client = mongoClient
	env.ClaimModel.Collection = db.Collection("claims")
	env.ClaimModel.GetUserNameOID = env.UserModel.GetUserNameOID
	env.ClaimModel.AddReputation = env.ReputationModel.AddReputation

	env.ReviewModel.Client = mongoClient
	env.ReviewModel.Collection = db.Collection("reviews")
	env.ReviewModel.GetUserNameOID = env.UserModel.GetUserNameOID
	env.ReviewModel.AddReputation = env.ReputationModel.AddReputation
	env.ReviewModel.ClaimExists = env.ClaimModel.Exists

	env.VoteModel.Collection = db.Collection("votes")
	env.VoteModel.GetUserNameOID = env.UserModel.GetUserNameOID
	env.VoteModel.AddReputation = env.ReputationModel.AddReputation

	env.VoteQueue = &queue.VoteQueue{
		Redis: redisClient,
		TargetExists: func(targetID string, kind string) (bool, error) {
			target, err := env.Target(kind)
			if err != nil {
				return false, err
			}
			return target.Exists(helpers.ObjectID(targetID))
		},
		OnJobAdded: func(job *queue.Job) {
			// a re-submission of the same target (page refresh) is kept
			// out of the analytics signals; the job itself still runs
			if env.Tracker.Requests.Continue(job.AuthorID, job.TargetID) {
				env.Tracker.SaveJobEvent("added", job.ID, job.Kind, job.TargetID, job.AuthorID, "")
			}
		},
		OnJobCompleted: func(job *queue.Job) {
			env.Tracker.SaveJobEvent("completed", job.ID, job.Kind, job.TargetID, job.AuthorID, "")
		},
		OnJobFailed: func(job *queue.Job, reason string) {
			env.Tracker.SaveJobEvent("failed", job.ID, job.Kind, job.TargetID, job.AuthorID, reason)
		},
	}

	// the single consumer; its handler is the only code path that may
	// mutate target counters
	env.VoteWorker = queue.NewConsumer(env.VoteQueue, func(job *queue.Job) error {
		target, err := env.Target(job.Kind)
		if err != nil {
			return err
		}
		return env.VoteModel.ProcessVote(
			helpers.ObjectID(job.TargetID),
			job.Kind,
			job.Rating,
			helpers.ObjectID(job.AuthorID),
			target)
	})

	env.Evaluator = &scheduler.Evaluator{
		FindUnrated: env.ClaimModel.FindUnrated,
		ListByClaim: env.ReviewModel.ListByClaim,
		Postpone:    env.ClaimModel.Postpone,
		Resolve:     env.ClaimModel.Resolve,
		MarkWinner:  env.ReviewModel.MarkWinner,
	}

	return env
}

// Env is the singleton registry
var Env *Environment

// InitializeModels injects the database connections to the models
// (do not confuse with package init)
func InitializeModels() {
	Env = newEnv(database.GetConnection(), database.GetRedisConnection(), *database.GetInfluxConnection())
}
