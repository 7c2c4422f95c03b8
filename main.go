package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"crowdcheck/controllers"
	"crowdcheck/database"
	"crowdcheck/environment"
	"crowdcheck/middleware"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

var (
	router = gin.Default()
)

// runs BEFORE main - the order of package inits is undefined though!
func init() {
	// Load Config
	err := godotenv.Load()
	if err != nil {
		log.Fatal("Error loading .env file")
	}
}

func handleRequests() {
	router.Use(middleware.CORSMiddleware())

	router.GET("/test", controllers.Test)

	// voting
	// the submission is answered with the job handle; processing is async
	router.POST("/vote", controllers.CastVote)
	router.GET("/vote/jobs/:id", controllers.GetVoteJob)
	router.GET("/user/votes", controllers.GetUserVotes)
	router.GET("/targets/:id/votes", controllers.GetTargetVotes)

	// content (thin CRUD facade; provides the votable targets)
	router.POST("/articles", controllers.AddArticle)
	router.GET("/articles/:id", controllers.GetArticle)
	router.POST("/claims", controllers.AddClaim)
	router.GET("/claims/:id", controllers.GetClaim)
	router.POST("/claims/:id/reviews", controllers.AddReview)
	router.GET("/claims/:id/reviews", controllers.ListClaimReviews)

	// users / reputation
	router.GET("/users/:id", controllers.GetUser)
	router.GET("/users/:id/reputation", controllers.GetUserReputation)
	router.GET("/users/:id/reputation/events", controllers.ListUserReputationEvents)

	// system tools
	router.GET("/monitor/requests/count", controllers.CountRequests)
	router.GET("/monitor/requests/dump", controllers.DumpRequests)
	router.POST("/monitor/requests/flush", controllers.FlushRequests)
	router.GET("/monitor/jobs/failed", controllers.ListFailedJobs)
	router.GET("/monitor/jobs/failed/count", controllers.CountFailedJobs)

	switch os.Getenv("APP_ENV") {
	case "DEV":
		router.Run(":" + os.Getenv("API_PORT"))
	case "PRD":
		router.RunTLS(":"+os.Getenv("API_PORT"), os.Getenv("APP_CERTFILE"), os.Getenv("APP_KEYFILE"))
	default:
		panic(fmt.Errorf("APP_ENV must not set"))
	}
}

func main() {
	// Connect to main database here (mongoDB)
	err := database.OpenConnection()
	if err != nil {
		log.Fatal(err)
	}
	defer database.CloseConnection()

	// connect to the vote queue store (redis)
	err = database.OpenRedisConnection()
	if err != nil {
		log.Fatal(err)
	}
	defer database.CloseRedisConnection()

	// connect to Analysis-DB (influx)
	err = database.OpenInfluxConnection()
	if err != nil {
		log.Fatal(err)
	}
	defer database.CloseInfluxConnection()

	// Initialize the Models
	environment.InitializeModels()
	// flush buffered analytics events before the connection closes (LIFO)
	defer environment.Env.Tracker.Close()

	// re-queue jobs an earlier instance left unacknowledged, then start
	// the single vote worker
	moved, err := environment.Env.VoteQueue.Recover()
	if err != nil {
		log.Fatal(err)
	}
	if moved > 0 {
		log.Printf("re-queued %d unacknowledged vote job(s)", moved)
	}
	environment.Env.VoteWorker.Start()
	defer environment.Env.VoteWorker.Stop()

	// daily claim evaluation
	err = environment.Env.Evaluator.Start()
	if err != nil {
		log.Fatal(err)
	}
	defer environment.Env.Evaluator.Stop()

	// periodically remove stale entries from the submission registry
	ticker := time.NewTicker(15 * time.Minute)
	defer ticker.Stop()
	go func() {
		for range ticker.C {
			environment.Env.Tracker.Requests.Flush()
		}
	}()

	fmt.Println("Crowdcheck running...")
	handleRequests()
}
