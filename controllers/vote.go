package controllers

import (
	"net/http"

	"crowdcheck/apperror"
	"crowdcheck/environment"
	"crowdcheck/helpers"
	"crowdcheck/models"

	"github.com/gin-gonic/gin"
)

// voteRequest is the submission body; the author is provided by the
// (excluded) auth layer in front of this API
type voteRequest struct {
	TargetID string `json:"targetId" binding:"required"`
	Kind     string `json:"kind" binding:"required"`
	Rating   int32  `json:"rating"`
	AuthorID string `json:"authorId" binding:"required"`
}

// CastVote validates a vote submission and appends it to the queue.
// The counters are mutated later by the single vote worker; the client
// receives the job handle right away and may poll its status.
func CastVote(c *gin.Context) {

	var (
		err      error
		data     voteRequest
		apiError ErrorResponse
	)

	if err = c.ShouldBindJSON(&data); err != nil {
		apiError.Code = InvalidJSON
		apiError.Message = apiError.String(apiError.Code)
		c.JSON(http.StatusUnprocessableEntity, apiError)
		return
	}

	job, err := environment.Env.VoteQueue.Enqueue(data.TargetID, data.Kind, data.Rating, data.AuthorID)
	if err != nil {
		status, apiError := HandleError(err)
		c.JSON(status, apiError)
		return
	}

	// the vote is accepted, not yet counted
	c.JSON(http.StatusAccepted, gin.H{
		"jobId":  job.ID,
		"status": "queued",
	})
}

// GetVoteJob returns the lifecycle state of a submitted vote
// http://localhost:3000/vote/jobs/0f6d4c2e-...
func GetVoteJob(c *gin.Context) {

	jobID := c.Param("id")

	state, err := environment.Env.VoteQueue.GetJob(jobID)
	if err != nil {
		if err == apperror.ErrNoData {
			c.Status(http.StatusNotFound)
			return
		}
		status, apiError := HandleError(err)
		c.JSON(status, apiError)
		return
	}

	c.JSON(http.StatusOK, state)
}

// GetUserVotes returns the votes of a user to targets of given kind
// http://localhost:3000/user/votes?pKind=CLAIM&pUser=601526e8a468e8973193facd
func GetUserVotes(c *gin.Context) {

	var kind = c.Query("pKind")
	var userID = c.Query("pUser")

	votes, err := environment.Env.VoteModel.GetUserVotes(kind, userID)
	if err != nil {
		// nothing found (not an error to the client)
		if err == apperror.ErrNoData {
			c.Status(http.StatusNoContent)
			return
		}
		// technical errors
		status, apiError := HandleError(err)
		c.JSON(status, apiError)
		return
	}

	c.JSON(http.StatusOK, votes)
}

// GetTargetVotes returns the current votes to a target, derived from the
// vote records, and the requesting user's action
// http://localhost:3000/targets/6055d819671e62579fcc2151/votes?pUser=...
func GetTargetVotes(c *gin.Context) {

	var targetID = c.Param("id")
	var userID = c.Query("pUser")

	up, down, neutral, err := environment.Env.VoteModel.CountVotes(helpers.ObjectID(targetID))
	if err != nil {
		status, apiError := HandleError(err)
		c.JSON(status, apiError)
		return
	}

	votes := models.TargetVotes{
		UpVotes:      up,
		DownVotes:    down,
		NeutralVotes: neutral,
	}

	if userID != "" {
		votes.UserVote, err = environment.Env.VoteModel.GetUserVote(targetID, userID)
		if err != nil {
			status, apiError := HandleError(err)
			c.JSON(status, apiError)
			return
		}
	}

	c.JSON(http.StatusOK, votes)
}
