package controllers

import (
	"net/http"
	"time"

	"crowdcheck/environment"

	"github.com/gin-gonic/gin"
)

// Test signals that the service is reachable
func Test(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "crowdcheck running"})
}

func CountRequests(c *gin.Context) {
	c.JSON(http.StatusOK, environment.Env.Tracker.Requests.Count())
}

func DumpRequests(c *gin.Context) {
	c.JSON(http.StatusOK, environment.Env.Tracker.Requests.Dump(50))
}

func FlushRequests(c *gin.Context) {
	environment.Env.Tracker.Requests.Flush()

	c.Status(http.StatusOK)
}

// ListFailedJobs returns the vote jobs that were accepted but then lost.
// The submitters were never informed (fire-and-forget contract), so this
// view is the place to watch for vote loss.
// http://localhost:3000/monitor/jobs/failed
func ListFailedJobs(c *gin.Context) {

	events, err := environment.Env.Tracker.ListFailedJobs(time.Now().AddDate(0, 0, -7))
	if err != nil {
		status, apiError := HandleError(err)
		c.JSON(status, apiError)
		return
	}

	if events == nil {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, events)
}

// CountFailedJobs returns the number of lost votes of the last 24 hours
func CountFailedJobs(c *gin.Context) {

	cnt, err := environment.Env.Tracker.CountJobEvents("failed", time.Now().AddDate(0, 0, -1))
	if err != nil {
		status, apiError := HandleError(err)
		c.JSON(status, apiError)
		return
	}

	res := struct {
		Count int64 `json:"count"`
	}{cnt}

	c.JSON(http.StatusOK, res)
}
