package controllers

import (
	"net/http"

	"crowdcheck/apperror"
	"crowdcheck/environment"

	"github.com/gin-gonic/gin"
)

// GetUser reads a user's record
func GetUser(c *gin.Context) {

	user, err := environment.Env.UserModel.GetUserByID(c.Param("id"))
	if err != nil {
		status, apiError := HandleError(err)
		c.JSON(status, apiError)
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetUserReputation returns cumulative score, level and the experience
// required for the next level (progress display)
func GetUserReputation(c *gin.Context) {

	user, err := environment.Env.UserModel.GetUserByID(c.Param("id"))
	if err != nil {
		status, apiError := HandleError(err)
		c.JSON(status, apiError)
		return
	}

	res := struct {
		Reputation   int32   `json:"reputation"`
		Level        int32   `json:"level"`
		NextLevelExp float64 `json:"nextLevelExp"`
	}{
		Reputation:   user.Reputation,
		Level:        user.Level,
		NextLevelExp: environment.Env.ReputationModel.NextLevelExp(user.Level),
	}

	c.JSON(http.StatusOK, res)
}

// ListUserReputationEvents returns the most recent entries of the user's
// reputation log
func ListUserReputationEvents(c *gin.Context) {

	events, err := environment.Env.ReputationModel.ListEvents(c.Param("id"))
	if err != nil {
		if err == apperror.ErrNoData {
			c.Status(http.StatusNoContent)
			return
		}
		status, apiError := HandleError(err)
		c.JSON(status, apiError)
		return
	}

	c.JSON(http.StatusOK, events)
}
