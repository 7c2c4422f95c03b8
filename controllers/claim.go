package controllers

import (
	"net/http"

	"crowdcheck/environment"
	"crowdcheck/helpers"
	"crowdcheck/models"

	"github.com/gin-gonic/gin"
)

// AddClaim stores a new claim; the claim starts unrated and enters the
// evaluation window
func AddClaim(c *gin.Context) {

	var (
		err      error
		data     models.Claim
		apiError ErrorResponse
	)

	if err = c.ShouldBindJSON(&data); err != nil {
		apiError.Code = InvalidJSON
		apiError.Message = apiError.String(apiError.Code)
		c.JSON(http.StatusUnprocessableEntity, apiError)
		return
	}

	id, err := environment.Env.ClaimModel.CreateClaim(&data)
	if err != nil {
		status, apiError := HandleError(err)
		c.JSON(status, apiError)
		return
	}

	res := struct {
		ID string `json:"id"`
	}{id}

	c.JSON(http.StatusCreated, res)
}

// GetClaim returns one claim including its resolution state
func GetClaim(c *gin.Context) {

	claim, err := environment.Env.ClaimModel.GetClaim(c.Param("id"))
	if err != nil {
		status, apiError := HandleError(err)
		c.JSON(status, apiError)
		return
	}

	c.JSON(http.StatusOK, claim)
}

// AddReview stores a new peer review for a claim
func AddReview(c *gin.Context) {

	var (
		err      error
		data     models.Review
		apiError ErrorResponse
	)

	if err = c.ShouldBindJSON(&data); err != nil {
		apiError.Code = InvalidJSON
		apiError.Message = apiError.String(apiError.Code)
		c.JSON(http.StatusUnprocessableEntity, apiError)
		return
	}

	data.ClaimID = helpers.ObjectID(c.Param("id"))

	id, err := environment.Env.ReviewModel.CreateReview(&data)
	if err != nil {
		status, apiError := HandleError(err)
		c.JSON(status, apiError)
		return
	}

	res := struct {
		ID string `json:"id"`
	}{id}

	c.JSON(http.StatusCreated, res)
}

// ListClaimReviews returns the reviews of a claim, oldest first
func ListClaimReviews(c *gin.Context) {

	reviews, err := environment.Env.ReviewModel.ListByClaim(helpers.ObjectID(c.Param("id")))
	if err != nil {
		status, apiError := HandleError(err)
		c.JSON(status, apiError)
		return
	}

	if len(reviews) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, reviews)
}
