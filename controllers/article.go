package controllers

import (
	"net/http"

	"crowdcheck/environment"
	"crowdcheck/models"

	"github.com/gin-gonic/gin"
)

// AddArticle stores a new article reference
func AddArticle(c *gin.Context) {

	var (
		err      error
		data     models.Article
		apiError ErrorResponse
	)

	if err = c.ShouldBindJSON(&data); err != nil {
		apiError.Code = InvalidJSON
		apiError.Message = apiError.String(apiError.Code)
		c.JSON(http.StatusUnprocessableEntity, apiError)
		return
	}

	id, err := environment.Env.ArticleModel.CreateArticle(&data)
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

// GetArticle returns one article
func GetArticle(c *gin.Context) {

	article, err := environment.Env.ArticleModel.GetArticle(c.Param("id"))
	if err != nil {
		status, apiError := HandleError(err)
		c.JSON(status, apiError)
		return
	}

	c.JSON(http.StatusOK, article)
}
