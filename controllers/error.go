package controllers

import (
	"fmt"
	"net/http"

	"crowdcheck/apperror"
	"crowdcheck/models"
)

// ErrorResponse is the standardized error structure which may be returned by any API
type ErrorResponse struct {
	Code    int32  `json:"code"`
	Message string `json:"msg"`
}

// HandleError encodes the std ErrorResponse
func HandleError(err error) (httpStatus int, apiError ErrorResponse) {

	if err == nil {
		apiError.Code = 0
		apiError.Message = ""

		return 0, apiError
	}

	fmt.Println(err)
	switch err {
	// submission validation
	case apperror.ErrInvalidRating:
		apiError.Code = InvalidRating
		apiError.Message = apiError.String(apiError.Code)
		httpStatus = http.StatusUnprocessableEntity
	case apperror.ErrInvalidKind:
		apiError.Code = UnknownKind
		apiError.Message = apiError.String(apiError.Code)
		httpStatus = http.StatusUnprocessableEntity
	case apperror.ErrNotFound:
		apiError.Code = TargetNotFound
		apiError.Message = apiError.String(apiError.Code)
		httpStatus = http.StatusNotFound
	// system
	case apperror.ErrMultipleRecords:
		apiError.Code = MultipleRecords
		apiError.Message = apiError.String(apiError.Code)
		httpStatus = http.StatusInternalServerError
	case apperror.ErrRecordChanged:
		apiError.Code = RecordChanged
		apiError.Message = apiError.String(apiError.Code)
		httpStatus = http.StatusInternalServerError
	case apperror.ErrDenied:
		apiError.Code = ActionDenied
		apiError.Message = apiError.String(apiError.Code)
		httpStatus = http.StatusUnprocessableEntity
	// models
	case models.ErrInvalidUser:
		apiError.Code = InvalidRequest
		apiError.Message = apiError.String(apiError.Code)
		httpStatus = http.StatusUnprocessableEntity
	case models.ErrTargetGone:
		apiError.Code = TargetNotFound
		apiError.Message = apiError.String(apiError.Code)
		httpStatus = http.StatusNotFound
	case models.ErrArticleTitleMissing:
		apiError.Code = TitleMissing
		apiError.Message = apiError.String(apiError.Code)
		httpStatus = http.StatusUnprocessableEntity
	case models.ErrClaimTextMissing, models.ErrReviewTextMissing:
		apiError.Code = TextMissing
		apiError.Message = apiError.String(apiError.Code)
		httpStatus = http.StatusUnprocessableEntity
	case models.ErrClaimRated:
		apiError.Code = ClaimAlreadyRated
		apiError.Message = apiError.String(apiError.Code)
		httpStatus = http.StatusUnprocessableEntity
	default:
		apiError.Code = SystemError
		apiError.Message = apiError.String(apiError.Code)
		httpStatus = http.StatusInternalServerError
	}
	return httpStatus, apiError
}

// Application Error Codes (API Errors)
const (
	// client/api
	InvalidJSON int32 = (10000 + iota)
	InvalidRequest
	// generic system
	MultipleRecords
	RecordChanged
	ActionDenied
	// voting
	InvalidRating
	UnknownKind
	TargetNotFound
	// content
	TitleMissing
	TextMissing
	ClaimAlreadyRated
	SystemError = 99999
)

func (er ErrorResponse) String(code int32) string {
	msg := ""
	switch code {
	// common (system)
	case InvalidJSON:
		msg = "Invalid JSON"
	case InvalidRequest:
		msg = "Invalid Request" // JSON was correct, data was not
	case MultipleRecords:
		msg = "multiple records found"
	case RecordChanged:
		msg = "record changed by another user"
	case ActionDenied:
		msg = "update/delete action not allowed"
	// voting
	case InvalidRating:
		msg = "rating must be -1, 0 or 1"
	case UnknownKind:
		msg = "target kind must be ARTICLE, CLAIM, REVIEW or USER"
	case TargetNotFound:
		msg = "target does not exist"
	// content
	case TitleMissing:
		msg = "title is required"
	case TextMissing:
		msg = "text is required"
	case ClaimAlreadyRated:
		msg = "claim is already rated"
	case SystemError:
		msg = "Server Problem"
	}

	return msg
}
