package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cookedzera/farcaster-spin/errors"
	"github.com/cookedzera/farcaster-spin/types"
)

const errUndefinedErrorCode = -99

// Success sends a success response
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, types.SuccessResponse[interface{}]{
		StatusCode: statusCode,
		IsSuccess:  true,
		Data:       data,
	})
}

// OK sends a 200 OK response
func OK(c *gin.Context, data interface{}) {
	Success(c, http.StatusOK, data)
}

// NoContent sends a 204 No Content response
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response
func Error(c *gin.Context, statusCode int, err error) {
	message := err.Error()
	code := errUndefinedErrorCode
	if appErr, ok := err.(*errors.AppError); ok {
		message = appErr.Message
		code = appErr.Code
	}

	c.JSON(statusCode, types.ErrorResponse{
		StatusCode: statusCode,
		IsSuccess:  false,
		Error: types.ErrorDetail{
			Timestamp:    time.Now().Format(time.RFC3339),
			Path:         c.Request.URL.Path,
			ErrorMessage: message,
			ErrorCode:    code,
		},
	})
}

// HandleAppError maps an AppError to its HTTP status and sends it
func HandleAppError(c *gin.Context, err error) {
	if appErr, ok := err.(*errors.AppError); ok {
		Error(c, errors.HTTPStatusFromCode(appErr.Code), appErr)
		return
	}
	Error(c, http.StatusInternalServerError, err)
}
