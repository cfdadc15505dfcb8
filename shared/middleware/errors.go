package middleware

import (
	"log"
	"net/http"

	"github.com/dulfinne/User-service/shared/apperror"
	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func RespondWithError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Status: status, Message: message})
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindAlreadyExists, apperror.KindActionNotAllowed:
		return http.StatusConflict
	case apperror.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithAppError writes err using its kind. Internal errors are logged
// and answered with a generic message.
func RespondWithAppError(c *gin.Context, err error) {
	kind := apperror.KindOf(err)
	status := StatusFor(kind)
	if kind == apperror.KindInternal {
		log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		RespondWithError(c, status, "Internal server error")
		return
	}
	RespondWithError(c, status, apperror.MessageOf(err))
}
