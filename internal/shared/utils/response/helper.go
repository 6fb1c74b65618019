package response

import (
	"errors"

	"eventhub/internal/shared/apperrors"

	"github.com/gin-gonic/gin"
)

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}

// RespondError maps a domain error onto the envelope. Internal details never reach the client.
func RespondError(c *gin.Context, err error) {
	code := apperrors.HTTPStatus(err)
	var detail interface{}
	if code < 500 && !errors.Is(err, apperrors.ErrSignatureInvalid) && !errors.Is(err, apperrors.ErrOrderMismatch) {
		detail = apperrors.Code(err)
	}
	RespondJSON(c, "error", code, apperrors.PublicMessage(err), nil, detail)
}
