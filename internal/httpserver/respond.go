package httpserver

import (
	"errors"
	"net/http"

	"coffeespot/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func statusFor(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized
	case domain.EFORBIDDEN:
		return http.StatusForbidden
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeError maps err to a status and a caller-safe message. Internal errors
// are logged with the request logger.
func writeError(c *gin.Context, err error) {
	code := domain.ErrorCode(err)
	status := statusFor(code)
	if status == http.StatusInternalServerError {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("internal error")
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"success": false, "message": domain.ErrorMessage(err)})
}

// writeOK renders the success envelope with the given payload fields merged in.
func writeOK(c *gin.Context, status int, message string, fields gin.H) {
	body := gin.H{"success": true, "message": message}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(status, body)
}

// bindJSON decodes the body and reports malformed input as a bad request.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			writeError(c, err)
			return false
		}
		writeError(c, domain.Invalid("http.bind", "invalid request body"))
		return false
	}
	return true
}
