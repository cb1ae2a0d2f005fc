package httpHandler

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"recorder-server/db"
	"recorder-server/repositories"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"go.uber.org/zap"
)

// APIError is the single error shape written to clients.
type APIError struct {
	Status  int
	Message string
	Cause   error
}

func (e *APIError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

func BadRequest(message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Message: message}
}

func NotFound(message string) *APIError {
	return &APIError{Status: http.StatusNotFound, Message: message}
}

// missing is the 404 for an id that matched nothing.
func missing(entity, id string) *APIError {
	return NotFound(fmt.Sprintf("No %s found with id: %s", entity, id))
}

func Internal(cause error) *APIError {
	msg := http.StatusText(http.StatusInternalServerError)
	if cause != nil {
		msg = cause.Error()
	}
	return &APIError{Status: http.StatusInternalServerError, Message: msg, Cause: cause}
}

// classify maps any failure onto the three client-visible kinds.
func classify(err error) *APIError {
	var apiErr *APIError
	var notFound *repositories.NotFoundError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &notFound):
		apiErr = missing(notFound.Entity, notFound.ID)
		apiErr.Cause = err
		return apiErr
	case errors.Is(err, repositories.ErrNotFound):
		return &APIError{Status: http.StatusNotFound, Message: http.StatusText(http.StatusNotFound), Cause: err}
	default:
		return Internal(err)
	}
}

// public drops everything that is not safe to show outside development.
func (e *APIError) public() *APIError {
	out := &APIError{Status: e.Status, Message: e.Message}
	if e.Status >= http.StatusInternalServerError {
		out.Message = http.StatusText(e.Status)
	}
	return out
}

var errorPage = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.Status}} {{.StatusText}}</title></head>
<body>
<h1>{{.Status}} {{.StatusText}}</h1>
<p>{{.Message}}</p>
{{- if .Cause}}
<pre>{{.Cause}}</pre>
{{- end}}
</body>
</html>
`))

// abortWith hands err to ErrorFunnel and stops the handler chain.
func abortWith(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// Recovered hands a recovered panic to ErrorFunnel as an internal error.
func Recovered(c *gin.Context, recovered any) {
	abortWith(c, Internal(fmt.Errorf("panic: %v", recovered)))
}

// ErrorFunnel renders the last error recorded on the context. Browser GET
// requests get an HTML page, everything else gets {"message": ...}.
func ErrorFunnel(logger *zap.SugaredLogger, development bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		apiErr := classify(c.Errors.Last().Err)

		if apiErr.Status >= http.StatusInternalServerError {
			logger.Errorw("request failed",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"status", apiErr.Status,
				"error", apiErr.Cause,
				"sqlstate", db.SQLState(apiErr.Cause),
			)
		} else {
			logger.Debugw("request rejected",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"status", apiErr.Status,
				"message", apiErr.Message,
			)
		}

		if c.Writer.Written() {
			return
		}

		var cause string
		if development {
			if apiErr.Cause != nil {
				cause = apiErr.Cause.Error()
			}
		} else {
			apiErr = apiErr.public()
		}

		if c.Request.Method == http.MethodGet && c.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) == gin.MIMEHTML {
			c.Render(apiErr.Status, render.HTML{
				Template: errorPage,
				Name:     "error",
				Data: gin.H{
					"Status":     apiErr.Status,
					"StatusText": http.StatusText(apiErr.Status),
					"Message":    apiErr.Message,
					"Cause":      cause,
				},
			})
			return
		}

		body := gin.H{"message": apiErr.Message}
		if cause != "" {
			body["cause"] = cause
		}
		c.JSON(apiErr.Status, body)
	}
}
