package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"storefront/internal/repository"
	"storefront/internal/service"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// errorBody is the envelope of every failed request
type errorBody struct {
	Status  string               `json:"status" example:"error"`
	Message string               `json:"message"`
	Errors  []service.FieldError `json:"errors,omitempty"`
}

func respond(c *gin.Context, code int, payload gin.H) {
	body := gin.H{"status": statusSuccess}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(code, body)
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrConflict), errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as an error envelope; resource names the entity in 404/409 messages
func (s *Server) fail(c *gin.Context, err error, resource string) {
	code := mapErrorToStatus(err)
	body := errorBody{Status: statusError}

	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		body.Message = "Validation failed"
		body.Errors = verr.Fields
	case code == http.StatusNotFound:
		body.Message = resource + " not found"
	case code == http.StatusConflict && errors.Is(err, repository.ErrConflict):
		body.Message = resource + " already exists"
	case code == http.StatusInternalServerError:
		s.logger.Error("request failed", "error", err, "method", c.Request.Method, "route", c.FullPath())
		body.Message = "internal server error"
	default:
		body.Message = err.Error()
	}
	c.AbortWithStatusJSON(code, body)
}

func abortWith(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, errorBody{Status: statusError, Message: message})
}

// bindJSON decodes and validates the body, answering 400 itself on failure
func (s *Server) bindJSON(c *gin.Context, req any) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}
	var (
		verrs validator.ValidationErrors
		typ   *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &verrs):
		fields := make([]service.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, service.FieldError{Field: fieldPath(fe), Message: fieldMessage(fe)})
		}
		s.fail(c, &service.ValidationError{Fields: fields}, "")
	case errors.As(err, &typ):
		s.fail(c, &service.ValidationError{Fields: []service.FieldError{{Field: typ.Field, Message: "must be a " + typ.Type.String()}}}, "")
	default:
		abortWith(c, http.StatusBadRequest, "invalid json")
	}
	return false
}

// fieldPath drops the request struct name: createProductReq.product.id -> product.id
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "is invalid"
	}
}

var registerTagName sync.Once

// useJSONFieldNames makes validation errors report json names instead of Go field names
func useJSONFieldNames() {
	registerTagName.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}
