// Package web defines common components for a web application.
package web

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// ErrNoValidator is returned when gin runs without the go-playground validator.
var ErrNoValidator = errors.New("binding validator is not go-playground/validator")

// Response holds the common response type for all APIs.
type Response struct {
	AccessToken           string `json:"access_token,omitempty"`
	AccessTokenExpiresAt  string `json:"access_token_expires_at,omitempty"`
	RefreshToken          string `json:"refresh_token,omitempty"`
	RefreshTokenExpiresAt string `json:"refresh_token_expires_at,omitempty"`
	Data                  any    `json:"data,omitempty"`
	Message               string `json:"message,omitempty"`
	Error                 string `json:"error,omitempty"`
}

// Error wraps a given err into json friendly response.
func Error(err error) Response {
	return Response{Error: err.Error()}
}

// GetErrorMsg returns human readable explanation of the failed validation tag.
func GetErrorMsg(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return " field is required"
	case "email":
		return " field must be a valid email"
	case "alphanum":
		return " field must contain only letters and digits"
	case "min":
		return fmt.Sprintf(" field must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf(" field must be at most %s", fe.Param())
	case "len":
		return fmt.Sprintf(" field must be exactly %s characters long", fe.Param())
	case "numeric":
		return " field must contain only digits"
	case "money":
		return " field must be a decimal amount with at most 2 decimal places"
	case "nefield":
		return fmt.Sprintf(" field must differ from %s", fe.Param())
	}

	return " field is invalid"
}

// BindingErrorMsg turns a request binding error into a message for the client.
func BindingErrorMsg(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		field := ve[0]
		return field.Field() + GetErrorMsg(field)
	}

	return err.Error()
}

// RegisterValidation adds a custom tag to the gin binding validator.
func RegisterValidation(tag string, fn validator.Func) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return ErrNoValidator
	}

	return v.RegisterValidation(tag, fn)
}
