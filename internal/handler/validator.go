package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidationError wraps validator.ValidationErrors into a user-facing message.
func ValidationError(err error) string {
	if err == nil {
		return ""
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}

	var errorMsgs []string
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			errorMsgs = append(errorMsgs, fmt.Sprintf("Field '%s' is required", e.Field()))
		case "gte":
			errorMsgs = append(errorMsgs, fmt.Sprintf("Field '%s' must be greater than or equal to %s", e.Field(), e.Param()))
		case "lte":
			errorMsgs = append(errorMsgs, fmt.Sprintf("Field '%s' must be less than or equal to %s", e.Field(), e.Param()))
		default:
			errorMsgs = append(errorMsgs, fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag()))
		}
	}

	return strings.Join(errorMsgs, ", ")
}
