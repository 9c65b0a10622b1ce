package controllers

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// FieldErrors flattens a gin binding error into per-field messages so callers
// see every offending field, not just the first.
func FieldErrors(err error) map[string]string {
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			switch fe.Tag() {
			case "required":
				out[fe.Field()] = "this field is required"
			case "email":
				out[fe.Field()] = "must be a valid email address"
			case "min":
				out[fe.Field()] = "below the minimum of " + fe.Param()
			case "max":
				out[fe.Field()] = "above the maximum of " + fe.Param()
			default:
				out[fe.Field()] = "failed validation: " + fe.Tag()
			}
		}
		return out
	}
	out["body"] = err.Error()
	return out
}
