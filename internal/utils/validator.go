// internal/utils/validator.go
package utils

import (
	"errors"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("person_name", validatePersonName)
	validate.RegisterValidation("sluggable", validateSluggable)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// Names may contain letters, spaces, apostrophes and hyphens.
func validatePersonName(fl validator.FieldLevel) bool {
	name := strings.TrimSpace(fl.Field().String())
	if name == "" {
		return false
	}

	for _, char := range name {
		switch {
		case unicode.IsLetter(char), char == ' ', char == '\'', char == '-':
		default:
			return false
		}
	}
	return true
}

// Catalogue names must yield a non-empty slug, otherwise the record is unreachable by slug.
func validateSluggable(fl validator.FieldLevel) bool {
	return slug.Make(fl.Field().String()) != ""
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "gt":
		return e.Field() + " must be greater than " + e.Param()
	case "person_name":
		return e.Field() + " may only contain letters, spaces, apostrophes and hyphens"
	case "sluggable":
		return e.Field() + " must contain at least one letter or digit"
	case "oneof":
		return e.Field() + " must be one of " + e.Param()
	default:
		return e.Field() + " is invalid"
	}
}
