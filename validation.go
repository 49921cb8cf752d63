package mailAuth

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/MrEthical07/mailAuth/password"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// validateShape checks struct tags and returns a *ValidationError keyed by
// JSON field names.
func validateShape(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return messageError("invalid request")
	}

	fields := FieldErrors{}
	for _, fe := range verrs {
		fields.Add(fe.Field(), formatFieldError(fe))
	}
	return &ValidationError{Fields: fields}
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return "Ensure this field has no more than " + fe.Param() + " characters."
	case "oneof":
		return "\"" + stringValue(fe.Value()) + "\" is not a valid choice."
	default:
		return "This value is invalid."
	}
}

func stringValue(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case *string:
		if s != nil {
			return *s
		}
	}
	return ""
}

// normalizeEmail lowercases and trims an address. Uniqueness and lookups
// always go through it.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// checkPasswordPair applies the mismatch rule and then the strength policy.
// field names the key used for policy messages.
func (e *Engine) checkPasswordPair(pw, confirm, mismatchMsg, field string, attrs ...password.Attribute) error {
	if pw != confirm {
		return messageError(mismatchMsg)
	}
	if problems := e.policy.Validate(pw, attrs...); len(problems) > 0 {
		return &ValidationError{Fields: FieldErrors{field: problems}}
	}
	return nil
}

func userAttributes(email, name string) []password.Attribute {
	return []password.Attribute{
		{Label: "email address", Value: email},
		{Label: "name", Value: name},
	}
}

func validateProfileUpdate(update ProfileUpdate) error {
	if err := validateShape(update); err != nil {
		return err
	}
	if update.Gender != nil && !update.Gender.Valid() {
		return fieldError("gender", "\""+string(*update.Gender)+"\" is not a valid choice.")
	}
	return nil
}
