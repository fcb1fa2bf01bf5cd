package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	apperrors "github.com/frahmantamala/worktally/internal"
	"github.com/go-playground/validator/v10"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

type FieldValidator struct {
	builder   *ValidationBuilder
	FieldName string
	Value     interface{}
}

// ValidationBuilder collects field errors from struct tags and ad-hoc checks
// and turns them into a single validation AppError.
type ValidationBuilder struct {
	errors []apperrors.ValidationError
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{errors: make([]apperrors.ValidationError, 0)}
}

// Struct runs the `validate` struct tags of s.
func (v *ValidationBuilder) Struct(s interface{}) *ValidationBuilder {
	err := validate.Struct(s)
	if err == nil {
		return v
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		v.AddError("non_field_errors", err.Error(), apperrors.ErrCodeValidationFailed)
		return v
	}
	for _, fe := range verrs {
		v.AddError(fe.Field(), messageFor(fe), apperrors.ErrCodeValidationFailed)
	}
	return v
}

func (v *ValidationBuilder) AddError(field, message string, code apperrors.ErrorCode) *ValidationBuilder {
	v.errors = append(v.errors, apperrors.ValidationError{Field: field, Message: message, Code: string(code)})
	return v
}

// Check records message against field when ok is false.
func (v *ValidationBuilder) Check(field string, ok bool, message string, code apperrors.ErrorCode) *ValidationBuilder {
	if !ok {
		v.AddError(field, message, code)
	}
	return v
}

func (v *ValidationBuilder) HasErrors() bool {
	return len(v.errors) > 0
}

func (v *ValidationBuilder) Field(name string, value interface{}) *FieldValidator {
	return &FieldValidator{builder: v, FieldName: name, Value: value}
}

func (fv *FieldValidator) Required() *FieldValidator {
	empty := false
	switch val := fv.Value.(type) {
	case string:
		empty = strings.TrimSpace(val) == ""
	case *string:
		empty = val == nil || strings.TrimSpace(*val) == ""
	case time.Time:
		empty = val.IsZero()
	case *time.Time:
		empty = val == nil || val.IsZero()
	case int64:
		empty = val == 0
	}
	if empty {
		fv.builder.AddError(fv.FieldName, "This field is required.", apperrors.ErrCodeValidationFailed)
	}
	return fv
}

func (fv *FieldValidator) MinLength(min int) *FieldValidator {
	if s, ok := fv.Value.(string); ok && s != "" && len([]rune(s)) < min {
		fv.builder.AddError(fv.FieldName, fmt.Sprintf("Ensure this field has at least %d characters.", min), apperrors.ErrCodeValidationFailed)
	}
	return fv
}

func (fv *FieldValidator) MaxLength(max int) *FieldValidator {
	if s, ok := fv.Value.(string); ok && len([]rune(s)) > max {
		fv.builder.AddError(fv.FieldName, fmt.Sprintf("Ensure this field has no more than %d characters.", max), apperrors.ErrCodeValidationFailed)
	}
	return fv
}

func (fv *FieldValidator) Custom(check func(interface{}) *apperrors.AppError) *FieldValidator {
	appErr := check(fv.Value)
	if appErr == nil {
		return fv
	}
	if details, ok := appErr.Details.(apperrors.ValidationErrors); ok {
		fv.builder.errors = append(fv.builder.errors, details.Errors...)
		return fv
	}
	fv.builder.AddError(fv.FieldName, appErr.Message, appErr.Code)
	return fv
}

// Validate returns nil or a validation AppError listing every field error.
func (v *ValidationBuilder) Validate() error {
	if len(v.errors) == 0 {
		return nil
	}
	return apperrors.NewValidationError("Validation failed", apperrors.ErrCodeValidationFailed).
		WithDetails(apperrors.ValidationErrors{Errors: v.errors})
}

// Struct validates s against its tags only.
func Struct(s interface{}) error {
	return NewValidator().Struct(s).Validate()
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "url":
		return "Enter a valid URL."
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "oneof":
		return fmt.Sprintf("%q is not a valid choice.", fmt.Sprint(fe.Value()))
	case "eqfield":
		return fmt.Sprintf("Must match %s.", fe.Param())
	case "alphanumunicode", "username":
		return "Enter a valid username."
	default:
		return fmt.Sprintf("Failed on the %s rule.", fe.Tag())
	}
}
