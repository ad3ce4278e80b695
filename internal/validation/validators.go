// Package validation checks tool requests and configuration with
// go-playground/validator and reports failures as apperr validation errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/teemow/gtasks-mcp/internal/apperr"
	"github.com/teemow/gtasks-mcp/internal/dates"
	"github.com/teemow/gtasks-mcp/internal/render"
	"github.com/teemow/gtasks-mcp/internal/tasks"
	"github.com/teemow/gtasks-mcp/internal/timerange"
)

// ClearDue is the due_date value that removes a due date.
const ClearDue = "clear"

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their wire names.
	Validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "yaml"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})

	custom := map[string]validator.Func{
		"render_mode":       validateRenderMode,
		"time_range":        validateTimeRange,
		"iso_date":          validateISODate,
		"due_date_or_clear": validateDueDateOrClear,
		"task_status":       validateTaskStatus,
	}
	for tag, fn := range custom {
		if err := Validate.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("failed to register %s validator: %v", tag, err))
		}
	}
}

func validateRenderMode(fl validator.FieldLevel) bool {
	_, err := render.ParseMode(fl.Field().String())
	return err == nil
}

func validateTimeRange(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	for _, name := range timerange.Names() {
		if value == name {
			return true
		}
	}
	return false
}

func validateISODate(fl validator.FieldLevel) bool {
	return dates.Valid(fl.Field().String())
}

func validateDueDateOrClear(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return strings.EqualFold(value, ClearDue) || dates.Valid(value)
}

func validateTaskStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case tasks.StatusNeedsAction, tasks.StatusCompleted:
		return true
	default:
		return false
	}
}

// Struct validates v and returns the first failure as an apperr
// validation error. Unknown render modes and time ranges keep their
// dedicated error types.
func Struct(v interface{}) error {
	err := Validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Validation("", "", err.Error(), "")
	}
	return convert(verrs[0])
}

func convert(fe validator.FieldError) error {
	field := fe.Field()
	value := ""
	if fe.Kind() == reflect.String {
		value = fmt.Sprint(fe.Value())
	}

	switch fe.Tag() {
	case "render_mode":
		return &render.InvalidFormatError{Value: value}
	case "time_range":
		return &timerange.InvalidRangeError{Value: value}
	case "required":
		return apperr.Validation(field, "", "is required", fmt.Sprintf("Provide a value for %s.", field))
	case "iso_date":
		return apperr.Validation(field, value, "not a valid date", "Use the YYYY-MM-DD format, e.g. 2024-02-15.")
	case "due_date_or_clear":
		return apperr.Validation(field, value, "not a valid date", "Use the YYYY-MM-DD format, or \"clear\" to remove the due date.")
	case "task_status":
		return apperr.Validation(field, value, "unknown status", "Use needsAction or completed.")
	case "min", "max", "gte", "lte":
		return bounds(fe, field, value)
	case "oneof":
		return apperr.Validation(field, value, "unsupported value", "Use one of: "+strings.ReplaceAll(fe.Param(), " ", ", ")+".")
	default:
		return apperr.Validation(field, value, fmt.Sprintf("failed the %q check", fe.Tag()), "")
	}
}

func bounds(fe validator.FieldError, field, value string) error {
	switch fe.Kind() {
	case reflect.String:
		if fe.Tag() == "min" || fe.Tag() == "gte" {
			if fe.Param() == "1" {
				return apperr.Validation(field, value, "must not be empty", fmt.Sprintf("Provide a non-empty %s.", field))
			}
			return apperr.Validation(field, value, "is too short", fmt.Sprintf("Use at least %s characters.", fe.Param()))
		}
		return apperr.Validation(field, truncate(value, 40), "is too long", fmt.Sprintf("Use at most %s characters.", fe.Param()))
	case reflect.Slice, reflect.Array:
		if fe.Tag() == "min" || fe.Tag() == "gte" {
			return apperr.Validation(field, "", "has too few items", fmt.Sprintf("Provide at least %s.", fe.Param()))
		}
		return apperr.Validation(field, "", "has too many items", fmt.Sprintf("Provide at most %s per call.", fe.Param()))
	default:
		got := fmt.Sprint(fe.Value())
		if fe.Tag() == "min" || fe.Tag() == "gte" {
			return apperr.Validation(field, got, "is out of range", fmt.Sprintf("Use a value of at least %s.", fe.Param()))
		}
		return apperr.Validation(field, got, "is out of range", fmt.Sprintf("Use a value of at most %s.", fe.Param()))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// SanitizeText trims whitespace and removes control characters except
// newline and tab.
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}
