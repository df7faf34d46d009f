package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	playground "github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string
	Message string
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var msgs []string
	for _, err := range v {
		msgs = append(msgs, err.Field+": "+err.Message)
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) ToMap() map[string]string {
	result := make(map[string]string)
	for _, err := range v {
		result[err.Field] = err.Message
	}
	return result
}

var (
	structValidator     *playground.Validate
	structValidatorOnce sync.Once
)

func engine() *playground.Validate {
	structValidatorOnce.Do(func() {
		v := playground.New(playground.WithRequiredStructEnabled())
		// Report fields by their json names
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("clock", func(fl playground.FieldLevel) bool {
			return fl.Field().String() == "" || IsValidClock(fl.Field().String())
		})
		_ = v.RegisterValidation("isodate", func(fl playground.FieldLevel) bool {
			_, ok := IsValidDate(fl.Field().String())
			return ok
		})
		structValidator = v
	})
	return structValidator
}

// Struct runs the `validate` struct tags on s and converts failures into ValidationErrors.
func Struct(s interface{}) error {
	err := engine().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs playground.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	errs := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, ValidationError{
			Field:   fieldPath(fe),
			Message: message(fe),
		})
	}
	return errs
}

// fieldPath drops the top-level struct name from the namespace ("Req.location.latitude").
func fieldPath(fe playground.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe playground.FieldError) string {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "clock":
		return field + " must be in HH:MM format"
	case "isodate":
		return field + " must be in YYYY-MM-DD format"
	case "uuid":
		return field + " must be a valid UUID"
	default:
		return fmt.Sprintf("%s failed on the '%s' rule", field, fe.Tag())
	}
}

// IsEmpty checks if a string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// UUIDv7 regex: version 7 (the 15th character must be '7'), all lowercase hex digits.
var uuidv7Regex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-7[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// UUIDv7 validation
func IsValidUUID(uuid string) bool {
	return uuidv7Regex.MatchString(strings.ToLower(uuid))
}

// Date validation
func IsValidDate(dateStr string) (time.Time, bool) {
	date, err := time.Parse("2006-01-02", dateStr)
	return date, err == nil
}

var clockRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// IsValidClock checks a 24h "HH:MM" time of day.
func IsValidClock(s string) bool {
	return clockRegex.MatchString(s)
}

// Slice contains check
func IsInSlice(value string, slice []string) bool {
	for _, item := range slice {
		if item == value {
			return true
		}
	}
	return false
}

// IsValidDateTime checks if a string is a valid ISO8601 timestamp.
// Accepts formats like: "2024-01-15T10:30:00Z" or "2024-01-15T10:30:00+07:00"
func IsValidDateTime(dateTimeStr string) (time.Time, bool) {
	// Try RFC3339 format (ISO8601 with timezone)
	t, err := time.Parse(time.RFC3339, dateTimeStr)
	if err == nil {
		return t, true
	}

	// Try RFC3339Nano format (with nanoseconds)
	t, err = time.Parse(time.RFC3339Nano, dateTimeStr)
	if err == nil {
		return t, true
	}

	return time.Time{}, false
}
